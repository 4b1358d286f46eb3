package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewZapLogger_JSONAndText(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatText, Format("")} {
		l, err := NewZapLogger("debug", format)
		require.NoError(t, err)
		require.NotNil(t, l)

		l.Info("hello", map[string]interface{}{"k": "v"})
		l.Debug("hello", nil)
		l.Warn("hello", nil)
		l.Error("hello", nil)
		l.InfoWithContext(context.Background(), "hello", nil)
	}
}

func TestZapLogger_WithComponent(t *testing.T) {
	l, err := NewZapLogger("info", FormatJSON)
	require.NoError(t, err)

	scoped := l.WithComponent("block/llm")
	require.NotNil(t, scoped)
	scoped.Info("scoped message", map[string]interface{}{"attempt": 1})
}

func TestParseLevel(t *testing.T) {
	cases := map[string]bool{"debug": true, "warn": true, "warning": true, "error": true, "info": true, "bogus": true}
	for level := range cases {
		_, err := NewZapLogger(level, FormatJSON)
		require.NoError(t, err)
	}
}
