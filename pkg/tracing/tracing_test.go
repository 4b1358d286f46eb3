package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_NoneExporterIsNoOp(t *testing.T) {
	p, err := NewProvider("engine-test", ExporterNone)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_StdoutExporter(t *testing.T) {
	p, err := NewProvider("engine-test", ExporterStdout)
	require.NoError(t, err)
	require.NotNil(t, p)
	defer p.Shutdown(context.Background())

	ctx, span := p.StartBlockSpan(context.Background(), "echo", "trace-1", "run-1", "span-1", "", 1)
	require.NotNil(t, ctx)
	RecordOutcome(span, true, "")
}

func TestNewProvider_EmptyServiceNameRejected(t *testing.T) {
	_, err := NewProvider("", ExporterNone)
	require.Error(t, err)
}

func TestNewProvider_UnknownExporterRejected(t *testing.T) {
	_, err := NewProvider("svc", Exporter("bogus"))
	require.Error(t, err)
}

func TestNewProvider_OTLPExporterDialsLazily(t *testing.T) {
	// otlptracegrpc.New doesn't block on a live connection, so this succeeds
	// even with no collector listening at the default endpoint; export
	// failures only surface later, from the batch span processor.
	p, err := NewProvider("engine-test", ExporterOTLP)
	require.NoError(t, err)
	require.NotNil(t, p)
	defer p.Shutdown(context.Background())

	ctx, span := p.StartBlockSpan(context.Background(), "echo", "trace-1", "run-1", "span-1", "", 1)
	require.NotNil(t, ctx)
	RecordOutcome(span, true, "")
}

func TestRecordOutcome_Failure(t *testing.T) {
	p, err := NewProvider("engine-test", ExporterNone)
	require.NoError(t, err)
	_, span := p.StartBlockSpan(context.Background(), "echo", "t", "r", "s", "", 2)
	RecordOutcome(span, false, "schema_error")
	assert.NotNil(t, span)
}
