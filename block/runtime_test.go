package block

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockmind/engine/internal/config"
	"github.com/blockmind/engine/stats"
)

func sampleAttemptRecord() stats.BlockAttemptRecord {
	return stats.BlockAttemptRecord{
		BlockName: "greeter", BlockType: "atomic", Attempt: 1, Success: true, DurationMS: 5,
	}
}

func TestNewRuntime_DefaultsToInMemoryStats(t *testing.T) {
	cfg := config.DefaultConfig()
	rt, err := NewRuntime(cfg, "test-service")
	require.NoError(t, err)
	require.NotNil(t, rt.Stats)
	require.NotNil(t, rt.Logger)
	require.NotNil(t, rt.Tracer)
	require.IsType(t, &stats.InMemoryStore{}, rt.Stats)

	require.NoError(t, rt.Stats.RecordAttempt(sampleAttemptRecord()))
}

func TestNewRuntime_StatsJournalPathUsesJSONStore(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StatsJournalPath = filepath.Join(t.TempDir(), "journal.jsonl")

	rt, err := NewRuntime(cfg, "test-service")
	require.NoError(t, err)
	require.IsType(t, &stats.JSONStore{}, rt.Stats)
	require.NoError(t, rt.Stats.RecordAttempt(sampleAttemptRecord()))
}

func TestRuntime_NewBlockCoreWiresStatsLoggerTracer(t *testing.T) {
	cfg := config.DefaultConfig()
	rt, err := NewRuntime(cfg, "test-service")
	require.NoError(t, err)

	b := rt.NewBlockCore("greeter", "atomic", SideEffectNone)
	assert.Same(t, rt.Stats, b.Stats)
	assert.Same(t, rt.Logger, b.Logger)
	assert.Same(t, rt.Tracer, b.Tracer)
	assert.Equal(t, rt.Sanitizer, b.Sanitizer)

	b.Primitive = func(req *Request) *Response { return NewSuccess(req.Payload) }
	resp := b.Execute(NewRequest(map[string]interface{}{"x": 1}, nil, nil))
	assert.True(t, resp.Success)
}

func TestRuntime_DefaultRetryPolicyStackSizedFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DefaultRetryMaxAttempts = 5
	rt, err := NewRuntime(cfg, "test-service")
	require.NoError(t, err)

	stack := rt.DefaultRetryPolicyStack(InternalError)
	require.Len(t, stack, 2)
	retry, ok := stack[0].(RetryPolicy)
	require.True(t, ok)
	assert.Equal(t, 5, retry.MaxAttempts)
}

func TestRuntime_DefaultMaxStepsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DefaultMaxSteps = 42
	rt, err := NewRuntime(cfg, "test-service")
	require.NoError(t, err)
	assert.Equal(t, 42, rt.DefaultMaxSteps())
}

func TestRuntime_SanitizerLimitsFromConfigApplyOnFailure(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SanitizerMaxStringLen = 10
	rt, err := NewRuntime(cfg, "test-service")
	require.NoError(t, err)

	b := rt.NewBlockCore("failer", "atomic", SideEffectNone)
	b.Primitive = func(req *Request) *Response {
		return NewFailure(InternalError, "boom", map[string]interface{}{
			"detail": "this value is much longer than ten characters",
		})
	}

	resp := b.Execute(NewRequest(nil, nil, nil))
	require.False(t, resp.Success)
	assert.Equal(t, "this value...[truncated]", resp.Details["detail"])
}
