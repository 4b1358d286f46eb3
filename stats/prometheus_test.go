package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_ForwardsToInnerStore(t *testing.T) {
	inner := NewInMemoryStore(DefaultPrior())
	reg := prometheus.NewRegistry()
	recorder := NewPrometheusRecorder(inner, reg)

	require.NoError(t, recorder.RecordAttempt(BlockAttemptRecord{
		BlockName: "echo", BlockType: "atomic", Success: true, DurationMS: 5,
	}))

	est := recorder.Estimate(BlockStatsIdentity{BlockName: "echo", BlockType: "atomic"})
	require.Equal(t, 1, est.SampleSize)

	metrics, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, metrics)
}
