package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockmind/engine/block"
	"github.com/blockmind/engine/internal/config"
	"github.com/blockmind/engine/stats"
)

func TestPromptTokenEstimate_ApproximatesFourCharsPerToken(t *testing.T) {
	in, out := PromptTokenEstimate("a prompt that is twenty chars")
	assert.Equal(t, len("a prompt that is twenty chars")/4, in)
	assert.Equal(t, 256, out)
}

func TestEstimateExecution_NoStatsFallsBackToColdStartPrior(t *testing.T) {
	p := New("answer_block", "system", nil, "gpt-x", 0.2, &stubExecutor{})

	est := p.EstimateExecution("short prompt")
	assert.Equal(t, stats.SourcePrior, est.Source)
	assert.Equal(t, stats.ConfidenceLow, est.Confidence)
	require.NotEmpty(t, est.Notes)
	assert.Contains(t, est.Notes[len(est.Notes)-1], "estimated_input_tokens=")
}

func TestEstimateExecution_DelegatesToStatsStoreOnceSamplesExist(t *testing.T) {
	rt, err := block.NewRuntime(config.DefaultConfig(), "llm-test")
	require.NoError(t, err)

	p := New("answer_block", "system", nil, "gpt-x", 0.2, &stubExecutor{}, WithRuntime(rt))

	for i := 0; i < 10; i++ {
		require.NoError(t, rt.Stats.RecordAttempt(stats.BlockAttemptRecord{
			BlockName: p.Name(), BlockType: p.BlockType(), Attempt: 1, Success: true, DurationMS: 120,
		}))
	}

	est := p.EstimateExecution("a longer prompt used once stats exist")
	assert.Equal(t, stats.SourceStats, est.Source)
	assert.Equal(t, 10, est.SampleSize)
	require.NotEmpty(t, est.Notes)
	assert.Contains(t, est.Notes[len(est.Notes)-1], "estimated_input_tokens=")
}
