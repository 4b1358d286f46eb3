package llm

import (
	"fmt"

	"github.com/blockmind/engine/stats"
)

// EstimateExecution returns the Estimate a caller should plan against before
// running this block, per §4.8. Until the stats store holds samples for this
// block's identity (or when no store is configured) it returns the LLM
// cold-start prior: 750±400 ms, 0.01±0.02 USD, one LLM call. Once samples
// exist, the store's stats-backed Estimate takes over entirely --- mirroring
// the original's _build_prior_estimate deferring to
// self._stats_adapter.estimate(identity, request, prior) rather than ever
// trusting a static guess once data exists. Either way the input/output
// tokens approximated from prompt length are appended as a note.
func (p *Primitive) EstimateExecution(prompt string) stats.Estimate {
	inputTokens, outputTokens := PromptTokenEstimate(prompt)
	tokenNote := fmt.Sprintf("estimated_input_tokens=%d estimated_output_tokens=%d", inputTokens, outputTokens)

	if p.BlockCore.Stats != nil {
		est := p.BlockCore.Stats.Estimate(p.StatsIdentity())
		if est.SampleSize > 0 {
			est.Notes = append(est.Notes, tokenNote)
			return est
		}
	}

	return stats.Estimate{
		Identity:                p.StatsIdentity(),
		Source:                  stats.SourcePrior,
		Confidence:              stats.ConfidenceLow,
		MeanDurationMS:          750,
		StdDurationMS:           400,
		MeanCostUSD:             0.01,
		StdCostUSD:              0.02,
		ExpectedLLMCalls:        1,
		ExpectedBlockExecutions: 1,
		Notes:                   []string{tokenNote},
	}
}

// PromptTokenEstimate approximates input token count from prompt length
// (~4 chars/token) and returns the default output-token assumption used to
// seed EstimateExecution's cold-start notes.
func PromptTokenEstimate(prompt string) (inputTokens, outputTokens int) {
	inputTokens = len(prompt) / 4
	outputTokens = 256
	return
}
