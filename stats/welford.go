package stats

import "math"

// runningStat accumulates mean/variance with Welford's one-pass algorithm,
// avoiding the numerical instability of a naive sum-of-squares approach over
// a long-lived journal.
type runningStat struct {
	count int
	mean  float64
	m2    float64
}

func (r *runningStat) add(x float64) {
	r.count++
	delta := x - r.mean
	r.mean += delta / float64(r.count)
	delta2 := x - r.mean
	r.m2 += delta * delta2
}

func (r *runningStat) std() float64 {
	if r.count < 2 {
		return 0
	}
	return math.Sqrt(r.m2 / float64(r.count-1))
}

// confidenceFor maps a sample size to the spec's three-tier confidence
// buckets: >=20 high, >=5 medium, else low.
func confidenceFor(sampleSize int) Confidence {
	switch {
	case sampleSize >= 20:
		return ConfidenceHigh
	case sampleSize >= 5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// buildEstimate computes an Estimate from the matching records for one
// identity, falling back field-by-field to prior when a record field was
// never observed (e.g. cost_usd on non-LLM blocks).
func buildEstimate(identity BlockStatsIdentity, records []BlockAttemptRecord, prior Prior) Estimate {
	if len(records) == 0 {
		return Estimate{
			Identity:                identity,
			Source:                  SourcePrior,
			Confidence:              ConfidenceLow,
			SampleSize:              0,
			MeanDurationMS:          prior.MeanDurationMS,
			StdDurationMS:           prior.StdDurationMS,
			MeanCostUSD:             prior.MeanCostUSD,
			StdCostUSD:              prior.StdCostUSD,
			ExpectedLLMCalls:        prior.ExpectedLLMCalls,
			ExpectedBlockExecutions: prior.ExpectedBlockExecutions,
		}
	}

	var duration, cost, llmCalls, blockExecs runningStat
	costSeen, llmSeen, execSeen := 0, 0, 0

	for _, r := range records {
		duration.add(r.DurationMS)
		if r.CostUSD != nil {
			cost.add(*r.CostUSD)
			costSeen++
		}
		if r.LLMCalls != nil {
			llmCalls.add(float64(*r.LLMCalls))
			llmSeen++
		}
		if r.BlockExecutions != nil {
			blockExecs.add(float64(*r.BlockExecutions))
			execSeen++
		}
	}

	est := Estimate{
		Identity:       identity,
		Source:         SourceStats,
		Confidence:     confidenceFor(len(records)),
		SampleSize:     len(records),
		MeanDurationMS: duration.mean,
		StdDurationMS:  duration.std(),
	}

	var notes []string

	if costSeen > 0 {
		est.MeanCostUSD = cost.mean
		est.StdCostUSD = cost.std()
	} else {
		est.MeanCostUSD = prior.MeanCostUSD
		est.StdCostUSD = prior.StdCostUSD
		notes = append(notes, "cost_usd_fell_back_to_prior")
	}

	if llmSeen > 0 {
		est.ExpectedLLMCalls = llmCalls.mean
	} else {
		est.ExpectedLLMCalls = prior.ExpectedLLMCalls
		notes = append(notes, "expected_llm_calls_fell_back_to_prior")
	}

	if execSeen > 0 {
		est.ExpectedBlockExecutions = blockExecs.mean
	} else {
		est.ExpectedBlockExecutions = prior.ExpectedBlockExecutions
		notes = append(notes, "expected_block_executions_fell_back_to_prior")
	}

	est.Notes = notes
	return est
}
