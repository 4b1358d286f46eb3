package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIdentity() BlockStatsIdentity {
	return BlockStatsIdentity{BlockName: "echo", BlockType: "atomic"}
}

func TestInMemoryStore_ColdStartReturnsPrior(t *testing.T) {
	store := NewInMemoryStore(DefaultPrior())
	est := store.Estimate(testIdentity())

	assert.Equal(t, SourcePrior, est.Source)
	assert.Equal(t, ConfidenceLow, est.Confidence)
	assert.Equal(t, 0, est.SampleSize)
	assert.Equal(t, 750.0, est.MeanDurationMS)
}

func TestInMemoryStore_OneRecordSwitchesToStats(t *testing.T) {
	store := NewInMemoryStore(DefaultPrior())
	id := testIdentity()

	require.NoError(t, store.RecordAttempt(BlockAttemptRecord{
		TraceID: "t", RunID: "r", SpanID: "s",
		BlockName: id.BlockName, BlockType: id.BlockType,
		Attempt: 1, Success: true, DurationMS: 12.5,
	}))

	est := store.Estimate(id)
	assert.Equal(t, SourceStats, est.Source)
	assert.Equal(t, 1, est.SampleSize)
	assert.Equal(t, 12.5, est.MeanDurationMS)
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryStore_EstimateIsolatesByIdentity(t *testing.T) {
	store := NewInMemoryStore(DefaultPrior())

	require.NoError(t, store.RecordAttempt(BlockAttemptRecord{
		BlockName: "a", BlockType: "atomic", DurationMS: 10, Success: true,
	}))
	require.NoError(t, store.RecordAttempt(BlockAttemptRecord{
		BlockName: "b", BlockType: "atomic", DurationMS: 999, Success: true,
	}))

	estA := store.Estimate(BlockStatsIdentity{BlockName: "a", BlockType: "atomic"})
	assert.Equal(t, 1, estA.SampleSize)
	assert.Equal(t, 10.0, estA.MeanDurationMS)
}

func TestInMemoryStore_FallsBackToPriorForMissingFields(t *testing.T) {
	store := NewInMemoryStore(DefaultPrior())
	id := testIdentity()

	require.NoError(t, store.RecordAttempt(BlockAttemptRecord{
		BlockName: id.BlockName, BlockType: id.BlockType, DurationMS: 5, Success: true,
	}))

	est := store.Estimate(id)
	assert.Contains(t, est.Notes, "cost_usd_fell_back_to_prior")
	assert.Contains(t, est.Notes, "expected_llm_calls_fell_back_to_prior")
}

func TestConfidenceFor(t *testing.T) {
	assert.Equal(t, ConfidenceLow, confidenceFor(0))
	assert.Equal(t, ConfidenceLow, confidenceFor(4))
	assert.Equal(t, ConfidenceMedium, confidenceFor(5))
	assert.Equal(t, ConfidenceMedium, confidenceFor(19))
	assert.Equal(t, ConfidenceHigh, confidenceFor(20))
	assert.Equal(t, ConfidenceHigh, confidenceFor(1000))
}
