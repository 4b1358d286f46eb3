package stats

import "sync"

// InMemoryStore keeps an append-only slice of records plus a secondary index
// keyed by BlockStatsIdentity, so Estimate never has to scan the whole log.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []BlockAttemptRecord
	index   map[BlockStatsIdentity][]int
	prior   Prior
}

// NewInMemoryStore creates an empty in-memory store. prior seeds the
// cold-start Estimate returned before any record exists for an identity.
func NewInMemoryStore(prior Prior) *InMemoryStore {
	return &InMemoryStore{
		index: make(map[BlockStatsIdentity][]int),
		prior: prior,
	}
}

// RecordAttempt appends a record and indexes it by identity. Never returns
// an error --- the in-memory store has no I/O to fail on.
func (s *InMemoryStore) RecordAttempt(record BlockAttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	idx := len(s.records) - 1
	id := record.Identity()
	s.index[id] = append(s.index[id], idx)
	return nil
}

// Estimate returns the cold-start prior when no record matches identity, or
// a stats-backed Estimate computed over the matching records otherwise.
func (s *InMemoryStore) Estimate(identity BlockStatsIdentity) Estimate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	indices := s.index[identity]
	if len(indices) == 0 {
		return buildEstimate(identity, nil, s.prior)
	}

	matching := make([]BlockAttemptRecord, len(indices))
	for i, idx := range indices {
		matching[i] = s.records[idx]
	}
	return buildEstimate(identity, matching, s.prior)
}

// Len returns the number of records currently held, mostly useful for tests.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ Store = (*InMemoryStore)(nil)
