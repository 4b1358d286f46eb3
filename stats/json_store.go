package stats

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/blockmind/engine/pkg/logging"
)

// JSONStore persists attempt records as a newline-delimited JSON journal on
// disk, with retention (max record count) and compaction (max file size)
// applied after every write. A zero maxRecords or maxFileBytes disables the
// corresponding ceiling --- see SPEC_FULL.md §9(c).
type JSONStore struct {
	mu           sync.Mutex
	path         string
	maxRecords   int
	maxFileBytes int64
	records      []BlockAttemptRecord
	index        map[BlockStatsIdentity][]int
	prior        Prior
	logger       logging.Logger
}

// NewJSONStore opens (or creates) the journal at path and loads any existing
// records into memory.
func NewJSONStore(path string, maxRecords int, maxFileBytes int64, prior Prior, logger logging.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	s := &JSONStore{
		path:         path,
		maxRecords:   maxRecords,
		maxFileBytes: maxFileBytes,
		index:        make(map[BlockStatsIdentity][]int),
		prior:        prior,
		logger:       logger,
	}

	records, err := loadJournal(path, logger)
	if err != nil {
		return nil, fmt.Errorf("stats: load journal %s: %w", path, err)
	}
	s.records = records
	s.rebuildIndex()
	return s, nil
}

func (s *JSONStore) rebuildIndex() {
	s.index = make(map[BlockStatsIdentity][]int, len(s.records))
	for i, r := range s.records {
		id := r.Identity()
		s.index[id] = append(s.index[id], i)
	}
}

// loadJournal detects the on-disk format by peeking the first non-whitespace
// byte: '[' means the legacy top-level JSON list (read-only, never written
// again); anything else is treated as JSONL, one object per line.
// Unparseable lines are logged and skipped rather than failing the whole
// load.
func loadJournal(path string, logger logging.Logger) ([]BlockAttemptRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var records []BlockAttemptRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("legacy list journal is not a JSON array: %w", err)
		}
		return records, nil
	}

	var records []BlockAttemptRecord
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec BlockAttemptRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			logger.Warn("stats: skipping unparseable journal line", map[string]interface{}{
				"path": path,
				"line": lineNo,
				"error": err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// RecordAttempt appends one JSON line, applies retention, and compacts the
// file when retention trimmed anything or the file has grown past
// maxFileBytes.
func (s *JSONStore) RecordAttempt(record BlockAttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	trimmed := s.applyRetention()
	s.rebuildIndex()

	if trimmed {
		if err := s.compact(); err != nil {
			return err
		}
		return nil
	}

	if err := appendLine(s.path, record); err != nil {
		return err
	}
	s.tightenPermissions()

	if s.maxFileBytes > 0 {
		if size, err := fileSize(s.path); err == nil && size > s.maxFileBytes {
			return s.compact()
		}
	}
	return nil
}

// applyRetention trims the in-memory slice to the last maxRecords entries.
// Returns true if anything was trimmed.
func (s *JSONStore) applyRetention() bool {
	if s.maxRecords <= 0 {
		return false
	}
	if len(s.records) <= s.maxRecords {
		return false
	}
	s.records = append([]BlockAttemptRecord(nil), s.records[len(s.records)-s.maxRecords:]...)
	return true
}

func (s *JSONStore) compact() error {
	if err := rewriteJournal(s.path, s.records); err != nil {
		return err
	}
	s.tightenPermissions()
	return nil
}

func (s *JSONStore) tightenPermissions() {
	if err := os.Chmod(s.path, 0o600); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("stats: failed to tighten journal permissions", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
	}
}

func appendLine(path string, record BlockAttemptRecord) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("stats: open journal for append: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("stats: marshal record: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("stats: write journal line: %w", err)
	}
	return nil
}

func rewriteJournal(path string, records []BlockAttemptRecord) error {
	var buf bytes.Buffer
	for _, r := range records {
		line, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("stats: marshal record during compaction: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("stats: write compacted journal: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("stats: replace journal with compacted copy: %w", err)
	}
	return nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Estimate returns the cold-start prior when no record matches identity, or
// a stats-backed Estimate otherwise.
func (s *JSONStore) Estimate(identity BlockStatsIdentity) Estimate {
	s.mu.Lock()
	defer s.mu.Unlock()

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

// Len returns the number of records currently held in memory.
func (s *JSONStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

var _ Store = (*JSONStore)(nil)
