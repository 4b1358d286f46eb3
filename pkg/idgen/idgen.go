// Package idgen provides the process-wide id factory used to stamp every
// Request and Response with a unique envelope id. Tests that need
// deterministic ids can override the factory and reset it afterward.
package idgen

import (
	"sync"

	"github.com/google/uuid"
)

// Factory produces a new unique id string.
type Factory func() string

var (
	mu      sync.RWMutex
	factory Factory = defaultFactory
)

func defaultFactory() string {
	return uuid.New().String()
}

// New mints a new id using the currently configured factory.
func New() string {
	mu.RLock()
	f := factory
	mu.RUnlock()
	return f()
}

// SetFactory overrides the process-wide id factory. Primarily used by tests
// that need deterministic, reproducible ids.
func SetFactory(f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		factory = defaultFactory
		return
	}
	factory = f
}

// Reset restores the default UUIDv4-backed factory.
func Reset() {
	SetFactory(nil)
}
