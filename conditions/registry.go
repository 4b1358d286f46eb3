// Package conditions implements the Condition Registry: a name-to-predicate
// map the composite graph interpreter resolves transition branches against.
package conditions

import (
	"sync"

	"github.com/blockmind/engine/block"
)

// Registry is a process-wide-capable name -> predicate map. The zero value
// is not usable; construct with New.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]block.ConditionFunc
}

// defaultPredicate is the built-in "default" condition: always matches, used
// as the catch-all final branch in a transition list.
func defaultPredicate(*block.Response) bool { return true }

// New builds a Registry pre-seeded with the "default" predicate.
func New() *Registry {
	r := &Registry{fns: map[string]block.ConditionFunc{}}
	r.seed()
	return r
}

func (r *Registry) seed() {
	r.fns["default"] = defaultPredicate
}

// Register adds or replaces the condition under name.
func (r *Registry) Register(name string, fn block.ConditionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[name] = fn
}

// Resolve implements block.ConditionResolver.
func (r *Registry) Resolve(name string) (block.ConditionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fns[name]
	return fn, ok
}

// Clear removes all user-registered conditions and re-seeds the built-in
// "default" predicate, matching the Repair Registry's reset contract used by
// tests.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns = map[string]block.ConditionFunc{}
	r.seed()
}

var _ block.ConditionResolver = (*Registry)(nil)

// Default is the process-wide registry most callers wire into a BlockCore.
var Default = New()
