// Package repairs implements the Repair Registry: a name-to-transform map
// the recovery loop consults when a child's policy stack includes a Repair
// step.
package repairs

import (
	"fmt"
	"sync"

	"github.com/blockmind/engine/block"
)

const validationFeedbackMessage = "The previous response failed validation. Please correct the output to satisfy the following error and try again"

// Registry is a name -> RepairFunc map, always carrying the built-in
// add_validation_feedback repair --- Clear re-seeds it, matching the
// registry reset contract tests rely on.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]block.RepairFunc
}

// New builds a Registry pre-seeded with add_validation_feedback.
func New() *Registry {
	r := &Registry{fns: map[string]block.RepairFunc{}}
	r.seed()
	return r
}

func (r *Registry) seed() {
	r.fns["add_validation_feedback"] = addValidationFeedback
}

// Register adds or replaces the repair function under name.
func (r *Registry) Register(name string, fn block.RepairFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[name] = fn
}

// Resolve implements block.RepairResolver.
func (r *Registry) Resolve(name string) (block.RepairFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fns[name]
	return fn, ok
}

// Clear removes all user-registered repairs and re-seeds the built-in
// add_validation_feedback.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns = map[string]block.RepairFunc{}
	r.seed()
}

var _ block.RepairResolver = (*Registry)(nil)

// Default is the process-wide registry most callers wire into a BlockCore.
var Default = New()

// addValidationFeedback appends the prior failure's error message to the
// original prompt (if any) and carries the request's metadata/context
// forward unchanged. It never mutates req.
func addValidationFeedback(req *block.Request, resp *block.Response) *block.Request {
	clone := req.Clone()

	var validationErr string
	if resp != nil && resp.Details != nil {
		if v, ok := resp.Details["error"].(string); ok {
			validationErr = v
		}
	}

	prompt, _ := clone.Payload["prompt"].(string)
	feedback := fmt.Sprintf("%s: %s", validationFeedbackMessage, validationErr)
	if prompt != "" {
		clone.Payload["prompt"] = prompt + "\n\n" + feedback
	} else {
		clone.Payload["prompt"] = feedback
	}
	return clone
}
