package block

import "time"

// RecoveryPolicy is a tagged union over {Retry, Repair, Debug, Bubble}. Go
// has no sum types, so each variant is its own struct implementing the
// unexported isRecoveryPolicy marker --- callers type-switch on the
// concrete type rather than inspecting a Kind field, keeping the variants
// exhaustive-checkable by `go vet`'s switch analysis.
type RecoveryPolicy interface {
	isRecoveryPolicy()
}

// RetryPolicy re-runs the child up to MaxAttempts times (inclusive of the
// first attempt), sleeping Delay between attempts when positive. Only valid
// against a child whose side-effect class is none or idempotent.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

func (RetryPolicy) isRecoveryPolicy() {}

// RepairPolicy looks up RepairFunctionName in the Repair Registry and
// applies it to the failing request/response pair before the next attempt.
type RepairPolicy struct {
	RepairFunctionName string
}

func (RepairPolicy) isRecoveryPolicy() {}

// DebugPolicy halts the enclosing composite immediately with a
// debug_breakpoint_hit failure wrapping the original response. When Hook is
// non-nil, the recovery loop calls it with the last child request and the
// failing response before halting; it cannot change the outcome.
type DebugPolicy struct {
	Hook func(req *Request, resp *Response)
}

func (DebugPolicy) isRecoveryPolicy() {}

// BubblePolicy is always terminal: the recovery loop returns the current
// response unchanged.
type BubblePolicy struct{}

func (BubblePolicy) isRecoveryPolicy() {}

// DefaultPolicyStack is what a Block returns from GetPolicyStack when it
// has not overridden recovery behavior: fail once, propagate.
func DefaultPolicyStack() []RecoveryPolicy {
	return []RecoveryPolicy{BubblePolicy{}}
}
