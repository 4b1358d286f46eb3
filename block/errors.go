package block

import "fmt"

// ErrorKind is the flat reason/error_type taxonomy every failure Response is
// tagged with. It is a tagged label, not a Go error hierarchy --- consumers
// switch on it directly.
type ErrorKind string

const (
	SchemaError              ErrorKind = "schema_error"
	RateLimitError           ErrorKind = "rate_limit_error"
	APIKeyError              ErrorKind = "api_key_error"
	ContextLengthError       ErrorKind = "context_length_error"
	InvalidPayload           ErrorKind = "invalid_payload"
	InternalError            ErrorKind = "internal_error"
	UnsafeToRetry            ErrorKind = "unsafe_to_retry"
	InvalidGraph             ErrorKind = "invalid_graph"
	UnknownNode              ErrorKind = "unknown_node"
	MaxStepsExceeded         ErrorKind = "max_steps_exceeded"
	NoTransition             ErrorKind = "no_transition"
	ConditionResolutionError ErrorKind = "condition_resolution_error"
	ConditionExecutionError  ErrorKind = "condition_execution_error"
	RepairExecutionFailed    ErrorKind = "repair_execution_failed"
	DebugBreakpointHit       ErrorKind = "debug_breakpoint_hit"
	LLMExecutionFailed       ErrorKind = "llm_execution_failed"
)

// BlockError is the Go realization of a block's flat reason/error_type pair,
// grounded on the teacher's core.FrameworkError (Op/Kind/Err wrapping) and
// core.ToolError (Category/Retryable/Details). It implements error so a
// helper called from inside a primitive hook can signal failure through
// Go's usual error channel and let FailureFromErr turn it back into a
// Response, instead of every call site building a failure Response by hand
// (see llm.coercePrompt for the pattern).
type BlockError struct {
	Reason  string
	Kind    ErrorKind
	Details map[string]interface{}
}

func (e *BlockError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return string(e.Kind)
}

// NewBlockError builds a BlockError whose Reason defaults to the kind's
// string form when reason is empty.
func NewBlockError(kind ErrorKind, reason string, details map[string]interface{}) *BlockError {
	if reason == "" {
		reason = string(kind)
	}
	return &BlockError{Reason: reason, Kind: kind, Details: details}
}
