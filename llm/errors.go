package llm

import (
	"strings"

	"github.com/blockmind/engine/block"
)

// classifyFailure maps an executor's status/reason/HTTP signal into the
// engine's flat (reason, error_type) pair per the upstream-signal table:
// validation/schema failures, 429/rate-limit wording, 401/403 or
// API-key/authentication wording, 400 with context-length wording, and a
// catch-all llm_execution_failed.
func classifyFailure(resp LLMResponse) (reason string, kind block.ErrorKind) {
	msg := strings.ToLower(resp.Reason)

	switch {
	case resp.Status == StatusSemanticError:
		return "schema_error", block.SchemaError

	case resp.HTTPStatus == 429 || strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate-limit"):
		return "rate_limit_error", block.RateLimitError

	case resp.HTTPStatus == 401 || resp.HTTPStatus == 403 ||
		strings.Contains(msg, "api key") || strings.Contains(msg, "authentication"):
		return "api_key_error", block.APIKeyError

	case resp.HTTPStatus == 400 && (strings.Contains(msg, "context length") || strings.Contains(msg, "context_length") || strings.Contains(msg, "maximum context")):
		return "context_length_error", block.ContextLengthError

	default:
		return "llm_execution_failed", block.LLMExecutionFailed
	}
}
