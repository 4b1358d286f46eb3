// Package llm implements the LLM Primitive: the representative atomic Block
// that adapts a structured-output executor, normalizes its errors into the
// engine's flat error-kind taxonomy, and reports usage into the stats store.
package llm

// Status is the structured-output executor's outcome tag.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusSemanticError  Status = "semantic_error"
	StatusMechanicalError Status = "mechanical_error"
	StatusCapacityError  Status = "capacity_error"
	StatusConfigError    Status = "config_error"
	StatusBudgetError    Status = "budget_error"
)

// Message is one entry of the [system, user] message list sent to the
// executor.
type Message struct {
	Role    string
	Content string
}

// Usage reports request/token counts an executor observed for one call.
type Usage struct {
	Requests     int
	InputTokens  int
	OutputTokens int
}

// LLMRequest is what the LLM Primitive hands to the structured-output
// executor: messages, the declared output schema, model/temperature, and
// correlation fields the executor should echo back in its response.
type LLMRequest struct {
	Messages     []Message
	Schema       interface{}
	Model        string
	Temperature  float64
	ExecutionID  string
	Attempt      int
	Metadata     map[string]interface{}
	APIBase      string
	APIKey       string
}

// LLMResponse is the executor's reply: on success Data holds the parsed,
// schema-validated output; on failure Reason/ErrorDetails describe what
// went wrong and Status classifies it.
type LLMResponse struct {
	Status        Status
	Data          map[string]interface{}
	Usage         *Usage
	Reason        string
	ErrorDetails  map[string]interface{}
	HTTPStatus    int
	Model         string
	RetryCount    int
}

// Executor is the structured-output executor interface the LLM Primitive
// consumes. It is responsible for its own schema-validation retries: the
// Primitive invokes it exactly once per block attempt.
type Executor interface {
	Execute(req LLMRequest) LLMResponse
}
