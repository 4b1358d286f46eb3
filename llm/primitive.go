package llm

import (
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/blockmind/engine/block"
	"github.com/blockmind/engine/pkg/idgen"
)

// Primitive is the LLM Primitive atomic block: it embeds *block.BlockCore
// for the generic execute/stats/correlation machinery and supplies the
// _execute_primitive hook described in §4.8.
type Primitive struct {
	*block.BlockCore

	systemPrompt string
	schema       interface{}
	model        string
	temperature  float64
	executor     Executor
	apiBase      string
	apiKey       string

	validate *validator.Validate
}

var _ block.Block = (*Primitive)(nil)

// Option configures a Primitive at construction.
type Option func(*Primitive)

// WithAPICredentials sets the api_base/api_key resolved for this block
// (direct path); a proxy deployment may instead leave these empty and rely
// on the executor's own resolution.
func WithAPICredentials(apiBase, apiKey string) Option {
	return func(p *Primitive) {
		p.apiBase = apiBase
		p.apiKey = apiKey
	}
}

// WithRuntime wires the embedded BlockCore's Stats/Logger/Tracer from a
// shared block.Runtime, so an LLM Primitive's attempts land in the same
// journal/log/tracer as every other block the host builds through that
// Runtime. Applied before New installs the schema_error-aware policy stack,
// so that override always wins over the Runtime's own default.
func WithRuntime(rt *block.Runtime) Option {
	return func(p *Primitive) {
		p.BlockCore.Stats = rt.Stats
		p.BlockCore.Logger = rt.Logger
		p.BlockCore.Tracer = rt.Tracer
		p.BlockCore.Sanitizer = rt.Sanitizer
	}
}

// New builds an LLM Primitive block. side_effect_class is always idempotent
// per §4.8: re-running a structured-output request is assumed safe to
// retry/repair.
func New(name, systemPrompt string, schema interface{}, model string, temperature float64, executor Executor, opts ...Option) *Primitive {
	p := &Primitive{
		BlockCore:    block.NewBlockCore(name, "llm_primitive", block.SideEffectIdempotent),
		systemPrompt: systemPrompt,
		schema:       schema,
		model:        model,
		temperature:  temperature,
		executor:     executor,
		validate:     validator.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.BlockCore.Primitive = p.executePrimitive
	p.BlockCore.SetPolicyStackFunc(p.defaultPolicyStack)
	return p
}

// defaultPolicyStack matches §8 scenario 7: schema errors get two repair
// attempts guarded by a retry, anything else bubbles immediately.
func (p *Primitive) defaultPolicyStack(kind block.ErrorKind) []block.RecoveryPolicy {
	if kind == block.SchemaError {
		return []block.RecoveryPolicy{
			block.RetryPolicy{MaxAttempts: 2},
			block.RepairPolicy{RepairFunctionName: "add_validation_feedback"},
			block.RepairPolicy{RepairFunctionName: "add_validation_feedback"},
			block.BubblePolicy{},
		}
	}
	return block.DefaultPolicyStack()
}

func (p *Primitive) executePrimitive(req *block.Request) *block.Response {
	prompt, coerceErr := coercePrompt(req.Payload)
	if coerceErr != nil {
		return block.FailureFromErr(coerceErr)
	}

	if target, ok := req.Context["validated_target"]; ok {
		if err := p.validate.Struct(target); err != nil {
			return block.NewFailure(block.SchemaError, "struct validation failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	executionID := fmt.Sprintf("%s-%s", p.Name(), shortHex())
	attempt := intFromMeta(req.Metadata, block.MetaAttempt)

	llmReq := LLMRequest{
		Messages: []Message{
			{Role: "system", Content: p.systemPrompt},
			{Role: "user", Content: prompt},
		},
		Schema:      p.schema,
		Model:       p.model,
		Temperature: p.temperature,
		ExecutionID: executionID,
		Attempt:     attempt,
		Metadata:    req.Metadata,
		APIBase:     p.apiBase,
		APIKey:      p.apiKey,
	}

	llmResp := p.executor.Execute(llmReq)

	if llmResp.Status == StatusSuccess {
		return p.successResponse(llmResp, executionID, attempt)
	}
	return p.failureResponse(llmResp, executionID, attempt)
}

func (p *Primitive) successResponse(llmResp LLMResponse, executionID string, attempt int) *block.Response {
	resp := block.NewSuccess(anyMap(llmResp.Data))
	model := llmResp.Model
	if model == "" {
		model = p.model
	}
	resp.Metadata["model"] = model
	resp.Metadata["llm.execution_id"] = executionID
	resp.Metadata["llm.attempt"] = attempt
	resp.Metadata["block_executions"] = 1
	if llmResp.Usage != nil {
		resp.Metadata["llm_usage"] = map[string]interface{}{
			"requests":      llmResp.Usage.Requests,
			"input_tokens":  llmResp.Usage.InputTokens,
			"output_tokens": llmResp.Usage.OutputTokens,
		}
		resp.Metadata["llm_calls"] = llmResp.Usage.Requests
		resp.Metadata["input_tokens"] = llmResp.Usage.InputTokens
		resp.Metadata["output_tokens"] = llmResp.Usage.OutputTokens
		resp.Metadata["llm.retry_count"] = maxInt(0, llmResp.Usage.Requests-1)
	}
	return resp
}

func (p *Primitive) failureResponse(llmResp LLMResponse, executionID string, attempt int) *block.Response {
	reason, kind := classifyFailure(llmResp)
	details := copyOrEmpty(llmResp.ErrorDetails)
	details["upstream_status"] = string(llmResp.Status)
	if llmResp.Reason != "" {
		details["upstream_reason"] = llmResp.Reason
	}

	resp := block.NewFailure(kind, reason, details)
	model := llmResp.Model
	if model == "" {
		model = p.model
	}
	resp.Metadata["model"] = model
	resp.Metadata["llm.execution_id"] = executionID
	resp.Metadata["llm.attempt"] = attempt
	return resp
}

// coercePrompt implements §4.8 step 1. Request.Payload is always a
// map[string]interface{} in this Go rendering, so the "bare string payload"
// case from the language-agnostic spec is realized as a payload carrying a
// string under "value"; a map with one of prompt/content/input is the
// primary path. Anything else is invalid_payload (surfaced as schema_error).
func coercePrompt(payload map[string]interface{}) (string, error) {
	if payload == nil {
		return "", block.NewBlockError(block.SchemaError, "invalid_payload", map[string]interface{}{
			"error": "empty payload",
		})
	}
	for _, key := range []string{"prompt", "content", "input"} {
		if v, ok := payload[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, nil
			}
		}
	}
	if v, ok := payload["value"].(string); ok && v != "" {
		return v, nil
	}
	return "", block.NewBlockError(block.SchemaError, "invalid_payload", map[string]interface{}{
		"error": "payload must be a string or carry prompt/content/input",
	})
}

func intFromMeta(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 1
	}
}

func anyMap(m map[string]interface{}) interface{} {
	if m == nil {
		return nil
	}
	return m
}

func copyOrEmpty(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func shortHex() string {
	id := idgen.New()
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
