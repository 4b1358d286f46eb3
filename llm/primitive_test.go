package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockmind/engine/block"
	"github.com/blockmind/engine/internal/config"
)

type stubExecutor struct {
	responses []LLMResponse
	calls     int
}

func (s *stubExecutor) Execute(req LLMRequest) LLMResponse {
	resp := s.responses[s.calls]
	s.calls++
	return resp
}

func TestPrimitive_SuccessResponse(t *testing.T) {
	exec := &stubExecutor{responses: []LLMResponse{
		{Status: StatusSuccess, Data: map[string]interface{}{"answer": 42}, Usage: &Usage{Requests: 1, InputTokens: 10, OutputTokens: 5}},
	}}
	p := New("answer_block", "system", nil, "gpt-x", 0.2, exec)

	resp := p.Execute(block.NewRequest(map[string]interface{}{"prompt": "what is the answer"}, nil, nil))
	require.True(t, resp.Success)
	assert.Equal(t, map[string]interface{}{"answer": 42}, resp.Data)
	assert.Equal(t, "gpt-x", resp.Metadata["model"])
	assert.Equal(t, 1, resp.Metadata["llm_calls"])
	assert.Equal(t, 0, resp.Metadata["llm.retry_count"])
}

func TestPrimitive_SchemaErrorMapping(t *testing.T) {
	exec := &stubExecutor{responses: []LLMResponse{
		{Status: StatusSemanticError, Reason: "output did not match schema", ErrorDetails: map[string]interface{}{"error": "missing field answer"}},
	}}
	p := New("answer_block", "system", nil, "gpt-x", 0.2, exec)

	resp := p.Execute(block.NewRequest(map[string]interface{}{"prompt": "what is the answer"}, nil, nil))
	require.False(t, resp.Success)
	assert.Equal(t, "schema_error", resp.Reason)
	assert.Equal(t, block.SchemaError, resp.ErrorType)
}

func TestPrimitive_InvalidPayload(t *testing.T) {
	exec := &stubExecutor{}
	p := New("answer_block", "system", nil, "gpt-x", 0.2, exec)

	resp := p.Execute(block.NewRequest(map[string]interface{}{"nothing_useful": true}, nil, nil))
	require.False(t, resp.Success)
	assert.Equal(t, block.SchemaError, resp.ErrorType)
	assert.Equal(t, 0, exec.calls)
}

func TestPrimitive_RateLimitMapping(t *testing.T) {
	exec := &stubExecutor{responses: []LLMResponse{
		{Status: StatusCapacityError, HTTPStatus: 429, Reason: "too many requests"},
	}}
	p := New("answer_block", "system", nil, "gpt-x", 0.2, exec)

	resp := p.Execute(block.NewRequest(map[string]interface{}{"prompt": "what is the answer"}, nil, nil))
	require.False(t, resp.Success)
	assert.Equal(t, block.RateLimitError, resp.ErrorType)
}

func TestPrimitive_APIKeyMapping(t *testing.T) {
	exec := &stubExecutor{responses: []LLMResponse{
		{Status: StatusConfigError, HTTPStatus: 401, Reason: "invalid API key"},
	}}
	p := New("answer_block", "system", nil, "gpt-x", 0.2, exec)

	resp := p.Execute(block.NewRequest(map[string]interface{}{"content": "hi"}, nil, nil))
	require.False(t, resp.Success)
	assert.Equal(t, block.APIKeyError, resp.ErrorType)
}

func TestPrimitive_ContextLengthMapping(t *testing.T) {
	exec := &stubExecutor{responses: []LLMResponse{
		{Status: StatusMechanicalError, HTTPStatus: 400, Reason: "maximum context length exceeded"},
	}}
	p := New("answer_block", "system", nil, "gpt-x", 0.2, exec)

	resp := p.Execute(block.NewRequest(map[string]interface{}{"input": "very long text"}, nil, nil))
	require.False(t, resp.Success)
	assert.Equal(t, block.ContextLengthError, resp.ErrorType)
}

func TestPrimitive_DefaultPolicyStackForSchemaError(t *testing.T) {
	p := New("answer_block", "system", nil, "gpt-x", 0.2, &stubExecutor{})
	stack := p.GetPolicyStack(block.SchemaError)
	require.Len(t, stack, 4)
	_, isRetry := stack[0].(block.RetryPolicy)
	assert.True(t, isRetry)
}

func TestPrimitive_SideEffectClassIsIdempotent(t *testing.T) {
	p := New("answer_block", "system", nil, "gpt-x", 0.2, &stubExecutor{})
	assert.Equal(t, block.SideEffectIdempotent, p.SideEffectClass())
}

func TestPrimitive_WithRuntimeWiresStatsLoggerTracer(t *testing.T) {
	rt, err := block.NewRuntime(config.DefaultConfig(), "llm-test")
	require.NoError(t, err)

	exec := &stubExecutor{responses: []LLMResponse{{Status: StatusSuccess, Data: map[string]interface{}{}}}}
	p := New("answer_block", "system", nil, "gpt-x", 0.2, exec, WithRuntime(rt))

	assert.Same(t, rt.Stats, p.BlockCore.Stats)
	assert.Same(t, rt.Logger, p.BlockCore.Logger)
	assert.Same(t, rt.Tracer, p.BlockCore.Tracer)

	stack := p.GetPolicyStack(block.SchemaError)
	_, isRetry := stack[0].(block.RetryPolicy)
	assert.True(t, isRetry, "WithRuntime must not clobber the primitive's own schema_error policy stack")
}

func TestCoercePrompt_AcceptsBareStringViaValueKey(t *testing.T) {
	exec := &stubExecutor{responses: []LLMResponse{{Status: StatusSuccess, Data: map[string]interface{}{}}}}
	p := New("b", "s", nil, "m", 0, exec)

	req := block.NewRequest(nil, nil, nil)
	req.Payload["value"] = "plain string prompt"
	resp := p.Execute(req)
	require.True(t, resp.Success)
}
