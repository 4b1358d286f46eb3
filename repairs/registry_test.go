package repairs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockmind/engine/block"
)

func TestRegistry_BuiltinAddValidationFeedback(t *testing.T) {
	r := New()
	fn, ok := r.Resolve("add_validation_feedback")
	require.True(t, ok)

	req := block.NewRequest(map[string]interface{}{"prompt": "say hi"}, nil, nil)
	resp := block.NewFailure(block.SchemaError, "schema_error", map[string]interface{}{"error": "missing field x"})

	out := fn(req, resp)
	assert.Contains(t, out.Payload["prompt"], "say hi")
	assert.Contains(t, out.Payload["prompt"], "missing field x")
	assert.Equal(t, "say hi", req.Payload["prompt"], "original request must not be mutated")
}

func TestRegistry_AddValidationFeedback_NoPriorPrompt(t *testing.T) {
	r := New()
	fn, _ := r.Resolve("add_validation_feedback")

	req := block.NewRequest(nil, nil, nil)
	resp := block.NewFailure(block.SchemaError, "schema_error", map[string]interface{}{"error": "bad shape"})

	out := fn(req, resp)
	assert.Contains(t, out.Payload["prompt"], "bad shape")
}

func TestRegistry_ClearReseedsBuiltin(t *testing.T) {
	r := New()
	r.Register("custom", func(req *block.Request, resp *block.Response) *block.Request { return req })
	r.Clear()

	_, ok := r.Resolve("custom")
	assert.False(t, ok)

	_, ok = r.Resolve("add_validation_feedback")
	assert.True(t, ok, "clear() must re-seed the built-in repair")
}

func TestRegistry_UnknownNameNotFound(t *testing.T) {
	r := New()
	_, ok := r.Resolve("nope")
	assert.False(t, ok)
}
