package block

import "github.com/blockmind/engine/pkg/idgen"

// Reserved metadata keys. Metadata is deliberately an opaque string-keyed
// map rather than a struct so callers can carry custom fields through a
// block's execution without the envelope needing to know about them.
const (
	MetaID           = "id"
	MetaTraceID      = "trace_id"
	MetaRunID        = "run_id"
	MetaSpanID       = "span_id"
	MetaParentSpanID = "parent_span_id"
	MetaAttempt      = "attempt"
	MetaBlockName    = "block_name"
	MetaNodeName     = "node_name"
)

// Request is the immutable (from a block's perspective) input envelope.
// A block must never mutate a Request it receives; every derivation
// (child attempt, repair) builds a new Request with a copied metadata map.
type Request struct {
	Payload  map[string]interface{}
	Context  map[string]interface{}
	Metadata map[string]interface{}
}

// NewRequest builds a Request, defaulting nil maps to empty ones and
// ensuring metadata.id is populated via the package-wide id factory.
func NewRequest(payload, context, metadata map[string]interface{}) *Request {
	r := &Request{
		Payload:  ensureMap(payload),
		Context:  ensureMap(context),
		Metadata: ensureMap(metadata),
	}
	if _, ok := r.Metadata[MetaID]; !ok {
		r.Metadata[MetaID] = idgen.New()
	}
	return r
}

// Clone returns a deep-enough copy of r: new Payload/Context/Metadata maps
// with the same top-level entries, suitable as the base for a child request
// derivation. Top-level entries are not recursively cloned --- the engine
// does not mutate nested values in place, only reassigns top-level keys.
func (r *Request) Clone() *Request {
	return &Request{
		Payload:  copyMap(r.Payload),
		Context:  copyMap(r.Context),
		Metadata: copyMap(r.Metadata),
	}
}

// WithMetadataDefaults returns a clone of r with each key/value of defaults
// set-if-absent in its metadata (existing keys are left untouched).
func (r *Request) WithMetadataDefaults(defaults map[string]interface{}) *Request {
	clone := r.Clone()
	for k, v := range defaults {
		if _, ok := clone.Metadata[k]; !ok {
			clone.Metadata[k] = v
		}
	}
	return clone
}

// Response is the output envelope every block invocation produces.
type Response struct {
	Success   bool
	Data      interface{}
	Reason    string
	Details   map[string]interface{}
	ErrorType ErrorKind
	Metadata  map[string]interface{}
}

// NewSuccess builds a successful Response carrying data.
func NewSuccess(data interface{}) *Response {
	return &Response{
		Success:  true,
		Data:     data,
		Details:  map[string]interface{}{},
		Metadata: map[string]interface{}{MetaID: idgen.New()},
	}
}

// NewFailure builds a failure Response. reason defaults to string(kind) when
// empty, matching BlockError's convention.
func NewFailure(kind ErrorKind, reason string, details map[string]interface{}) *Response {
	if reason == "" {
		reason = string(kind)
	}
	return &Response{
		Success:   false,
		Reason:    reason,
		ErrorType: kind,
		Details:   ensureMap(details),
		Metadata:  map[string]interface{}{MetaID: idgen.New()},
	}
}

// FailureFromErr converts a BlockError (or any error, folded to internal_error)
// into a failure Response.
func FailureFromErr(err error) *Response {
	if be, ok := err.(*BlockError); ok {
		return NewFailure(be.Kind, be.Reason, be.Details)
	}
	return NewFailure(InternalError, err.Error(), map[string]interface{}{"error_class": "error"})
}

// Clone returns a shallow copy of the response with its own Details/Metadata
// maps, so overlay helpers never mutate a shared instance.
func (resp *Response) Clone() *Response {
	return &Response{
		Success:   resp.Success,
		Data:      resp.Data,
		Reason:    resp.Reason,
		Details:   copyMap(resp.Details),
		ErrorType: resp.ErrorType,
		Metadata:  copyMap(resp.Metadata),
	}
}

// WithMetadataOverlay returns a clone of resp with the given fields
// overwritten in its metadata map (used by the composite terminal-response
// overlay: source/composite/last_node).
func (resp *Response) WithMetadataOverlay(overlay map[string]interface{}) *Response {
	clone := resp.Clone()
	for k, v := range overlay {
		clone.Metadata[k] = v
	}
	return clone
}

func ensureMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
