package block

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blockmind/engine/pkg/idgen"
	"github.com/blockmind/engine/pkg/logging"
	"github.com/blockmind/engine/pkg/tracing"
	"github.com/blockmind/engine/sanitize"
	"github.com/blockmind/engine/stats"
)

// State is bookkeeping toggled around an execute call, guarded by
// BlockCore's mutex: an Execute call on an instance that is already BUSY is
// rejected with a block_busy internal_error failure instead of running.
// Callers needing concurrent executions construct one Block per in-flight
// execution.
type State string

const (
	StateReady State = "READY"
	StateBusy  State = "BUSY"
)

// Block is the uniform contract every unit of work implements, atomic or
// composite.
type Block interface {
	Name() string
	BlockType() string
	Execute(req *Request) *Response
	GetPolicyStack(kind ErrorKind) []RecoveryPolicy
	StatsIdentity() stats.BlockStatsIdentity
	State() State
	SideEffectClass() SideEffectClass
}

// Primitive is the hook an atomic block implements. The default BlockCore
// primitive (when a block embeds BlockCore without overriding) returns a
// success response with nil data.
type Primitive func(req *Request) *Response

// BlockCore is the embeddable base carrying the generic execute/graph/
// recovery machinery described for composition over inheritance: concrete
// blocks embed *BlockCore and either leave Primitive nil (pure default),
// set it to their atomic hook, or configure a graph for composite behavior.
type BlockCore struct {
	name            string
	blockType       string
	sideEffectClass SideEffectClass
	version         string

	mu    sync.Mutex
	state State

	Primitive Primitive

	graph *graphConfig

	policyStack func(kind ErrorKind) []RecoveryPolicy

	Stats             stats.Store
	Logger            logging.Logger
	Tracer            *tracing.Provider
	Sanitizer         sanitize.Sanitizer
	ConditionResolver ConditionResolver
	RepairResolver    RepairResolver

	now func() time.Time
}

// NewBlockCore constructs the base for a block named name. sideEffectClass
// is normalized immediately so it is frozen for the block's lifetime.
func NewBlockCore(name, blockType string, sideEffectClass SideEffectClass) *BlockCore {
	return &BlockCore{
		name:            name,
		blockType:       blockType,
		sideEffectClass: NormalizeSideEffectClass(sideEffectClass),
		state:           StateReady,
		Logger:          logging.NoOpLogger{},
		Sanitizer:       sanitize.Default,
		now:             time.Now,
	}
}

var _ Block = (*BlockCore)(nil)

func (b *BlockCore) Name() string { return b.name }

func (b *BlockCore) BlockType() string { return b.blockType }

func (b *BlockCore) SideEffectClass() SideEffectClass { return b.sideEffectClass }

func (b *BlockCore) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// StatsIdentity returns the identity under which this block's attempts are
// tracked. Blocks with a version should override this by embedding BlockCore
// and shadowing the method, or by setting Version via WithVersion.
func (b *BlockCore) StatsIdentity() stats.BlockStatsIdentity {
	return stats.BlockStatsIdentity{BlockName: b.name, BlockType: b.blockType, Version: b.version}
}

// WithVersion sets the stats-identity version and returns b for chaining.
func (b *BlockCore) WithVersion(version string) *BlockCore {
	b.version = version
	return b
}

// GetPolicyStack returns the recovery policy stack for a failure of the
// given kind. Defaults to [Bubble]; SetPolicyStackFunc overrides per block.
func (b *BlockCore) GetPolicyStack(kind ErrorKind) []RecoveryPolicy {
	if b.policyStack != nil {
		return b.policyStack(kind)
	}
	return DefaultPolicyStack()
}

// SetPolicyStackFunc installs a per-error-kind policy stack function,
// satisfying the "override get_policy_stack" author hook.
func (b *BlockCore) SetPolicyStackFunc(fn func(kind ErrorKind) []RecoveryPolicy) {
	b.policyStack = fn
}

// Execute runs the full block lifecycle: state transition, metadata
// enrichment, dispatch to composite-graph or atomic primitive, panic
// recovery, correlation/duration attachment, and stats emission.
func (b *BlockCore) Execute(req *Request) *Response {
	b.mu.Lock()
	if b.state == StateBusy {
		b.mu.Unlock()
		return NewFailure(InternalError, "block_busy", map[string]interface{}{
			"block_name": b.name,
		})
	}
	b.state = StateBusy
	b.mu.Unlock()

	start := b.now()

	enriched := b.enrichRequestMetadata(req)

	_, span := b.Tracer.StartBlockSpan(context.Background(), b.name,
		stringMeta(enriched.Metadata, MetaTraceID), stringMeta(enriched.Metadata, MetaRunID),
		stringMeta(enriched.Metadata, MetaSpanID), stringMeta(enriched.Metadata, MetaParentSpanID),
		intMeta(enriched.Metadata, MetaAttempt))

	resp := b.dispatch(enriched)

	b.mu.Lock()
	b.state = StateReady
	b.mu.Unlock()

	duration := b.now().Sub(start)
	resp = b.finalize(enriched, resp, duration, b.graph != nil)

	tracing.RecordOutcome(span, resp.Success, resp.Reason)

	b.recordAttempt(enriched, resp, duration)

	return resp
}

func (b *BlockCore) dispatch(req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = NewFailure(InternalError, fmt.Sprintf("panic: %v", r), map[string]interface{}{
				"error_class": "panic",
			})
		}
	}()

	if b.graph != nil {
		return b.executeGraph(req)
	}
	if b.Primitive != nil {
		return b.Primitive(req)
	}
	return NewSuccess(nil)
}

// enrichRequestMetadata sets, if absent, the base correlation fields on a
// fresh clone of req. The incoming req is never mutated.
func (b *BlockCore) enrichRequestMetadata(req *Request) *Request {
	defaults := map[string]interface{}{
		MetaID:        idgen.New(),
		MetaTraceID:   idgen.New(),
		MetaRunID:     idgen.New(),
		MetaSpanID:    idgen.New(),
		MetaAttempt:   1,
		MetaBlockName: b.name,
	}
	return req.WithMetadataDefaults(defaults)
}

// finalize attaches correlation metadata (from the request that produced
// this response) and duration_ms to resp, and runs a failure's details
// through b.Sanitizer.
//
// For a composite, resp already carries its terminal child's own finalized
// metadata (attempt included). Per the documented resolution of the
// "composite terminal attempt" open question, a composite's wrapped
// response preserves the child's metadata.attempt rather than the
// composite's own --- so attempt is left untouched when isComposite.
func (b *BlockCore) finalize(req *Request, resp *Response, duration time.Duration, isComposite bool) *Response {
	out := resp.Clone()
	keys := []string{MetaTraceID, MetaRunID, MetaSpanID, MetaParentSpanID, MetaAttempt, MetaBlockName, MetaNodeName}
	for _, key := range keys {
		if isComposite && key == MetaAttempt {
			continue
		}
		if v, ok := req.Metadata[key]; ok {
			out.Metadata[key] = v
		}
	}
	out.Metadata["duration_ms"] = float64(duration.Microseconds()) / 1000.0
	if !out.Success {
		out.Details = b.Sanitizer.Details(out.Details)
	}
	return out
}

func (b *BlockCore) recordAttempt(req *Request, resp *Response, duration time.Duration) {
	if b.Stats == nil {
		return
	}
	record := stats.BlockAttemptRecord{
		TraceID:      stringMeta(req.Metadata, MetaTraceID),
		RunID:        stringMeta(req.Metadata, MetaRunID),
		SpanID:       stringMeta(req.Metadata, MetaSpanID),
		ParentSpanID: stringMeta(req.Metadata, MetaParentSpanID),
		BlockName:    b.name,
		BlockType:    b.blockType,
		Version:      b.version,
		Attempt:      intMeta(req.Metadata, MetaAttempt),
		Success:      resp.Success,
		Reason:       resp.Reason,
		ErrorType:    string(resp.ErrorType),
		DurationMS:   float64(duration.Microseconds()) / 1000.0,
		Timestamp:    b.now(),
	}
	enrichRecordFromResponseMetadata(&record, resp.Metadata)
	if err := b.Stats.RecordAttempt(record); err != nil {
		b.Logger.Warn("stats record_attempt failed", map[string]interface{}{
			"block_name": b.name,
			"error":      err.Error(),
		})
	}
}

// enrichRecordFromResponseMetadata lets atomic blocks (the LLM Primitive in
// particular) surface usage fields into their own BlockAttemptRecord without
// BlockCore knowing anything about LLM-specific concerns: a block sets
// well-known optional metadata keys on its response and they ride along
// into the stats record.
func enrichRecordFromResponseMetadata(record *stats.BlockAttemptRecord, meta map[string]interface{}) {
	if model, ok := meta["model"].(string); ok {
		record.Model = model
	}
	if v, ok := meta["input_tokens"].(int); ok {
		record.InputTokens = &v
	}
	if v, ok := meta["output_tokens"].(int); ok {
		record.OutputTokens = &v
	}
	if v, ok := meta["llm_calls"].(int); ok {
		record.LLMCalls = &v
	}
	if v, ok := meta["block_executions"].(int); ok {
		record.BlockExecutions = &v
	}
}

func stringMeta(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func intMeta(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
