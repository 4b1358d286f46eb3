package block

import (
	"fmt"

	"github.com/blockmind/engine/pkg/idgen"
)

// Branch is one entry in an ordered conditional transition list: the first
// branch whose Condition resolves truthy against the child's response wins.
type Branch struct {
	Condition string
	Target    string
}

// Transition configures the outgoing edge(s) from one node. Exactly one of
// Next or Branches should be set; a node absent from the transitions map
// entirely is terminal.
type Transition struct {
	Next     string
	Branches []Branch
}

func (t Transition) isBranching() bool { return len(t.Branches) > 0 }

// graphConfig holds one composite's node set, entry point, and transition
// table, plus a cached validation result (invalidated by SetGraph).
type graphConfig struct {
	nodes       map[string]Block
	entryPoint  string
	transitions map[string]Transition
	maxSteps    int

	validated    bool
	validationErr *Response
}

const defaultMaxSteps = 128

// SetGraph configures b as a composite block. Calling it again replaces the
// graph and invalidates the cached validation result.
func (b *BlockCore) SetGraph(nodes map[string]Block, entryPoint string, transitions map[string]Transition, maxSteps int) {
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	b.graph = &graphConfig{
		nodes:       nodes,
		entryPoint:  entryPoint,
		transitions: transitions,
		maxSteps:    maxSteps,
	}
}

// validateGraph checks the graph invariants once and caches the result: non-empty
// entry point, entry point present in nodes, every transition source/target
// present in nodes, every condition name resolvable.
func (b *BlockCore) validateGraph() *Response {
	g := b.graph
	if g.validated {
		return g.validationErr
	}
	g.validated = true

	fail := func(errMsg string) *Response {
		g.validationErr = NewFailure(InvalidGraph, "invalid_graph", map[string]interface{}{"error": errMsg})
		return g.validationErr
	}

	if g.entryPoint == "" {
		return fail("entry_point is empty")
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return fail(fmt.Sprintf("entry_point %q not in nodes", g.entryPoint))
	}
	for source, t := range g.transitions {
		if _, ok := g.nodes[source]; !ok {
			return fail(fmt.Sprintf("transition source %q not in nodes", source))
		}
		if t.isBranching() {
			for _, br := range t.Branches {
				if _, ok := g.nodes[br.Target]; !ok {
					return fail(fmt.Sprintf("transition target %q not in nodes", br.Target))
				}
				if b.ConditionResolver == nil {
					return fail(fmt.Sprintf("condition %q cannot be resolved: no condition resolver configured", br.Condition))
				}
				if _, ok := b.ConditionResolver.Resolve(br.Condition); !ok {
					return fail(fmt.Sprintf("condition %q does not resolve", br.Condition))
				}
			}
		} else if t.Next != "" {
			if _, ok := g.nodes[t.Next]; !ok {
				return fail(fmt.Sprintf("transition target %q not in nodes", t.Next))
			}
		}
	}
	g.validationErr = nil
	return nil
}

// executeGraph runs the composite main loop: validate, then walk nodes
// applying per-child recovery until a terminal node, a failure, or the step
// ceiling is reached.
func (b *BlockCore) executeGraph(req *Request) *Response {
	g := b.graph
	if errResp := b.validateGraph(); errResp != nil {
		return errResp
	}

	currentNode := g.entryPoint
	propagated := req

	for step := 0; step < g.maxSteps; step++ {
		child, ok := g.nodes[currentNode]
		if !ok {
			return NewFailure(UnknownNode, fmt.Sprintf("unknown_node: %q", currentNode), map[string]interface{}{
				"node": currentNode,
			})
		}

		childReq := buildChildRequest(propagated, child.Name(), currentNode, 1)
		resp := b.runRecoveryLoop(child, propagated, childReq)

		if !resp.Success {
			return resp
		}

		t, hasTransition := g.transitions[currentNode]
		if !hasTransition {
			return resp.WithMetadataOverlay(map[string]interface{}{
				"source":    child.Name(),
				"composite": b.name,
				"last_node": currentNode,
			})
		}

		if t.isBranching() {
			target, err := b.resolveBranch(t.Branches, resp)
			if err != nil {
				return err
			}
			currentNode = target
		} else {
			currentNode = t.Next
		}

		propagated = propagated.Clone()
		propagated.Metadata[MetaNodeName] = currentNode
	}

	return NewFailure(MaxStepsExceeded, "max_steps_exceeded", map[string]interface{}{
		"max_steps": g.maxSteps,
	})
}

func (b *BlockCore) resolveBranch(branches []Branch, resp *Response) (string, *Response) {
	for _, br := range branches {
		if b.ConditionResolver == nil {
			return "", NewFailure(ConditionResolutionError, "no condition resolver configured", map[string]interface{}{"condition": br.Condition})
		}
		cond, ok := b.ConditionResolver.Resolve(br.Condition)
		if !ok {
			return "", NewFailure(ConditionResolutionError, fmt.Sprintf("condition %q not registered", br.Condition), map[string]interface{}{"condition": br.Condition})
		}
		matched, execErr := evalConditionSafely(cond, resp)
		if execErr != nil {
			return "", NewFailure(ConditionExecutionError, execErr.Error(), map[string]interface{}{"condition": br.Condition})
		}
		if matched {
			return br.Target, nil
		}
	}
	return "", NewFailure(NoTransition, "no_transition", nil)
}

func evalConditionSafely(cond ConditionFunc, resp *Response) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("condition panicked: %v", r)
		}
	}()
	return cond(resp), nil
}

// buildChildRequest derives a child's attempt request from the propagated
// request: copies payload/context, rotates id/span_id, preserves
// trace_id/run_id, and sets block_name/node_name/attempt.
func buildChildRequest(source *Request, childName, nodeName string, attempt int) *Request {
	child := source.Clone()
	child.Metadata[MetaID] = idgen.New()
	oldSpan := stringMeta(child.Metadata, MetaSpanID)
	child.Metadata[MetaSpanID] = idgen.New()
	child.Metadata[MetaParentSpanID] = oldSpan
	child.Metadata[MetaAttempt] = attempt
	child.Metadata[MetaBlockName] = childName
	child.Metadata[MetaNodeName] = nodeName
	return child
}
