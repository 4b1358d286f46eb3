package block

import "time"

// runRecoveryLoop executes child once, then walks its policy stack on
// failure per §4.4: Retry and Repair are gated by side-effect safety,
// Debug halts the enclosing composite, Bubble is always terminal.
// attempt is monotonically increasing across the whole walk and is what
// ends up in the child's own stats records (each child.Execute call emits
// its own BlockAttemptRecord).
func (b *BlockCore) runRecoveryLoop(child Block, parentRequest *Request, firstChildReq *Request) *Response {
	nodeName := stringMeta(firstChildReq.Metadata, MetaNodeName)

	attempt := 1
	lastChildReq := firstChildReq
	resp := child.Execute(firstChildReq)
	if resp.Success {
		return resp
	}

	stack := child.GetPolicyStack(resp.ErrorType)

	for _, policy := range stack {
		switch p := policy.(type) {
		case RetryPolicy:
			if !RetryRepairSafe(child.SideEffectClass()) {
				return unsafeToRetry(resp)
			}
			for attempt < p.MaxAttempts {
				attempt++
				if p.Delay > 0 {
					time.Sleep(p.Delay)
				}
				lastChildReq = buildChildRequest(lastChildReq, child.Name(), nodeName, attempt)
				resp = child.Execute(lastChildReq)
				if resp.Success {
					return resp
				}
			}

		case RepairPolicy:
			if !RetryRepairSafe(child.SideEffectClass()) {
				return unsafeToRetry(resp)
			}
			repairFn, ok := b.lookupRepair(p.RepairFunctionName)
			if !ok {
				return NewFailure(RepairExecutionFailed, "repair function not registered: "+p.RepairFunctionName, map[string]interface{}{
					"repair_function_name": p.RepairFunctionName,
				})
			}
			repaired := repairFn(lastChildReq, resp)
			attempt++
			lastChildReq = buildChildRequest(repaired, child.Name(), nodeName, attempt)
			resp = child.Execute(lastChildReq)

		case DebugPolicy:
			original := resp
			if p.Hook != nil {
				p.Hook(lastChildReq, original)
			}
			debugResp := NewFailure(DebugBreakpointHit, "debug_breakpoint_hit", map[string]interface{}{
				"original_error": map[string]interface{}{
					"reason":     original.Reason,
					"error_type": string(original.ErrorType),
					"details":    original.Details,
				},
			})
			debugResp.Metadata = copyMap(parentRequest.Metadata)
			return debugResp

		case BubblePolicy:
			return resp
		}

		if resp.Success {
			return resp
		}
		if _, isBubble := policy.(BubblePolicy); isBubble {
			return resp
		}
	}

	return resp
}

// unsafeToRetry wraps a failure as unsafe_to_retry: reason is the literal
// "unsafe_to_retry" but error_type inherits the underlying failure's kind,
// and the original reason/error_type/details are preserved under details
// for callers that need them.
func unsafeToRetry(resp *Response) *Response {
	out := NewFailure(resp.ErrorType, "unsafe_to_retry", map[string]interface{}{
		"failure_reason":     resp.Reason,
		"failure_error_type": string(resp.ErrorType),
		"failure_details":    resp.Details,
	})
	return out
}

func (b *BlockCore) lookupRepair(name string) (RepairFunc, bool) {
	if b.RepairResolver == nil {
		return nil, false
	}
	return b.RepairResolver.Resolve(name)
}
