package block

// ConditionFunc is a pure predicate over a Response used to select a
// transition branch. Must be fast and side-effect free; panics are
// recovered by the graph interpreter and surfaced as condition_execution_error.
type ConditionFunc func(resp *Response) bool

// RepairFunc amends the next attempt's request in response to a failure.
// MUST return a new Request rather than mutating req.
type RepairFunc func(req *Request, resp *Response) *Request

// ConditionResolver resolves a condition name to its predicate. Defined
// here (rather than imported from the conditions package) so block never
// depends on conditions/repairs --- those packages depend on block instead,
// avoiding an import cycle.
type ConditionResolver interface {
	Resolve(name string) (ConditionFunc, bool)
}

// RepairResolver resolves a repair function name.
type RepairResolver interface {
	Resolve(name string) (RepairFunc, bool)
}
