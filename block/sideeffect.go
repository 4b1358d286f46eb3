package block

// SideEffectClass gates whether a failed child invocation is safe to retry
// or repair. Only `none` and `idempotent` may be retried/repaired; anything
// else short-circuits to UnsafeToRetry.
type SideEffectClass string

const (
	SideEffectNone          SideEffectClass = "none"
	SideEffectIdempotent    SideEffectClass = "idempotent"
	SideEffectNonIdempotent SideEffectClass = "non_idempotent"
)

// NormalizeSideEffectClass folds unknown/empty values to non_idempotent, the
// conservative default --- a block that didn't declare its side effects is
// assumed unsafe to retry.
func NormalizeSideEffectClass(c SideEffectClass) SideEffectClass {
	switch c {
	case SideEffectNone, SideEffectIdempotent, SideEffectNonIdempotent:
		return c
	default:
		return SideEffectNonIdempotent
	}
}

// RetryRepairSafe reports whether a retry or repair policy may run against a
// child declaring this side-effect class.
func RetryRepairSafe(c SideEffectClass) bool {
	return c == SideEffectNone || c == SideEffectIdempotent
}
