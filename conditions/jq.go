package conditions

import (
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/blockmind/engine/block"
)

// RegisterJQ compiles jqExpr once with gojq and registers a predicate under
// name that evaluates the expression against a document combining the
// response's Data and Details, treating a truthy/non-empty/non-false first
// result as a match. This is sugar over Register: hand-written predicates
// remain the primary path, jq expressions are for declarative graph configs
// (e.g. loaded from YAML/JSON) that want to avoid compiling a Go closure per
// transition.
func (r *Registry) RegisterJQ(name, jqExpr string) error {
	query, err := gojq.Parse(jqExpr)
	if err != nil {
		return fmt.Errorf("conditions: parsing jq expression %q: %w", name, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("conditions: compiling jq expression %q: %w", name, err)
	}

	r.Register(name, func(resp *block.Response) bool {
		doc := map[string]interface{}{
			"success": resp.Success,
			"data":    resp.Data,
			"details": resp.Details,
			"reason":  resp.Reason,
		}
		iter := code.Run(doc)
		v, ok := iter.Next()
		if !ok {
			return false
		}
		if jqErr, isErr := v.(error); isErr {
			panic(fmt.Sprintf("condition %q: jq evaluation error: %v", name, jqErr))
		}
		return truthy(v)
	})
	return nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	default:
		return true
	}
}
