// Package logic evaluates JSON Logic rules (jsonlogic.com) against decoded
// JSON data, with two extra operators: "glob" and "regexp".
package logic

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"

	"github.com/diegoholiveira/jsonlogic/v3"
)

// operators lists every operation a rule may name.
var operators = map[string]bool{
	"var": true, "missing": true, "missing_some": true,
	"if": true, "==": true, "===": true, "!=": true, "!==": true, "!": true, "!!": true,
	"or": true, "and": true, ">": true, ">=": true, "<": true, "<=": true,
	"max": true, "min": true, "+": true, "-": true, "*": true, "/": true, "%": true,
	"map": true, "filter": true, "reduce": true, "all": true, "none": true, "some": true,
	"merge": true, "in": true, "cat": true, "substr": true,
	"glob": true, "regexp": true,
}

func init() {
	jsonlogic.AddOperator("glob", opGlob)
	jsonlogic.AddOperator("regexp", opRegexp)
}

// Apply evaluates rule against data. Both are values as produced by
// encoding/json decoding into any. The rule itself is never modified, so one
// rule can be applied to many documents.
func Apply(rule, data any) (result any, err error) {
	if err := validate(rule); err != nil {
		return nil, err
	}
	fresh, err := clone(rule)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return jsonlogic.ApplyInterface(fresh, data)
}

// validate rejects unknown operations and literal regexp patterns that do
// not compile before anything is evaluated.
func validate(rule any) error {
	switch r := rule.(type) {
	case map[string]any:
		if len(r) != 1 {
			return nil
		}
		for op, args := range r {
			if !operators[op] {
				return fmt.Errorf("unrecognized operation %s", op)
			}
			if list, ok := args.([]any); ok && op == "regexp" && len(list) > 0 {
				if pattern, ok := list[0].(string); ok {
					if _, err := regexp.Compile(pattern); err != nil {
						return fmt.Errorf("regexp %q: %w", pattern, err)
					}
				}
			}
			return validate(args)
		}
	case []any:
		for _, item := range r {
			if err := validate(item); err != nil {
				return err
			}
		}
	}
	return nil
}

// clone deep-copies rule; the evaluator rewrites argument slices in place.
func clone(rule any) (any, error) {
	raw, err := json.Marshal(rule)
	if err != nil {
		return nil, fmt.Errorf("logic: encode rule: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("logic: decode rule: %w", err)
	}
	return out, nil
}

// Truthy follows JSON Logic truthiness: 0, "", [], null and false are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	}
	return true
}
