// internal/rules/operators.go
package rules

import "strings"

/*
 * Filter operators.
 *
 * Values reach Compare already coerced to the operator's field type, so
 * numbers are float64 and text is string. Equality tolerates int/float
 * mixing for values that skipped coercion.
 */

// Operator is a filter condition operator.
type Operator int

const (
	OpExists Operator = iota // bare path
	OpEq                     // == and name:value
	OpNeq                    // !=
	OpLt                     // <
	OpLte                    // <=
	OpGt                     // >
	OpGte                    // >=
	OpPrefix                 // ^=
	OpSuffix                 // $=
)

var operatorSymbols = map[Operator]string{
	OpExists: "",
	OpEq:     "==",
	OpNeq:    "!=",
	OpLt:     "<",
	OpLte:    "<=",
	OpGt:     ">",
	OpGte:    ">=",
	OpPrefix: "^=",
	OpSuffix: "$=",
}

func (op Operator) String() string {
	return operatorSymbols[op]
}

// fieldType returns the type the operator compares in.
func (op Operator) fieldType() FieldType {
	switch op {
	case OpLt, OpLte, OpGt, OpGte:
		return FieldTypeNumeric
	case OpPrefix, OpSuffix:
		return FieldTypeText
	default:
		return FieldTypeAny
	}
}

// Compare applies op to value and target.
func Compare(op Operator, value, target any) bool {
	switch op {
	case OpExists:
		return value != nil
	case OpEq:
		return compareEqual(value, target)
	case OpNeq:
		return !compareEqual(value, target)
	case OpLt:
		return compareNumeric(value, target) < 0
	case OpLte:
		return compareNumeric(value, target) <= 0
	case OpGt:
		return compareNumeric(value, target) > 0
	case OpGte:
		return compareNumeric(value, target) >= 0
	case OpPrefix:
		return compareAffix(value, target, strings.HasPrefix)
	case OpSuffix:
		return compareAffix(value, target, strings.HasSuffix)
	default:
		return false
	}
}

func compareEqual(a, b any) bool {
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	// maps and slices are not comparable
	switch a.(type) {
	case string, bool:
		return a == b
	}
	return a == nil && b == nil
}

// compareNumeric performs a three-way numeric comparison; 0 for non-numbers.
func compareNumeric(a, b any) int {
	na, nb, ok := asNumbers(a, b)
	if !ok {
		return 0
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	default:
		return 0
	}
}

func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	return na, nb, oka && okb
}

// toFloat64 converts the numeric types produced by JSON, YAML and structpb decoding.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func compareAffix(value, affix any, fn func(s, affix string) bool) bool {
	vs, ok1 := value.(string)
	as, ok2 := affix.(string)
	return ok1 && ok2 && fn(vs, as)
}
