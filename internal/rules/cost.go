// internal/rules/cost.go
package rules

import "github.com/solatis/rewritekeeper/internal/types"

/*
 * Cost model for filter conditions.
 *
 * cost = lookup_cost + (operator_cost * type_multiplier * 8^wildcards)
 *
 * Conditions of one filter are evaluated cheapest first so the AND
 * short-circuits early. Each wildcard multiplies by 8 for the fan-out;
 * with MaxNestedWildcards=2 the ceiling is 64x.
 */

const (
	// Operator base costs
	CostExists = 1
	CostEq     = 5
	CostNeq    = 5
	CostOrder  = 7
	CostAffix  = 10

	// Field lookup cost per key segment
	CostLookupPerSegment = 128

	// Field type multipliers
	MultiplierNumeric = 4
	MultiplierText    = 48
	MultiplierAny     = 128
)

// CalculateConditionCost computes the evaluation cost of one condition.
func CalculateConditionCost(path []types.PathSegment, op Operator, fieldType FieldType) int {
	lookupCost := 0
	wildcardCount := 0
	for _, seg := range path {
		if seg.Key != "" {
			lookupCost += CostLookupPerSegment
		}
		if seg.Wildcard {
			wildcardCount++
		}
	}

	execMult := 1
	for i := 0; i < wildcardCount; i++ {
		execMult *= 8
	}

	return lookupCost + (operatorCost(op) * typeMultiplier(fieldType) * execMult)
}

func operatorCost(op Operator) int {
	switch op {
	case OpExists:
		return CostExists
	case OpEq:
		return CostEq
	case OpNeq:
		return CostNeq
	case OpLt, OpLte, OpGt, OpGte:
		return CostOrder
	case OpPrefix, OpSuffix:
		return CostAffix
	default:
		return CostEq
	}
}

func typeMultiplier(ft FieldType) int {
	switch ft {
	case FieldTypeNumeric:
		return MultiplierNumeric
	case FieldTypeText:
		return MultiplierText
	default:
		return MultiplierAny
	}
}
