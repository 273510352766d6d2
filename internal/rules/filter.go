// internal/rules/filter.go
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/solatis/rewritekeeper/internal/types"
)

/*
 * Filter criteria over rule properties.
 *
 * A FilterCriterion decides whether a matched rule may take part in
 * selection. Besides plain predicates (FilterFunc), filters are written as
 * expressions over the property document of a rule:
 *
 *   brand:apple                      shorthand, text equality
 *   price >= 10 && brand ^= "app"    conditions joined by &&
 *   variants[*].color == red         paths with index and wildcard segments
 *   promo                            bare path, the property exists
 *
 * Operators: == != < <= > >= ^= $=. Literals are numbers, true/false or
 * text (optionally double-quoted). Conditions are evaluated cheapest first
 * (see cost.go) and short-circuit on the first non-match. A wildcard path
 * holds when any of its branches satisfies the comparison. A missing
 * property never matches; an ordering operator on a non-numeric value is
 * an evaluation error that aborts the rewrite call.
 */

// FilterCriterion is a keep/drop predicate over rule properties.
type FilterCriterion interface {
	Keep(p *Properties) (bool, error)
}

// FilterFunc adapts a plain function to FilterCriterion.
type FilterFunc func(p *Properties) (bool, error)

func (f FilterFunc) Keep(p *Properties) (bool, error) {
	return f(p)
}

// Condition is one compiled comparison of a filter expression.
type Condition struct {
	Path      []types.PathSegment
	Operator  Operator
	FieldType FieldType
	Value     any
	Cost      int
}

func (c Condition) String() string {
	if c.Operator == OpExists {
		return FormatPath(c.Path)
	}
	return fmt.Sprintf("%s %s %v", FormatPath(c.Path), c.Operator, c.Value)
}

// ExpressionCriterion is a compiled filter expression.
type ExpressionCriterion struct {
	source     string
	conditions []Condition // cost order
}

// operators longest first so "<=" wins over "<"
var operatorTokens = []struct {
	token string
	op    Operator
}{
	{"==", OpEq},
	{"!=", OpNeq},
	{"<=", OpLte},
	{">=", OpGte},
	{"^=", OpPrefix},
	{"$=", OpSuffix},
	{"<", OpLt},
	{">", OpGt},
}

// ParseFilterCriterion compiles a filter expression.
func ParseFilterCriterion(expr string) (*ExpressionCriterion, error) {
	source := strings.TrimSpace(expr)
	if source == "" {
		return nil, fmt.Errorf("%w: empty expression", types.ErrInvalidFilter)
	}

	parts := strings.Split(source, "&&")
	if len(parts) > types.MaxFilterConditions {
		return nil, fmt.Errorf("%w: %d conditions (max %d)", types.ErrTooManyConditions, len(parts), types.MaxFilterConditions)
	}

	conds := make([]Condition, 0, len(parts))
	for _, part := range parts {
		cond, err := parseCondition(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", source, err)
		}
		conds = append(conds, cond)
	}

	sort.SliceStable(conds, func(i, j int) bool {
		return conds[i].Cost < conds[j].Cost
	})

	return &ExpressionCriterion{source: source, conditions: conds}, nil
}

// MustParseFilterCriterion is like ParseFilterCriterion but panics on error.
func MustParseFilterCriterion(expr string) *ExpressionCriterion {
	c, err := ParseFilterCriterion(expr)
	if err != nil {
		panic(err)
	}
	return c
}

func parseCondition(s string) (Condition, error) {
	if s == "" {
		return Condition{}, fmt.Errorf("%w: empty condition", types.ErrInvalidFilter)
	}

	opAt, opLen, op := findOperator(s)
	colon := indexUnquoted(s, ':')

	if opAt < 0 || (colon >= 0 && colon < opAt) {
		if colon >= 0 {
			// name:value shorthand
			path, err := ParsePath(s[:colon])
			if err != nil {
				return Condition{}, err
			}
			value := unquote(strings.TrimSpace(s[colon+1:]))
			if value == "" {
				return Condition{}, fmt.Errorf("%w: %q has no value", types.ErrInvalidFilter, s)
			}
			return newCondition(path, OpEq, FieldTypeText, value), nil
		}
		path, err := ParsePath(s)
		if err != nil {
			return Condition{}, err
		}
		return newCondition(path, OpExists, FieldTypeAny, nil), nil
	}

	pathText, valueText := s[:opAt], s[opAt+opLen:]
	path, err := ParsePath(pathText)
	if err != nil {
		return Condition{}, err
	}
	valueText = strings.TrimSpace(valueText)
	if valueText == "" {
		return Condition{}, fmt.Errorf("%w: %q has no value", types.ErrInvalidFilter, s)
	}
	if at, _, _ := findOperator(valueText); at >= 0 {
		return Condition{}, fmt.Errorf("%w: %q has a second operator, quote the value", types.ErrInvalidFilter, s)
	}

	ft := op.fieldType()
	value, err := parseLiteral(valueText, ft)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %q: %v", types.ErrInvalidFilter, s, err)
	}
	return newCondition(path, op, ft, value), nil
}

// findOperator returns the position, length and operator of the leftmost
// operator token outside double-quoted text. At one position the longest
// token wins. Returns -1 when there is none.
func findOperator(s string) (int, int, Operator) {
	quoted := false
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			quoted = !quoted
			continue
		}
		if quoted {
			continue
		}
		for _, ot := range operatorTokens {
			if strings.HasPrefix(s[i:], ot.token) {
				return i, len(ot.token), ot.op
			}
		}
	}
	return -1, 0, 0
}

// indexUnquoted returns the index of the first c outside double-quoted text.
func indexUnquoted(s string, c byte) int {
	quoted := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"':
			quoted = !quoted
		case !quoted && s[i] == c:
			return i
		}
	}
	return -1
}

func newCondition(path []types.PathSegment, op Operator, ft FieldType, value any) Condition {
	return Condition{
		Path:      path,
		Operator:  op,
		FieldType: ft,
		Value:     value,
		Cost:      CalculateConditionCost(path, op, ft),
	}
}

// parseLiteral types a literal for the operator's field type.
func parseLiteral(text string, ft FieldType) (any, error) {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		s := unquote(text)
		if ft == FieldTypeNumeric {
			return Coerce(s, ft)
		}
		return s, nil
	}
	switch ft {
	case FieldTypeNumeric:
		return Coerce(text, ft)
	case FieldTypeText:
		return text, nil
	}
	if text == "true" || text == "false" {
		return text == "true", nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, nil
	}
	return text, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// String returns the source expression.
func (c *ExpressionCriterion) String() string {
	return c.source
}

// Conditions returns the compiled conditions in evaluation order.
func (c *ExpressionCriterion) Conditions() []Condition {
	out := make([]Condition, len(c.conditions))
	copy(out, c.conditions)
	return out
}

// Keep reports whether every condition holds for p.
func (c *ExpressionCriterion) Keep(p *Properties) (bool, error) {
	for _, cond := range c.conditions {
		ok, err := evaluateCondition(cond, p.doc)
		if err != nil {
			return false, fmt.Errorf("filter %q: %w", c.source, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// evaluateCondition resolves every branch of the path and holds when the
// comparison holds for any of them. A branch whose value cannot be coerced
// fails the whole condition.
func evaluateCondition(cond Condition, doc map[string]any) (bool, error) {
	results, err := ResolveAll(cond.Path, doc)
	if err != nil {
		return false, err
	}

	for _, resolved := range results {
		if resolved.Value == nil {
			continue
		}
		value, err := Coerce(resolved.Value, cond.FieldType)
		if err != nil {
			return false, fmt.Errorf("%s: %w", FormatPath(resolved.ResolvedPath), err)
		}
		if Compare(cond.Operator, value, cond.Value) {
			return true, nil
		}
	}
	return false, nil
}
