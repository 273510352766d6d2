// internal/rules/input.go
package rules

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/solatis/rewritekeeper/internal/query"
	"github.com/solatis/rewritekeeper/internal/types"
)

/*
 * Input patterns.
 *
 * An input is the left-hand side of a rule: whitespace separated terms,
 * optionally anchored and optionally ending in a prefix wildcard.
 *
 *   iphone case      two terms, anywhere in the query
 *   "iphone          must start at the first query position
 *   case"            must end at the last query position
 *   brand:apple      only matches query terms in field "brand"
 *   lapt*            last term matches "laptop", "laptops", ... (not "lapt")
 *
 * Terms are compared after case folding and NFC normalization, so rule
 * authors and users do not need to agree on case or composed characters.
 * All validation happens here, at rule set build time; matching never fails.
 */

// termMatcher matches one query position.
type termMatcher struct {
	field  string // "" matches any field
	value  string // normalized
	prefix bool
}

// Input is a compiled rule input pattern.
type Input struct {
	text       string
	terms      []termMatcher
	leftBound  bool
	rightBound bool
}

// ParseInput compiles an input pattern.
func ParseInput(text string) (Input, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Input{}, types.ErrEmptyInput
	}
	if len(fields) > types.MaxInputTerms {
		return Input{}, types.ErrTooManyInputTerms
	}

	in := Input{text: strings.Join(fields, " "), terms: make([]termMatcher, 0, len(fields))}

	last := len(fields) - 1
	if strings.HasPrefix(fields[0], `"`) {
		in.leftBound = true
		fields[0] = fields[0][1:]
	}
	if strings.HasSuffix(fields[last], `"`) && fields[last] != "" {
		in.rightBound = true
		fields[last] = fields[last][:len(fields[last])-1]
	}

	for i, f := range fields {
		if strings.Contains(f, `"`) {
			return Input{}, types.ErrMisplacedBoundary
		}
		prefix := false
		if strings.HasSuffix(f, "*") {
			if i != last {
				return Input{}, types.ErrMisplacedWildcard
			}
			prefix = true
			f = f[:len(f)-1]
		}
		if strings.Contains(f, "*") {
			return Input{}, types.ErrMisplacedWildcard
		}
		field, value := query.SplitField(f)
		if value == "" || strings.HasSuffix(f, ":") {
			return Input{}, fmt.Errorf("%w: %q", types.ErrEmptyTerm, f)
		}
		in.terms = append(in.terms, termMatcher{field: field, value: Normalize(value), prefix: prefix})
	}

	return in, nil
}

// String returns the input as written, with whitespace collapsed.
func (in Input) String() string {
	return in.text
}

// Len returns the number of term matchers.
func (in Input) Len() int {
	return len(in.terms)
}

// HasWildcard reports whether the last term is a prefix wildcard.
func (in Input) HasWildcard() bool {
	return len(in.terms) > 0 && in.terms[len(in.terms)-1].prefix
}

// acceptsField reports whether term k of the input allows the given query field.
func (in Input) acceptsField(k int, field string) bool {
	want := in.terms[k].field
	return want == "" || want == field
}

// Normalize folds case and composes characters for term comparison.
// A Caser is stateful, so a fresh one is created per call.
func Normalize(s string) string {
	return norm.NFC.String(cases.Fold().String(s))
}
