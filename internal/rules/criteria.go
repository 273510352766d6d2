// internal/rules/criteria.go
package rules

import (
	"fmt"
	"strings"

	"github.com/solatis/rewritekeeper/internal/types"
)

/*
 * Criteria selection strategy.
 *
 * Criteria bound how many competing matches of one matching group fire:
 * an optional Sorting, a limit and filter predicates over rule properties.
 * CriteriaSelectionStrategy turns Criteria into a Comparator and hands
 * comparator, limit and filters unchanged to a TopRewritingActionCollector.
 *
 * Comparators are a closed variant rather than arbitrary functions so they
 * can be compared, logged and passed by value:
 *   - OrdinalComparator: "ord" property ascending, then declaration order
 *   - PropertyAscending / PropertyDescending: named property, missing last
 *
 * Ties always fall back to declaration order, which keeps selection
 * deterministic for identical inputs.
 */

// SortOrder is the direction of a named-property sort.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

func (o SortOrder) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// Sorting orders matches by a named rule property.
type Sorting struct {
	Property string
	Order    SortOrder
}

// NewSorting creates a sorting over property in the given order.
func NewSorting(property string, order SortOrder) *Sorting {
	return &Sorting{Property: property, Order: order}
}

// ParseSorting parses "property" or "property:asc|desc". Empty input returns nil.
func ParseSorting(spec string) (*Sorting, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	name, order, hasOrder := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: %q has no property name", types.ErrInvalidSorting, spec)
	}
	if !hasOrder {
		return NewSorting(name, Ascending), nil
	}
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "asc":
		return NewSorting(name, Ascending), nil
	case "desc":
		return NewSorting(name, Descending), nil
	default:
		return nil, fmt.Errorf("%w: order must be asc or desc, got %q", types.ErrInvalidSorting, order)
	}
}

func (s Sorting) String() string {
	return s.Property + ":" + s.Order.String()
}

// Comparator returns the comparator variant for this sorting.
func (s Sorting) Comparator() Comparator {
	if s.Order == Descending {
		return Comparator{Kind: PropertyDescending, Property: s.Property}
	}
	return Comparator{Kind: PropertyAscending, Property: s.Property}
}

// Criteria configures selection within one matching group.
type Criteria struct {
	Sorting *Sorting          // nil = default ordinal ordering
	Limit   int               // <= 0 = unbounded
	Filters []FilterCriterion // all must keep a match
}

// NewCriteria creates criteria; filters are copied.
func NewCriteria(sorting *Sorting, limit int, filters []FilterCriterion) Criteria {
	fs := make([]FilterCriterion, len(filters))
	copy(fs, filters)
	return Criteria{Sorting: sorting, Limit: limit, Filters: fs}
}

// ComparatorKind tags the comparator variant.
type ComparatorKind int

const (
	OrdinalComparator ComparatorKind = iota
	PropertyAscending
	PropertyDescending
)

// Comparator orders Instructions. The zero value is the default ordinal comparator.
type Comparator struct {
	Kind     ComparatorKind
	Property string
}

// DefaultComparator returns the ordinal comparator.
func DefaultComparator() Comparator {
	return Comparator{Kind: OrdinalComparator}
}

func (c Comparator) String() string {
	switch c.Kind {
	case PropertyAscending:
		return c.Property + ":asc"
	case PropertyDescending:
		return c.Property + ":desc"
	default:
		return "ord"
	}
}

// Compare returns <0 when a sorts before b, >0 after, 0 when equal.
// Fails with types.ErrPropertyTypeMismatch when the named property holds
// values of different kinds on a and b.
func (c Comparator) Compare(a, b *Instructions) (int, error) {
	if a == b {
		return 0, nil
	}
	if c.Kind == OrdinalComparator {
		return compareOrdinal(a, b), nil
	}

	av, aok := a.Properties.Get(c.Property)
	bv, bok := b.Properties.Get(c.Property)
	switch {
	case !aok && !bok:
		return compareDeclared(a, b), nil
	case !aok:
		return 1, nil
	case !bok:
		return -1, nil
	}

	cmp, err := compareSortValues(av, bv)
	if err != nil {
		return 0, fmt.Errorf("%w: property %q: %v", types.ErrPropertyTypeMismatch, c.Property, err)
	}
	if c.Kind == PropertyDescending {
		cmp = -cmp
	}
	if cmp != 0 {
		return cmp, nil
	}
	return compareDeclared(a, b), nil
}

// compareOrdinal orders by ord when present (present before missing), then declaration order.
func compareOrdinal(a, b *Instructions) int {
	ao, aok := a.Properties.Ord()
	bo, bok := b.Properties.Ord()
	switch {
	case aok && bok:
		if ao < bo {
			return -1
		}
		if ao > bo {
			return 1
		}
	case aok:
		return -1
	case bok:
		return 1
	}
	return compareDeclared(a, b)
}

func compareDeclared(a, b *Instructions) int {
	switch {
	case a.Declared < b.Declared:
		return -1
	case a.Declared > b.Declared:
		return 1
	default:
		return 0
	}
}

// compareSortValues compares two property values of the same kind:
// numbers numerically, strings lexically, booleans false < true.
func compareSortValues(a, b any) (int, error) {
	if na, nb, ok := asNumbers(a, b); ok {
		return compareNumeric(na, nb), nil
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), nil
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, nil
			case !av:
				return -1, nil
			default:
				return 1, nil
			}
		}
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}

// CriteriaSelectionStrategy selects the winning matches of a group.
type CriteriaSelectionStrategy struct {
	criteria   Criteria
	comparator Comparator
}

// NewCriteriaSelectionStrategy derives the comparator from criteria.
func NewCriteriaSelectionStrategy(criteria Criteria) *CriteriaSelectionStrategy {
	cmp := DefaultComparator()
	if criteria.Sorting != nil {
		cmp = criteria.Sorting.Comparator()
	}
	return &CriteriaSelectionStrategy{criteria: criteria, comparator: cmp}
}

// Comparator returns the sorting comparator, usable standalone.
func (s *CriteriaSelectionStrategy) Comparator() Comparator {
	return s.comparator
}

// Criteria returns the criteria the strategy was built from.
func (s *CriteriaSelectionStrategy) Criteria() Criteria {
	return s.criteria
}

// CreateTopRewritingActionCollector returns a fresh collector wired with the
// strategy's comparator, limit and filters.
func (s *CriteriaSelectionStrategy) CreateTopRewritingActionCollector() *TopRewritingActionCollector {
	return NewTopRewritingActionCollector(s.comparator, s.criteria.Limit, s.criteria.Filters)
}

// MatchGroup is the set of matches competing for one span of the query.
type MatchGroup struct {
	Start   int
	End     int
	Text    string // matched query text of the first match
	Matches []*Match
}

// CriteriaProvider supplies the criteria for each matching group.
type CriteriaProvider interface {
	CriteriaFor(g *MatchGroup) Criteria
}

// StaticCriteria applies the same criteria to every group.
type StaticCriteria Criteria

func (c StaticCriteria) CriteriaFor(*MatchGroup) Criteria {
	return Criteria(c)
}

// CriteriaByInput selects criteria by the normalized matched text of a group,
// falling back to Default.
type CriteriaByInput struct {
	Default Criteria
	ByInput map[string]Criteria
}

func (c CriteriaByInput) CriteriaFor(g *MatchGroup) Criteria {
	if cr, ok := c.ByInput[Normalize(g.Text)]; ok {
		return cr
	}
	return c.Default
}
