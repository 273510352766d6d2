// internal/rules/collector.go
package rules

import (
	"fmt"
	"sort"

	"github.com/solatis/rewritekeeper/internal/types"
)

/*
 * Top rewriting action collector.
 *
 * Bounded best-of-N selection over the matches of one group. Every offered
 * match runs through the filters first (first rejection drops it); survivors
 * are inserted into a sorted slice of capacity limit. When full, a candidate
 * that does not beat the current worst is dropped, otherwise the worst is
 * evicted. Equal candidates insert after existing ones, so with an
 * unbounded limit the collector is a stable filter+sort.
 *
 * Cost per offer: O(log limit) comparisons plus an O(limit) slice shift.
 * Collectors belong to one group of one rewrite call and are never shared.
 */

// TopRewritingActionCollector retains the best matches of one group.
type TopRewritingActionCollector struct {
	comparator Comparator
	limit      int
	filters    []FilterCriterion
	retained   []*Match
}

// NewTopRewritingActionCollector creates a collector. limit <= 0 is unbounded.
func NewTopRewritingActionCollector(comparator Comparator, limit int, filters []FilterCriterion) *TopRewritingActionCollector {
	fs := make([]FilterCriterion, len(filters))
	copy(fs, filters)
	c := &TopRewritingActionCollector{comparator: comparator, limit: limit, filters: fs}
	if limit > 0 {
		c.retained = make([]*Match, 0, limit)
	}
	return c
}

// Comparator returns the comparator defining "best".
func (c *TopRewritingActionCollector) Comparator() Comparator {
	return c.comparator
}

// Limit returns the maximum number of retained matches (<= 0 = unbounded).
func (c *TopRewritingActionCollector) Limit() int {
	return c.limit
}

// Filters returns the filters in evaluation order.
func (c *TopRewritingActionCollector) Filters() []FilterCriterion {
	out := make([]FilterCriterion, len(c.filters))
	copy(out, c.filters)
	return out
}

// Offer filters m and inserts it if it ranks within the limit.
// A filter or comparator failure is returned and leaves the retained set unchanged.
func (c *TopRewritingActionCollector) Offer(m *Match) error {
	for _, f := range c.filters {
		keep, err := f.Keep(&m.Rule.Instructions.Properties)
		if err != nil {
			return fmt.Errorf("%w: rule %s: %w", types.ErrFilterEvaluation, m.Rule.ID, err)
		}
		if !keep {
			return nil
		}
	}

	// Upper bound: first retained element that m sorts strictly before.
	var cmpErr error
	i := sort.Search(len(c.retained), func(i int) bool {
		if cmpErr != nil {
			return true
		}
		cmp, err := c.comparator.Compare(m.Rule.Instructions, c.retained[i].Rule.Instructions)
		if err != nil {
			cmpErr = err
			return true
		}
		return cmp < 0
	})
	if cmpErr != nil {
		return cmpErr
	}

	if c.limit > 0 && len(c.retained) >= c.limit {
		if i >= len(c.retained) {
			return nil
		}
		c.retained = c.retained[:len(c.retained)-1]
	}

	c.retained = append(c.retained, nil)
	copy(c.retained[i+1:], c.retained[i:])
	c.retained[i] = m
	return nil
}

// Retained returns the kept matches in comparator order.
func (c *TopRewritingActionCollector) Retained() []*Match {
	out := make([]*Match, len(c.retained))
	copy(out, c.retained)
	return out
}

// Len returns the number of retained matches.
func (c *TopRewritingActionCollector) Len() int {
	return len(c.retained)
}
