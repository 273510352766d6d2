package rules

import (
	"errors"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/rewritekeeper/internal/types"
)

// matchWith builds a bare match around instructions for collector tests.
func matchWith(t *testing.T, declared int, props map[string]any) *Match {
	t.Helper()
	return &Match{Rule: &Rule{
		ID:           types.RuleID(string(rune('a' + declared%26))),
		Instructions: instructionsAt(t, declared, props),
	}}
}

func declaredOf(matches []*Match) []int {
	out := make([]int, len(matches))
	for i, m := range matches {
		out[i] = m.Rule.Instructions.Declared
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCollector_Unbounded(t *testing.T) {
	c := NewTopRewritingActionCollector(DefaultComparator(), 0, nil)
	for _, d := range []int{3, 1, 2, 0} {
		if err := c.Offer(matchWith(t, d, nil)); err != nil {
			t.Fatalf("Offer() error = %v, want nil", err)
		}
	}

	if got := declaredOf(c.Retained()); !equalInts(got, []int{0, 1, 2, 3}) {
		t.Errorf("Retained() = %v, want [0 1 2 3]", got)
	}
}

func TestCollector_LimitEvictsWorst(t *testing.T) {
	c := NewTopRewritingActionCollector(DefaultComparator(), 2, nil)
	for _, d := range []int{3, 1, 2, 0} {
		if err := c.Offer(matchWith(t, d, nil)); err != nil {
			t.Fatalf("Offer() error = %v, want nil", err)
		}
	}

	if got := declaredOf(c.Retained()); !equalInts(got, []int{0, 1}) {
		t.Errorf("Retained() = %v, want [0 1]", got)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCollector_LimitOneKeepsBest(t *testing.T) {
	c := NewTopRewritingActionCollector(NewSorting("score", Descending).Comparator(), 1, nil)
	low := matchWith(t, 0, map[string]any{"score": 1})
	high := matchWith(t, 1, map[string]any{"score": 5})

	for _, m := range []*Match{low, high} {
		if err := c.Offer(m); err != nil {
			t.Fatalf("Offer() error = %v, want nil", err)
		}
	}

	got := c.Retained()
	if len(got) != 1 || got[0] != high {
		t.Errorf("Retained() = %v, want only the score 5 match", declaredOf(got))
	}
}

func TestCollector_Filters(t *testing.T) {
	c := NewTopRewritingActionCollector(DefaultComparator(), 0, []FilterCriterion{
		MustParseFilterCriterion("lang:en"),
	})

	for i, lang := range []string{"en", "de", "en"} {
		if err := c.Offer(matchWith(t, i, map[string]any{"lang": lang})); err != nil {
			t.Fatalf("Offer() error = %v, want nil", err)
		}
	}
	if err := c.Offer(matchWith(t, 3, nil)); err != nil {
		t.Fatalf("Offer() error = %v, want nil", err)
	}

	if got := declaredOf(c.Retained()); !equalInts(got, []int{0, 2}) {
		t.Errorf("Retained() = %v, want [0 2]", got)
	}
}

func TestCollector_FirstRejectingFilterStops(t *testing.T) {
	calls := 0
	reject := FilterFunc(func(*Properties) (bool, error) { return false, nil })
	count := FilterFunc(func(*Properties) (bool, error) { calls++; return true, nil })

	c := NewTopRewritingActionCollector(DefaultComparator(), 0, []FilterCriterion{reject, count})
	if err := c.Offer(matchWith(t, 0, nil)); err != nil {
		t.Fatalf("Offer() error = %v, want nil", err)
	}
	if calls != 0 {
		t.Errorf("second filter called %d times, want 0", calls)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCollector_FilterError(t *testing.T) {
	boom := errors.New("boom")
	c := NewTopRewritingActionCollector(DefaultComparator(), 0, []FilterCriterion{
		FilterFunc(func(*Properties) (bool, error) { return false, boom }),
	})

	err := c.Offer(matchWith(t, 0, nil))
	if !errors.Is(err, types.ErrFilterEvaluation) || !errors.Is(err, boom) {
		t.Errorf("Offer() error = %v, want %v wrapping %v", err, types.ErrFilterEvaluation, boom)
	}
}

func TestCollector_ComparatorError(t *testing.T) {
	c := NewTopRewritingActionCollector(NewSorting("score", Ascending).Comparator(), 0, nil)
	if err := c.Offer(matchWith(t, 0, map[string]any{"score": 1})); err != nil {
		t.Fatalf("Offer() error = %v, want nil", err)
	}

	err := c.Offer(matchWith(t, 1, map[string]any{"score": "x"}))
	if !errors.Is(err, types.ErrPropertyTypeMismatch) {
		t.Errorf("Offer() error = %v, want %v", err, types.ErrPropertyTypeMismatch)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d after failed offer, want 1", c.Len())
	}
}

func TestCollector_FiltersCopied(t *testing.T) {
	filters := []FilterCriterion{MustParseFilterCriterion("a:b")}
	c := NewTopRewritingActionCollector(DefaultComparator(), 3, filters)
	filters[0] = nil

	if c.Filters()[0] == nil {
		t.Error("collector shares the caller's filter slice")
	}
}

// Property-based test: collector equals stable sort + truncate of filtered input
func TestCollector_PropertyMatchesSortAndTruncate(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("retained is the top-limit of the filtered, stably sorted input", prop.ForAll(
		func(ords []int, limit int) bool {
			keep := MustParseFilterCriterion("ord != 3")
			c := NewTopRewritingActionCollector(DefaultComparator(), limit, []FilterCriterion{keep})

			var offered []*Match
			for i, o := range ords {
				m := matchWith(t, i, map[string]any{"ord": o})
				if err := c.Offer(m); err != nil {
					return false
				}
				if o != 3 {
					offered = append(offered, m)
				}
			}

			sort.SliceStable(offered, func(i, j int) bool {
				a, _ := offered[i].Rule.Instructions.Properties.Ord()
				b, _ := offered[j].Rule.Instructions.Properties.Ord()
				return a < b
			})
			if limit > 0 && len(offered) > limit {
				offered = offered[:limit]
			}

			return equalInts(declaredOf(c.Retained()), declaredOf(offered))
		},
		gen.SliceOf(gen.IntRange(0, 5)),
		gen.IntRange(-1, 6),
	))

	properties.TestingRun(t)
}
