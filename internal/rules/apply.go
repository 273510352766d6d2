// internal/rules/apply.go
package rules

import (
	"fmt"
	"strings"

	"github.com/solatis/rewritekeeper/internal/query"
	"github.com/solatis/rewritekeeper/internal/types"
)

// application is the mutable state of one rewrite call.
type application struct {
	query *query.ExpandedQuery
}

// attached verifies that every matched term is still part of the user query.
// Earlier deletes in the same call may have removed it.
func (a *application) attached(m *Match) error {
	for i, pos := range m.Positions {
		if a.query.UserQuery.IndexOf(pos) < 0 || !pos.Contains(m.Terms[i]) {
			return fmt.Errorf("%w: term %q at position %d", types.ErrTargetGone, m.Terms[i].Value, m.Start+i)
		}
	}
	return nil
}

func (s *SynonymInstruction) apply(a *application, m *Match) error {
	if err := a.attached(m); err != nil {
		return err
	}
	value := expand(s.Value, m)

	// One term replacing one term becomes a plain alternative of the position.
	if len(m.Positions) == 1 && len(strings.Fields(value)) == 1 {
		field, text := query.SplitField(strings.TrimLeft(value, "+-"))
		t := query.NewGeneratedTerm(field, text)
		if s.Weight != nil {
			t.Boost = *s.Weight
		}
		m.Positions[0].Add(t)
		return nil
	}

	for _, pos := range m.Positions {
		sub := query.ParseBoolean(value, query.Must, true)
		if s.Weight != nil {
			for _, d := range sub.Clauses {
				for _, t := range d.Terms() {
					t.Boost = *s.Weight
				}
			}
		}
		pos.Add(sub)
	}
	return nil
}

func (b *BoostInstruction) apply(a *application, m *Match) error {
	bq := query.BoostQuery{Query: buildQuery(expand(b.Value, m), query.Should), Boost: b.Boost}
	if b.Up {
		a.query.BoostUp = append(a.query.BoostUp, bq)
	} else {
		a.query.BoostDown = append(a.query.BoostDown, bq)
	}
	return nil
}

func (f *FilterInstruction) apply(a *application, m *Match) error {
	a.query.Filters = append(a.query.Filters, buildQuery(expand(f.Value, m), query.Must))
	return nil
}

func (d *DeleteInstruction) apply(a *application, m *Match) error {
	if err := a.attached(m); err != nil {
		return err
	}

	var only map[string]bool
	if d.Value != "" {
		only = make(map[string]bool)
		for _, tok := range strings.Fields(expand(d.Value, m)) {
			only[Normalize(tok)] = true
		}
	}

	for i, pos := range m.Positions {
		t := m.Terms[i]
		if only != nil && !only[Normalize(t.Value)] {
			continue
		}
		pos.Remove(t)
		if len(pos.Clauses) == 0 {
			a.query.UserQuery.Remove(pos)
		}
	}
	return nil
}

func (d *DecorateInstruction) apply(a *application, m *Match) error {
	a.query.Decorations = append(a.query.Decorations, expand(d.Value, m))
	return nil
}
