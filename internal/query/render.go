package query

import (
	"strconv"
	"strings"
)

// String renders the term as field:value^boost.
func (t *Term) String() string {
	s := t.Value
	if t.Field != "" {
		s = t.Field + ":" + s
	}
	if t.Boost != 0 && t.Boost != 1 {
		s += "^" + strconv.FormatFloat(t.Boost, 'f', -1, 64)
	}
	return s
}

// String renders the position; alternatives are joined with " | ".
func (d *DisjunctionMaxQuery) String() string {
	parts := make([]string, 0, len(d.Clauses))
	for _, c := range d.Clauses {
		if bq, ok := c.(*BooleanQuery); ok {
			parts = append(parts, "("+bq.String()+")")
			continue
		}
		parts = append(parts, c.String())
	}
	if len(parts) == 1 {
		return d.Occur.prefix() + parts[0]
	}
	return d.Occur.prefix() + "(" + strings.Join(parts, " | ") + ")"
}

// String renders the positions separated by spaces.
func (b *BooleanQuery) String() string {
	parts := make([]string, 0, len(b.Clauses))
	for _, c := range b.Clauses {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}

// String renders the user query followed by filters, boosts and decorations.
// The format is deterministic and used by the CLI and tests.
func (e *ExpandedQuery) String() string {
	var sb strings.Builder
	if e.UserQuery != nil {
		sb.WriteString(e.UserQuery.String())
	}
	for _, f := range e.Filters {
		sb.WriteString(" filter(" + f.String() + ")")
	}
	for _, b := range e.BoostUp {
		sb.WriteString(" up(" + strconv.FormatFloat(b.Boost, 'f', -1, 64) + ")(" + b.Query.String() + ")")
	}
	for _, b := range e.BoostDown {
		sb.WriteString(" down(" + strconv.FormatFloat(b.Boost, 'f', -1, 64) + ")(" + b.Query.String() + ")")
	}
	for _, d := range e.Decorations {
		sb.WriteString(" decorate(" + d + ")")
	}
	return strings.TrimSpace(sb.String())
}
