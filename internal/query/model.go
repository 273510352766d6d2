// Package query provides the boolean query model rewritten by internal/rules.
//
// The model mirrors what a search engine receives: a user query made of
// positions (one DisjunctionMaxQuery per original token, holding alternative
// terms), plus filter queries, boost queries and decorations added by
// rewriting. Terms added by rewriting carry Generated=true so the matcher never
// matches rule output within the same rewrite call.
package query

// Occur is the boolean role of a clause.
type Occur int

const (
	Should Occur = iota
	Must
	MustNot
)

// prefix returns the query-syntax marker for the occur value.
func (o Occur) prefix() string {
	switch o {
	case Must:
		return "+"
	case MustNot:
		return "-"
	default:
		return ""
	}
}

// Node is a clause of a DisjunctionMaxQuery: *Term or *BooleanQuery.
type Node interface {
	node()
	String() string
}

// Query is anything usable as a filter or boost query: *BooleanQuery or RawQuery.
type Query interface {
	String() string
}

// Term is a single token of the query.
type Term struct {
	Field     string
	Value     string
	Boost     float64 // 0 means unboosted
	Generated bool
}

func (*Term) node() {}

// NewTerm creates an original (user supplied) term.
func NewTerm(field, value string) *Term {
	return &Term{Field: field, Value: value}
}

// NewGeneratedTerm creates a term produced by rewriting.
func NewGeneratedTerm(field, value string) *Term {
	return &Term{Field: field, Value: value, Generated: true}
}

// DisjunctionMaxQuery groups alternative clauses for one query position.
type DisjunctionMaxQuery struct {
	Occur     Occur
	Generated bool
	Clauses   []Node
}

// NewDisjunctionMaxQuery creates a position holding the given clauses.
func NewDisjunctionMaxQuery(occur Occur, generated bool, clauses ...Node) *DisjunctionMaxQuery {
	return &DisjunctionMaxQuery{Occur: occur, Generated: generated, Clauses: clauses}
}

// Terms returns the direct term clauses, original and generated.
func (d *DisjunctionMaxQuery) Terms() []*Term {
	var terms []*Term
	for _, c := range d.Clauses {
		if t, ok := c.(*Term); ok {
			terms = append(terms, t)
		}
	}
	return terms
}

// OriginalTerms returns direct term clauses that were not produced by rewriting.
func (d *DisjunctionMaxQuery) OriginalTerms() []*Term {
	var terms []*Term
	for _, c := range d.Clauses {
		if t, ok := c.(*Term); ok && !t.Generated {
			terms = append(terms, t)
		}
	}
	return terms
}

// Add appends a clause.
func (d *DisjunctionMaxQuery) Add(n Node) {
	d.Clauses = append(d.Clauses, n)
}

// Contains reports whether n is still a direct clause (pointer identity).
func (d *DisjunctionMaxQuery) Contains(n Node) bool {
	for _, c := range d.Clauses {
		if c == n {
			return true
		}
	}
	return false
}

// Remove deletes clause n, reporting whether it was present.
func (d *DisjunctionMaxQuery) Remove(n Node) bool {
	for i, c := range d.Clauses {
		if c == n {
			d.Clauses = append(d.Clauses[:i], d.Clauses[i+1:]...)
			return true
		}
	}
	return false
}

// BooleanQuery is an ordered list of positions.
type BooleanQuery struct {
	Occur     Occur
	Generated bool
	Clauses   []*DisjunctionMaxQuery
}

func (*BooleanQuery) node() {}

// NewBooleanQuery creates a boolean query over the given positions.
func NewBooleanQuery(occur Occur, generated bool, clauses ...*DisjunctionMaxQuery) *BooleanQuery {
	return &BooleanQuery{Occur: occur, Generated: generated, Clauses: clauses}
}

// IndexOf returns the position of d, or -1 when it is no longer attached.
func (b *BooleanQuery) IndexOf(d *DisjunctionMaxQuery) int {
	for i, c := range b.Clauses {
		if c == d {
			return i
		}
	}
	return -1
}

// Remove detaches position d, reporting whether it was present.
func (b *BooleanQuery) Remove(d *DisjunctionMaxQuery) bool {
	i := b.IndexOf(d)
	if i < 0 {
		return false
	}
	b.Clauses = append(b.Clauses[:i], b.Clauses[i+1:]...)
	return true
}

// RawQuery is a query string passed through to the search engine unparsed.
// Written as "*<query>" in rule instructions.
type RawQuery string

func (r RawQuery) String() string {
	return string(r)
}

// BoostQuery attaches a scoring weight to a query.
type BoostQuery struct {
	Query Query
	Boost float64
}

// ExpandedQuery is the unit of rewriting: the user query plus everything
// rules attach to it.
type ExpandedQuery struct {
	UserQuery   *BooleanQuery
	Filters     []Query
	BoostUp     []BoostQuery
	BoostDown   []BoostQuery
	Decorations []string
}

// NewExpandedQuery wraps a user query.
func NewExpandedQuery(user *BooleanQuery) *ExpandedQuery {
	return &ExpandedQuery{UserQuery: user}
}
