// internal/rules/index.go
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solatis/rewritekeeper/internal/query"
	"github.com/solatis/rewritekeeper/internal/types"
)

/*
 * Term matcher.
 *
 * RuleSet indexes every rule input in a trie keyed by normalized term text.
 * A rule whose input ends in a prefix wildcard is attached to the node of its
 * preceding terms, keyed by the prefix. Matching walks the trie from every
 * query position across every original term alternative of each position,
 * so cost is proportional to query length x trie branching, independent of
 * the number of rules.
 *
 * Positions that are generated, or MUST_NOT, never participate: rules must
 * not match their own output nor negated user terms.
 *
 * The trie is built once in NewRuleSet and only read afterwards; a RuleSet is
 * safe for concurrent use without locking.
 */

// MatchType classifies how a rule input matched.
type MatchType int

const (
	MatchExact MatchType = iota
	MatchPrefix
)

// TypeName returns the name used in rewrite logging.
func (t MatchType) TypeName() string {
	switch t {
	case MatchPrefix:
		return "PREFIX"
	default:
		return "EXACT"
	}
}

func (t MatchType) String() string {
	return t.TypeName()
}

// Match is a candidate firing of a rule against a span of query positions.
type Match struct {
	Rule      *Rule
	Type      MatchType
	Start     int // first matched position
	End       int // one past the last matched position
	Positions []*query.DisjunctionMaxQuery
	Terms     []*query.Term // matched term per position
	Wildcard  string        // text captured by a prefix wildcard
}

// Text returns the matched query terms joined by a space.
func (m *Match) Text() string {
	parts := make([]string, len(m.Terms))
	for i, t := range m.Terms {
		parts[i] = t.Value
	}
	return strings.Join(parts, " ")
}

type trieNode struct {
	children map[string]*trieNode
	rules    []*Rule            // inputs ending exactly here
	prefixes map[string][]*Rule // wildcard inputs keyed by prefix of the next term
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

// RuleSet is an immutable, indexed collection of rules.
type RuleSet struct {
	rules []*Rule
	root  *trieNode
	keys  PropertyKeys
}

// BuildOption configures rule set construction.
type BuildOption func(*buildOptions)

type buildOptions struct {
	keys PropertyKeys
}

// WithPropertyKeys overrides the names of the well-known rule properties.
func WithPropertyKeys(keys PropertyKeys) BuildOption {
	return func(o *buildOptions) {
		o.keys = keys
	}
}

// NewRuleSet compiles and indexes rule definitions. The set is rejected as a
// whole on the first invalid definition; nothing is partially indexed.
func NewRuleSet(defs []types.RuleDefinition, opts ...BuildOption) (*RuleSet, error) {
	o := buildOptions{keys: DefaultPropertyKeys()}
	for _, opt := range opts {
		opt(&o)
	}
	o.keys = o.keys.withDefaults()

	set := &RuleSet{
		rules: make([]*Rule, 0, len(defs)),
		root:  newTrieNode(),
		keys:  o.keys,
	}

	seen := make(map[types.RuleID]int, len(defs))
	for i := range defs {
		rule, err := Compile(&defs[i], i, o.keys)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, defs[i].Input, err)
		}
		if prev, dup := seen[rule.ID]; dup {
			return nil, fmt.Errorf("rule %d (%q): %w: %s also used by rule %d", i, defs[i].Input, types.ErrDuplicateRuleID, rule.ID, prev)
		}
		seen[rule.ID] = i
		set.rules = append(set.rules, rule)
		set.index(rule)
	}

	return set, nil
}

// index inserts rule into the trie.
func (s *RuleSet) index(rule *Rule) {
	node := s.root
	terms := rule.Input.terms
	for k, tm := range terms {
		if tm.prefix && k == len(terms)-1 {
			if node.prefixes == nil {
				node.prefixes = make(map[string][]*Rule)
			}
			node.prefixes[tm.value] = append(node.prefixes[tm.value], rule)
			return
		}
		child, ok := node.children[tm.value]
		if !ok {
			child = newTrieNode()
			node.children[tm.value] = child
		}
		node = child
	}
	node.rules = append(node.rules, rule)
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Rules returns the rules in declaration order.
func (s *RuleSet) Rules() []*Rule {
	out := make([]*Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// PropertyKeys returns the well-known property names the set was built with.
func (s *RuleSet) PropertyKeys() PropertyKeys {
	return s.keys
}

// Match returns every rule match against the positions of bq, ordered by
// start, end and rule declaration order. Rules matching the same span are
// returned as separate candidates.
func (s *RuleSet) Match(bq *query.BooleanQuery) []*Match {
	if bq == nil || len(s.rules) == 0 {
		return nil
	}

	w := walker{positions: bq.Clauses}
	for start := range bq.Clauses {
		w.start = start
		w.walk(s.root, start, nil)
	}

	sort.SliceStable(w.matches, func(i, j int) bool {
		a, b := w.matches[i], w.matches[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Rule.Instructions.Declared < b.Rule.Instructions.Declared
	})
	return w.matches
}

type walker struct {
	positions []*query.DisjunctionMaxQuery
	start     int
	matches   []*Match
}

// walk consumes position pos from node, following every original term.
func (w *walker) walk(node *trieNode, pos int, path []*query.Term) {
	if pos >= len(w.positions) {
		return
	}
	dmq := w.positions[pos]
	if dmq.Generated || dmq.Occur == query.MustNot {
		return
	}

	for _, term := range dmq.OriginalTerms() {
		key := Normalize(term.Value)
		terms := append(path[:len(path):len(path)], term)

		if len(node.prefixes) > 0 {
			for l := 1; l < len(key); l++ {
				for _, rule := range node.prefixes[key[:l]] {
					w.emit(rule, MatchPrefix, terms, key[l:])
				}
			}
		}

		child, ok := node.children[key]
		if !ok {
			continue
		}
		for _, rule := range child.rules {
			w.emit(rule, MatchExact, terms, "")
		}
		w.walk(child, pos+1, terms)
	}
}

// emit records a match after checking boundaries and field restrictions.
func (w *walker) emit(rule *Rule, typ MatchType, terms []*query.Term, wildcard string) {
	end := w.start + len(terms)
	if rule.Input.leftBound && w.start != 0 {
		return
	}
	if rule.Input.rightBound && end != len(w.positions) {
		return
	}
	for k, t := range terms {
		if !rule.Input.acceptsField(k, t.Field) {
			return
		}
	}

	positions := make([]*query.DisjunctionMaxQuery, len(terms))
	copy(positions, w.positions[w.start:end])
	matched := make([]*query.Term, len(terms))
	copy(matched, terms)

	w.matches = append(w.matches, &Match{
		Rule:      rule,
		Type:      typ,
		Start:     w.start,
		End:       end,
		Positions: positions,
		Terms:     matched,
		Wildcard:  wildcard,
	})
}
