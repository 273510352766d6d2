// internal/rules/rewriter.go
package rules

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/solatis/rewritekeeper/internal/query"
	"github.com/solatis/rewritekeeper/internal/types"
)

/*
 * Rewriter orchestration.
 *
 * Rewrite runs in two phases. Selection matches the user query against the
 * rule set, groups the matches by span and runs every group through the
 * collector of its criteria. Only when every group has been selected does
 * application start, so a filter or comparator error never leaves a
 * half-rewritten query behind.
 *
 * Application walks groups in order of first appearance and, within a
 * group, the retained matches in comparator order. Instructions of one match
 * are applied in declaration order; an instruction whose target was removed
 * by an earlier delete is skipped and logged as such.
 *
 * A Rewriter holds only the immutable RuleSet and may be shared across
 * goroutines; each call owns its query and logging.
 */

// Rewriter applies a rule set to queries.
type Rewriter struct {
	set    *RuleSet
	logger *slog.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rewriter) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRewriter creates a rewriter over set.
func NewRewriter(set *RuleSet, opts ...Option) (*Rewriter, error) {
	if set == nil {
		return nil, types.ErrRuleSetRequired
	}
	r := &Rewriter{set: set, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RuleSet returns the rule set the rewriter applies.
func (r *Rewriter) RuleSet() *RuleSet {
	return r.set
}

// Request carries the per-call configuration of a rewrite.
type Request struct {
	Criteria CriteriaProvider      // nil = unbounded default ordering
	Logging  *RewriteLoggingConfig // nil = no logging requested
}

// RewriterOutput is the result of one rewrite call.
type RewriterOutput struct {
	Query   *query.ExpandedQuery
	Logging *RewriterLogging
}

// Rewrite applies the rule set to q in place and returns it with the logging.
func (r *Rewriter) Rewrite(q *query.ExpandedQuery, req Request) (*RewriterOutput, error) {
	if q == nil {
		return nil, types.ErrQueryRequired
	}
	if q.UserQuery == nil {
		q.UserQuery = query.NewBooleanQuery(query.Should, false)
	}
	if n := len(q.UserQuery.Clauses); n > types.MaxQueryTerms {
		return nil, fmt.Errorf("%w: %d positions (max %d)", types.ErrTooManyQueryTerms, n, types.MaxQueryTerms)
	}

	provider := req.Criteria
	if provider == nil {
		provider = StaticCriteria{}
	}

	selected, err := r.selectMatches(r.set.Match(q.UserQuery), provider)
	if err != nil {
		return nil, err
	}

	var logging *RewriterLogging
	if req.Logging != nil {
		logging = newRewriterLogging()
	}
	active := req.Logging != nil && req.Logging.Active

	app := &application{query: q}
	for _, m := range selected {
		action := newActionLogging(m)
		skipped := 0
		for _, ins := range m.Rule.Instructions.Items {
			skip := false
			if err := ins.apply(app, m); err != nil {
				if !errors.Is(err, types.ErrTargetGone) {
					return nil, fmt.Errorf("rule %s: %w", m.Rule.ID, err)
				}
				skip = true
				skipped++
			}
			if active && req.Logging.Details {
				action.Instructions = append(action.Instructions, newInstructionLogging(ins.Description(), skip))
			}
		}

		r.logger.Debug("rule applied",
			"rule_id", m.Rule.ID,
			"term", action.Match.Term,
			"type", action.Match.Type,
			"skipped", skipped)

		if active {
			logging.Actions = append(logging.Actions, action)
		}
	}

	return &RewriterOutput{Query: q, Logging: logging}, nil
}

// selectMatches groups matches by span and returns the retained matches of
// every group, groups in order of first appearance.
func (r *Rewriter) selectMatches(matches []*Match, provider CriteriaProvider) ([]*Match, error) {
	groups := groupMatches(matches)
	var selected []*Match
	for _, g := range groups {
		strategy := NewCriteriaSelectionStrategy(provider.CriteriaFor(g))
		collector := strategy.CreateTopRewritingActionCollector()
		for _, m := range g.Matches {
			if err := collector.Offer(m); err != nil {
				return nil, fmt.Errorf("select %q: %w", g.Text, err)
			}
		}
		selected = append(selected, collector.Retained()...)
	}
	return selected, nil
}

type span struct{ start, end int }

// groupMatches partitions matches by their [Start,End) span.
func groupMatches(matches []*Match) []*MatchGroup {
	var groups []*MatchGroup
	byspan := make(map[span]*MatchGroup)
	for _, m := range matches {
		key := span{m.Start, m.End}
		g, ok := byspan[key]
		if !ok {
			g = &MatchGroup{Start: m.Start, End: m.End, Text: m.Text()}
			byspan[key] = g
			groups = append(groups, g)
		}
		g.Matches = append(g.Matches, m)
	}
	return groups
}
