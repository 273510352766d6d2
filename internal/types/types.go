// Package types provides domain models shared across RewriteKeeper components.
//
// Wire-agnostic design: rule definitions arrive from YAML files, the SQL rule
// store or the gRPC adapter and are converted into these types at the
// boundary. internal/rules compiles them into an immutable RuleSet. ID
// utilities in ids.go import uuid but are isolated from the rest.
package types

// RuleID identifies a rule within a rule set.
// Taken from the rule's _id property when present, otherwise a UUIDv7.
type RuleID string

// Resource limits enforced when building a rule set and rewriting queries.
const (
	// MaxInputTerms bounds the number of term matchers in one input pattern.
	// 16 terms covers long phrase rules while keeping trie depth small.
	MaxInputTerms = 16

	// MaxRuleInstructions limits instructions attached to a single rule.
	MaxRuleInstructions = 64

	// MaxQueryTerms limits the positions of a query accepted by the API.
	// Matching cost is proportional to positions x trie branching.
	MaxQueryTerms = 256

	// MaxPathDepth prevents runaway recursion when resolving property paths.
	MaxPathDepth = 16

	// MaxNestedWildcards limits wildcard expansion in property paths.
	MaxNestedWildcards = 2

	// MaxFilterConditions limits && clauses in one filter expression.
	MaxFilterConditions = 16
)
