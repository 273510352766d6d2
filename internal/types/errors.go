package types

import "errors"

// Sentinel errors for RewriteKeeper operations.
var (
	// ErrEmptyInput indicates a rule input has no terms.
	ErrEmptyInput = errors.New("rule input is empty")

	// ErrTooManyInputTerms indicates an input exceeds MaxInputTerms.
	ErrTooManyInputTerms = errors.New("rule input has too many terms")

	// ErrMisplacedWildcard indicates a wildcard on a term other than the last one.
	ErrMisplacedWildcard = errors.New("wildcard only allowed at the end of the last input term")

	// ErrMisplacedBoundary indicates a boundary quote inside the input.
	ErrMisplacedBoundary = errors.New("boundary quote only allowed at start or end of input")

	// ErrEmptyTerm indicates an input term with no text (e.g. a bare "*" or "f:").
	ErrEmptyTerm = errors.New("input term is empty")

	// ErrNoInstructions indicates a rule without instructions.
	ErrNoInstructions = errors.New("rule has no instructions")

	// ErrTooManyInstructions indicates a rule exceeds MaxRuleInstructions.
	ErrTooManyInstructions = errors.New("rule has too many instructions")

	// ErrUnknownInstruction indicates an unsupported instruction type.
	ErrUnknownInstruction = errors.New("unknown instruction type")

	// ErrInvalidInstruction indicates an instruction with missing or invalid values.
	ErrInvalidInstruction = errors.New("invalid instruction")

	// ErrDuplicateRuleID indicates two rules sharing the same _id.
	ErrDuplicateRuleID = errors.New("duplicate rule id")

	// ErrInvalidProperty indicates a well-known property with the wrong type.
	ErrInvalidProperty = errors.New("invalid rule property")

	// ErrPropertyTypeMismatch indicates a sort property holding values of different kinds.
	ErrPropertyTypeMismatch = errors.New("sort property values have inconsistent types")

	// ErrInvalidSorting indicates a malformed sorting specification.
	ErrInvalidSorting = errors.New("invalid sorting specification")

	// ErrInvalidFilter indicates a filter expression that cannot be parsed.
	ErrInvalidFilter = errors.New("invalid filter expression")

	// ErrFilterEvaluation indicates a filter criterion failed while evaluating.
	ErrFilterEvaluation = errors.New("filter evaluation failed")

	// ErrTargetGone indicates an instruction target was removed earlier in the same rewrite.
	ErrTargetGone = errors.New("instruction target no longer in query")

	// ErrTooManyQueryTerms indicates a query exceeds MaxQueryTerms positions.
	ErrTooManyQueryTerms = errors.New("query has too many terms")

	// ErrPathTooDeep indicates a property path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("property path exceeds maximum depth")

	// ErrTooManyWildcards indicates a property path exceeds MaxNestedWildcards.
	ErrTooManyWildcards = errors.New("property path has too many wildcards")

	// ErrTooManyConditions indicates a filter exceeds MaxFilterConditions.
	ErrTooManyConditions = errors.New("filter expression has too many conditions")

	// ErrCoercionFailed indicates type coercion failed.
	ErrCoercionFailed = errors.New("type coercion failed")

	// ErrFieldNotFound indicates a property path could not be resolved.
	ErrFieldNotFound = errors.New("field not found")

	// ErrRuleSetRequired indicates a rewriter built without a rule set.
	ErrRuleSetRequired = errors.New("rule set is required")

	// ErrQueryRequired indicates a rewrite call without a query.
	ErrQueryRequired = errors.New("query is required")
)
