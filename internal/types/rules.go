// internal/types/rules.go
package types

/*
 * Wire-agnostic rule definitions.
 *
 * RuleDefinition is what a rule source (YAML file, SQL store, API payload)
 * hands to internal/rules. Nothing here is validated; rules.NewRuleSet
 * compiles and validates a whole slice at once and rejects it on the first
 * malformed definition.
 *
 * Key types:
 *   - RuleDefinition: input pattern text + instructions + properties
 *   - InstructionDefinition: one effect (synonym, up, down, filter, delete, decorate)
 *   - DescriptionOverride: author-supplied text used for rewrite logging
 *   - PathSegment: one component of a property path (key, index, or wildcard)
 */

// PathSegment represents one component of a property path.
// String for object keys, int for array indices, wildcard for array expansion.
type PathSegment struct {
	Key      string // object key (mutually exclusive with Index/Wildcard)
	Index    int    // array index (mutually exclusive with Key/Wildcard)
	IsIndex  bool   // disambiguates Index=0 from unset
	Wildcard bool   // true = wildcard segment
}

// DescriptionOverride replaces the instruction description used for logging.
// Nil fields fall back to "absent", not to the instruction's own values.
type DescriptionOverride struct {
	TypeName string   `json:"type,omitempty"`
	Param    *float64 `json:"param,omitempty"`
	Value    *string  `json:"value,omitempty"`
}

// InstructionDefinition is a single rule effect before compilation.
// JSON tags define the stored form in the rules table.
type InstructionDefinition struct {
	Type        string               `json:"type"`            // synonym, up, down, filter, delete, decorate
	Value       string               `json:"value,omitempty"` // query text, terms, or decoration payload
	Param       *float64             `json:"param,omitempty"` // weight for synonym/up/down
	Description *DescriptionOverride `json:"log,omitempty"`
}

// RuleDefinition pairs an input pattern with the instructions to apply.
type RuleDefinition struct {
	RuleID       RuleID
	Input        string
	Instructions []InstructionDefinition
	Properties   map[string]any // JSON-compatible values
}
