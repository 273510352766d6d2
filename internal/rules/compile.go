// internal/rules/compile.go
package rules

import (
	"fmt"

	"github.com/solatis/rewritekeeper/internal/types"
)

/*
 * Rule compilation and validation.
 *
 * Compiles types.RuleDefinition to Rule: a parsed input pattern, compiled
 * instructions and validated properties.
 *
 * Compilation workflow:
 *   1. Parse and validate the input pattern (boundaries, wildcard, limits)
 *   2. Validate instruction count and compile each instruction
 *   3. Validate well-known properties (ord numeric, _log string)
 *   4. Resolve the rule id: _id property, explicit RuleID, or a new UUIDv7
 *
 * Compile-time validation moves every error to rule set construction so
 * that rewriting itself never fails on a malformed rule.
 */

// Rule is a compiled rule: one input pattern and one instruction set.
type Rule struct {
	ID           types.RuleID
	Input        Input
	Instructions *Instructions
}

// Compile validates and pre-processes a rule definition. declared is the
// rule's position in its rule set and acts as the default tie-break.
func Compile(def *types.RuleDefinition, declared int, keys PropertyKeys) (*Rule, error) {
	input, err := ParseInput(def.Input)
	if err != nil {
		return nil, err
	}

	if len(def.Instructions) == 0 {
		return nil, types.ErrNoInstructions
	}
	if len(def.Instructions) > types.MaxRuleInstructions {
		return nil, types.ErrTooManyInstructions
	}

	items := make([]Instruction, 0, len(def.Instructions))
	for i, d := range def.Instructions {
		ins, err := NewInstruction(d)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		items = append(items, ins)
	}

	props, err := NewProperties(def.Properties, keys)
	if err != nil {
		return nil, err
	}

	id := def.RuleID
	if pid := props.ID(); pid != "" {
		id = types.RuleID(pid)
	}
	if id == "" {
		id = types.NewRuleID()
	}

	return &Rule{
		ID:    id,
		Input: input,
		Instructions: &Instructions{
			Declared:   declared,
			Items:      items,
			Properties: props,
		},
	}, nil
}
