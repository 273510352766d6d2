package rules

import (
	"testing"

	"github.com/solatis/rewritekeeper/internal/types"
)

func ins(typ, value string) types.InstructionDefinition {
	return types.InstructionDefinition{Type: typ, Value: value}
}

func insParam(typ, value string, param float64) types.InstructionDefinition {
	return types.InstructionDefinition{Type: typ, Value: value, Param: &param}
}

func rule(input string, props map[string]any, instructions ...types.InstructionDefinition) types.RuleDefinition {
	return types.RuleDefinition{Input: input, Instructions: instructions, Properties: props}
}

func mustRuleSet(t *testing.T, defs ...types.RuleDefinition) *RuleSet {
	t.Helper()
	set, err := NewRuleSet(defs)
	if err != nil {
		t.Fatalf("NewRuleSet() error = %v, want nil", err)
	}
	return set
}

func mustProperties(t *testing.T, raw map[string]any) Properties {
	t.Helper()
	p, err := NewProperties(raw, DefaultPropertyKeys())
	if err != nil {
		t.Fatalf("NewProperties() error = %v, want nil", err)
	}
	return p
}

func instructionsAt(t *testing.T, declared int, raw map[string]any) *Instructions {
	t.Helper()
	return &Instructions{Declared: declared, Properties: mustProperties(t, raw)}
}

func ptr[T any](v T) *T {
	return &v
}
