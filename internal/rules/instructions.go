// internal/rules/instructions.go
package rules

import (
	"fmt"
	"math"
	"strings"

	"github.com/solatis/rewritekeeper/internal/query"
	"github.com/solatis/rewritekeeper/internal/types"
)

/*
 * Instruction model.
 *
 * An Instruction is one atomic effect of a rule. The set of kinds is closed
 * (apply is unexported): synonym, up, down, filter, delete, decorate. Each
 * instruction also describes itself (InstructionDescription) so rewrite
 * logging can report what was applied without inspecting concrete types.
 *
 * Values are kept as text templates and parsed into query nodes at apply
 * time: "$1" is replaced by the text captured by a prefix wildcard, and every
 * application gets fresh nodes so no query shares pointers with a rule.
 */

// Instruction type names as written in rule definitions and logging.
const (
	TypeSynonym  = "synonym"
	TypeUp       = "up"
	TypeDown     = "down"
	TypeFilter   = "filter"
	TypeDelete   = "delete"
	TypeDecorate = "decorate"
)

// InstructionDescription describes an instruction for logging.
type InstructionDescription struct {
	TypeName string
	Param    *float64
	Value    *string
}

// Instruction is one rewriting effect.
type Instruction interface {
	// Description returns the logging description of the instruction.
	Description() InstructionDescription
	apply(a *application, m *Match) error
}

// Instructions is the ordered instruction list of one rule with its properties.
type Instructions struct {
	Declared   int // position of the rule in its rule set
	Items      []Instruction
	Properties Properties
}

// SynonymInstruction adds alternative terms at the matched positions.
type SynonymInstruction struct {
	Value  string
	Weight *float64
	desc   InstructionDescription
}

func (s *SynonymInstruction) Description() InstructionDescription { return s.desc }

// BoostInstruction attaches a weighted query to the boost-up or boost-down list.
type BoostInstruction struct {
	Up    bool
	Value string
	Boost float64
	desc  InstructionDescription
}

func (b *BoostInstruction) Description() InstructionDescription { return b.desc }

// FilterInstruction adds a filter query.
type FilterInstruction struct {
	Value string
	desc  InstructionDescription
}

func (f *FilterInstruction) Description() InstructionDescription { return f.desc }

// DeleteInstruction removes matched terms. An empty Value removes all of them,
// otherwise only the matched terms listed in Value.
type DeleteInstruction struct {
	Value string
	desc  InstructionDescription
}

func (d *DeleteInstruction) Description() InstructionDescription { return d.desc }

// DecorateInstruction attaches an opaque decoration to the query.
type DecorateInstruction struct {
	Value string
	desc  InstructionDescription
}

func (d *DecorateInstruction) Description() InstructionDescription { return d.desc }

// validWeight reports whether p can scale a term or boost clause.
func validWeight(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

// NewInstruction compiles one instruction definition.
func NewInstruction(def types.InstructionDefinition) (Instruction, error) {
	typeName := strings.ToLower(strings.TrimSpace(def.Type))
	value := strings.TrimSpace(def.Value)

	var ins Instruction
	switch typeName {
	case TypeSynonym:
		if value == "" {
			return nil, fmt.Errorf("%w: synonym requires a value", types.ErrInvalidInstruction)
		}
		if def.Param != nil && !validWeight(*def.Param) {
			return nil, fmt.Errorf("%w: synonym weight must be a positive finite number", types.ErrInvalidInstruction)
		}
		ins = &SynonymInstruction{Value: value, Weight: def.Param, desc: describe(typeName, def.Param, value)}
	case TypeUp, TypeDown:
		if value == "" || value == "*" {
			return nil, fmt.Errorf("%w: %s requires a query", types.ErrInvalidInstruction, typeName)
		}
		boost := 1.0
		if def.Param != nil {
			if !validWeight(*def.Param) {
				return nil, fmt.Errorf("%w: %s boost must be a positive finite number", types.ErrInvalidInstruction, typeName)
			}
			boost = *def.Param
		}
		ins = &BoostInstruction{Up: typeName == TypeUp, Value: value, Boost: boost, desc: describe(typeName, &boost, value)}
	case TypeFilter:
		if value == "" || value == "*" {
			return nil, fmt.Errorf("%w: filter requires a query", types.ErrInvalidInstruction)
		}
		ins = &FilterInstruction{Value: value, desc: describe(typeName, nil, value)}
	case TypeDelete:
		ins = &DeleteInstruction{Value: value, desc: describe(typeName, nil, value)}
	case TypeDecorate:
		if value == "" {
			return nil, fmt.Errorf("%w: decorate requires a value", types.ErrInvalidInstruction)
		}
		ins = &DecorateInstruction{Value: value, desc: describe(typeName, nil, value)}
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownInstruction, def.Type)
	}

	if def.Description != nil {
		setDescription(ins, overrideDescription(typeName, def.Description))
	}
	return ins, nil
}

// describe builds the default description; empty values are absent.
func describe(typeName string, param *float64, value string) InstructionDescription {
	d := InstructionDescription{TypeName: typeName}
	if param != nil {
		p := *param
		d.Param = &p
	}
	if value != "" {
		v := value
		d.Value = &v
	}
	return d
}

// overrideDescription converts an author override; an empty type name keeps the instruction's own.
func overrideDescription(typeName string, o *types.DescriptionOverride) InstructionDescription {
	d := InstructionDescription{TypeName: o.TypeName, Param: o.Param, Value: o.Value}
	if d.TypeName == "" {
		d.TypeName = typeName
	}
	return d
}

func setDescription(ins Instruction, d InstructionDescription) {
	switch v := ins.(type) {
	case *SynonymInstruction:
		v.desc = d
	case *BoostInstruction:
		v.desc = d
	case *FilterInstruction:
		v.desc = d
	case *DeleteInstruction:
		v.desc = d
	case *DecorateInstruction:
		v.desc = d
	}
}

// expand substitutes the wildcard capture for $1.
func expand(value string, m *Match) string {
	if !strings.Contains(value, "$1") {
		return value
	}
	return strings.ReplaceAll(value, "$1", m.Wildcard)
}

// buildQuery parses an instruction value; "*..." is passed through raw.
func buildQuery(value string, occur query.Occur) query.Query {
	if strings.HasPrefix(value, "*") {
		return query.RawQuery(strings.TrimSpace(value[1:]))
	}
	return query.ParseBoolean(value, occur, true)
}
