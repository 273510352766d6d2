// Package rulesfile reads and writes rule definitions as YAML.
//
// A rules file holds an ordered list of rules; order is significant because
// it is the default tie-break between competing rules:
//
//	rules:
//	  - input: iphone
//	    instructions:
//	      - type: synonym
//	        value: apple
//	        param: 0.5
//	      - type: up
//	        value: brand:apple
//	        param: 2
//	        log: {value: "apple boost"}
//	    properties:
//	      ord: 1
//	      _log: "iphone synonyms"
//	      brand: apple
package rulesfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solatis/rewritekeeper/internal/types"
)

// File is the document structure of a rules file.
type File struct {
	Rules []Rule `yaml:"rules"`
}

// Rule is one rule entry.
type Rule struct {
	ID           string         `yaml:"id,omitempty"`
	Input        string         `yaml:"input"`
	Instructions []Instruction  `yaml:"instructions"`
	Properties   map[string]any `yaml:"properties,omitempty"`
}

// Instruction is one instruction entry. Log overrides how the instruction
// appears in rewrite logging.
type Instruction struct {
	Type  string   `yaml:"type"`
	Value string   `yaml:"value,omitempty"`
	Param *float64 `yaml:"param,omitempty"`
	Log   *Log     `yaml:"log,omitempty"`
}

// Log is a logging description override.
type Log struct {
	Type  string   `yaml:"type,omitempty"`
	Param *float64 `yaml:"param,omitempty"`
	Value *string  `yaml:"value,omitempty"`
}

// Load reads rule definitions from a YAML file.
func Load(path string) ([]types.RuleDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file %s: %w", path, err)
	}
	defer f.Close()

	defs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return defs, nil
}

// Decode reads rule definitions from r. Unknown keys are rejected.
func Decode(r io.Reader) ([]types.RuleDefinition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return file.Definitions(), nil
}

// Parse reads rule definitions from YAML bytes.
func Parse(data []byte) ([]types.RuleDefinition, error) {
	return Decode(bytes.NewReader(data))
}

// Definitions converts the file entries to rule definitions.
func (f *File) Definitions() []types.RuleDefinition {
	defs := make([]types.RuleDefinition, 0, len(f.Rules))
	for _, r := range f.Rules {
		def := types.RuleDefinition{
			RuleID:       types.RuleID(r.ID),
			Input:        r.Input,
			Instructions: make([]types.InstructionDefinition, 0, len(r.Instructions)),
			Properties:   r.Properties,
		}
		for _, in := range r.Instructions {
			id := types.InstructionDefinition{Type: in.Type, Value: in.Value, Param: in.Param}
			if in.Log != nil {
				id.Description = &types.DescriptionOverride{TypeName: in.Log.Type, Param: in.Log.Param, Value: in.Log.Value}
			}
			def.Instructions = append(def.Instructions, id)
		}
		defs = append(defs, def)
	}
	return defs
}

// FromDefinitions builds a File from rule definitions.
func FromDefinitions(defs []types.RuleDefinition) *File {
	f := &File{Rules: make([]Rule, 0, len(defs))}
	for _, d := range defs {
		r := Rule{ID: string(d.RuleID), Input: d.Input, Properties: d.Properties}
		for _, in := range d.Instructions {
			entry := Instruction{Type: in.Type, Value: in.Value, Param: in.Param}
			if o := in.Description; o != nil {
				entry.Log = &Log{Type: o.TypeName, Param: o.Param, Value: o.Value}
			}
			r.Instructions = append(r.Instructions, entry)
		}
		f.Rules = append(f.Rules, r)
	}
	return f
}

// Encode writes rule definitions as YAML.
func Encode(w io.Writer, defs []types.RuleDefinition) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromDefinitions(defs)); err != nil {
		return err
	}
	return enc.Close()
}
