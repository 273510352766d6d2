package rules

import (
	"errors"
	"testing"

	"github.com/solatis/rewritekeeper/internal/types"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		fieldType FieldType
		want      any
		wantErr   error
	}{
		// numeric
		{"float numeric", 3.5, FieldTypeNumeric, 3.5, nil},
		{"int numeric", 42, FieldTypeNumeric, float64(42), nil},
		{"int64 numeric", int64(7), FieldTypeNumeric, float64(7), nil},
		{"numeric string", " 12.5 ", FieldTypeNumeric, 12.5, nil},
		{"empty string numeric", "  ", FieldTypeNumeric, nil, types.ErrCoercionFailed},
		{"word numeric", "abc", FieldTypeNumeric, nil, types.ErrCoercionFailed},
		{"bool numeric", true, FieldTypeNumeric, nil, types.ErrCoercionFailed},

		// text
		{"string text", "apple", FieldTypeText, "apple", nil},
		{"float text", 1.5, FieldTypeText, "1.5", nil},
		{"int text", 10, FieldTypeText, "10", nil},
		{"bool text", false, FieldTypeText, "false", nil},

		// any
		{"int any", 3, FieldTypeAny, float64(3), nil},
		{"string any", "3", FieldTypeAny, "3", nil},
		{"bool any", true, FieldTypeAny, true, nil},

		// null
		{"nil numeric", nil, FieldTypeNumeric, nil, nil},
		{"nil text", nil, FieldTypeText, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, tt.fieldType)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Coerce() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got != tt.want {
				t.Errorf("Coerce() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name   string
		op     Operator
		value  any
		target any
		want   bool
	}{
		{"exists", OpExists, "x", nil, true},
		{"exists nil", OpExists, nil, nil, false},
		{"eq numbers", OpEq, 1.0, 1, true},
		{"eq strings", OpEq, "a", "a", true},
		{"eq mixed", OpEq, "1", 1.0, false},
		{"eq maps", OpEq, map[string]any{}, map[string]any{}, false},
		{"neq", OpNeq, "a", "b", true},
		{"lt", OpLt, 1.0, 2.0, true},
		{"lte equal", OpLte, 2.0, 2.0, true},
		{"gt", OpGt, 3.0, 2.0, true},
		{"gte", OpGte, 1.0, 2.0, false},
		{"prefix", OpPrefix, "laptop", "lap", true},
		{"prefix non string", OpPrefix, 1.0, "1", false},
		{"suffix", OpSuffix, "laptop", "top", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.op, tt.value, tt.target); got != tt.want {
				t.Errorf("Compare(%v, %v, %v) = %v, want %v", tt.op, tt.value, tt.target, got, tt.want)
			}
		})
	}
}
