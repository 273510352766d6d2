// internal/rules/coercion.go
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/rewritekeeper/internal/types"
)

/*
 * Type coercion for filter conditions.
 *
 * Property values come from YAML, JSON or protobuf Structs, so the same
 * logical number may arrive as int, int64 or float64, and authors often
 * quote numbers. Each operator declares the type it compares in:
 *
 *   - NUMERIC: strict, numbers and numeric strings only (ordering operators)
 *   - TEXT: lenient, everything renders to a string (prefix/suffix, name:value)
 *   - ANY: value kept as is (==, !=)
 *
 * A NUMERIC coercion failure is an error, not a non-match: an ordering test
 * on a non-numeric property is a broken filter.
 */

// FieldType is the comparison type of a condition.
type FieldType int

const (
	FieldTypeAny FieldType = iota
	FieldTypeNumeric
	FieldTypeText
)

func (ft FieldType) String() string {
	switch ft {
	case FieldTypeNumeric:
		return "numeric"
	case FieldTypeText:
		return "text"
	default:
		return "any"
	}
}

// Coerce converts value to fieldType. nil values are returned as nil.
// Returns ErrCoercionFailed for impossible coercions.
func Coerce(value any, fieldType FieldType) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch fieldType {
	case FieldTypeNumeric:
		return coerceNumeric(value)
	case FieldTypeText:
		return coerceText(value), nil
	default:
		if f, ok := toFloat64(value); ok {
			return f, nil
		}
		return value, nil
	}
}

func coerceNumeric(value any) (float64, error) {
	if f, ok := toFloat64(value); ok {
		return f, nil
	}
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s != "" {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %v (%T) is not numeric", types.ErrCoercionFailed, value, value)
}

func coerceText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		if f, ok := toFloat64(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprintf("%v", v)
	}
}
