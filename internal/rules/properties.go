// internal/rules/properties.go
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/rewritekeeper/internal/types"
)

/*
 * Rule properties.
 *
 * A rule carries a small JSON-compatible property document. Three keys are
 * well known and get typed accessors: the ordinal used by the default
 * comparator, the rule id, and the log message copied into rewrite logging.
 * Their names are configuration (PropertyKeys) rather than constants so a
 * deployment can align them with an existing rule corpus. Every other key is
 * an extension property usable by named sorting and filter expressions.
 *
 * Properties are built once with the rule set and never mutated afterwards;
 * concurrent rewrites read them without locking.
 */

// PropertyKeys names the well-known rule properties.
type PropertyKeys struct {
	Ord        string // numeric ordinal, default sort key
	ID         string // rule id
	LogMessage string // free-text message for rewrite logging
}

// DefaultPropertyKeys returns the property names recognized out of the box.
func DefaultPropertyKeys() PropertyKeys {
	return PropertyKeys{
		Ord:        "ord",
		ID:         "_id",
		LogMessage: "_log",
	}
}

// withDefaults fills empty key names from DefaultPropertyKeys.
func (k PropertyKeys) withDefaults() PropertyKeys {
	d := DefaultPropertyKeys()
	if k.Ord == "" {
		k.Ord = d.Ord
	}
	if k.ID == "" {
		k.ID = d.ID
	}
	if k.LogMessage == "" {
		k.LogMessage = d.LogMessage
	}
	return k
}

// Properties is the read-only property document of one rule.
type Properties struct {
	doc        map[string]any
	id         string
	ord        float64
	hasOrd     bool
	logMessage string
	hasLog     bool
}

// NewProperties validates the well-known keys of raw and returns the document.
// Ord must be numeric (or a numeric string), the log message a string and the
// id a string or number. raw is copied.
func NewProperties(raw map[string]any, keys PropertyKeys) (Properties, error) {
	keys = keys.withDefaults()
	p := Properties{doc: make(map[string]any, len(raw))}
	for k, v := range raw {
		p.doc[k] = v
	}

	if v, ok := raw[keys.Ord]; ok && v != nil {
		f, ok := toFloat64(v)
		if !ok {
			s, isStr := v.(string)
			if !isStr {
				return Properties{}, fmt.Errorf("%w: %s must be numeric, got %T", types.ErrInvalidProperty, keys.Ord, v)
			}
			parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return Properties{}, fmt.Errorf("%w: %s must be numeric, got %q", types.ErrInvalidProperty, keys.Ord, s)
			}
			f = parsed
		}
		p.ord, p.hasOrd = f, true
		p.doc[keys.Ord] = f
	}

	if v, ok := raw[keys.ID]; ok && v != nil {
		switch id := v.(type) {
		case string:
			p.id = id
		default:
			if f, ok := toFloat64(v); ok {
				p.id = strconv.FormatFloat(f, 'f', -1, 64)
			} else {
				return Properties{}, fmt.Errorf("%w: %s must be a string, got %T", types.ErrInvalidProperty, keys.ID, v)
			}
		}
	}

	if v, ok := raw[keys.LogMessage]; ok && v != nil {
		msg, isStr := v.(string)
		if !isStr {
			return Properties{}, fmt.Errorf("%w: %s must be a string, got %T", types.ErrInvalidProperty, keys.LogMessage, v)
		}
		p.logMessage, p.hasLog = msg, true
	}

	return p, nil
}

// Get returns the value stored under name. JSON null counts as absent.
func (p *Properties) Get(name string) (any, bool) {
	v, ok := p.doc[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// ID returns the rule id property, or "" when the rule declares none.
func (p *Properties) ID() string {
	return p.id
}

// Ord returns the numeric ordinal and whether the rule declares one.
func (p *Properties) Ord() (float64, bool) {
	return p.ord, p.hasOrd
}

// LogMessage returns the log message and whether the rule declares one.
func (p *Properties) LogMessage() (string, bool) {
	return p.logMessage, p.hasLog
}

// Len returns the number of properties, well-known keys included.
func (p *Properties) Len() int {
	return len(p.doc)
}
