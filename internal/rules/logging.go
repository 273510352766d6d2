// internal/rules/logging.go
package rules

import (
	"strconv"
	"strings"
)

/*
 * Rewrite logging model.
 *
 * RewriterLogging is nil when the caller never asked for logging, and
 * non-nil with an empty action list when logging was requested but is
 * inactive. One ActionLogging entry is recorded per applied match, in
 * application order; instruction entries are only filled with Details.
 *
 * Entries reflect what was applied: an instruction whose target vanished
 * is still listed, flagged Skipped.
 */

// RewriteLoggingConfig toggles rewrite logging for one call.
type RewriteLoggingConfig struct {
	Active  bool `json:"active"`
	Details bool `json:"details"`
}

// MatchLogging records the matched query text and the match type name.
type MatchLogging struct {
	Term string `json:"term"`
	Type string `json:"type"`
}

// InstructionLogging records one applied instruction.
type InstructionLogging struct {
	Type    string  `json:"type"`
	Param   *string `json:"param,omitempty"`
	Value   *string `json:"value,omitempty"`
	Skipped bool    `json:"skipped,omitempty"`
}

// ActionLogging records one fired match.
type ActionLogging struct {
	Match        MatchLogging         `json:"match"`
	Message      *string              `json:"message,omitempty"`
	Instructions []InstructionLogging `json:"instructions,omitempty"`
}

// RewriterLogging is the logging output of one rewrite call.
type RewriterLogging struct {
	Actions []ActionLogging `json:"actions"`
}

func newRewriterLogging() *RewriterLogging {
	return &RewriterLogging{Actions: []ActionLogging{}}
}

// FormatParam renders a numeric parameter with at least one fractional digit:
// 1 -> "1.0", 0.5 -> "0.5".
func FormatParam(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func newInstructionLogging(d InstructionDescription, skipped bool) InstructionLogging {
	il := InstructionLogging{Type: d.TypeName, Skipped: skipped}
	if d.Param != nil {
		p := FormatParam(*d.Param)
		il.Param = &p
	}
	if d.Value != nil {
		v := *d.Value
		il.Value = &v
	}
	return il
}

func newActionLogging(m *Match) ActionLogging {
	al := ActionLogging{Match: MatchLogging{Term: m.Text(), Type: m.Type.TypeName()}}
	if msg, ok := m.Rule.Instructions.Properties.LogMessage(); ok {
		al.Message = &msg
	}
	return al
}
