package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/rewritekeeper/internal/rules"
	"github.com/solatis/rewritekeeper/internal/types"
)

// Rule states stored in the rules table.
const (
	RuleStateActive   = "active"
	RuleStateDisabled = "disabled"
)

// ErrRuleNotFound is returned when a rule id does not exist in the store.
var ErrRuleNotFound = errors.New("rule not found")

// ruleRow is the stored form of one rule. Instructions and properties are
// JSON documents.
type ruleRow struct {
	RuleID       string `db:"rule_id"`
	Position     int    `db:"position"`
	Input        string `db:"input"`
	Instructions string `db:"instructions"`
	Properties   string `db:"properties"`
}

// RuleStore persists rule definitions. Active rules load in position order,
// which becomes the declaration order of the compiled rule set.
type RuleStore struct {
	db      *sqlx.DB
	queries *Queries
}

// NewRuleStore returns a store over an open, migrated database.
func NewRuleStore(db *sqlx.DB) (*RuleStore, error) {
	q, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &RuleStore{db: db, queries: q}, nil
}

// LoadRules returns the active rule definitions in declaration order.
func (s *RuleStore) LoadRules(ctx context.Context) ([]types.RuleDefinition, error) {
	var rows []ruleRow
	if err := s.queries.Select(ctx, "list-active-rules", &rows); err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	defs := make([]types.RuleDefinition, 0, len(rows))
	for _, row := range rows {
		def := types.RuleDefinition{
			RuleID: types.RuleID(row.RuleID),
			Input:  row.Input,
		}
		if err := json.Unmarshal([]byte(row.Instructions), &def.Instructions); err != nil {
			return nil, fmt.Errorf("rule %s: invalid stored instructions: %w", row.RuleID, err)
		}
		if row.Properties != "" {
			if err := json.Unmarshal([]byte(row.Properties), &def.Properties); err != nil {
				return nil, fmt.Errorf("rule %s: invalid stored properties: %w", row.RuleID, err)
			}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// ImportRules validates defs as one rule set and stores them in a single
// transaction. With replace set, every existing rule is removed first;
// otherwise the rules are appended after the existing ones. Rule ids are the
// ids the compiled set resolved (explicit, id property, or generated).
// Returns the number of stored rules.
func (s *RuleStore) ImportRules(ctx context.Context, defs []types.RuleDefinition, replace bool, opts ...rules.BuildOption) (int, error) {
	set, err := rules.NewRuleSet(defs, opts...)
	if err != nil {
		return 0, err
	}
	compiled := set.Rules()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := s.queries.WithTx(tx)

	if replace {
		if _, err := q.Exec(ctx, "delete-all-rules"); err != nil {
			return 0, fmt.Errorf("failed to clear rules: %w", err)
		}
	}

	var last int
	if err := q.Get(ctx, "max-rule-position", &last); err != nil {
		return 0, fmt.Errorf("failed to read rule positions: %w", err)
	}

	for i := range defs {
		instructions, err := json.Marshal(defs[i].Instructions)
		if err != nil {
			return 0, fmt.Errorf("rule %d: failed to encode instructions: %w", i, err)
		}
		props := defs[i].Properties
		if props == nil {
			props = map[string]any{}
		}
		properties, err := json.Marshal(props)
		if err != nil {
			return 0, fmt.Errorf("rule %d: failed to encode properties: %w", i, err)
		}

		id := compiled[i].ID
		if _, err := q.Exec(ctx, "insert-rule", string(id), last+1+i, defs[i].Input, string(instructions), string(properties)); err != nil {
			return 0, fmt.Errorf("failed to insert rule %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rules: %w", err)
	}
	return len(defs), nil
}

// SetRuleState marks a rule active or disabled. Disabled rules stay stored
// but are not loaded.
func (s *RuleStore) SetRuleState(ctx context.Context, id types.RuleID, state string) error {
	if state != RuleStateActive && state != RuleStateDisabled {
		return fmt.Errorf("invalid rule state: %s", state)
	}
	res, err := s.queries.Exec(ctx, "set-rule-state", state, string(id))
	if err != nil {
		return fmt.Errorf("failed to update rule %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("rule %s: %w", id, ErrRuleNotFound)
	}
	return nil
}

// Count returns the number of active rules.
func (s *RuleStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.queries.Get(ctx, "count-active-rules", &n); err != nil {
		return 0, fmt.Errorf("failed to count rules: %w", err)
	}
	return n, nil
}
