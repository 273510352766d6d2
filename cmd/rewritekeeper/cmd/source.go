package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/rewritekeeper/internal/core/api"
	"github.com/solatis/rewritekeeper/internal/core/db"
	"github.com/solatis/rewritekeeper/internal/rulesfile"
	"github.com/solatis/rewritekeeper/internal/types"
)

// openStore opens the --db-url database and verifies every migration has
// been applied.
func openStore(ctx context.Context) (*sqlx.DB, *db.RuleStore, error) {
	if dbURL == "" {
		return nil, nil, fmt.Errorf("--db-url required")
	}
	database, err := db.Open(ctx, dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			database.Close()
			return nil, nil, fmt.Errorf("migration %s not applied - run 'rewritekeeper migrate' first", s.ID)
		}
	}

	store, err := db.NewRuleStore(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return database, store, nil
}

// ruleSource returns the rules file as source when rulesFile is set and the
// database otherwise. The returned close function releases the database.
func ruleSource(ctx context.Context, rulesFile string) (api.RuleSource, func() error, error) {
	if rulesFile != "" {
		src := api.RuleSourceFunc(func(context.Context) ([]types.RuleDefinition, error) {
			return rulesfile.Load(rulesFile)
		})
		return src, func() error { return nil }, nil
	}

	database, store, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return store, database.Close, nil
}
