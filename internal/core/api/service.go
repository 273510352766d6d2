// Package api provides the gRPC rewrite service of RewriteKeeper.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/solatis/rewritekeeper/internal/core/config"
	"github.com/solatis/rewritekeeper/internal/rules"
	"github.com/solatis/rewritekeeper/internal/types"
)

// RuleSource supplies the rule definitions a service builds its rule set from.
type RuleSource interface {
	LoadRules(ctx context.Context) ([]types.RuleDefinition, error)
}

// RuleSourceFunc adapts a function to RuleSource.
type RuleSourceFunc func(ctx context.Context) ([]types.RuleDefinition, error)

// LoadRules calls f.
func (f RuleSourceFunc) LoadRules(ctx context.Context) ([]types.RuleDefinition, error) {
	return f(ctx)
}

// ErrRuleSource marks failures to load definitions from the rule source.
var ErrRuleSource = errors.New("rule source unavailable")

// RewriteService serves rewrite requests against the current rule set.
// Thin orchestration layer delegating to the rules and config packages.
// Reload swaps the rewriter atomically; in-flight requests finish on the
// rewriter they started with.
type RewriteService struct {
	rewriter atomic.Pointer[rules.Rewriter]
	source   RuleSource
	keys     rules.PropertyKeys
	criteria rules.CriteriaProvider
	logging  config.LoggingConfig
	audit    *AuditLog
	logger   *slog.Logger
}

// Option configures a RewriteService.
type Option func(*RewriteService) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *RewriteService) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithAuditLog records every rewrite to audit.
func WithAuditLog(audit *AuditLog) Option {
	return func(s *RewriteService) error {
		s.audit = audit
		return nil
	}
}

// NewRewriteService creates the service and loads the initial rule set.
func NewRewriteService(ctx context.Context, cfg *config.Config, source RuleSource, opts ...Option) (*RewriteService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}

	provider, err := cfg.Criteria.Provider()
	if err != nil {
		return nil, fmt.Errorf("invalid default criteria: %w", err)
	}

	s := &RewriteService{
		source:   source,
		keys:     cfg.Properties.Keys(),
		criteria: provider,
		logging:  cfg.Logging,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if _, err := s.ReloadRules(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ReloadRules rebuilds the rule set from the source and swaps it in. On
// failure the current rule set stays active. Returns the number of rules.
func (s *RewriteService) ReloadRules(ctx context.Context) (int, error) {
	defs, err := s.source.LoadRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRuleSource, err)
	}

	set, err := rules.NewRuleSet(defs, rules.WithPropertyKeys(s.keys))
	if err != nil {
		return 0, err
	}

	rw, err := rules.NewRewriter(set, rules.WithLogger(s.logger))
	if err != nil {
		return 0, err
	}

	s.rewriter.Store(rw)
	s.logger.Info("rule set loaded", "rules", set.Len())
	return set.Len(), nil
}

// Rewriter returns the current rewriter.
func (s *RewriteService) Rewriter() *rules.Rewriter {
	return s.rewriter.Load()
}
