// Package config provides configuration management for RewriteKeeper services.
package config

import (
	"fmt"
	"time"

	"github.com/solatis/rewritekeeper/internal/rules"
)

// Config is the complete service configuration.
type Config struct {
	RewriteAPI RewriteAPIConfig
	Criteria   CriteriaConfig
	Logging    LoggingConfig
	Properties PropertyKeysConfig
}

// RewriteAPIConfig holds configuration for the gRPC rewrite API service.
type RewriteAPIConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	DataDir        string
	RulesFile      string // load rules from YAML instead of the database when set
	AuditLog       bool   // append rewrite logging to JSONL files under DataDir
}

// CriteriaConfig is the default selection criteria, optionally per matched input.
type CriteriaConfig struct {
	Sort    string                    `mapstructure:"sort"`
	Limit   int                       `mapstructure:"limit"`
	Filters []string                  `mapstructure:"filters"`
	ByInput map[string]CriteriaConfig `mapstructure:"by_input"`
}

// LoggingConfig is the default rewrite logging of API requests.
type LoggingConfig struct {
	Active  bool
	Details bool
}

// PropertyKeysConfig names the well-known rule properties.
type PropertyKeysConfig struct {
	Ord        string
	ID         string
	LogMessage string
}

// Default returns configuration with default values.
func Default() *Config {
	keys := rules.DefaultPropertyKeys()
	return &Config{
		RewriteAPI: RewriteAPIConfig{
			Host:           "0.0.0.0",
			Port:           50052,
			RequestTimeout: 10 * time.Second,
			DataDir:        "./data",
		},
		Properties: PropertyKeysConfig{Ord: keys.Ord, ID: keys.ID, LogMessage: keys.LogMessage},
	}
}

// Keys converts the configured names to rules.PropertyKeys.
func (p PropertyKeysConfig) Keys() rules.PropertyKeys {
	return rules.PropertyKeys{Ord: p.Ord, ID: p.ID, LogMessage: p.LogMessage}
}

// RewriteLogging converts the logging defaults to a rewrite request toggle.
func (l LoggingConfig) RewriteLogging() *rules.RewriteLoggingConfig {
	return &rules.RewriteLoggingConfig{Active: l.Active, Details: l.Details}
}

// Criteria compiles the sort and filter expressions.
func (c CriteriaConfig) Criteria() (rules.Criteria, error) {
	sorting, err := rules.ParseSorting(c.Sort)
	if err != nil {
		return rules.Criteria{}, err
	}
	filters := make([]rules.FilterCriterion, 0, len(c.Filters))
	for _, expr := range c.Filters {
		f, err := rules.ParseFilterCriterion(expr)
		if err != nil {
			return rules.Criteria{}, err
		}
		filters = append(filters, f)
	}
	return rules.NewCriteria(sorting, c.Limit, filters), nil
}

// Provider compiles the criteria into a provider: static, or keyed by
// matched input when ByInput entries exist.
func (c CriteriaConfig) Provider() (rules.CriteriaProvider, error) {
	def, err := c.Criteria()
	if err != nil {
		return nil, err
	}
	if len(c.ByInput) == 0 {
		return rules.StaticCriteria(def), nil
	}

	byInput := make(map[string]rules.Criteria, len(c.ByInput))
	for input, cc := range c.ByInput {
		cr, err := cc.Criteria()
		if err != nil {
			return nil, fmt.Errorf("criteria for %q: %w", input, err)
		}
		byInput[rules.Normalize(input)] = cr
	}
	return rules.CriteriaByInput{Default: def, ByInput: byInput}, nil
}
