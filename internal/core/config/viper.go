package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("rewrite_api.host", d.RewriteAPI.Host)
	v.SetDefault("rewrite_api.port", d.RewriteAPI.Port)
	v.SetDefault("rewrite_api.request_timeout", d.RewriteAPI.RequestTimeout.String())
	v.SetDefault("rewrite_api.data_dir", d.RewriteAPI.DataDir)
	v.SetDefault("rewrite_api.rules_file", "")
	v.SetDefault("rewrite_api.audit_log", false)
	v.SetDefault("criteria.sort", "")
	v.SetDefault("criteria.limit", 0)
	v.SetDefault("criteria.filters", []string{})
	v.SetDefault("logging.active", false)
	v.SetDefault("logging.details", false)
	v.SetDefault("properties.ord", d.Properties.Ord)
	v.SetDefault("properties.id", d.Properties.ID)
	v.SetDefault("properties.log_message", d.Properties.LogMessage)

	// Bind environment variables with RK_ prefix
	v.SetEnvPrefix("RK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		RewriteAPI: RewriteAPIConfig{
			Host:           v.GetString("rewrite_api.host"),
			Port:           v.GetInt("rewrite_api.port"),
			RequestTimeout: v.GetDuration("rewrite_api.request_timeout"),
			DataDir:        v.GetString("rewrite_api.data_dir"),
			RulesFile:      v.GetString("rewrite_api.rules_file"),
			AuditLog:       v.GetBool("rewrite_api.audit_log"),
		},
		Criteria: CriteriaConfig{
			Sort:    v.GetString("criteria.sort"),
			Limit:   v.GetInt("criteria.limit"),
			Filters: v.GetStringSlice("criteria.filters"),
		},
		Logging: LoggingConfig{
			Active:  v.GetBool("logging.active"),
			Details: v.GetBool("logging.details"),
		},
		Properties: PropertyKeysConfig{
			Ord:        v.GetString("properties.ord"),
			ID:         v.GetString("properties.id"),
			LogMessage: v.GetString("properties.log_message"),
		},
	}

	if v.IsSet("criteria.by_input") {
		if err := v.UnmarshalKey("criteria.by_input", &cfg.Criteria.ByInput); err != nil {
			return nil, fmt.Errorf("invalid criteria.by_input: %w", err)
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range, timeout, property names and that every
// criteria expression compiles.
func validateConfig(cfg *Config) error {
	if cfg.RewriteAPI.Port <= 0 || cfg.RewriteAPI.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.RewriteAPI.Port)
	}
	if cfg.RewriteAPI.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RewriteAPI.RequestTimeout)
	}

	p := cfg.Properties
	if p.Ord == "" || p.ID == "" || p.LogMessage == "" {
		return fmt.Errorf("property names must not be empty")
	}
	if p.Ord == p.ID || p.Ord == p.LogMessage || p.ID == p.LogMessage {
		return fmt.Errorf("property names must be distinct, got ord=%q id=%q log_message=%q", p.Ord, p.ID, p.LogMessage)
	}

	if _, err := cfg.Criteria.Provider(); err != nil {
		return fmt.Errorf("invalid criteria: %w", err)
	}
	return nil
}
