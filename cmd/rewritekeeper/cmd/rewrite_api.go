package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/rewritekeeper/internal/core/api"
	"github.com/solatis/rewritekeeper/internal/core/config"
	"github.com/solatis/rewritekeeper/internal/core/server"
)

var rewriteAPICmd = &cobra.Command{
	Use:   "rewrite-api",
	Short: "Start gRPC rewrite API service",
	RunE:  runRewriteAPI,
}

func init() {
	rootCmd.AddCommand(rewriteAPICmd)
	rewriteAPICmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	rewriteAPICmd.Flags().Int("port", 50052, "gRPC server port")
	rewriteAPICmd.Flags().String("rules-file", "", "YAML rules file (default: rules from --db-url)")
}

func runRewriteAPI(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger := slog.Default()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.RewriteAPI.Host = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.RewriteAPI.Port = port
	}
	if cmd.Flags().Changed("rules-file") {
		rulesFile, _ := cmd.Flags().GetString("rules-file")
		cfg.RewriteAPI.RulesFile = rulesFile
	}

	source, closeSource, err := ruleSource(ctx, cfg.RewriteAPI.RulesFile)
	if err != nil {
		return err
	}
	defer closeSource()

	opts := []api.Option{api.WithLogger(logger)}
	if cfg.RewriteAPI.AuditLog {
		audit, err := api.NewAuditLog(cfg.RewriteAPI.DataDir)
		if err != nil {
			return err
		}
		opts = append(opts, api.WithAuditLog(audit))
	}

	service, err := api.NewRewriteService(ctx, cfg, source, opts...)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(&cfg.RewriteAPI, service, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting rewrite API",
		"version", Version,
		"host", cfg.RewriteAPI.Host,
		"port", cfg.RewriteAPI.Port,
	)
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	// SIGHUP reloads the rule set; SIGINT and SIGTERM shut down
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case err := <-errChan:
			return err
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				if _, err := service.ReloadRules(ctx); err != nil {
					logger.Error("rule reload failed", "error", err)
				}
				continue
			}
			logger.Info("shutting down gracefully")
			return grpcServer.Shutdown(ctx)
		}
	}
}
