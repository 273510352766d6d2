package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/rewritekeeper/internal/core/config"
	"github.com/solatis/rewritekeeper/internal/core/db"
	"github.com/solatis/rewritekeeper/internal/rules"
	"github.com/solatis/rewritekeeper/internal/rulesfile"
	"github.com/solatis/rewritekeeper/internal/types"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a YAML rules file into the database",
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the active database rules as YAML",
	RunE:  runExport,
}

var disableCmd = &cobra.Command{
	Use:   "disable <rule-id>",
	Short: "Disable a stored rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRuleState(cmd, args[0], db.RuleStateDisabled)
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable <rule-id>",
	Short: "Re-enable a disabled rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRuleState(cmd, args[0], db.RuleStateActive)
	},
}

func init() {
	rootCmd.AddCommand(importCmd, exportCmd, disableCmd, enableCmd)
	importCmd.Flags().String("rules-file", "", "YAML rules file (required)")
	importCmd.Flags().Bool("replace", false, "replace all stored rules instead of appending")
	exportCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
}

func runImport(cmd *cobra.Command, args []string) error {
	rulesFile, _ := cmd.Flags().GetString("rules-file")
	if rulesFile == "" {
		return fmt.Errorf("--rules-file required")
	}
	replace, _ := cmd.Flags().GetBool("replace")

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	defs, err := rulesfile.Load(rulesFile)
	if err != nil {
		return err
	}

	database, store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	n, err := store.ImportRules(cmd.Context(), defs, replace, rules.WithPropertyKeys(cfg.Properties.Keys()))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d rules\n", n)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	database, store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	defs, err := store.LoadRules(cmd.Context())
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return rulesfile.Encode(cmd.OutOrStdout(), defs)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := rulesfile.Encode(f, defs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func setRuleState(cmd *cobra.Command, id, state string) error {
	database, store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	if err := store.SetRuleState(cmd.Context(), types.RuleID(id), state); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "rule %s %s\n", id, state)
	return nil
}
