package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solatis/rewritekeeper/internal/core/config"
	"github.com/solatis/rewritekeeper/internal/query"
	"github.com/solatis/rewritekeeper/internal/rules"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <query>...",
	Short: "Rewrite a query and print the result",
	Long: `Rewrite parses the arguments as one query, applies the rules from
--rules-file (or the --db-url database) and prints the rewritten query.
With --log the rewrite logging follows as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRewrite,
}

func init() {
	rootCmd.AddCommand(rewriteCmd)
	rewriteCmd.Flags().String("rules-file", "", "YAML rules file (default: rules from --db-url)")
	rewriteCmd.Flags().Bool("log", false, "print rewrite logging")
	rewriteCmd.Flags().Bool("details", false, "include instructions in rewrite logging")
	rewriteCmd.Flags().String("sort", "", "sort matching rules by property (name[:asc|desc])")
	rewriteCmd.Flags().Int("limit", 0, "maximum rules applied per matched input (0 = unbounded)")
	rewriteCmd.Flags().StringArray("filter", nil, "property filter expression (repeatable)")
}

func runRewrite(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rulesFile, _ := cmd.Flags().GetString("rules-file")
	if rulesFile == "" {
		rulesFile = cfg.RewriteAPI.RulesFile
	}
	source, closeSource, err := ruleSource(ctx, rulesFile)
	if err != nil {
		return err
	}
	defer closeSource()

	defs, err := source.LoadRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	set, err := rules.NewRuleSet(defs, rules.WithPropertyKeys(cfg.Properties.Keys()))
	if err != nil {
		return fmt.Errorf("invalid rules: %w", err)
	}
	rewriter, err := rules.NewRewriter(set)
	if err != nil {
		return err
	}

	criteria := cfg.Criteria
	if cmd.Flags().Changed("sort") || cmd.Flags().Changed("limit") || cmd.Flags().Changed("filter") {
		criteria = config.CriteriaConfig{}
		criteria.Sort, _ = cmd.Flags().GetString("sort")
		criteria.Limit, _ = cmd.Flags().GetInt("limit")
		criteria.Filters, _ = cmd.Flags().GetStringArray("filter")
	}
	provider, err := criteria.Provider()
	if err != nil {
		return err
	}

	req := rules.Request{Criteria: provider}
	logActive, _ := cmd.Flags().GetBool("log")
	details, _ := cmd.Flags().GetBool("details")
	switch {
	case logActive || details:
		req.Logging = &rules.RewriteLoggingConfig{Active: true, Details: details}
	case cfg.Logging.Active:
		req.Logging = cfg.Logging.RewriteLogging()
	}

	out, err := rewriter.Rewrite(query.Parse(strings.Join(args, " ")), req)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, out.Query.String())
	if out.Logging != nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out.Logging); err != nil {
			return fmt.Errorf("failed to encode logging: %w", err)
		}
	}
	return nil
}
