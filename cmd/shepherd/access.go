package main

import (
	"fmt"
	"strings"

	"github.com/shepherd-church/shepherd/internal/access"
	"github.com/shepherd-church/shepherd/internal/config"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/spf13/cobra"
)

var accessTableFile string

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Inspect the permission table",
}

var accessCheckCmd = &cobra.Command{
	Use:   "check <role> <path>",
	Short: "Show whether a role may open a page",
	Example: `  shepherd access check member /donations
  shepherd access check admin /members/42/edit --table ./access.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runAccessCheck,
}

var accessListCmd = &cobra.Command{
	Use:   "list <role>",
	Short: "List the pages a role may open",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		evaluator, role, err := loadEvaluator(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(evaluator.AllowedPaths(role), "\n"))
		return nil
	},
}

func init() {
	accessCmd.PersistentFlags().StringVar(&accessTableFile, "table", "", "Permission table file (default: access.table_file from config)")
	accessCmd.AddCommand(accessCheckCmd)
	accessCmd.AddCommand(accessListCmd)
}

// loadEvaluator builds the evaluator the server would use. Unknown role
// names are passed through so the check shows they are denied.
func loadEvaluator(roleName string) (*access.Evaluator, models.Role, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration: %w", err)
	}
	tableFile := cfg.Access.TableFile
	if accessTableFile != "" {
		tableFile = accessTableFile
	}

	table, err := access.LoadTable(tableFile)
	if err != nil {
		return nil, "", err
	}
	evaluator, err := access.NewEvaluator(table, cfg.Access.FallbackPath)
	if err != nil {
		return nil, "", err
	}
	return evaluator, models.Role(roleName), nil
}

func runAccessCheck(cmd *cobra.Command, args []string) error {
	evaluator, role, err := loadEvaluator(args[0])
	if err != nil {
		return err
	}

	path := args[1]
	target, allowed := evaluator.Resolve(role, path)
	if allowed {
		fmt.Fprintf(cmd.OutOrStdout(), "allow %s -> %s\n", role, path)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deny  %s -> %s (redirect to %s)\n", role, path, target)
	return nil
}
