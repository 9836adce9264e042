// Package rules shows and scaffolds the categorization rules file.
package rules

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/txn-import/cmd/common"
	"fjacquet/txn-import/internal/categorizer"
	"fjacquet/txn-import/internal/store"

	"github.com/spf13/cobra"
)

var force bool

// Cmd groups the rules subcommands.
var Cmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage keyword categorization rules",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the active rules in match order",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the built-in rules to the configured rules file",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing rules file")
	Cmd.AddCommand(listCmd, initCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := common.Config()
	if err != nil {
		return err
	}
	rules, err := store.NewCategoryStore(cfg.Rules.File, common.Logger()).LoadCategories()
	if err != nil {
		return err
	}
	source := cfg.Rules.File
	if len(rules) == 0 {
		rules = categorizer.DefaultRules()
		source = "built-in"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rules (%s), first match wins:\n", source)
	for i, r := range rules {
		fmt.Fprintf(out, "%2d. %s: %s\n", i+1, r.Name, strings.Join(r.Keywords, ", "))
	}
	fmt.Fprintf(out, "Default category: %s\n", cfg.Rules.DefaultCategory)
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := common.Config()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.Rules.File); err == nil && !force {
		return fmt.Errorf("rules file %s already exists (use --force to overwrite)", cfg.Rules.File)
	}
	s := store.NewCategoryStore(cfg.Rules.File, common.Logger())
	if err := s.SaveCategories(categorizer.DefaultRules()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rules to %s\n", len(categorizer.DefaultRules()), cfg.Rules.File)
	return nil
}
