// Package importcmd implements the import command.
package importcmd

import (
	"fmt"

	"fjacquet/txn-import/cmd/common"
	"fjacquet/txn-import/cmd/root"
	"fjacquet/txn-import/internal/auth"
	acommon "fjacquet/txn-import/internal/common"
	"fjacquet/txn-import/internal/parser"
	"fjacquet/txn-import/internal/parsererror"

	"github.com/spf13/cobra"
)

var (
	input     string
	accountID string
	dryRun    bool
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Parse statement lines and store them as pending transactions",
	Long: `Import parses the input, prints a preview of the valid lines with their
rule-based category, reports rejected lines, and stores the valid lines as
pending transactions for review. Nothing is stored when no line is valid.`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringVarP(&input, "input", "i", "", "Input file, or - for stdin")
	Cmd.Flags().StringVarP(&accountID, "account", "a", "", "Account id (default: import.account_id, then the input file name)")
	Cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview only, do not store anything")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := common.Config()
	if err != nil {
		return err
	}
	text, err := common.ReadInput(input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	p, err := common.NewLineParser(cfg)
	if err != nil {
		return err
	}

	result := p.Parse(text)
	out := cmd.OutOrStdout()
	common.PrintParsed(out, result.Transactions)
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "%d lines rejected:\n", len(result.Errors))
		common.PrintLineErrors(out, result.Errors)
	}

	if result.Succeeded() == 0 {
		return &parsererror.InvalidFormatError{
			FilePath:       input,
			ExpectedFormat: parser.ExpectedFormat,
			Msg:            fmt.Sprintf("no valid lines out of %d", result.Attempted),
		}
	}

	account := acommon.ResolveAccount(accountID, cfg.Import.AccountID, input)
	if dryRun {
		fmt.Fprintf(out, "Dry run: %d of %d lines would be imported into account %s\n",
			result.Succeeded(), result.Attempted, account.ID)
		return nil
	}

	if err := auth.Check(common.Session(cfg)); err != nil {
		return err
	}

	c, err := common.NewContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	records, err := c.GetPendingStore().Insert(common.Context(cmd), account.ID, result.Transactions)
	if err != nil {
		return err
	}

	root.Log.WithField("account_source", account.Source).Debug("Resolved import account")
	fmt.Fprintf(out, "Imported %d of %d lines into account %s as pending transactions\n",
		len(records), result.Attempted, account.ID)
	return nil
}
