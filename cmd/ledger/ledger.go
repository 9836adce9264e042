// Package ledger lists and exports accepted transactions.
package ledger

import (
	"fmt"
	"time"

	"fjacquet/txn-import/cmd/common"
	acommon "fjacquet/txn-import/internal/common"
	iledger "fjacquet/txn-import/internal/ledger"
	"fjacquet/txn-import/internal/models"

	"github.com/spf13/cobra"
)

var (
	output  string
	account string
	from    string
	to      string
)

// Cmd groups the ledger subcommands.
var Cmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect accepted transactions",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List accepted transactions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export accepted transactions to CSV",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	for _, c := range []*cobra.Command{listCmd, exportCmd} {
		c.Flags().StringVar(&account, "account", "", "Only this account")
		c.Flags().StringVar(&from, "from", "", "Only transactions on or after this date (YYYY-MM-DD)")
		c.Flags().StringVar(&to, "to", "", "Only transactions on or before this date (YYYY-MM-DD)")
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, or - for stdout")
	Cmd.AddCommand(listCmd, exportCmd)
}

func filter() (iledger.ListFilter, error) {
	f := iledger.ListFilter{AccountID: account}
	var err error
	if from != "" {
		if f.From, err = time.Parse(models.DateLayout, from); err != nil {
			return f, fmt.Errorf("invalid --from date %q", from)
		}
	}
	if to != "" {
		if f.To, err = time.Parse(models.DateLayout, to); err != nil {
			return f, fmt.Errorf("invalid --to date %q", to)
		}
	}
	return f, nil
}

func list(cmd *cobra.Command) ([]models.Transaction, rune, error) {
	f, err := filter()
	if err != nil {
		return nil, 0, err
	}
	c, err := common.NewContainer()
	if err != nil {
		return nil, 0, err
	}
	defer c.Close()

	txs, err := c.GetLedger().List(common.Context(cmd), f)
	return txs, c.GetConfig().Delimiter(), err
}

func runList(cmd *cobra.Command, args []string) error {
	txs, _, err := list(cmd)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No accepted transactions")
		return nil
	}
	common.PrintTransactions(cmd.OutOrStdout(), txs)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	txs, delimiter, err := list(cmd)
	if err != nil {
		return err
	}
	if output == "-" {
		return acommon.MarshalCSV(iledger.ToRows(txs), cmd.OutOrStdout(), delimiter)
	}
	if err := iledger.Export(txs, output, delimiter); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", len(txs), output)
	return nil
}
