// Package pending lists and exports the pending transactions.
package pending

import (
	"fmt"

	"fjacquet/txn-import/cmd/common"
	acommon "fjacquet/txn-import/internal/common"
	"fjacquet/txn-import/internal/models"
	ipending "fjacquet/txn-import/internal/pending"

	"github.com/spf13/cobra"
)

var output string

// Cmd groups the pending subcommands.
var Cmd = &cobra.Command{
	Use:   "pending",
	Short: "Inspect pending transactions",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending transactions with their suggested category",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export pending transactions to CSV",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, or - for stdout")
	Cmd.AddCommand(listCmd, exportCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ws, err := common.OpenWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	entries := ws.Reconciler.Snapshot()
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No pending transactions")
		return nil
	}
	common.PrintEntries(cmd.OutOrStdout(), entries)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ws, err := common.OpenWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	entries := ws.Reconciler.Snapshot()
	records := make([]models.PendingRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Record)
	}
	cfg := ws.Container.GetConfig()
	if output == "-" {
		return acommon.MarshalCSV(ipending.ToRows(records), cmd.OutOrStdout(), cfg.Delimiter())
	}
	if err := ipending.Export(records, output, cfg.Delimiter()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d pending transactions to %s\n", len(records), output)
	return nil
}
