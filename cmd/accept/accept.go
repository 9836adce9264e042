// Package accept promotes pending transactions into the ledger.
package accept

import (
	"fjacquet/txn-import/cmd/common"
	"fjacquet/txn-import/internal/reconcile"

	"github.com/spf13/cobra"
)

// Cmd represents the accept command
var Cmd = &cobra.Command{
	Use:   "accept ID...",
	Short: "Accept pending transactions into the ledger",
	Long: `Accept issues a transaction id for each pending transaction, inserts it into
the ledger with its current values and removes it from the pending list.
If the pending record cannot be removed after the insert, it stays pending
and is reported; accepting it again creates a second ledger entry.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	ids, err := common.ParsePendingIDs(args)
	if err != nil {
		return err
	}
	ws, err := common.OpenWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx := common.Context(cmd)
	return ws.RunEach(ids, func(guid string) (reconcile.OpResult, error) {
		return ws.Reconciler.Accept(ctx, ws.Session, guid)
	})
}
