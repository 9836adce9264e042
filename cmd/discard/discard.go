// Package discard removes pending transactions without accepting them.
package discard

import (
	"fmt"

	"fjacquet/txn-import/cmd/common"
	"fjacquet/txn-import/internal/reconcile"

	"github.com/spf13/cobra"
)

var all bool

// Cmd represents the discard command
var Cmd = &cobra.Command{
	Use:   "discard [ID...]",
	Short: "Discard pending transactions",
	Long:  `Discard removes the given pending transactions, or all of them with --all.`,
	RunE:  run,
}

func init() {
	Cmd.Flags().BoolVar(&all, "all", false, "Discard every pending transaction")
}

func run(cmd *cobra.Command, args []string) error {
	if all == (len(args) > 0) {
		return fmt.Errorf("specify pending ids or --all, but not both")
	}
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
	if all {
		_, err := ws.Reconciler.DiscardAll(ctx, ws.Session)
		return err
	}
	return ws.RunEach(ids, func(guid string) (reconcile.OpResult, error) {
		return ws.Reconciler.Discard(ctx, ws.Session, guid)
	})
}
