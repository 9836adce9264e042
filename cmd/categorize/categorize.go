// Package categorize handles on-demand AI categorization of pending
// transactions.
package categorize

import (
	"fmt"

	"fjacquet/txn-import/cmd/common"
	"fjacquet/txn-import/internal/reconcile"

	"github.com/spf13/cobra"
)

var acceptAfter bool

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize ID",
	Short: "Categorize one pending transaction using the Gemini model",
	Long: `Categorize asks the AI model for the category of one pending transaction.
The suggestion only lives for this session, so use --accept to accept the
transaction into the ledger with the AI category in the same run.
A failed AI call leaves the rule-based category untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().BoolVar(&acceptAfter, "accept", false, "Accept the transaction with the AI category")
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

	if !ws.Container.AIEnabled() {
		return fmt.Errorf("%w: set ai.enabled and GEMINI_API_KEY", reconcile.ErrAIUnavailable)
	}

	guid, err := common.ResolveGUID(ws.Reconciler, ids[0])
	if err != nil {
		return err
	}

	ctx := common.Context(cmd)
	if _, err := ws.Reconciler.CategorizeAI(ctx, ws.Session, guid); err != nil {
		return err
	}
	if entry, ok := ws.Reconciler.Get(guid); ok {
		common.PrintEntries(cmd.OutOrStdout(), []reconcile.Entry{entry})
	}

	if !acceptAfter {
		return nil
	}
	_, err = ws.Reconciler.Accept(ctx, ws.Session, guid)
	return err
}
