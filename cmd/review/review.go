// Package review provides an interactive session over the pending
// working set.
package review

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"fjacquet/txn-import/cmd/common"
	"fjacquet/txn-import/internal/auth"
	"fjacquet/txn-import/internal/pending"
	"fjacquet/txn-import/internal/reconcile"

	"github.com/spf13/cobra"
)

const helpText = `Commands:
  list                 show the working set
  accept N             accept pending id N into the ledger
  discard N            discard pending id N
  discard-all          discard every pending transaction
  ai N                 ask the AI model to categorize pending id N
  category N NAME      set the category of pending id N
  note N TEXT          set the notes of pending id N
  refresh              reload from the store
  wait                 wait for running operations
  help                 show this help
  quit                 wait for running operations and leave
`

// Cmd represents the review command
var Cmd = &cobra.Command{
	Use:   "review",
	Short: "Review pending transactions interactively",
	Long: `Review opens the pending working set and reads commands from standard input.
Accept, discard and ai run in the background, so several transactions can be
in flight at once. Type help for the command list.`,
	Args: cobra.NoArgs,
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	out := common.NewSyncWriter(cmd.OutOrStdout())
	ws, err := common.OpenWorkspaceWriter(cmd, out)
	if err != nil {
		return err
	}
	defer ws.Close()

	c := &console{
		ctx:     common.Context(cmd),
		rec:     ws.Reconciler,
		session: ws.Session,
		out:     out,
	}
	return c.run(cmd.InOrStdin())
}

type console struct {
	ctx     context.Context
	rec     *reconcile.Reconciler
	session auth.Capability
	out     io.Writer

	mu       sync.Mutex
	inflight []*reconcile.Operation
}

func (c *console) run(in io.Reader) error {
	c.list()
	fmt.Fprint(c.out, "Type help for commands.\n")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			break
		}
		if err := c.dispatch(fields[0], fields[1:]); err != nil {
			c.printErr(err)
		}
	}
	c.wait()
	return scanner.Err()
}

func (c *console) dispatch(name string, args []string) error {
	switch name {
	case "help":
		fmt.Fprint(c.out, helpText)
	case "list", "ls":
		c.list()
	case "wait":
		c.wait()
	case "refresh":
		return unreported(c.rec.Refresh(c.ctx, c.session))
	case "discard-all":
		_, err := c.rec.DiscardAll(c.ctx, c.session)
		return unreported(err)
	case "accept":
		return c.background(args, c.rec.Accept)
	case "discard":
		return c.background(args, c.rec.Discard)
	case "ai":
		return c.background(args, c.rec.CategorizeAI)
	case "category":
		guid, rest, err := c.target(args, "category N NAME")
		if err != nil {
			return err
		}
		name := strings.Join(rest, " ")
		_, err = c.rec.Edit(c.ctx, c.session, guid, pending.Patch{Category: &name})
		return unreported(err)
	case "note":
		guid, rest, err := c.target(args, "note N TEXT")
		if err != nil {
			return err
		}
		text := strings.Join(rest, " ")
		_, err = c.rec.Edit(c.ctx, c.session, guid, pending.Patch{Notes: &text})
		return unreported(err)
	default:
		return fmt.Errorf("unknown command %q, type help", name)
	}
	return nil
}

// target resolves the pending id in args[0]; a usage error is returned
// when the remaining arguments are empty.
func (c *console) target(args []string, usage string) (string, []string, error) {
	if len(args) < 2 {
		return "", nil, fmt.Errorf("usage: %s", usage)
	}
	guid, err := c.resolve(args[0])
	return guid, args[1:], err
}

func (c *console) resolve(arg string) (string, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid pending id %q", arg)
	}
	return common.ResolveGUID(c.rec, id)
}

type recordOp func(ctx context.Context, c auth.Capability, guid string) (reconcile.OpResult, error)

func (c *console) background(args []string, op recordOp) error {
	if len(args) != 1 {
		return errors.New("expected one pending id")
	}
	guid, err := c.resolve(args[0])
	if err != nil {
		return err
	}
	o := reconcile.Go(func() (reconcile.OpResult, error) {
		result, err := op(c.ctx, c.session, guid)
		if err := unreported(err); err != nil {
			c.printErr(err)
		}
		return result, err
	})
	c.mu.Lock()
	c.inflight = append(c.inflight, o)
	c.mu.Unlock()
	return nil
}

func (c *console) wait() {
	c.mu.Lock()
	ops := c.inflight
	c.inflight = nil
	c.mu.Unlock()
	for _, o := range ops {
		o.Wait()
	}
}

func (c *console) list() {
	entries := c.rec.Snapshot()
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "No pending transactions")
		return
	}
	common.PrintEntries(c.out, entries)
}

func (c *console) printErr(err error) {
	fmt.Fprintf(c.out, "error: %v\n", err)
}

// unreported keeps the refusals the reconciler does not notify about.
func unreported(err error) error {
	if err != nil && refused(err) {
		return err
	}
	return nil
}

func refused(err error) bool {
	return errors.Is(err, reconcile.ErrBusy) ||
		errors.Is(err, reconcile.ErrNotFound) ||
		errors.Is(err, reconcile.ErrAIUnavailable) ||
		errors.Is(err, auth.ErrNotPermitted)
}
