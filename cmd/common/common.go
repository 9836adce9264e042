// Package common contains shared functionality for command handlers
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"fjacquet/txn-import/cmd/root"
	"fjacquet/txn-import/internal/auth"
	"fjacquet/txn-import/internal/categorizer"
	"fjacquet/txn-import/internal/config"
	"fjacquet/txn-import/internal/container"
	"fjacquet/txn-import/internal/logging"
	"fjacquet/txn-import/internal/models"
	"fjacquet/txn-import/internal/parser"
	"fjacquet/txn-import/internal/parsererror"
	"fjacquet/txn-import/internal/reconcile"
	"fjacquet/txn-import/internal/store"

	"github.com/spf13/cobra"
)

// Config returns the loaded configuration, loading it when a command runs
// without the root pre-run hook.
func Config() (*config.Config, error) {
	if root.AppConfig == nil {
		if err := root.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return root.AppConfig, nil
}

// Logger wraps root.Log.
func Logger() logging.Logger {
	return logging.NewLogrusAdapterFromLogger(root.Log)
}

// ContainerOptions are appended to the options NewContainer passes.
var ContainerOptions []container.Option

// NewContainer wires the application from the loaded configuration.
func NewContainer() (*container.Container, error) {
	cfg, err := Config()
	if err != nil {
		return nil, err
	}
	opts := append([]container.Option{container.WithLogger(Logger())}, ContainerOptions...)
	return container.NewContainer(cfg, opts...)
}

// NewLineParser builds a parser with the configured rules and no database.
func NewLineParser(cfg *config.Config) (*parser.LineParser, error) {
	logger := Logger()
	rules, err := categorizer.NewRuleCategorizerFromSource(
		store.NewCategoryStore(cfg.Rules.File, logger), cfg.Rules.DefaultCategory, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load categorization rules: %w", err)
	}
	return parser.NewLineParser(rules, logger), nil
}

// Context returns the command context, or a background context when the
// command runs outside Execute.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Session is the auth capability for the configured user.
func Session(cfg *config.Config) *auth.Session {
	return auth.NewSession(cfg.Auth.User)
}

// ReadInput returns the content of path, or of stdin when path is "-".
func ReadInput(path string, stdin io.Reader) (string, error) {
	if path == "" {
		return "", fmt.Errorf("input file is required (use -i FILE or -i - for stdin)")
	}
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	// #nosec G304 -- input path comes from the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	return string(data), nil
}

// ParsePendingIDs parses command arguments as pending ids.
func ParsePendingIDs(args []string) ([]int64, error) {
	out := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid pending id %q", arg)
		}
		out = append(out, id)
	}
	return out, nil
}

// LoadReconciler builds a reconciler and loads the working set.
func LoadReconciler(ctx context.Context, c *container.Container, notifier reconcile.Notifier, capability auth.Capability) (*reconcile.Reconciler, error) {
	rec := c.NewReconciler(notifier)
	if err := rec.Load(ctx, capability); err != nil {
		return nil, err
	}
	return rec, nil
}

// ResolveGUID maps a pending id to the working set GUID.
func ResolveGUID(rec *reconcile.Reconciler, id int64) (string, error) {
	entry, ok := rec.FindByPendingID(id)
	if !ok {
		return "", fmt.Errorf("pending id %d: %w", id, reconcile.ErrNotFound)
	}
	return entry.Record.GUID, nil
}

// PrintNotifier writes notifications to w as they arrive.
type PrintNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrintNotifier creates a PrintNotifier.
func NewPrintNotifier(w io.Writer) *PrintNotifier {
	return &PrintNotifier{w: w}
}

// Notify prints n on one line.
func (p *PrintNotifier) Notify(n reconcile.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prefix := "ok"
	if n.Level == reconcile.LevelError {
		prefix = "error"
	}
	fmt.Fprintf(p.w, "[%s] %s: %s\n", prefix, n.Action, n.Message)
}

// SyncWriter serializes writes to an underlying writer so background
// operations and the foreground can share one output.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w.
func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// PrintLineErrors lists rejected lines.
func PrintLineErrors(w io.Writer, errs []parsererror.LineError) {
	for _, e := range errs {
		fmt.Fprintf(w, "  line %d: %s: %q\n", e.Line, e.Reason, e.Preview)
	}
}

// PrintParsed lists parsed transactions as a table.
func PrintParsed(w io.Writer, txs []models.ParsedTransaction) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDESCRIPTION\tAMOUNT\tCATEGORY")
	for _, t := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Date.Format(models.DateLayout), t.Description, t.Amount.StringFixed(2), t.Category)
	}
	_ = tw.Flush()
}

// PrintEntries lists working set entries as a table.
func PrintEntries(w io.Writer, entries []reconcile.Entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tDESCRIPTION\tAMOUNT\tCATEGORY\tSOURCE\tSTATE")
	for _, e := range entries {
		r := e.Record
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Date.Format(models.DateLayout), r.Description,
			r.Amount.StringFixed(2), r.Category(), r.Categorization.Provenance(), e.State)
	}
	_ = tw.Flush()
}

// PrintTransactions lists permanent transactions as a table.
func PrintTransactions(w io.Writer, txs []models.Transaction) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tDESCRIPTION\tAMOUNT\tCATEGORY\tSOURCE")
	for _, t := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Date.Format(models.DateLayout), t.Description,
			t.Amount.StringFixed(2), t.Category, t.CategorySource)
	}
	_ = tw.Flush()
}

// Workspace bundles what the record commands need.
type Workspace struct {
	Container  *container.Container
	Reconciler *reconcile.Reconciler
	Session    *auth.Session
}

// OpenWorkspace wires the container, signs in the configured user and
// loads the working set. Notifications print to the command output.
func OpenWorkspace(cmd *cobra.Command) (*Workspace, error) {
	return OpenWorkspaceWriter(cmd, cmd.OutOrStdout())
}

// OpenWorkspaceWriter is OpenWorkspace with notifications sent to w.
func OpenWorkspaceWriter(cmd *cobra.Command, w io.Writer) (*Workspace, error) {
	cfg, err := Config()
	if err != nil {
		return nil, err
	}
	c, err := NewContainer()
	if err != nil {
		return nil, err
	}
	session := Session(cfg)
	rec, err := LoadReconciler(Context(cmd), c, NewPrintNotifier(w), session)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Workspace{Container: c, Reconciler: rec, Session: session}, nil
}

// Close releases the container.
func (w *Workspace) Close() error {
	return w.Container.Close()
}

// RunEach runs op for every pending id concurrently and waits for all of
// them. Failures are joined.
func (w *Workspace) RunEach(ids []int64, op func(guid string) (reconcile.OpResult, error)) error {
	type pendingOp struct {
		id int64
		op *reconcile.Operation
	}
	var (
		ops  []pendingOp
		errs []error
	)
	for _, id := range ids {
		guid, err := ResolveGUID(w.Reconciler, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ops = append(ops, pendingOp{id: id, op: reconcile.Go(func() (reconcile.OpResult, error) { return op(guid) })})
	}
	for _, p := range ops {
		if _, err := p.op.Wait(); err != nil {
			errs = append(errs, fmt.Errorf("pending id %d: %w", p.id, err))
		}
	}
	return errors.Join(errs...)
}
