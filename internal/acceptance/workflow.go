// Package acceptance promotes a pending record to a permanent transaction.
//
// The steps always run in the order issue, insert, delete. A failure after
// the insert leaves both the permanent and the pending record in place; the
// workflow never retries and never compensates.
package acceptance

import (
	"context"
	"fmt"
	"time"

	"fjacquet/txn-import/internal/logging"
	"fjacquet/txn-import/internal/models"
)

// Step names a stage of the acceptance workflow.
type Step string

const (
	StepIssue  Step = "issue"
	StepInsert Step = "insert"
	StepDelete Step = "delete"
)

// StepError reports which step failed.
type StepError struct {
	Step      Step
	PendingID int64
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("accept pending id %d: %s failed: %v", e.PendingID, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Diverged reports whether local and remote state may disagree after the
// failure. Only an issue failure leaves everything untouched.
func (e *StepError) Diverged() bool {
	return e.Step != StepIssue
}

// Issuer hands out transaction ids.
type Issuer interface {
	Issue(ctx context.Context) (string, error)
}

// Ledger stores permanent transactions.
type Ledger interface {
	Insert(ctx context.Context, t models.Transaction) (models.Transaction, error)
}

// PendingDeleter removes pending records.
type PendingDeleter interface {
	Delete(ctx context.Context, id int64) error
}

// Workflow runs acceptance against its collaborators.
type Workflow struct {
	issuer  Issuer
	ledger  Ledger
	pending PendingDeleter
	logger  logging.Logger
	now     func() time.Time
}

// NewWorkflow wires a workflow.
func NewWorkflow(issuer Issuer, ledger Ledger, pending PendingDeleter, logger logging.Logger) *Workflow {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Workflow{
		issuer:  issuer,
		ledger:  ledger,
		pending: pending,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Accept promotes rec. onInserted, when not nil, runs after the insert
// succeeds and before the pending delete.
func (w *Workflow) Accept(ctx context.Context, rec models.PendingRecord, onInserted func()) (models.Transaction, error) {
	log := w.logger.WithFields(
		logging.Field{Key: logging.FieldPendingID, Value: rec.ID},
		logging.Field{Key: logging.FieldGUID, Value: rec.GUID},
	)

	id, err := w.issuer.Issue(ctx)
	if err != nil {
		return models.Transaction{}, &StepError{Step: StepIssue, PendingID: rec.ID, Err: err}
	}

	t, err := w.ledger.Insert(ctx, rec.ToTransaction(id, w.now()))
	if err != nil {
		return models.Transaction{}, &StepError{Step: StepInsert, PendingID: rec.ID, Err: err}
	}
	log.Debug("Inserted permanent transaction", logging.Field{Key: logging.FieldTransactionID, Value: t.ID})

	if onInserted != nil {
		onInserted()
	}

	if err := w.pending.Delete(ctx, rec.ID); err != nil {
		log.WithError(err).Warn("Pending record survived acceptance",
			logging.Field{Key: logging.FieldTransactionID, Value: t.ID})
		return t, &StepError{Step: StepDelete, PendingID: rec.ID, Err: err}
	}

	log.Info("Accepted transaction",
		logging.Field{Key: logging.FieldTransactionID, Value: t.ID},
		logging.Field{Key: logging.FieldCategory, Value: t.Category})
	return t, nil
}
