package reconcile

import "errors"

var (
	// ErrBusy is returned when a record, or the bulk discard, already has
	// an operation in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrNotFound is returned when no record has the given GUID.
	ErrNotFound = errors.New("record not found in working set")
	// ErrAIUnavailable is returned when no AI categorizer is configured.
	ErrAIUnavailable = errors.New("AI categorization is not configured")
)

// RowState is the per-record operation state.
type RowState int

const (
	Idle RowState = iota
	Accepting
	Discarding
	Categorizing
	Editing
)

func (s RowState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accepting:
		return "accepting"
	case Discarding:
		return "discarding"
	case Categorizing:
		return "categorizing"
	case Editing:
		return "editing"
	default:
		return "unknown"
	}
}

// OpResult is the outcome of a mutation.
type OpResult int

const (
	// Pending means the operation is still in flight.
	Pending OpResult = iota
	// Committed means local and remote state agree on the change.
	Committed
	// RolledBack means a remote failure was repaired by a full resync.
	RolledBack
	// Aborted means the operation failed or was refused before any local
	// or remote change.
	Aborted
)

func (r OpResult) String() string {
	switch r {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled-back"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Action names used in notifications.
const (
	ActionLoad       = "load"
	ActionAccept     = "accept"
	ActionDiscard    = "discard"
	ActionDiscardAll = "discard-all"
	ActionEdit       = "edit"
	ActionCategorize = "categorize"
)
