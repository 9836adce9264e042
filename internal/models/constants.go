package models

// Recurrence describes how often a transaction repeats.
type Recurrence string

// Recurrence values
const (
	RecurrenceOneTime Recurrence = "one-time"
	RecurrenceMonthly Recurrence = "monthly"
)

// State is the settlement state of a transaction.
type State string

// Transaction states
const (
	StateOutstanding State = "outstanding"
	StateCleared     State = "cleared"
)

// TransactionType is left undefined on import until the user picks one.
type TransactionType string

// Transaction types
const (
	TypeUndefined TransactionType = "undefined"
	TypeExpense   TransactionType = "expense"
	TypeIncome    TransactionType = "income"
	TypeTransfer  TransactionType = "transfer"
)

// Categories
const (
	CategoryImported = "imported"
	CategoryFuel     = "fuel"
)

// DateLayout is the calendar date layout used in import text and storage.
const DateLayout = "2006-01-02"

// AIHint is the fallback reason stamped on rule-based categorizations.
const AIHint = "click to use AI"

// File permissions
const (
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)
