package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingRecord is an imported transaction awaiting review.
//
// ID is assigned by the pending store. GUID is assigned locally when the
// record enters the working set and keys every local lookup.
type PendingRecord struct {
	ID             int64
	GUID           string
	AccountID      string
	Date           time.Time
	Description    string
	Amount         decimal.Decimal
	Categorization Categorization
	Notes          string
	Recurrence     Recurrence
	State          State
	Type           TransactionType
	Active         bool
	CreatedAt      time.Time

	// StoredCategory is the category column as last written to the pending
	// store. StoredSource and StoredCategoryAt say who wrote it and when.
	// On load, a manual category is kept and anything else is recomputed
	// from the rules.
	StoredCategory   string
	StoredSource     Source
	StoredCategoryAt time.Time
}

// HasManualCategory reports whether the stored category was set by the
// user.
func (r PendingRecord) HasManualCategory() bool {
	return r.StoredSource == SourceManual && r.StoredCategory != ""
}

// Category is a shortcut for the current categorization's category.
func (r PendingRecord) Category() string {
	return r.Categorization.Category()
}

// ToTransaction builds the permanent transaction for an accepted record.
func (r PendingRecord) ToTransaction(id string, now time.Time) Transaction {
	recurrence := r.Recurrence
	if recurrence == "" {
		recurrence = RecurrenceOneTime
	}
	state := r.State
	if state == "" {
		state = StateOutstanding
	}
	txType := r.Type
	if txType == "" {
		txType = TypeUndefined
	}
	return Transaction{
		ID:             id,
		AccountID:      r.AccountID,
		Date:           r.Date,
		Description:    r.Description,
		Amount:         r.Amount,
		Category:       r.Category(),
		CategorySource: r.Categorization.Provenance().Source(),
		Notes:          r.Notes,
		Recurrence:     recurrence,
		State:          state,
		Type:           txType,
		CreatedAt:      now,
	}
}
