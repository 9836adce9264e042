package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ParsedTransaction is one successfully parsed import line. It has no
// identifier until it is stored as a pending record.
type ParsedTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Category    string
	Recurrence  Recurrence
	State       State
	Type        TransactionType
}

// NewParsedTransaction builds a parsed transaction with the import defaults
// applied.
func NewParsedTransaction(date time.Time, description string, amount decimal.Decimal, category string) ParsedTransaction {
	return ParsedTransaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Category:    category,
		Recurrence:  RecurrenceOneTime,
		State:       StateOutstanding,
		Type:        TypeUndefined,
	}
}

// Transaction is a permanent, accepted transaction.
type Transaction struct {
	ID             string
	AccountID      string
	Date           time.Time
	Description    string
	Amount         decimal.Decimal
	Category       string
	CategorySource Source
	Notes          string
	Recurrence     Recurrence
	State          State
	Type           TransactionType
	CreatedAt      time.Time
}

// ErrAmountPrecision is returned for amounts with more than two decimal
// places. Stores keep amounts as fixed two-decimal text.
var ErrAmountPrecision = errors.New("amount has more than 2 decimal places")

// CheckAmount rejects amounts that cannot be stored without rounding.
func CheckAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: %s", ErrAmountPrecision, amount.String())
	}
	return nil
}
