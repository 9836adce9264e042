package parser

import (
	"fjacquet/txn-import/internal/models"
	"fjacquet/txn-import/internal/parsererror"
)

// Categorizer assigns a category to a free-text description. It must be
// total: every description gets a category.
type Categorizer interface {
	Categorize(description string) string
}

// Result is the outcome of parsing a block of import text.
type Result struct {
	// Attempted counts the non-blank lines that were tried.
	Attempted    int
	Transactions []models.ParsedTransaction
	Errors       []parsererror.LineError
}

// Succeeded returns the number of lines that produced a transaction.
func (r Result) Succeeded() int {
	return len(r.Transactions)
}

// Validation is the outcome of a pre-submit check. It carries the same
// counts as Result without building transactions.
type Validation struct {
	Attempted int
	Succeeded int
	Errors    []parsererror.LineError
}

// Valid reports whether every attempted line matched and at least one did.
func (v Validation) Valid() bool {
	return v.Attempted > 0 && len(v.Errors) == 0
}
