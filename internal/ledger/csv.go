package ledger

import (
	"fjacquet/txn-import/internal/common"
	"fjacquet/txn-import/internal/models"
)

// Row is the CSV shape of an accepted transaction.
type Row struct {
	ID             string `csv:"ID"`
	AccountID      string `csv:"AccountID"`
	Date           string `csv:"Date"`
	Description    string `csv:"Description"`
	Amount         string `csv:"Amount"`
	Category       string `csv:"Category"`
	CategorySource string `csv:"CategorySource"`
	Notes          string `csv:"Notes"`
	Recurrence     string `csv:"Recurrence"`
	State          string `csv:"State"`
	Type           string `csv:"Type"`
	CreatedAt      string `csv:"CreatedAt"`
}

// ToRows converts transactions for CSV export.
func ToRows(txs []models.Transaction) []Row {
	rows := make([]Row, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, Row{
			ID:             t.ID,
			AccountID:      t.AccountID,
			Date:           t.Date.Format(models.DateLayout),
			Description:    t.Description,
			Amount:         t.Amount.StringFixed(2),
			Category:       t.Category,
			CategorySource: string(t.CategorySource),
			Notes:          t.Notes,
			Recurrence:     string(t.Recurrence),
			State:          string(t.State),
			Type:           string(t.Type),
			CreatedAt:      t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return rows
}

// Export writes txs to path as CSV.
func Export(txs []models.Transaction, path string, delimiter rune) error {
	return common.WriteCSV(ToRows(txs), path, delimiter)
}
