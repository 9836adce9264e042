package pending

import (
	"fjacquet/txn-import/internal/common"
	"fjacquet/txn-import/internal/models"
)

// Row is the CSV shape of a working set record.
type Row struct {
	ID             int64  `csv:"ID"`
	GUID           string `csv:"GUID"`
	AccountID      string `csv:"AccountID"`
	Date           string `csv:"Date"`
	Description    string `csv:"Description"`
	Amount         string `csv:"Amount"`
	Category       string `csv:"Category"`
	CategorySource string `csv:"CategorySource"`
	CategoryReason string `csv:"CategoryReason"`
	Notes          string `csv:"Notes"`
}

// ToRows converts records for CSV export.
func ToRows(records []models.PendingRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		p := r.Categorization.Provenance()
		rows = append(rows, Row{
			ID:             r.ID,
			GUID:           r.GUID,
			AccountID:      r.AccountID,
			Date:           r.Date.Format(models.DateLayout),
			Description:    r.Description,
			Amount:         r.Amount.StringFixed(2),
			Category:       r.Category(),
			CategorySource: string(p.Source()),
			CategoryReason: p.Reason(),
			Notes:          r.Notes,
		})
	}
	return rows
}

// Export writes records to path as CSV.
func Export(records []models.PendingRecord, path string, delimiter rune) error {
	return common.WriteCSV(ToRows(records), path, delimiter)
}
