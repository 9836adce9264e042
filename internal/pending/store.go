// Package pending holds the store of imported transactions awaiting review.
package pending

import (
	"context"
	"errors"
	"time"

	"fjacquet/txn-import/internal/models"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a pending id does not exist.
var ErrNotFound = errors.New("pending record not found")

// Store is the system of record for pending transactions. FetchAll
// distinguishes an empty store (nil error) from a failed fetch.
type Store interface {
	FetchAll(ctx context.Context) ([]models.PendingRecord, error)
	Update(ctx context.Context, id int64, patch Patch) (models.PendingRecord, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}

// Patch lists the fields to change on a pending record. Nil fields are left
// as they are. A category in a patch is always a user choice and is stored
// with manual provenance.
type Patch struct {
	Date        *time.Time
	Description *string
	Amount      *decimal.Decimal
	Category    *string
	Notes       *string
}

// Validate rejects values the store cannot hold exactly.
func (p Patch) Validate() error {
	if p.Amount != nil {
		return models.CheckAmount(*p.Amount)
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Date == nil && p.Description == nil && p.Amount == nil && p.Category == nil && p.Notes == nil
}

// Apply returns rec with the patch applied. A category change replaces the
// categorization with the given provenance; other changes keep it.
func (p Patch) Apply(rec models.PendingRecord, provenance models.Provenance) models.PendingRecord {
	if p.Date != nil {
		rec.Date = *p.Date
	}
	if p.Description != nil {
		rec.Description = *p.Description
	}
	if p.Amount != nil {
		rec.Amount = *p.Amount
	}
	if p.Notes != nil {
		rec.Notes = *p.Notes
	}
	if p.Category != nil {
		rec.Categorization = models.NewCategorization(*p.Category, provenance)
		rec.StoredCategory = *p.Category
		rec.StoredSource = provenance.Source()
		rec.StoredCategoryAt = provenance.Timestamp()
	}
	return rec
}
