package pending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/txn-import/internal/database"
	"fjacquet/txn-import/internal/logging"
	"fjacquet/txn-import/internal/models"

	"github.com/shopspring/decimal"
)

// SQLiteStore implements Store on the shared SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB, logger logging.Logger) *SQLiteStore {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &SQLiteStore{db: db, logger: logger}
}

const selectColumns = `id, account_id, txn_date, description, amount, category, category_source,
	category_updated_at, notes, created_at`

// Insert stores parsed transactions as pending records, all or nothing.
func (s *SQLiteStore) Insert(ctx context.Context, accountID string, txs []models.ParsedTransaction) ([]models.PendingRecord, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	for _, t := range txs {
		if err := models.CheckAmount(t.Amount); err != nil {
			return nil, fmt.Errorf("failed to insert pending records: %q: %w", t.Description, err)
		}
	}

	now := database.Now()
	records := make([]models.PendingRecord, 0, len(txs))
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO pending_transactions
			(account_id, txn_date, description, amount, category, category_source, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, '', ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range txs {
			res, err := stmt.ExecContext(ctx, accountID, t.Date.Format(models.DateLayout),
				t.Description, t.Amount.StringFixed(2), t.Category, string(models.SourceRuleBased), database.FormatTime(now))
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			records = append(records, models.PendingRecord{
				ID:             id,
				AccountID:      accountID,
				Date:           t.Date,
				Description:    t.Description,
				Amount:         t.Amount,
				StoredCategory: t.Category,
				StoredSource:   models.SourceRuleBased,
				CreatedAt:      now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert pending records: %w", err)
	}

	s.logger.Info("Inserted pending records",
		logging.Field{Key: logging.FieldCount, Value: len(records)},
		logging.Field{Key: logging.FieldAccountID, Value: accountID})
	return records, nil
}

// FetchAll returns every pending record in insertion order.
func (s *SQLiteStore) FetchAll(ctx context.Context) ([]models.PendingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM pending_transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending records: %w", err)
	}
	defer rows.Close()

	var records []models.PendingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch pending records: %w", err)
	}
	return records, nil
}

// Get returns one pending record.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (models.PendingRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM pending_transactions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PendingRecord{}, fmt.Errorf("pending id %d: %w", id, ErrNotFound)
	}
	return rec, err
}

// Update applies patch to the record with the given id and returns the
// stored result.
func (s *SQLiteStore) Update(ctx context.Context, id int64, patch Patch) (models.PendingRecord, error) {
	if err := patch.Validate(); err != nil {
		return models.PendingRecord{}, fmt.Errorf("pending id %d: %w", id, err)
	}

	var sets []string
	var args []interface{}
	if patch.Date != nil {
		sets = append(sets, "txn_date = ?")
		args = append(args, patch.Date.Format(models.DateLayout))
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, patch.Amount.StringFixed(2))
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?", "category_source = ?", "category_updated_at = ?")
		args = append(args, *patch.Category, string(models.SourceManual), database.FormatTime(database.Now()))
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}

	if len(sets) > 0 {
		args = append(args, id)
		res, err := s.db.ExecContext(ctx,
			`UPDATE pending_transactions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return models.PendingRecord{}, fmt.Errorf("failed to update pending id %d: %w", id, err)
		}
		if err := expectOneRow(res, id); err != nil {
			return models.PendingRecord{}, err
		}
	}

	return s.Get(ctx, id)
}

// Delete removes one pending record.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pending id %d: %w", id, err)
	}
	if err := expectOneRow(res, id); err != nil {
		return err
	}
	s.logger.Debug("Deleted pending record", logging.Field{Key: logging.FieldPendingID, Value: id})
	return nil
}

// DeleteAll removes every pending record.
func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_transactions`)
	if err != nil {
		return fmt.Errorf("failed to delete pending records: %w", err)
	}
	n, _ := res.RowsAffected()
	s.logger.Info("Deleted all pending records", logging.Field{Key: logging.FieldCount, Value: n})
	return nil
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("pending id %d: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (models.PendingRecord, error) {
	var (
		rec                                       models.PendingRecord
		date, amount, source, categoryAt, created string
	)
	if err := row.Scan(&rec.ID, &rec.AccountID, &date, &rec.Description, &amount,
		&rec.StoredCategory, &source, &categoryAt, &rec.Notes, &created); err != nil {
		return models.PendingRecord{}, err
	}

	var err error
	if rec.Date, err = time.Parse(models.DateLayout, date); err != nil {
		return models.PendingRecord{}, fmt.Errorf("pending id %d: bad date %q: %w", rec.ID, date, err)
	}
	if rec.Amount, err = decimal.NewFromString(amount); err != nil {
		return models.PendingRecord{}, fmt.Errorf("pending id %d: bad amount %q: %w", rec.ID, amount, err)
	}
	rec.StoredSource = models.Source(source)
	if rec.StoredCategoryAt, err = database.ParseTime(categoryAt); err != nil {
		return models.PendingRecord{}, fmt.Errorf("pending id %d: bad timestamp %q: %w", rec.ID, categoryAt, err)
	}
	if rec.CreatedAt, err = database.ParseTime(created); err != nil {
		return models.PendingRecord{}, fmt.Errorf("pending id %d: bad timestamp %q: %w", rec.ID, created, err)
	}
	return rec, nil
}
