// Package ledger stores permanent, accepted transactions.
package ledger

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

var (
	// ErrDuplicateID is returned when a transaction id is already stored.
	ErrDuplicateID = errors.New("transaction id already exists")
	// ErrNotFound is returned when a transaction id does not exist.
	ErrNotFound = errors.New("transaction not found")
	// ErrMissingID is returned when inserting a transaction without an id.
	ErrMissingID = errors.New("transaction id is empty")
)

// Store is the permanent transaction store backed by SQLite.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// NewStore wraps an open, migrated database.
func NewStore(db *sql.DB, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Store{db: db, logger: logger}
}

const selectColumns = `id, account_id, txn_date, description, amount, category,
	category_source, notes, recurrence, state, type, created_at`

// Insert stores t. The id is assigned by the caller.
func (s *Store) Insert(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == "" {
		return models.Transaction{}, ErrMissingID
	}
	if err := models.CheckAmount(t.Amount); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = database.Now()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO transactions
		(`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.Date.Format(models.DateLayout), t.Description, t.Amount.StringFixed(2),
		t.Category, string(t.CategorySource), t.Notes, string(t.Recurrence), string(t.State),
		string(t.Type), database.FormatTime(t.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, ErrDuplicateID)
		}
		return models.Transaction{}, fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
	}

	s.logger.Debug("Inserted transaction",
		logging.Field{Key: logging.FieldTransactionID, Value: t.ID},
		logging.Field{Key: logging.FieldCategory, Value: t.Category})
	return t, nil
}

// Get returns the transaction with the given id.
func (s *Store) Get(ctx context.Context, id string) (models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return t, err
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	AccountID string
	From      time.Time
	To        time.Time
}

// List returns stored transactions ordered by date, then creation.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]models.Transaction, error) {
	var where []string
	var args []interface{}
	if filter.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if !filter.From.IsZero() {
		where = append(where, "txn_date >= ?")
		args = append(args, filter.From.Format(models.DateLayout))
	}
	if !filter.To.IsZero() {
		where = append(where, "txn_date <= ?")
		args = append(args, filter.To.Format(models.DateLayout))
	}

	query := `SELECT ` + selectColumns + ` FROM transactions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY txn_date, created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var (
		t                                       models.Transaction
		date, amount, source, recurrence, state string
		txType, created                         string
	)
	if err := row.Scan(&t.ID, &t.AccountID, &date, &t.Description, &amount, &t.Category,
		&source, &t.Notes, &recurrence, &state, &txType, &created); err != nil {
		return models.Transaction{}, err
	}

	var err error
	if t.Date, err = time.Parse(models.DateLayout, date); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %s: bad date %q: %w", t.ID, date, err)
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %s: bad amount %q: %w", t.ID, amount, err)
	}
	if t.CreatedAt, err = database.ParseTime(created); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %s: bad timestamp %q: %w", t.ID, created, err)
	}
	t.CategorySource = models.Source(source)
	t.Recurrence = models.Recurrence(recurrence)
	t.State = models.State(state)
	t.Type = models.TransactionType(txType)
	return t, nil
}
