// Package ledger owns the canonical per-month transaction tables: their
// schema, lazy creation, the query/bulk-update engine, manual balance
// records, and the reporting read.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Sentinel errors surfaced to callers. The CLI renders these as messages;
// none of them terminates the process.
var (
	ErrTableNotFound   = errors.New("ledger table not found")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrDuplicateRecord = errors.New("duplicate ledger record")
)

// Origins recorded in app_source.
const (
	OriginWxExpense = "wx_pay"
	OriginWxIncome  = "wx_income"
	OriginZfbPay    = "zfb_pay"
	OriginZfbRefund = "zfb_refund"
	OriginBank      = "bank"
	OriginManual    = "add"
)

// DefaultManualTag is assigned to manual balance records when none is given.
const DefaultManualTag = "social_ex"

var monthPattern = regexp.MustCompile(`^\d{6}$`)

// Record is one canonical ledger row. ID is unique only in combination with
// MonthYear and Amount: external IDs repeat across months and amounts, true
// duplicates are rejected by the composite primary key.
type Record struct {
	ID        int64
	PayTime   string
	MonthYear string
	Source    string
	Note      string
	Amount    float64
	Tag       *string
	Origin    string
}

// Store gives access to month-scoped ledger tables.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for callers composing transactions.
func (s *Store) DB() *sql.DB { return s.db }

// TableName returns the canonical table name for a YYYYMM month key.
func TableName(month string) string { return "pay_" + month }

// ValidMonth reports whether month is a six-digit key safe to splice into an
// identifier.
func ValidMonth(month string) bool { return monthPattern.MatchString(month) }

// createTableSQL is the fixed canonical schema. The composite primary key is
// deliberate: it tolerates duplicate external IDs across months or amounts
// while rejecting true duplicates.
func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id            BIGINT  NOT NULL,
		pay_time      VARCHAR NOT NULL,
		pay_monthyear VARCHAR NOT NULL,
		pay_source    VARCHAR,
		pay_note      VARCHAR,
		pay_money     NUMERIC NOT NULL,
		pay_tag       VARCHAR,
		app_source    VARCHAR,
		PRIMARY KEY (id, pay_monthyear, pay_money)
	)`, table)
}

// EnsureMonthTable lazily creates the canonical table for month inside tx.
func EnsureMonthTable(ctx context.Context, tx *sql.Tx, month string) error {
	if !ValidMonth(month) {
		return fmt.Errorf("%w: month %q", ErrInvalidFilter, month)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(TableName(month))); err != nil {
		return fmt.Errorf("create %s: %w", TableName(month), err)
	}
	return nil
}

// MonthRange returns the first and last calendar day of a YYYYMM month.
func MonthRange(month string) (start, end string, err error) {
	t, err := time.Parse("200601", month)
	if err != nil {
		return "", "", fmt.Errorf("month %q: %w", month, err)
	}
	last := t.AddDate(0, 1, -1)
	return t.Format("2006-01-02"), last.Format("2006-01-02"), nil
}

// tableExists probes sqlite_master outside a transaction.
func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("probe table %s: %w", name, err)
	}
	return count > 0, nil
}

// requireTable maps a missing month table onto ErrTableNotFound.
func (s *Store) requireTable(ctx context.Context, month string) (string, error) {
	if !ValidMonth(month) {
		return "", fmt.Errorf("%w: month %q", ErrInvalidFilter, month)
	}
	table := TableName(month)
	ok, err := s.tableExists(ctx, table)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return table, nil
}

// scanner abstracts Row and Rows for scanRecord.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (Record, error) {
	var r Record
	var source, note, tag, origin sql.NullString
	if err := row.Scan(&r.ID, &r.PayTime, &r.MonthYear, &source, &note,
		&r.Amount, &tag, &origin); err != nil {
		return Record{}, err
	}
	r.Source = source.String
	r.Note = note.String
	if tag.Valid {
		r.Tag = &tag.String
	}
	r.Origin = origin.String
	return r, nil
}
