// Package database owns sqlite access: connection setup, the transaction
// helper every multi-step operation runs under, and the fixed audit schema.
// Month-scoped ledger and staging tables are created lazily by their owners,
// not migrated here.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the ledger database. The schema carries no foreign keys, so
// only the busy timeout and journal mode are set; a single connection keeps
// writers serialized in-process, which the staging-table rename scheme
// assumes.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

// WithTx runs fn inside a transaction, rolling back when fn errors.
func WithTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Now returns UTC wall time at second precision, the granularity the audit
// timestamps are stored with.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// TableExists probes sqlite_master for a table by exact name.
func TableExists(tx *sql.Tx, name string) (bool, error) {
	var count int
	err := tx.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("probe table %s: %w", name, err)
	}
	return count > 0, nil
}

// TableExistsDB is TableExists outside a transaction.
func TableExistsDB(db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("probe table %s: %w", name, err)
	}
	return count > 0, nil
}
