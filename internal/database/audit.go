package database

import (
	"context"
	"database/sql"
	"time"
)

// Import-run statuses.
const (
	RunStaged      = "staged"      // staging table committed, transform pending
	RunTransformed = "transformed" // canonical rows written and redacted
	RunFailed      = "failed"      // transform rolled back, staging retained
)

// ImportRun is one audit row per import_source+apply call.
type ImportRun struct {
	ID           string
	MonthYear    string
	Strategy     string
	SourceFile   string
	StagingTable string
	Encoding     string
	RowsLoaded   int
	RowsSkipped  int
	Status       string
	Error        string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// InsertRun records a freshly staged import.
func InsertRun(ctx context.Context, db *sql.DB, run ImportRun) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO import_runs (
			id, monthyear, strategy, source_file, staging_table, encoding,
			rows_loaded, rows_skipped, status, error, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.MonthYear, run.Strategy, run.SourceFile, run.StagingTable,
		run.Encoding, run.RowsLoaded, run.RowsSkipped, run.Status, run.Error,
		run.StartedAt.Format(time.DateTime))
	return err
}

// FinishRun closes an audit row with its final status.
func FinishRun(ctx context.Context, db *sql.DB, id, status, errText string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE import_runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, errText, Now().Format(time.DateTime), id)
	return err
}

// ListRuns returns recent import runs, newest first.
func ListRuns(ctx context.Context, db *sql.DB, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, monthyear, strategy, source_file, staging_table, encoding,
		       rows_loaded, rows_skipped, status, error, started_at, finished_at
		FROM import_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ImportRun
	for rows.Next() {
		var r ImportRun
		var started string
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &r.MonthYear, &r.Strategy, &r.SourceFile,
			&r.StagingTable, &r.Encoding, &r.RowsLoaded, &r.RowsSkipped,
			&r.Status, &r.Error, &started, &finished); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.DateTime, started); err == nil {
			r.StartedAt = t
		}
		if finished.Valid {
			if t, err := time.Parse(time.DateTime, finished.String); err == nil {
				r.FinishedAt = &t
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
