package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// FreeTextRow carries the redactable columns of one record.
type FreeTextRow struct {
	ID     int64
	Source string
	Note   string
}

// ListFreeText reads the month's (id, pay_source, pay_note) rows inside tx so
// sensitive-word rewriting stays in the same transaction as the import that
// produced them.
func ListFreeText(ctx context.Context, tx *sql.Tx, month string) ([]FreeTextRow, error) {
	if !ValidMonth(month) {
		return nil, fmt.Errorf("%w: month %q", ErrInvalidFilter, month)
	}
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, COALESCE(pay_source, ''), COALESCE(pay_note, '') FROM %s
		 WHERE pay_monthyear = ?`, TableName(month)), month)
	if err != nil {
		return nil, fmt.Errorf("list free text %s: %w", TableName(month), err)
	}
	defer rows.Close()

	var out []FreeTextRow
	for rows.Next() {
		var r FreeTextRow
		if err := rows.Scan(&r.ID, &r.Source, &r.Note); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateFreeText rewrites one record's source and note, addressed by
// (id, pay_monthyear) since id alone is not unique.
func UpdateFreeText(ctx context.Context, tx *sql.Tx, month string, id int64, source, note string) error {
	if !ValidMonth(month) {
		return fmt.Errorf("%w: month %q", ErrInvalidFilter, month)
	}
	_, err := tx.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET pay_source = ?, pay_note = ? WHERE id = ? AND pay_monthyear = ?`,
		TableName(month)), source, note, id, month)
	if err != nil {
		return fmt.Errorf("update free text %s id %d: %w", TableName(month), id, err)
	}
	return nil
}
