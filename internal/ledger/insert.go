package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/cjp-luany/mw-moneycount/internal/database"
)

// ManualEntry describes a balance adjustment keyed to a month. Amount is
// textual user input; PayTime and Tag are optional.
type ManualEntry struct {
	MonthYear string
	PayTime   string // "2006-01-02 15:04:05", defaults to the 2nd of the month
	Source    string
	Note      string
	Amount    string
	Tag       string // defaults to DefaultManualTag
}

// InsertManual writes a manual adjustment record, creating the month table if
// needed, and returns the stored row. The record's ID is derived from its
// timestamp so re-adding the identical adjustment trips the primary key and
// comes back as ErrDuplicateRecord.
func (s *Store) InsertManual(ctx context.Context, entry ManualEntry) (Record, error) {
	if !ValidMonth(entry.MonthYear) {
		return Record{}, fmt.Errorf("%w: month %q", ErrInvalidFilter, entry.MonthYear)
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(entry.Amount), 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidAmount, entry.Amount)
	}

	payTime := entry.PayTime
	if payTime == "" {
		t, err := time.Parse("200601", entry.MonthYear)
		if err != nil {
			return Record{}, fmt.Errorf("month %q: %w", entry.MonthYear, err)
		}
		payTime = t.AddDate(0, 0, 1).Format(time.DateTime)
	}
	stamp, err := time.ParseInLocation(time.DateTime, payTime, time.Local)
	if err != nil {
		return Record{}, fmt.Errorf("pay time %q: %w", payTime, err)
	}

	tag := entry.Tag
	if tag == "" {
		tag = DefaultManualTag
	}

	record := Record{
		ID:        stamp.Unix(),
		PayTime:   payTime,
		MonthYear: entry.MonthYear,
		Source:    entry.Source,
		Note:      entry.Note,
		Amount:    amount,
		Tag:       &tag,
		Origin:    OriginManual,
	}

	err = database.WithTx(s.db, func(tx *sql.Tx) error {
		if err := EnsureMonthTable(ctx, tx, entry.MonthYear); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, fmt.Sprintf(
			`INSERT INTO %s (id, pay_time, pay_monthyear, pay_source, pay_note,
			 pay_money, pay_tag, app_source) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			TableName(entry.MonthYear)),
			record.ID, record.PayTime, record.MonthYear, record.Source,
			record.Note, record.Amount, tag, record.Origin)
		if isConstraintErr(err) {
			return fmt.Errorf("%w: id %d", ErrDuplicateRecord, record.ID)
		}
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
