package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Filter narrows a month query. Zero values mean "no constraint". LT and GT
// are textual amounts so callers can pass user input straight through; they
// fail with ErrInvalidFilter when non-numeric.
type Filter struct {
	Tag    string // exact match on pay_tag
	Key    string // substring match on pay_source or pay_note
	LT     string // pay_money strictly below
	GT     string // pay_money strictly above
	Since  string // pay_time lower bound, inclusive
	Until  string // pay_time upper bound, inclusive
	SortBy string
	Asc    bool
}

// sortColumns whitelists ORDER BY targets. Anything else is rejected rather
// than spliced into SQL.
var sortColumns = map[string]bool{
	"id":            true,
	"pay_time":      true,
	"pay_monthyear": true,
	"pay_source":    true,
	"pay_note":      true,
	"pay_money":     true,
	"pay_tag":       true,
	"app_source":    true,
}

func (f Filter) whereClause() ([]string, []interface{}, error) {
	var where []string
	var args []interface{}

	if f.Tag != "" {
		where = append(where, "pay_tag = ?")
		args = append(args, f.Tag)
	}
	if f.Key != "" {
		where = append(where, "(pay_source LIKE ? OR pay_note LIKE ?)")
		pattern := "%" + f.Key + "%"
		args = append(args, pattern, pattern)
	}
	if f.LT != "" {
		v, err := strconv.ParseFloat(f.LT, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: lt %q is not numeric", ErrInvalidFilter, f.LT)
		}
		where = append(where, "pay_money < ?")
		args = append(args, v)
	}
	if f.GT != "" {
		v, err := strconv.ParseFloat(f.GT, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: gt %q is not numeric", ErrInvalidFilter, f.GT)
		}
		where = append(where, "pay_money > ?")
		args = append(args, v)
	}
	if f.Since != "" {
		where = append(where, "pay_time >= ?")
		args = append(args, f.Since)
	}
	if f.Until != "" {
		where = append(where, "pay_time <= ?")
		args = append(args, f.Until)
	}
	return where, args, nil
}

func (f Filter) orderBy() (string, error) {
	col := f.SortBy
	if col == "" {
		// Largest spend first is the usual reading order.
		col = "pay_money"
	} else if !sortColumns[col] {
		return "", fmt.Errorf("%w: unknown sort column %q", ErrInvalidFilter, col)
	}
	dir := "DESC"
	if f.Asc {
		dir = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s", col, dir), nil
}

// Query returns the month's records matching filter. A month without a table
// yields ErrTableNotFound, never an empty result masquerading as one.
func (s *Store) Query(ctx context.Context, month string, filter Filter) ([]Record, error) {
	table, err := s.requireTable(ctx, month)
	if err != nil {
		return nil, err
	}
	where, args, err := filter.whereClause()
	if err != nil {
		return nil, err
	}
	order, err := filter.orderBy()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, pay_time, pay_monthyear, pay_source,
		pay_note, pay_money, pay_tag, app_source FROM %s`, table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " " + order

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// BulkUpdateTag sets pay_tag on every record matching filter and reports how
// many rows changed. An empty filter retags the whole month.
func (s *Store) BulkUpdateTag(ctx context.Context, month, tag string, filter Filter) (int64, error) {
	table, err := s.requireTable(ctx, month)
	if err != nil {
		return 0, err
	}
	where, args, err := filter.whereClause()
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("UPDATE %s SET pay_tag = ?", table)
	args = append([]interface{}{tag}, args...)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	return res.RowsAffected()
}

// SeriesPoint is one row of the reporting read: timestamp, signed amount and
// the tag it was classified under.
type SeriesPoint struct {
	PayTime string
	Amount  float64
	Tag     string
}

// MonthlySeries returns the month's (time, amount, tag) tuples in
// chronological order for aggregation by the report layer.
func (s *Store) MonthlySeries(ctx context.Context, month string) ([]SeriesPoint, error) {
	table, err := s.requireTable(ctx, month)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT pay_time, pay_money, COALESCE(pay_tag, '') FROM %s
		 WHERE pay_monthyear = ? ORDER BY pay_time ASC`, table), month)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", table, err)
	}
	defer rows.Close()

	var points []SeriesPoint
	for rows.Next() {
		var p SeriesPoint
		if err := rows.Scan(&p.PayTime, &p.Amount, &p.Tag); err != nil {
			return nil, fmt.Errorf("scan series %s: %w", table, err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
