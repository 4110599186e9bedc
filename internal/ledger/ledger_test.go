package ledger

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cjp-luany/mw-moneycount/internal/database"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func seedMonth(t *testing.T, s *Store, month string, records []Record) {
	t.Helper()
	err := database.WithTx(s.DB(), func(tx *sql.Tx) error {
		if err := EnsureMonthTable(context.Background(), tx, month); err != nil {
			return err
		}
		for _, r := range records {
			_, err := tx.Exec(
				`INSERT INTO `+TableName(month)+` (id, pay_time, pay_monthyear,
				 pay_source, pay_note, pay_money, pay_tag, app_source)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ID, r.PayTime, r.MonthYear, r.Source, r.Note, r.Amount, r.Tag, r.Origin)
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func tagPtr(s string) *string { return &s }

func sampleRecords() []Record {
	return []Record{
		{ID: 1, PayTime: "2024-03-01 09:00:00", MonthYear: "202403",
			Source: "超市", Note: "早餐", Amount: -12.5, Tag: tagPtr("food_ex"), Origin: OriginWxExpense},
		{ID: 2, PayTime: "2024-03-02 12:30:00", MonthYear: "202403",
			Source: "打车", Note: "通勤", Amount: -45.0, Tag: tagPtr("traffic_ex"), Origin: OriginZfbPay},
		{ID: 3, PayTime: "2024-03-03 20:00:00", MonthYear: "202403",
			Source: "公司", Note: "工资", Amount: 8000.0, Tag: nil, Origin: OriginBank},
	}
}

func TestQueryMissingMonth(t *testing.T) {
	s := testStore(t)
	_, err := s.Query(context.Background(), "209901", Filter{})
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestQueryDefaultOrder(t *testing.T) {
	s := testStore(t)
	seedMonth(t, s, "202403", sampleRecords())

	got, err := s.Query(context.Background(), "202403", Filter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	// pay_money DESC
	require.Equal(t, int64(3), got[0].ID)
	require.Equal(t, int64(1), got[1].ID)
	require.Equal(t, int64(2), got[2].ID)
	require.Nil(t, got[0].Tag)
	require.Equal(t, "food_ex", *got[1].Tag)
}

func TestQueryFilters(t *testing.T) {
	s := testStore(t)
	seedMonth(t, s, "202403", sampleRecords())
	ctx := context.Background()

	got, err := s.Query(ctx, "202403", Filter{Tag: "food_ex"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].ID)

	got, err = s.Query(ctx, "202403", Filter{Key: "工资"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(3), got[0].ID)

	// Bounds are exclusive.
	got, err = s.Query(ctx, "202403", Filter{LT: "-12.5"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(2), got[0].ID)

	got, err = s.Query(ctx, "202403", Filter{GT: "0", Since: "2024-03-02"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(3), got[0].ID)

	got, err = s.Query(ctx, "202403", Filter{Until: "2024-03-02 23:59:59"})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestQueryInvalidFilter(t *testing.T) {
	s := testStore(t)
	seedMonth(t, s, "202403", sampleRecords())
	ctx := context.Background()

	_, err := s.Query(ctx, "202403", Filter{LT: "abc"})
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = s.Query(ctx, "202403", Filter{GT: "10x"})
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = s.Query(ctx, "202403", Filter{SortBy: "pay_money; DROP TABLE x"})
	require.ErrorIs(t, err, ErrInvalidFilter)
}

func TestQuerySortColumn(t *testing.T) {
	s := testStore(t)
	seedMonth(t, s, "202403", sampleRecords())

	got, err := s.Query(context.Background(), "202403", Filter{SortBy: "pay_time", Asc: true})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int64(1), got[0].ID)
	require.Equal(t, int64(3), got[2].ID)
}

func TestQueryAscOnDefaultColumn(t *testing.T) {
	s := testStore(t)
	seedMonth(t, s, "202403", sampleRecords())

	// Without an explicit sort column, Asc still flips the amount order.
	got, err := s.Query(context.Background(), "202403", Filter{Asc: true})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int64(2), got[0].ID)
	require.Equal(t, int64(1), got[1].ID)
	require.Equal(t, int64(3), got[2].ID)
}

func TestBulkUpdateTag(t *testing.T) {
	s := testStore(t)
	seedMonth(t, s, "202403", sampleRecords())
	ctx := context.Background()

	n, err := s.BulkUpdateTag(ctx, "202403", "salary_in", Filter{Key: "工资"})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := s.Query(ctx, "202403", Filter{Tag: "salary_in"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(3), got[0].ID)

	// No match still succeeds, zero rows.
	n, err = s.BulkUpdateTag(ctx, "202403", "x", Filter{Key: "不存在"})
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = s.BulkUpdateTag(ctx, "209901", "x", Filter{})
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestInsertManualDefaults(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec, err := s.InsertManual(ctx, ManualEntry{
		MonthYear: "202403",
		Source:    "结余",
		Note:      "手工调整",
		Amount:    "150.5",
	})
	require.NoError(t, err)
	require.Equal(t, "2024-03-02 00:00:00", rec.PayTime)
	require.Equal(t, DefaultManualTag, *rec.Tag)
	require.Equal(t, OriginManual, rec.Origin)
	require.Equal(t, 150.5, rec.Amount)

	got, err := s.Query(ctx, "202403", Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, rec.ID, got[0].ID)
}

func TestInsertManualDuplicate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	entry := ManualEntry{MonthYear: "202403", Amount: "10", PayTime: "2024-03-05 08:00:00"}

	_, err := s.InsertManual(ctx, entry)
	require.NoError(t, err)

	_, err = s.InsertManual(ctx, entry)
	require.ErrorIs(t, err, ErrDuplicateRecord)

	// Same timestamp, different amount lands under the composite key.
	entry.Amount = "11"
	_, err = s.InsertManual(ctx, entry)
	require.NoError(t, err)
}

func TestInsertManualInvalidAmount(t *testing.T) {
	s := testStore(t)
	_, err := s.InsertManual(context.Background(), ManualEntry{MonthYear: "202403", Amount: "ten"})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMonthlySeries(t *testing.T) {
	s := testStore(t)
	seedMonth(t, s, "202403", sampleRecords())

	points, err := s.MonthlySeries(context.Background(), "202403")
	require.NoError(t, err)
	require.Len(t, points, 3)
	require.Equal(t, "2024-03-01 09:00:00", points[0].PayTime)
	require.Equal(t, -12.5, points[0].Amount)
	require.Equal(t, "food_ex", points[0].Tag)
	require.Equal(t, "", points[2].Tag)
}

func TestMonthRange(t *testing.T) {
	start, end, err := MonthRange("202402")
	require.NoError(t, err)
	require.Equal(t, "2024-02-01", start)
	require.Equal(t, "2024-02-29", end)

	_, _, err = MonthRange("2024")
	require.Error(t, err)
}

func TestFreeTextRoundTrip(t *testing.T) {
	s := testStore(t)
	seedMonth(t, s, "202403", sampleRecords())
	ctx := context.Background()

	err := database.WithTx(s.DB(), func(tx *sql.Tx) error {
		rows, err := ListFreeText(ctx, tx, "202403")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		return UpdateFreeText(ctx, tx, "202403", 1, "某商户", "早餐")
	})
	require.NoError(t, err)

	got, err := s.Query(ctx, "202403", Filter{Key: "某商户"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].ID)
}
