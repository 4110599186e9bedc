package tagger

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cjp-luany/mw-moneycount/internal/config"
	"github.com/cjp-luany/mw-moneycount/internal/database"
	"github.com/cjp-luany/mw-moneycount/internal/ledger"
)

func testEngine(t *testing.T) (*Engine, *ledger.Store) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rulesPath := filepath.Join(t.TempDir(), config.TagMappingFile)
	require.NoError(t, os.WriteFile(rulesPath, []byte(
		`{"吃饭": "food_ex", "打车": "traffic_ex", "工资": "salary_in"}`), 0o644))
	rules, err := config.LoadTagRules(rulesPath)
	require.NoError(t, err)

	store := ledger.NewStore(db)
	return New(store, rules, zerolog.Nop()), store
}

func seed(t *testing.T, store *ledger.Store, month string) {
	t.Helper()
	records := []struct {
		id     int64
		source string
		note   string
		amount float64
	}{
		{1, "美团外卖", "午饭", -30},
		{2, "滴滴出行", "打车通勤", -45},
		{3, "公司", "三月工资", 8000},
	}
	err := database.WithTx(store.DB(), func(tx *sql.Tx) error {
		if err := ledger.EnsureMonthTable(context.Background(), tx, month); err != nil {
			return err
		}
		for _, r := range records {
			_, err := tx.Exec(
				`INSERT INTO `+ledger.TableName(month)+` (id, pay_time, pay_monthyear,
				 pay_source, pay_note, pay_money, pay_tag, app_source)
				 VALUES (?, '2024-03-01 09:00:00', ?, ?, ?, ?, NULL, 'wx_pay')`,
				r.id, month, r.source, r.note, r.amount)
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestApplyManualRule(t *testing.T) {
	engine, store := testEngine(t)
	seed(t, store, "202403")
	ctx := context.Background()

	n, err := engine.ApplyManualRule(ctx, "202403", "吃饭", ledger.Filter{Key: "外卖"})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := store.Query(ctx, "202403", ledger.Filter{Tag: "food_ex"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].ID)
}

func TestApplyManualRuleUnknownWord(t *testing.T) {
	engine, _ := testEngine(t)

	_, err := engine.ApplyManualRule(context.Background(), "202403", "吃飯饭", ledger.Filter{})
	require.ErrorIs(t, err, ErrUnknownTagWord)
	require.Contains(t, err.Error(), "吃饭")
}

func TestApplyManualRuleWithAmountBound(t *testing.T) {
	engine, store := testEngine(t)
	seed(t, store, "202403")
	ctx := context.Background()

	// gt excludes everything at or below the bound.
	n, err := engine.ApplyManualRule(ctx, "202403", "工资", ledger.Filter{GT: "100"})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := store.Query(ctx, "202403", ledger.Filter{Tag: "salary_in"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 8000.0, got[0].Amount)
}

func TestReplayAutoRulesLastMatchWins(t *testing.T) {
	engine, store := testEngine(t)
	seed(t, store, "202403")
	ctx := context.Background()

	rules := []config.AutoRule{
		{Pattern: "滴滴", TagWord: "吃饭"}, // overwritten by the next rule
		{Pattern: "出行", TagWord: "打车"},
		{Pattern: "没有这个", TagWord: "工资"},
		{Pattern: "公司", TagWord: "不存在的词"},
	}
	outcomes := engine.ReplayAutoRules(ctx, "202403", rules)
	require.Len(t, outcomes, 4)
	require.Equal(t, int64(1), outcomes[0].Updated)
	require.Equal(t, int64(1), outcomes[1].Updated)
	require.Zero(t, outcomes[2].Updated)
	require.ErrorIs(t, outcomes[3].Err, ErrUnknownTagWord)

	got, err := store.Query(ctx, "202403", ledger.Filter{Key: "滴滴"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "traffic_ex", *got[0].Tag)
}
