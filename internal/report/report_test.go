package report

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cjp-luany/mw-moneycount/internal/ledger"
)

func TestBuildAggregates(t *testing.T) {
	points := []ledger.SeriesPoint{
		{PayTime: "2024-02-01 09:00:00", Amount: 30, Tag: "food_ex"},
		{PayTime: "2024-02-01 19:00:00", Amount: 70, Tag: "food_ex"},
		{PayTime: "2024-02-10 08:00:00", Amount: 100, Tag: "traffic_ex"},
		{PayTime: "2024-02-11 08:00:00", Amount: -50, Tag: ""},
	}

	s, err := Build("202402", points)
	require.NoError(t, err)
	require.Equal(t, 150.0, s.Total)

	// Alphabetical buckets, untagged rows grouped under a placeholder.
	require.Len(t, s.Tags, 3)
	require.Equal(t, "(untagged)", s.Tags[0].Tag)
	require.Equal(t, -50.0, s.Tags[0].Total)
	require.Equal(t, "food_ex", s.Tags[1].Tag)
	require.Equal(t, 100.0, s.Tags[1].Total)
	require.InDelta(t, 66.7, s.Tags[1].Share, 0.1)

	// Leap February: full 29-day series with zero fill.
	require.Len(t, s.Days, 29)
	require.Equal(t, 100.0, s.Days[0].Total)
	require.Equal(t, DailyTotal{Date: "2024-02-02", Total: 0}, s.Days[1])
	require.Equal(t, 100.0, s.Days[9].Total)
}

func TestBuildEmptyMonth(t *testing.T) {
	s, err := Build("202403", nil)
	require.NoError(t, err)
	require.Zero(t, s.Total)
	require.Empty(t, s.Tags)
	require.Len(t, s.Days, 31)
}

func TestBuildDropsUnparsableTimes(t *testing.T) {
	points := []ledger.SeriesPoint{
		{PayTime: "not a time", Amount: 10, Tag: "food_ex"},
	}
	s, err := Build("202403", points)
	require.NoError(t, err)
	// Counted in the bucket, absent from the daily series.
	require.Equal(t, 10.0, s.Total)
	for _, d := range s.Days {
		require.Zero(t, d.Total)
	}
}

func TestRenderIncludesBucketsAndTotal(t *testing.T) {
	s, err := Build("202402", []ledger.SeriesPoint{
		{PayTime: "2024-02-01 09:00:00", Amount: 42.5, Tag: "food_ex"},
	})
	require.NoError(t, err)

	out := Render(s)
	require.Contains(t, out, "202402")
	require.Contains(t, out, "food_ex")
	require.Contains(t, out, "¥42.50")
	require.Contains(t, out, "总金额")
}
