// Package report aggregates a month of ledger activity into per-tag and
// per-day summaries and renders them for the terminal.
package report

import (
	"sort"
	"time"

	"github.com/cjp-luany/mw-moneycount/internal/ledger"
)

// TagTotal is one classification bucket. Share is the bucket's percentage of
// the month total and is only meaningful when the total is positive.
type TagTotal struct {
	Tag   string
	Total float64
	Share float64
}

// DailyTotal is one calendar day's signed sum. Days without activity appear
// with a zero total so the series covers the whole month.
type DailyTotal struct {
	Date  string
	Total float64
}

// Summary is a month's aggregated view.
type Summary struct {
	Month string
	Total float64
	Tags  []TagTotal
	Days  []DailyTotal
}

// Build aggregates the month's series points. Rows whose timestamp does not
// parse are dropped from the daily series but still count toward tag totals,
// matching how the tuples were recorded.
func Build(month string, points []ledger.SeriesPoint) (Summary, error) {
	start, _, err := ledger.MonthRange(month)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Month: month}

	byTag := map[string]float64{}
	byDay := map[string]float64{}
	for _, p := range points {
		tag := p.Tag
		if tag == "" {
			tag = "(untagged)"
		}
		byTag[tag] += p.Amount
		s.Total += p.Amount

		if t, err := time.Parse(time.DateTime, p.PayTime); err == nil {
			byDay[t.Format("2006-01-02")] += p.Amount
		}
	}

	for tag, total := range byTag {
		s.Tags = append(s.Tags, TagTotal{Tag: tag, Total: total})
	}
	sort.Slice(s.Tags, func(i, j int) bool { return s.Tags[i].Tag < s.Tags[j].Tag })
	if s.Total > 0 {
		for i := range s.Tags {
			s.Tags[i].Share = s.Tags[i].Total / s.Total * 100
		}
	}

	first, err := time.Parse("2006-01-02", start)
	if err != nil {
		return Summary{}, err
	}
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		s.Days = append(s.Days, DailyTotal{Date: date, Total: byDay[date]})
	}
	return s, nil
}
