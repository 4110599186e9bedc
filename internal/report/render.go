package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	totalStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

// Render formats the summary as two tables: classification buckets and the
// daily series, quiet days elided.
func Render(s Summary) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s 月度报告", s.Month)))
	b.WriteString("\n\n")

	tags := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		}).
		Headers("标签", "金额", "占比")
	for _, t := range s.Tags {
		tags.Row(t.Tag, fmt.Sprintf("¥%.2f", t.Total), fmt.Sprintf("%.1f%%", t.Share))
	}
	b.WriteString(tags.Render())
	b.WriteString("\n\n")

	days := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		}).
		Headers("日期", "金额")
	for _, d := range s.Days {
		if d.Total == 0 {
			continue
		}
		days.Row(d.Date, fmt.Sprintf("¥%.2f", d.Total))
	}
	b.WriteString(days.Render())
	b.WriteString("\n\n")

	b.WriteString(totalStyle.Render(fmt.Sprintf("总金额: ¥%.2f", s.Total)))
	b.WriteString("\n")
	return b.String()
}
