package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/cjp-luany/mw-moneycount/internal/ledger"
)

func pressKey(m runModel, key rune) runModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{key}})
	return next.(runModel)
}

func TestRunModelToggleAndAccept(t *testing.T) {
	m := newRunModel("202403")

	m = pressKey(m, 'j')
	m = pressKey(m, 'j')
	require.Equal(t, 2, m.cursor)

	m = pressKey(m, 'x')
	require.True(t, m.selected[2])
	m = pressKey(m, 'x')
	require.False(t, m.selected[2])

	m = pressKey(m, 'x')
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(runModel)
	require.True(t, m.accepted)
	require.NotNil(t, cmd)
}

func TestRunModelCursorBounds(t *testing.T) {
	m := newRunModel("202403")

	m = pressKey(m, 'k')
	require.Zero(t, m.cursor)

	for i := 0; i < len(pipelineSteps)+3; i++ {
		m = pressKey(m, 'j')
	}
	require.Equal(t, len(pipelineSteps)-1, m.cursor)
}

func TestRunModelViewMarksSelection(t *testing.T) {
	m := newRunModel("202403")
	m = pressKey(m, 'x')

	view := m.View()
	require.Contains(t, view, "202403")
	require.Contains(t, view, "[x]")
	require.Contains(t, view, "import")
}

func TestRenderRecords(t *testing.T) {
	tag := "food_ex"
	out := renderRecords([]ledger.Record{
		{PayTime: "2024-03-01 09:00:00", Source: "超市", Note: "早餐",
			Amount: -12.5, Tag: &tag, Origin: "wx_pay"},
		{PayTime: "2024-03-02 10:00:00", Source: "公司", Note: "工资",
			Amount: 8000, Origin: "bank"},
	})
	require.Contains(t, out, "food_ex")
	require.Contains(t, out, "¥-12.50")
	require.Contains(t, out, "2 条记录")
	require.Contains(t, out, "¥7987.50")
}
