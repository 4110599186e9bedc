package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// pipelineSteps are the selectable stages of a monthly run, in execution
// order. Stages needing per-record input (update, balance) stay flag-driven
// subcommands.
var pipelineSteps = []struct {
	name string
	desc string
	run  func(ctx context.Context, a *app) error
}{
	{"prepare", "collect export files from the drop folder",
		func(ctx context.Context, a *app) error { return runPrepare(a) }},
	{"import", "stage and transform the month's exports", runImport},
	{"auto-update", "replay stored tag rules", runAutoUpdate},
	{"report", "print the monthly summary", runReport},
	{"prompt", "print the statement-parsing prompt",
		func(ctx context.Context, a *app) error { return runPrompt(a) }},
}

type runKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Accept key.Binding
	Quit   key.Binding
}

var runKeys = runKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
	Accept: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	runTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	runCursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	runSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	runHelpStyle     = lipgloss.NewStyle().Faint(true)
)

type runModel struct {
	month    string
	cursor   int
	selected map[int]bool
	accepted bool
}

func newRunModel(month string) runModel {
	return runModel{month: month, selected: map[int]bool{}}
}

func (m runModel) Init() tea.Cmd { return nil }

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, runKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, runKeys.Down):
		if m.cursor < len(pipelineSteps)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, runKeys.Toggle):
		m.selected[m.cursor] = !m.selected[m.cursor]
	case key.Matches(keyMsg, runKeys.Accept):
		m.accepted = true
		return m, tea.Quit
	case key.Matches(keyMsg, runKeys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m runModel) View() string {
	s := runTitleStyle.Render(fmt.Sprintf("moneycount %s — 选择执行步骤", m.month)) + "\n\n"
	for i, step := range pipelineSteps {
		cursor := "  "
		if i == m.cursor {
			cursor = runCursorStyle.Render("> ")
		}
		mark := "[ ]"
		label := fmt.Sprintf("%-12s %s", step.name, step.desc)
		if m.selected[i] {
			mark = runSelectedStyle.Render("[x]")
			label = runSelectedStyle.Render(label)
		}
		s += fmt.Sprintf("%s%s %s\n", cursor, mark, label)
	}
	s += "\n" + runHelpStyle.Render("space 选择 · enter 执行 · q 退出") + "\n"
	return s
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Pick pipeline steps interactively and run them in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			final, err := tea.NewProgram(newRunModel(a.cfg.Month)).Run()
			if err != nil {
				return fmt.Errorf("step picker: %w", err)
			}
			m, ok := final.(runModel)
			if !ok || !m.accepted {
				return nil
			}

			for i, step := range pipelineSteps {
				if !m.selected[i] {
					continue
				}
				fmt.Printf("\n=== %s ===\n", step.name)
				if err := step.run(cmd.Context(), a); err != nil {
					return fmt.Errorf("%s: %w", step.name, err)
				}
			}
			return nil
		},
	}
}
