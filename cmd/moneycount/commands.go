package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/cjp-luany/mw-moneycount/internal/database"
	"github.com/cjp-luany/mw-moneycount/internal/ingest"
	"github.com/cjp-luany/mw-moneycount/internal/ledger"
	"github.com/cjp-luany/mw-moneycount/internal/prepare"
	"github.com/cjp-luany/mw-moneycount/internal/prompt"
	"github.com/cjp-luany/mw-moneycount/internal/report"
	"github.com/cjp-luany/mw-moneycount/internal/tagger"
)

// importSteps lists each strategy with the row/column layout of its export
// format. Indices refer to the raw file.
var importSteps = []struct {
	strategy     string
	headerRow    int
	dataStartRow int
	skipColumns  []int
}{
	{"wx", 16, 17, []int{8, 9}},
	{"zfb", 4, 5, []int{0, 1, 3, 16}},
	{"bank", 0, 1, nil},
}

func runImport(ctx context.Context, a *app) error {
	svc := ingest.NewService(a.db, a.rules.Sensitive, a.log)
	for _, step := range importSteps {
		path := filepath.Join(a.cfg.Paths.DataDir, step.strategy, a.cfg.Month+".csv")
		staged, err := svc.Import(ctx, path, ingest.Spec{
			Strategy:     step.strategy,
			Month:        a.cfg.Month,
			HeaderRow:    step.headerRow,
			DataStartRow: step.dataStartRow,
			SkipColumns:  step.skipColumns,
		})
		if errors.Is(err, ingest.ErrSourceNotFound) {
			a.log.Warn().Str("strategy", step.strategy).Str("path", path).
				Msg("no export file, strategy skipped")
			continue
		}
		if err != nil {
			return fmt.Errorf("import %s: %w", step.strategy, err)
		}
		fmt.Printf("%s: %d rows staged (%d skipped), encoding %s\n",
			step.strategy, staged.Rows, staged.Skipped, staged.Encoding)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Stage and transform the month's export files",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return runImport(cmd.Context(), a)
		},
	}
}

func runAutoUpdate(ctx context.Context, a *app) error {
	engine := tagger.New(a.store, a.rules.Tags, a.log)
	outcomes := engine.ReplayAutoRules(ctx, a.cfg.Month, a.rules.AutoRules)
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Printf("%-20s -> %-12s failed: %v\n", o.Pattern, o.TagWord, o.Err)
			continue
		}
		fmt.Printf("%-20s -> %-12s %d records\n", o.Pattern, o.TagWord, o.Updated)
	}
	return nil
}

func newAutoUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auto-update",
		Short: "Replay the stored source-to-tag rules over the month",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return runAutoUpdate(cmd.Context(), a)
		},
	}
}

func newUpdateCmd() *cobra.Command {
	var filter ledger.Filter
	cmd := &cobra.Command{
		Use:   "update <keyword> <tag-word>",
		Short: "Tag the month's records matching a keyword",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			filter.Key = args[0]
			engine := tagger.New(a.store, a.rules.Tags, a.log)
			n, err := engine.ApplyManualRule(cmd.Context(), a.cfg.Month, args[1], filter)
			if err != nil {
				return err
			}
			fmt.Printf("updated %d records\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.LT, "lt", "", "only records strictly below this amount")
	cmd.Flags().StringVar(&filter.GT, "gt", "", "only records strictly above this amount")
	return cmd
}

func newQueryCmd() *cobra.Command {
	var filter ledger.Filter
	cmd := &cobra.Command{
		Use:   "query",
		Short: "List the month's records matching a filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			records, err := a.store.Query(cmd.Context(), a.cfg.Month, filter)
			if err != nil {
				return err
			}
			fmt.Println(renderRecords(records))
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Tag, "tag", "", "exact tag match")
	cmd.Flags().StringVar(&filter.Key, "key", "", "substring match on source or note")
	cmd.Flags().StringVar(&filter.LT, "lt", "", "amount strictly below")
	cmd.Flags().StringVar(&filter.GT, "gt", "", "amount strictly above")
	cmd.Flags().StringVar(&filter.Since, "since", "", "earliest pay time, inclusive")
	cmd.Flags().StringVar(&filter.Until, "until", "", "latest pay time, inclusive")
	cmd.Flags().StringVar(&filter.SortBy, "sort", "", "sort column (default pay_money)")
	cmd.Flags().BoolVar(&filter.Asc, "asc", false, "sort ascending")
	return cmd
}

var queryHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))

func renderRecords(records []ledger.Record) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return queryHeaderStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("时间", "来源", "备注", "金额", "标签", "渠道")

	var total float64
	for _, r := range records {
		tag := ""
		if r.Tag != nil {
			tag = *r.Tag
		}
		t.Row(r.PayTime, r.Source, r.Note, fmt.Sprintf("¥%.2f", r.Amount), tag, r.Origin)
		total += r.Amount
	}
	return fmt.Sprintf("%s\n%d 条记录, 总金额 ¥%.2f", t.Render(), len(records), total)
}

func runReport(ctx context.Context, a *app) error {
	points, err := a.store.MonthlySeries(ctx, a.cfg.Month)
	if err != nil {
		return err
	}
	summary, err := report.Build(a.cfg.Month, points)
	if err != nil {
		return err
	}
	fmt.Println(report.Render(summary))
	return nil
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Summarize the month by tag and by day",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return runReport(cmd.Context(), a)
		},
	}
}

func newBalanceCmd() *cobra.Command {
	var entry ledger.ManualEntry
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Insert a manual balancing record",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			entry.MonthYear = a.cfg.Month
			record, err := a.store.InsertManual(cmd.Context(), entry)
			if err != nil {
				return err
			}
			// Balancing entries offset recorded spending, so they are
			// expected to be negative.
			if record.Amount > 0 {
				a.log.Warn().Float64("amount", record.Amount).
					Msg("balancing records are usually negative")
			}
			fmt.Printf("added record %d at %s, ¥%.2f\n", record.ID, record.PayTime, record.Amount)
			return nil
		},
	}
	cmd.Flags().StringVar(&entry.PayTime, "time", "",
		"pay time, YYYY-MM-DD HH:MM:SS (default: 2nd of the month)")
	cmd.Flags().StringVar(&entry.Source, "source", "", "record source")
	cmd.Flags().StringVar(&entry.Note, "note", "", "record note")
	cmd.Flags().StringVar(&entry.Amount, "amount", "", "signed amount")
	cmd.Flags().StringVar(&entry.Tag, "tag", "", "tag (default "+ledger.DefaultManualTag+")")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func runPrompt(a *app) error {
	text, err := prompt.Generate(a.cfg.Paths.PromptDir, a.cfg.Month)
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Println("prompt template is empty; edit it under", a.cfg.Paths.PromptDir)
		return nil
	}
	fmt.Println(text)
	return nil
}

func newPromptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the statement-parsing prompt for the month",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return runPrompt(a)
		},
	}
}

func runPrepare(a *app) error {
	result, err := prepare.Collect(a.cfg.Paths.DropboxDir, a.cfg.Paths.DataDir, a.cfg.Month, a.log)
	if err != nil {
		return err
	}
	for strategy, path := range result {
		fmt.Printf("%s: %s\n", strategy, path)
	}
	return nil
}

func newPrepareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Collect the month's export files from the drop folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return runPrepare(a)
		},
	}
}

func newImportsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "imports",
		Short: "List recent import runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			runs, err := database.ListRuns(cmd.Context(), a.db, limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				rows := fmt.Sprintf("%d rows", r.RowsLoaded)
				if r.RowsSkipped > 0 {
					rows += fmt.Sprintf(" (%d skipped)", r.RowsSkipped)
				}
				line := fmt.Sprintf("%s  %s %-5s %-11s %s",
					r.StartedAt.Format("2006-01-02 15:04:05"),
					r.MonthYear, r.Strategy, r.Status, rows)
				if r.Error != "" {
					line += "  " + r.Error
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}
