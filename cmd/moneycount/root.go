package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cjp-luany/mw-moneycount/internal/config"
	"github.com/cjp-luany/mw-moneycount/internal/database"
	"github.com/cjp-luany/mw-moneycount/internal/ledger"
	"github.com/cjp-luany/mw-moneycount/internal/logger"
)

var monthFlag string

var rootCmd = &cobra.Command{
	Use:   "moneycount",
	Short: "Ingest payment-app exports into a monthly spending ledger",
	Long: `moneycount stages WeChat, Alipay and bank CSV exports into sqlite,
transforms them into a canonical per-month ledger, classifies records by
tag rules and answers ad-hoc queries over the result.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&monthFlag, "month", "m", "",
		"month to operate on, YYYYMM (default: current month)")

	rootCmd.AddCommand(
		newImportCmd(),
		newAutoUpdateCmd(),
		newUpdateCmd(),
		newQueryCmd(),
		newReportCmd(),
		newBalanceCmd(),
		newPromptCmd(),
		newPrepareCmd(),
		newImportsCmd(),
		newRunCmd(),
	)
}

// app bundles everything a subcommand needs: settings, the open store, rule
// files and the process logger.
type app struct {
	cfg   config.Config
	log   zerolog.Logger
	db    *sql.DB
	store *ledger.Store
	rules config.Rules
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if monthFlag != "" {
		cfg.Month = monthFlag
	}
	if err := config.ValidateMonth(cfg.Month); err != nil {
		return nil, err
	}

	log := logger.New(cfg.Log.Level)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	rules, err := config.LoadRules(cfg.Paths.ConfigDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load rule files: %w", err)
	}

	return &app{
		cfg:   cfg,
		log:   log,
		db:    db,
		store: ledger.NewStore(db),
		rules: rules,
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Error().Err(err).Msg("close database")
	}
}
