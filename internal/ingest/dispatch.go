package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cjp-luany/mw-moneycount/internal/database"
	"github.com/cjp-luany/mw-moneycount/internal/ledger"
	"github.com/cjp-luany/mw-moneycount/internal/redact"
)

// TransformProgram moves rows from a staging table into the canonical month
// table. Programs run inside the dispatcher's transaction and must not commit.
type TransformProgram interface {
	Name() string
	Apply(ctx context.Context, tx *sql.Tx, target, staging, month string) error
}

// strategyPrograms maps an import strategy to its program sequence. Strategies
// mapped to nil are accepted but do nothing yet.
var strategyPrograms = map[string][]string{
	"wx":    {"wx_expense", "wx_income"},
	"zfb":   {"zfb_expense", "zfb_refund"},
	"bank":  {"bank_import"},
	"yh":    nil,
	"other": nil,
}

// Registry resolves program names.
type Registry struct {
	programs map[string]TransformProgram
}

func NewRegistry(programs ...TransformProgram) *Registry {
	r := &Registry{programs: make(map[string]TransformProgram, len(programs))}
	for _, p := range programs {
		r.programs[p.Name()] = p
	}
	return r
}

func (r *Registry) lookup(name string) (TransformProgram, bool) {
	p, ok := r.programs[name]
	return p, ok
}

// Dispatcher runs a strategy's transform programs and the redaction pass as
// one transaction against the canonical month table.
type Dispatcher struct {
	db       *sql.DB
	registry *Registry
	words    redact.WordMap
	log      zerolog.Logger
}

func NewDispatcher(db *sql.DB, registry *Registry, words redact.WordMap, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{db: db, registry: registry, words: words, log: log}
}

// Apply transforms staged rows into the month's canonical table. An unknown
// strategy, or a strategy with no programs, is logged and succeeds without
// touching the ledger. Any failure rolls back every canonical mutation of
// this call; the staging table, committed earlier, stays put.
func (d *Dispatcher) Apply(ctx context.Context, strategy string, staging StagingTable, month string) error {
	names, known := strategyPrograms[strategy]
	if !known {
		d.log.Warn().Str("strategy", strategy).Msg("unknown import strategy, nothing to do")
		return nil
	}
	if len(names) == 0 {
		d.log.Info().Str("strategy", strategy).Msg("strategy has no transform programs yet")
		return nil
	}

	target := ledger.TableName(month)
	return database.WithTx(d.db, func(tx *sql.Tx) error {
		if err := ledger.EnsureMonthTable(ctx, tx, month); err != nil {
			return err
		}
		for _, name := range names {
			program, ok := d.registry.lookup(name)
			if !ok {
				d.log.Warn().Str("program", name).Msg("transform program not registered, skipped")
				continue
			}
			if err := program.Apply(ctx, tx, target, staging.Name, month); err != nil {
				return fmt.Errorf("program %s: %w", name, err)
			}
		}
		return d.redactMonth(ctx, tx, month)
	})
}

// redactMonth rewrites sensitive words in the month's free-text columns. The
// word map is runtime configuration, so rows are read out, rewritten in
// memory and updated by (id, pay_monthyear) rather than pushed into SQL.
func (d *Dispatcher) redactMonth(ctx context.Context, tx *sql.Tx, month string) error {
	if len(d.words) == 0 {
		return nil
	}
	rows, err := ledger.ListFreeText(ctx, tx, month)
	if err != nil {
		return err
	}
	var changed int
	for _, row := range rows {
		source := redact.Apply(row.Source, d.words)
		note := redact.Apply(row.Note, d.words)
		if source == row.Source && note == row.Note {
			continue
		}
		if err := ledger.UpdateFreeText(ctx, tx, month, row.ID, source, note); err != nil {
			return err
		}
		changed++
	}
	if changed > 0 {
		d.log.Info().Int("records", changed).Str("month", month).Msg("sensitive words redacted")
	}
	return nil
}
