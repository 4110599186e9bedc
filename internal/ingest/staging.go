package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cjp-luany/mw-moneycount/internal/database"
	"github.com/cjp-luany/mw-moneycount/internal/ledger"
	"github.com/cjp-luany/mw-moneycount/internal/normalize"
)

// Spec describes how to read one source file. Row and column indices are
// zero-based and refer to the raw file, before any columns are dropped.
type Spec struct {
	Strategy     string
	Month        string
	HeaderRow    int
	DataStartRow int
	SkipColumns  []int
}

// Column is one staging column with its storage kind.
type Column struct {
	Name string
	Kind normalize.Kind
}

// StagingTable describes a committed staging load.
type StagingTable struct {
	Name     string
	Columns  []Column
	Encoding string
	Rows     int
	Skipped  int
}

// Importer loads source files into per-strategy staging tables.
type Importer struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewImporter(db *sql.DB, log zerolog.Logger) *Importer {
	return &Importer{db: db, log: log}
}

// StagingTableName returns the staging table for a month and strategy.
func StagingTableName(month, strategy string) string {
	return fmt.Sprintf("t_%s_%s", ledger.TableName(month), strategy)
}

// Stage decodes path, builds a fresh staging table (versioning any existing
// one aside) and loads the typed rows. The load commits in its own
// transaction so staged data survives a failed downstream transform.
func (im *Importer) Stage(ctx context.Context, path string, spec Spec) (StagingTable, error) {
	if !ledger.ValidMonth(spec.Month) {
		return StagingTable{}, fmt.Errorf("invalid month %q", spec.Month)
	}

	text, encName, err := decodeFile(path)
	if err != nil {
		return StagingTable{}, err
	}
	im.log.Debug().Str("file", path).Str("encoding", encName).Msg("decoded source file")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	for i := 0; i < spec.HeaderRow; i++ {
		if _, err := reader.Read(); err != nil {
			return StagingTable{}, fmt.Errorf("reach header row %d: %w", spec.HeaderRow, err)
		}
	}
	header, err := reader.Read()
	if err != nil {
		return StagingTable{}, fmt.Errorf("read header row: %w", err)
	}

	skip := make(map[int]bool, len(spec.SkipColumns))
	for _, idx := range spec.SkipColumns {
		skip[idx] = true
	}

	var columns []Column
	for i, cell := range header {
		if skip[i] {
			continue
		}
		name := normalize.Identifier(cell)
		if name == "" {
			return StagingTable{}, fmt.Errorf("header cell %d (%q) sanitizes to nothing", i, cell)
		}
		columns = append(columns, Column{Name: name, Kind: normalize.KindOf(name)})
	}
	if len(columns) == 0 {
		return StagingTable{}, fmt.Errorf("no usable columns in %s", path)
	}

	// Rows between the header and the first data row.
	for i := 0; i < spec.DataStartRow-(spec.HeaderRow+1); i++ {
		if _, err := reader.Read(); err == io.EOF {
			break
		} else if err != nil {
			return StagingTable{}, fmt.Errorf("skip preamble row: %w", err)
		}
	}

	table := StagingTable{
		Name:     StagingTableName(spec.Month, spec.Strategy),
		Columns:  columns,
		Encoding: encName,
	}

	err = database.WithTx(im.db, func(tx *sql.Tx) error {
		if err := versionExistingTable(tx, table.Name); err != nil {
			return err
		}
		if err := createStagingTable(tx, table.Name, columns); err != nil {
			return err
		}

		insert := insertStatement(table.Name, len(columns))
		for {
			row, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("read data row: %w", err)
			}
			if blankRow(row) {
				continue
			}

			values, ok := im.typedValues(row, skip, columns)
			if !ok {
				table.Skipped++
				im.log.Warn().Int("fields", len(row)).Int("want", len(columns)).
					Strs("row", row).Msg("field count mismatch, row skipped")
				continue
			}
			if _, err := tx.ExecContext(ctx, insert, values...); err != nil {
				return fmt.Errorf("insert into %s: %w", table.Name, err)
			}
			table.Rows++
		}
		return nil
	})
	if err != nil {
		return StagingTable{}, err
	}

	im.log.Info().Str("table", table.Name).Int("rows", table.Rows).
		Int("skipped", table.Skipped).Str("encoding", encName).Msg("staging load committed")
	return table, nil
}

// typedValues drops skipped columns by original index and converts the rest
// per column kind. Returns ok=false on a field-count mismatch.
func (im *Importer) typedValues(row []string, skip map[int]bool, columns []Column) ([]interface{}, bool) {
	values := make([]interface{}, 0, len(columns))
	for i, cell := range row {
		if skip[i] {
			continue
		}
		j := len(values)
		if j >= len(columns) {
			return nil, false
		}
		if columns[j].Kind == normalize.KindAmount {
			amount, ok := normalize.Amount(cell)
			if !ok {
				im.log.Warn().Str("column", columns[j].Name).Str("value", cell).
					Msg("unparsable amount stored as zero")
			}
			values = append(values, amount)
		} else {
			values = append(values, strings.TrimSpace(cell))
		}
	}
	if len(values) != len(columns) {
		return nil, false
	}
	return values, true
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func createStagingTable(tx *sql.Tx, name string, columns []Column) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = fmt.Sprintf("%q %s", c.Name, c.Kind.SQLType())
	}
	_, err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", ")))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	return nil
}

func insertStatement(table string, cols int) string {
	placeholders := strings.TrimRight(strings.Repeat("?,", cols), ",")
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, placeholders)
}

// versionExistingTable renames a leftover staging table to a timestamped
// backup so the new load starts empty and the old data stays queryable. A
// same-second re-import gets a numeric suffix.
func versionExistingTable(tx *sql.Tx, name string) error {
	exists, err := database.TableExists(tx, name)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	base := fmt.Sprintf("%s_backup_%s", name, time.Now().Format("20060102_150405"))
	backup := base
	for n := 2; ; n++ {
		taken, err := database.TableExists(tx, backup)
		if err != nil {
			return err
		}
		if !taken {
			break
		}
		backup = fmt.Sprintf("%s_%d", base, n)
	}
	if _, err := tx.Exec(fmt.Sprintf("ALTER TABLE %s RENAME TO %s", name, backup)); err != nil {
		return fmt.Errorf("version %s: %w", name, err)
	}
	return nil
}
