package ingest

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cjp-luany/mw-moneycount/internal/database"
	"github.com/cjp-luany/mw-moneycount/internal/redact"
)

// Service runs the full import of one source file: staging load, transform
// dispatch, redaction, and the import_runs audit row.
type Service struct {
	db         *sql.DB
	importer   *Importer
	dispatcher *Dispatcher
	log        zerolog.Logger
}

func NewService(db *sql.DB, words redact.WordMap, log zerolog.Logger) *Service {
	return &Service{
		db:         db,
		importer:   NewImporter(db, log),
		dispatcher: NewDispatcher(db, DefaultRegistry(), words, log),
		log:        log,
	}
}

// Import stages path per spec and applies the strategy's transforms. Staged
// rows are committed before the transform starts, so a transform failure
// leaves the staging table in place for inspection; the audit row records
// which way the run went.
func (s *Service) Import(ctx context.Context, path string, spec Spec) (StagingTable, error) {
	run := database.ImportRun{
		ID:         uuid.NewString(),
		MonthYear:  spec.Month,
		Strategy:   spec.Strategy,
		SourceFile: path,
		StartedAt:  database.Now(),
	}

	staged, err := s.importer.Stage(ctx, path, spec)
	if err != nil {
		run.Status = database.RunFailed
		run.Error = err.Error()
		if auditErr := database.InsertRun(ctx, s.db, run); auditErr != nil {
			s.log.Error().Err(auditErr).Msg("record failed import run")
		}
		return StagingTable{}, err
	}

	run.StagingTable = staged.Name
	run.Encoding = staged.Encoding
	run.RowsLoaded = staged.Rows
	run.RowsSkipped = staged.Skipped
	run.Status = database.RunStaged
	if err := database.InsertRun(ctx, s.db, run); err != nil {
		s.log.Error().Err(err).Msg("record staged import run")
	}

	if err := s.dispatcher.Apply(ctx, spec.Strategy, staged, spec.Month); err != nil {
		if auditErr := database.FinishRun(ctx, s.db, run.ID, database.RunFailed, err.Error()); auditErr != nil {
			s.log.Error().Err(auditErr).Msg("close failed import run")
		}
		return staged, err
	}
	if err := database.FinishRun(ctx, s.db, run.ID, database.RunTransformed, ""); err != nil {
		s.log.Error().Err(err).Msg("close import run")
	}
	return staged, nil
}
