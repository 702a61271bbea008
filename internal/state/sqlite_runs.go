package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/ldmgen/pkg/core"
)

const runColumns = `id, source_path, status, started_at, completed_at, error, models, entities, mappings, warnings`

// CreateRun records the start of an extraction of sourcePath.
func (s *SQLiteStore) CreateRun(sourcePath string) (*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	run := &core.Run{
		ID:         generateID(),
		SourcePath: sourcePath,
		Status:     core.RunStatusRunning,
		StartedAt:  now(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("source", sourcePath))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, source_path, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.SourcePath, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status and counts.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, summary core.RunSummary, errMsg string) error {
	if s.db == nil {
		return ErrNotOpen
	}

	var errValue sql.NullString
	if errMsg != "" {
		errValue = sql.NullString{String: errMsg, Valid: true}
	}

	res, err := s.db.Exec(
		`UPDATE runs
		 SET status = ?, completed_at = ?, error = ?, models = ?, entities = ?, mappings = ?, warnings = ?
		 WHERE id = ?`,
		string(status), now(), errValue,
		summary.Models, summary.Entities, summary.Mappings, summary.Warnings,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// GetLatestRun retrieves the most recent run of a source document.
// It returns nil without error when the source has no runs.
func (s *SQLiteStore) GetLatestRun(sourcePath string) (*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	row := s.db.QueryRow(
		`SELECT `+runColumns+` FROM runs WHERE source_path = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		sourcePath,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first.
// A limit of zero or less returns every run.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*core.Run, error) {
	var (
		run         core.Run
		status      string
		completedAt sql.NullTime
		errMsg      sql.NullString
	)
	err := row.Scan(
		&run.ID, &run.SourcePath, &status, &run.StartedAt, &completedAt, &errMsg,
		&run.Summary.Models, &run.Summary.Entities, &run.Summary.Mappings, &run.Summary.Warnings,
	)
	if err != nil {
		return nil, err
	}

	run.Status = core.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return &run, nil
}
