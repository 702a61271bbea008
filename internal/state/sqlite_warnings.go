package state

import (
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// SaveWarnings stores the warnings of a run, replacing any stored before.
func (s *SQLiteStore) SaveWarnings(runID string, warnings []core.Warning) error {
	if s.db == nil {
		return ErrNotOpen
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM run_warnings WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear warnings: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO run_warnings
		(run_id, seq, kind, stage, record_id, record_name, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, w := range warnings {
		if _, err := stmt.Exec(runID, i, string(w.Kind), w.Stage,
			nullable(w.RecordID), nullable(w.RecordName), w.Message); err != nil {
			return fmt.Errorf("failed to save warning: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit warnings: %w", err)
	}
	return nil
}

// GetWarnings returns the warnings of a run in the order they were raised.
func (s *SQLiteStore) GetWarnings(runID string) ([]core.Warning, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.Query(
		`SELECT kind, stage, record_id, record_name, message
		 FROM run_warnings WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get warnings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.Warning
	for rows.Next() {
		var (
			w        core.Warning
			kind     string
			id, name sql.NullString
		)
		if err := rows.Scan(&kind, &w.Stage, &id, &name, &w.Message); err != nil {
			return nil, fmt.Errorf("failed to scan warning: %w", err)
		}
		w.Kind = core.WarningKind(kind)
		w.RecordID = id.String
		w.RecordName = name.String
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get warnings: %w", err)
	}
	return out, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
