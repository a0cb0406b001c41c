package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"plugindiff/models"
)

// Run status values stored in the runs table.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// ErrRunNotFound is returned when a run ID does not exist.
	ErrRunNotFound = errors.New("run not found")
	// ErrNoRuns is returned by LatestRun when the history is empty.
	ErrNoRuns = errors.New("no runs recorded")
)

// Run represents one reconciliation run.
type Run struct {
	RunID         int64     `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at,omitzero"` // zero until the run ends
	Status        string    `json:"status"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	ExactCount    int       `json:"exact_count"`
	SimilarCount  int       `json:"similar_count"`
	OutdatedCount int       `json:"outdated_count"`
	MissingCount  int       `json:"missing_count"`
}

// RunMatch is one stored match row belonging to a run.
type RunMatch struct {
	MatchID int64  `json:"match_id"`
	Kind    string `json:"kind"`
	models.Match
}

const runColumns = `run_id, started_at, finished_at, status, error_message,
       exact_count, similar_count, outdated_count, missing_count`

// InsertRun records the start of a run and returns its ID.
func (db *DB) InsertRun() (int64, error) {
	result, err := db.Exec("INSERT INTO runs (status) VALUES (?)", StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	return runID, nil
}

// FinishRun marks a run successful and stores its bucket counts.
func (db *DB) FinishRun(runID int64, exact, similar, outdated, missing int) error {
	_, err := db.Exec(`
		UPDATE runs
		SET finished_at = CURRENT_TIMESTAMP, status = ?,
		    exact_count = ?, similar_count = ?, outdated_count = ?, missing_count = ?
		WHERE run_id = ?
	`, StatusSuccess, exact, similar, outdated, missing, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// FailRun marks a run failed with the given message.
func (db *DB) FailRun(runID int64, message string) error {
	_, err := db.Exec(`
		UPDATE runs
		SET finished_at = CURRENT_TIMESTAMP, status = ?, error_message = ?
		WHERE run_id = ?
	`, StatusError, message, runID)
	if err != nil {
		return fmt.Errorf("failed to fail run: %w", err)
	}
	return nil
}

// InsertMatches stores all matches of one pair kind for a run.
func (db *DB) InsertMatches(runID int64, kind string, matches []models.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO run_matches (run_id, kind, name_ref, name_cand, version_ref, version_cand,
		                         url_ref, url_cand, similarity, classification, freshness)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare match insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		_, err := stmt.Exec(runID, kind, m.RefName, m.CandName, m.RefVersion, m.CandVersion,
			m.RefURL, m.CandURL, m.Similarity, string(m.Classification), string(m.Freshness))
		if err != nil {
			return fmt.Errorf("failed to insert match for %s: %w", m.RefName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit matches: %w", err)
	}
	return nil
}

// GetRun retrieves a run by its ID.
func (db *DB) GetRun(runID int64) (*Run, error) {
	row := db.QueryRow("SELECT "+runColumns+" FROM runs WHERE run_id = ?", runID)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// LatestRun retrieves the most recent run.
func (db *DB) LatestRun() (*Run, error) {
	row := db.QueryRow("SELECT " + runColumns + " FROM runs ORDER BY run_id DESC LIMIT 1")

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves runs ordered by most recent first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY run_id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRunMatches retrieves all stored matches for a run in insert order.
func (db *DB) GetRunMatches(runID int64) ([]RunMatch, error) {
	rows, err := db.Query(`
		SELECT match_id, kind, name_ref, name_cand, version_ref, version_cand,
		       url_ref, url_cand, similarity, classification, freshness
		FROM run_matches
		WHERE run_id = ?
		ORDER BY match_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run matches: %w", err)
	}
	defer rows.Close()

	var matches []RunMatch
	for rows.Next() {
		var rm RunMatch
		var classification, freshness string
		err := rows.Scan(&rm.MatchID, &rm.Kind, &rm.RefName, &rm.CandName, &rm.RefVersion,
			&rm.CandVersion, &rm.RefURL, &rm.CandURL, &rm.Similarity, &classification, &freshness)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		rm.Classification = models.MatchClass(classification)
		rm.Freshness = models.Freshness(freshness)
		matches = append(matches, rm)
	}
	return matches, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var finishedAt sql.NullTime
	var errorMessage sql.NullString

	err := s.Scan(&run.RunID, &run.StartedAt, &finishedAt, &run.Status, &errorMessage,
		&run.ExactCount, &run.SimilarCount, &run.OutdatedCount, &run.MissingCount)
	if err != nil {
		return nil, err
	}

	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	if errorMessage.Valid {
		run.ErrorMessage = errorMessage.String
	}
	return &run, nil
}
