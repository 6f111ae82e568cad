package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/covgap/covgap/internal/coverage"
)

// ErrNoBaseline is returned when no baseline has been recorded for a project.
var ErrNoBaseline = errors.New("no baseline recorded")

// BaselineRecord is one stored baseline: a normalized report snapshot
// plus the figures needed to compare against it without decoding.
type BaselineRecord struct {
	ID           int64
	Project      string
	RecordedAt   time.Time
	Overall      float64
	SourceFormat string
	Report       *coverage.CoverageReport
}

// Save records a new baseline for the project from a normalized report.
func (s *Store) Save(project string, report *coverage.CoverageReport) error {
	if report == nil {
		return errors.New("nil report")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode baseline report: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO baselines (project, recorded_at, overall, source_format, report)
		VALUES (?, ?, ?, ?, ?)`,
		project,
		time.Now().UTC().Format(time.RFC3339),
		report.OverallCoverage,
		string(report.SourceFormat),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("save baseline for %s: %w", project, err)
	}
	return nil
}

// Latest returns the most recently recorded baseline for the project.
// Returns ErrNoBaseline if none has been recorded.
func (s *Store) Latest(project string) (*BaselineRecord, error) {
	var rec BaselineRecord
	var recordedAt, payload string
	err := s.db.QueryRow(`
		SELECT id, project, recorded_at, overall, source_format, report
		FROM baselines WHERE project = ?
		ORDER BY recorded_at DESC, id DESC LIMIT 1`,
		project).Scan(&rec.ID, &rec.Project, &recordedAt, &rec.Overall, &rec.SourceFormat, &payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoBaseline
		}
		return nil, fmt.Errorf("load baseline for %s: %w", project, err)
	}

	rec.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
	if err := json.Unmarshal([]byte(payload), &rec.Report); err != nil {
		return nil, fmt.Errorf("decode baseline report: %w", err)
	}
	return &rec, nil
}

// History returns recorded baselines for the project, newest first.
// A limit of zero or less returns all of them.
func (s *Store) History(project string, limit int) ([]BaselineRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(`
		SELECT id, project, recorded_at, overall, source_format, report
		FROM baselines WHERE project = ?
		ORDER BY recorded_at DESC, id DESC LIMIT ?`,
		project, limit)
	if err != nil {
		return nil, fmt.Errorf("query baselines for %s: %w", project, err)
	}
	defer rows.Close()

	var records []BaselineRecord
	for rows.Next() {
		var rec BaselineRecord
		var recordedAt, payload string
		if err := rows.Scan(&rec.ID, &rec.Project, &recordedAt, &rec.Overall, &rec.SourceFormat, &payload); err != nil {
			return nil, fmt.Errorf("scan baseline row: %w", err)
		}
		rec.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		if err := json.Unmarshal([]byte(payload), &rec.Report); err != nil {
			return nil, fmt.Errorf("decode baseline report: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate baseline rows: %w", err)
	}
	return records, nil
}

// Prune deletes all but the newest keep baselines for the project.
// A keep of zero or less deletes every baseline for the project.
// Returns the number of deleted records.
func (s *Store) Prune(project string, keep int) (int, error) {
	var res sql.Result
	var err error
	if keep <= 0 {
		res, err = s.db.Exec("DELETE FROM baselines WHERE project = ?", project)
	} else {
		res, err = s.db.Exec(`
			DELETE FROM baselines WHERE project = ? AND id NOT IN (
				SELECT id FROM baselines WHERE project = ?
				ORDER BY recorded_at DESC, id DESC LIMIT ?
			)`,
			project, project, keep)
	}
	if err != nil {
		return 0, fmt.Errorf("prune baselines for %s: %w", project, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune baselines for %s: %w", project, err)
	}
	return int(n), nil
}
