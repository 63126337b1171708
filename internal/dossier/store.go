// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dossier

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// Result is one persisted candidate outcome: scores, decision, and the
// path of the dossier the numbers were computed from.
type Result struct {
	RunID         string
	CandidateID   string
	CandidateName string
	Condition     string
	Scores        types.ScoreCard
	Decision      types.Decision
	Reasons       []string
	DossierPath   string
	CreatedAt     time.Time
}

// Store manages the SQLite results database. One row per candidate per
// run keeps every batch auditable across time.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the results database, creating the schema
// if it does not exist.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating results directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening results database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS results (
			run_id TEXT NOT NULL,
			candidate_id TEXT NOT NULL,
			candidate_name TEXT NOT NULL,
			condition TEXT NOT NULL,
			evidence_strength REAL NOT NULL,
			mechanism_plausibility REAL NOT NULL,
			translatability REAL NOT NULL,
			safety_fit REAL NOT NULL,
			practicality REAL NOT NULL,
			total REAL NOT NULL,
			decision TEXT NOT NULL,
			reasons TEXT NOT NULL,
			dossier_path TEXT,
			created_at TEXT NOT NULL,
			PRIMARY KEY (run_id, candidate_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_decision ON results(decision)`,
		`CREATE INDEX IF NOT EXISTS idx_results_candidate ON results(candidate_name)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record upserts one candidate result.
func (s *Store) Record(ctx context.Context, r Result) error {
	reasons, err := json.Marshal(r.Reasons)
	if err != nil {
		return fmt.Errorf("marshaling reasons: %w", err)
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (
			run_id, candidate_id, candidate_name, condition,
			evidence_strength, mechanism_plausibility, translatability,
			safety_fit, practicality, total,
			decision, reasons, dossier_path, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, candidate_id) DO UPDATE SET
			evidence_strength = excluded.evidence_strength,
			mechanism_plausibility = excluded.mechanism_plausibility,
			translatability = excluded.translatability,
			safety_fit = excluded.safety_fit,
			practicality = excluded.practicality,
			total = excluded.total,
			decision = excluded.decision,
			reasons = excluded.reasons,
			dossier_path = excluded.dossier_path,
			created_at = excluded.created_at`,
		r.RunID, r.CandidateID, r.CandidateName, r.Condition,
		r.Scores.EvidenceStrength, r.Scores.MechanismPlausibility,
		r.Scores.Translatability, r.Scores.SafetyFit,
		r.Scores.Practicality, r.Scores.Total,
		string(r.Decision), string(reasons), r.DossierPath,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording result for %s: %w", r.CandidateID, err)
	}
	return nil
}

// Shortlist returns results ordered by total score descending,
// optionally filtered to one decision. An empty decision returns all.
func (s *Store) Shortlist(ctx context.Context, decision types.Decision) ([]Result, error) {
	query := `SELECT run_id, candidate_id, candidate_name, condition,
		evidence_strength, mechanism_plausibility, translatability,
		safety_fit, practicality, total,
		decision, reasons, dossier_path, created_at
	FROM results`
	args := []any{}
	if decision != "" {
		query += ` WHERE decision = ?`
		args = append(args, string(decision))
	}
	query += ` ORDER BY total DESC, candidate_name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r         Result
			verdict   string
			reasons   string
			createdAt string
		)
		if err := rows.Scan(
			&r.RunID, &r.CandidateID, &r.CandidateName, &r.Condition,
			&r.Scores.EvidenceStrength, &r.Scores.MechanismPlausibility,
			&r.Scores.Translatability, &r.Scores.SafetyFit,
			&r.Scores.Practicality, &r.Scores.Total,
			&verdict, &reasons, &r.DossierPath, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}

		r.Decision = types.Decision(verdict)
		if err := json.Unmarshal([]byte(reasons), &r.Reasons); err != nil {
			return nil, fmt.Errorf("parsing reasons for %s: %w", r.CandidateID, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			r.CreatedAt = t
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
