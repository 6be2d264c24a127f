package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/preval/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single connection
	// serializes all access through Go's connection pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun persists a completed batch run and its per-evaluation results in
// one transaction.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.Run, results []*models.EvaluationResult) error {
	if run.ID == "" {
		run.ID = newULID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, total, passed, failed, timeout, errors, avg_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Total, run.Passed, run.Failed, run.Timeout, run.Errors, run.AvgScore,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	for _, r := range results {
		validation := ""
		if r.Validation != nil {
			data, err := json.Marshal(r.Validation)
			if err != nil {
				return fmt.Errorf("marshal validation: %w", err)
			}
			validation = string(data)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_results (run_id, evaluation_id, pr_title, status, pr_number, pr_url, error, validation)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, r.EvaluationID, r.PRTitle, string(r.Status), r.PRNumber, r.PRURL, r.Error, validation,
		)
		if err != nil {
			return fmt.Errorf("create run result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*models.Run, error) {
	run := &models.Run{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, total, passed, failed, timeout, errors, avg_score
		FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Total, &run.Passed, &run.Failed, &run.Timeout, &run.Errors, &run.AvgScore)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	query := `SELECT id, started_at, finished_at, total, passed, failed, timeout, errors, avg_score
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*models.Run
	for rows.Next() {
		run := &models.Run{}
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Total, &run.Passed, &run.Failed, &run.Timeout, &run.Errors, &run.AvgScore); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) ListRunResults(ctx context.Context, runID string) ([]*models.EvaluationResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT evaluation_id, pr_title, status, pr_number, pr_url, error, validation
		FROM run_results WHERE run_id = ? ORDER BY evaluation_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*models.EvaluationResult
	for rows.Next() {
		r := &models.EvaluationResult{}
		var status, validation string
		if err := rows.Scan(&r.EvaluationID, &r.PRTitle, &status, &r.PRNumber, &r.PRURL, &r.Error, &validation); err != nil {
			return nil, fmt.Errorf("scan run result: %w", err)
		}
		r.Status = models.EvaluationStatus(status)
		if validation != "" {
			v := &models.ValidationResult{}
			if err := json.Unmarshal([]byte(validation), v); err != nil {
				return nil, fmt.Errorf("parse validation: %w", err)
			}
			r.Validation = v
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
