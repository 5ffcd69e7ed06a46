package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/droidbench/internal/store"
)

// ResultStore implements store.ResultStore on a local SQLite file.
type ResultStore struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at the given path and initializes the schema.
func Open(dbPath string) (*ResultStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &ResultStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("result store opened", "path", dbPath)
	return s, nil
}

func (s *ResultStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			llm TEXT NOT NULL,
			mode TEXT NOT NULL,
			config_hash TEXT NOT NULL DEFAULT '',
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			tasks INTEGER NOT NULL DEFAULT 0,
			missing INTEGER NOT NULL DEFAULT 0,
			success_rate REAL NOT NULL DEFAULT 0,
			avg_completion REAL NOT NULL DEFAULT 0,
			token_total INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			task_id INTEGER NOT NULL,
			app TEXT NOT NULL,
			success INTEGER NOT NULL DEFAULT 0,
			completion REAL NOT NULL DEFAULT 0,
			steps INTEGER NOT NULL DEFAULT 0,
			tokens INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			PRIMARY KEY (run_id, task_id, app)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(len(stmt), 60)], err)
		}
	}
	return nil
}

func (s *ResultStore) CreateRun(ctx context.Context, run *store.RunData) error {
	if err := store.ValidateRun(run); err != nil {
		return err
	}
	if run.ID == uuid.Nil {
		run.ID = store.GenNewID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, llm, mode, config_hash, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID.String(), run.LLM, run.Mode, run.ConfigHash, run.StartedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (s *ResultStore) FinishRun(ctx context.Context, run *store.RunData) error {
	now := time.Now()
	run.FinishedAt = &now
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, tasks = ?, missing = ?, success_rate = ?, avg_completion = ?, token_total = ?, error = ?
		 WHERE id = ?`,
		now.UnixNano(), run.Tasks, run.Missing, run.SuccessRate, run.AvgCompletion, run.TokenTotal, run.Error, run.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", store.ErrRunNotFound, run.ID)
	}
	return nil
}

func (s *ResultStore) SaveResult(ctx context.Context, r *store.ResultData) error {
	if err := store.ValidateResult(r); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (run_id, task_id, app, success, completion, steps, tokens, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, task_id, app) DO UPDATE SET
		   success = excluded.success, completion = excluded.completion, steps = excluded.steps,
		   tokens = excluded.tokens, error = excluded.error, created_at = excluded.created_at`,
		r.RunID.String(), r.TaskID, r.App, r.Success, r.Completion, r.Steps, r.Tokens, r.Error, r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

const runColumns = `id, llm, mode, config_hash, started_at, finished_at, tasks, missing, success_rate, avg_completion, token_total, error`

func (s *ResultStore) GetRun(ctx context.Context, id uuid.UUID) (*store.RunData, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *ResultStore) ListRuns(ctx context.Context, limit int) ([]store.RunData, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.RunData
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (s *ResultStore) ListResults(ctx context.Context, runID uuid.UUID) ([]store.ResultData, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, app, success, completion, steps, tokens, error, created_at
		 FROM results WHERE run_id = ? ORDER BY task_id, app`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []store.ResultData
	for rows.Next() {
		r := store.ResultData{RunID: runID}
		var created int64
		if err := rows.Scan(&r.TaskID, &r.App, &r.Success, &r.Completion, &r.Steps, &r.Tokens, &r.Error, &created); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.CreatedAt = time.Unix(0, created)
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *ResultStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*store.RunData, error) {
	var (
		run      store.RunData
		id       string
		started  int64
		finished sql.NullInt64
	)
	err := row.Scan(&id, &run.LLM, &run.Mode, &run.ConfigHash, &started, &finished,
		&run.Tasks, &run.Missing, &run.SuccessRate, &run.AvgCompletion, &run.TokenTotal, &run.Error)
	if err != nil {
		return nil, err
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("run id %q: %w", id, err)
	}
	run.StartedAt = time.Unix(0, started)
	if finished.Valid {
		t := time.Unix(0, finished.Int64)
		run.FinishedAt = &t
	}
	return &run, nil
}
