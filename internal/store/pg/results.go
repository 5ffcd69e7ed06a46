package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nextlevelbuilder/droidbench/internal/store"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS bench_runs (
		id UUID PRIMARY KEY,
		llm VARCHAR(64) NOT NULL,
		mode VARCHAR(64) NOT NULL,
		config_hash VARCHAR(32) NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		tasks INTEGER NOT NULL DEFAULT 0,
		missing INTEGER NOT NULL DEFAULT 0,
		success_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_completion DOUBLE PRECISION NOT NULL DEFAULT 0,
		token_total BIGINT NOT NULL DEFAULT 0
	)`,
	`ALTER TABLE bench_runs ADD COLUMN IF NOT EXISTS error TEXT NOT NULL DEFAULT ''`,
	`CREATE INDEX IF NOT EXISTS idx_bench_runs_started ON bench_runs(started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS bench_results (
		run_id UUID NOT NULL REFERENCES bench_runs(id) ON DELETE CASCADE,
		task_id INTEGER NOT NULL,
		app VARCHAR(255) NOT NULL,
		success BOOLEAN NOT NULL DEFAULT false,
		completion DOUBLE PRECISION NOT NULL DEFAULT 0,
		steps INTEGER NOT NULL DEFAULT 0,
		tokens BIGINT NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (run_id, task_id, app)
	)`,
}

// PGResultStore implements store.ResultStore backed by Postgres.
type PGResultStore struct {
	db *sqlx.DB
}

// NewPGResultStore wraps an open connection and ensures the schema exists.
func NewPGResultStore(ctx context.Context, db *sql.DB) (*PGResultStore, error) {
	s := &PGResultStore{db: sqlx.NewDb(db, "pgx")}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("exec %q: %w", stmt[:min(len(stmt), 60)], err)
		}
	}
	return s, nil
}

func (s *PGResultStore) CreateRun(ctx context.Context, run *store.RunData) error {
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
		`INSERT INTO bench_runs (id, llm, mode, config_hash, started_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.LLM, run.Mode, run.ConfigHash, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (s *PGResultStore) FinishRun(ctx context.Context, run *store.RunData) error {
	now := time.Now()
	run.FinishedAt = &now
	res, err := s.db.ExecContext(ctx,
		`UPDATE bench_runs SET finished_at = $1, tasks = $2, missing = $3, success_rate = $4,
		   avg_completion = $5, token_total = $6, error = $7
		 WHERE id = $8`,
		nilTime(run.FinishedAt), run.Tasks, run.Missing, run.SuccessRate, run.AvgCompletion, run.TokenTotal, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", store.ErrRunNotFound, run.ID)
	}
	return nil
}

func (s *PGResultStore) SaveResult(ctx context.Context, r *store.ResultData) error {
	if err := store.ValidateResult(r); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO bench_results (run_id, task_id, app, success, completion, steps, tokens, error, created_at)
		 VALUES (:run_id, :task_id, :app, :success, :completion, :steps, :tokens, :error, :created_at)
		 ON CONFLICT (run_id, task_id, app) DO UPDATE SET
		   success = EXCLUDED.success, completion = EXCLUDED.completion, steps = EXCLUDED.steps,
		   tokens = EXCLUDED.tokens, error = EXCLUDED.error, created_at = EXCLUDED.created_at`,
		r,
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

const runColumns = `id, llm, mode, config_hash, started_at, finished_at, tasks, missing, success_rate, avg_completion, token_total, error`

func (s *PGResultStore) GetRun(ctx context.Context, id uuid.UUID) (*store.RunData, error) {
	var run store.RunData
	err := s.db.GetContext(ctx, &run, `SELECT `+runColumns+` FROM bench_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

func (s *PGResultStore) ListRuns(ctx context.Context, limit int) ([]store.RunData, error) {
	q := `SELECT ` + runColumns + ` FROM bench_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}

	var runs []store.RunData
	if err := s.db.SelectContext(ctx, &runs, q, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (s *PGResultStore) ListResults(ctx context.Context, runID uuid.UUID) ([]store.ResultData, error) {
	var results []store.ResultData
	err := s.db.SelectContext(ctx, &results,
		`SELECT run_id, task_id, app, success, completion, steps, tokens, error, created_at
		 FROM bench_results WHERE run_id = $1 ORDER BY task_id, app`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

func (s *PGResultStore) Close() error {
	return s.db.Close()
}
