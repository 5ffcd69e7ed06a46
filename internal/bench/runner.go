package bench

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/droidbench/internal/config"
	"github.com/nextlevelbuilder/droidbench/internal/evaluator"
	"github.com/nextlevelbuilder/droidbench/internal/replay"
	"github.com/nextlevelbuilder/droidbench/internal/store"
	"github.com/nextlevelbuilder/droidbench/internal/tracing"
)

// ErrTraceMissing marks a manifest entry with no recorded trace.
var ErrTraceMissing = errors.New("trace missing")

// Options configures a Runner.
type Options struct {
	Layout  Layout
	Workers int
	// Store receives runs and results. Nil keeps results in memory only.
	Store store.ResultStore
	// Tracer defaults to a no-op tracer.
	Tracer *tracing.Tracer
	// Loader defaults to a fresh replay.Loader shared by all runs.
	Loader *replay.Loader
	// ConfigHash is recorded with every run.
	ConfigHash string
}

// Runner scores every manifest entry for one or more agent configurations.
type Runner struct {
	opts Options

	mu         sync.Mutex
	evaluators map[string]*evaluator.Evaluator
}

// NewRunner creates a runner, filling defaults.
func NewRunner(opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.Noop()
	}
	if opts.Loader == nil {
		opts.Loader = replay.NewLoader(0)
	}
	return &Runner{opts: opts, evaluators: map[string]*evaluator.Evaluator{}}
}

// Report is the outcome of one run.
type Report struct {
	Run     store.RunData
	Results []store.ResultData
}

// RunAll scores each run configuration in turn.
func (r *Runner) RunAll(ctx context.Context, runs []config.RunConfig, m Manifest) ([]*Report, error) {
	reports := make([]*Report, 0, len(runs))
	for _, run := range runs {
		rep, err := r.Run(ctx, run, m)
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// Run scores every manifest entry for one agent configuration.
// Entries without a trace count as failures. Only cancellation, a bad
// ground truth file, or a store error abort the run; an aborted run is
// still finished in the store, with its Error set and totals over the traces
// scored so far.
func (r *Runner) Run(ctx context.Context, run config.RunConfig, m Manifest) (*Report, error) {
	data := store.RunData{
		ID:         store.GenNewID(),
		LLM:        run.LLM,
		Mode:       run.Mode(),
		ConfigHash: r.opts.ConfigHash,
		StartedAt:  time.Now(),
	}
	if r.opts.Store != nil {
		if err := r.opts.Store.CreateRun(ctx, &data); err != nil {
			return nil, err
		}
	}

	ctx, span := r.opts.Tracer.StartRun(ctx, data.ID.String(), data.LLM, data.Mode)
	slog.Info("bench: run started", "run_id", data.ID, "llm", data.LLM, "mode", data.Mode)

	items := m.Items()
	results := make([]store.ResultData, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.score(gctx, run, it)
			if err != nil {
				return fmt.Errorf("%s: %w", it, err)
			}
			res.RunID = data.ID
			results[i] = res
			if r.opts.Store != nil {
				return r.opts.Store.SaveResult(gctx, &results[i])
			}
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		Aggregate(&data, scored(results, data.ID))
		tracing.EndRun(span, data.Tasks, data.SuccessRate, data.AvgCompletion, err)
		slog.Error("bench: run aborted", "run_id", data.ID, "scored", data.Tasks, "error", err)
		if r.opts.Store != nil {
			data.Error = err.Error()
			// ctx may be the reason for the abort
			if ferr := r.opts.Store.FinishRun(context.WithoutCancel(ctx), &data); ferr != nil {
				slog.Warn("bench: record aborted run failed", "run_id", data.ID, "error", ferr)
			}
		}
		return nil, err
	}

	Aggregate(&data, results)
	tracing.EndRun(span, data.Tasks, data.SuccessRate, data.AvgCompletion, nil)

	if r.opts.Store != nil {
		if err := r.opts.Store.FinishRun(ctx, &data); err != nil {
			return nil, err
		}
	}
	slog.Info("bench: run finished", "run_id", data.ID,
		"tasks", data.Tasks, "missing", data.Missing,
		"sr", data.SuccessRate, "acp", data.AvgCompletion, "tokens", data.TokenTotal)
	return &Report{Run: data, Results: results}, nil
}

// score evaluates one trace. A missing trace yields a failed result, not an error.
func (r *Runner) score(ctx context.Context, run config.RunConfig, it Item) (store.ResultData, error) {
	res := store.ResultData{TaskID: it.TaskID, App: it.App, CreatedAt: time.Now()}

	ev, err := r.evaluator(it)
	if err != nil {
		return res, err
	}

	dir := r.opts.Layout.TraceDir(run, it)
	_, span := r.opts.Tracer.StartEvaluate(ctx, it.TaskID, it.App)

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		slog.Warn("bench: trace missing, counted as failure", "task", it.TaskID, "app", it.App, "dir", dir)
		res.Error = ErrTraceMissing.Error()
		tracing.EndEvaluate(span, evaluator.Verdict{}, 0, ErrTraceMissing)
		return res, nil
	}

	t, err := r.opts.Loader.LoadTrace(dir)
	if err != nil {
		slog.Warn("bench: trace unreadable, counted as failure", "task", it.TaskID, "app", it.App, "error", err)
		res.Error = err.Error()
		tracing.EndEvaluate(span, evaluator.Verdict{}, 0, err)
		return res, nil
	}

	v := ev.Evaluate(t)
	res.Success = v.Success
	res.Completion = v.Completion
	res.Steps = len(t.Actions)

	if u, err := replay.LoadTokenUsage(dir); err == nil {
		res.Tokens = int64(u.Total)
	} else {
		slog.Debug("bench: no token usage", "dir", dir, "error", err)
	}

	tracing.EndEvaluate(span, v, res.Steps, nil)
	slog.Debug("bench: trace scored", "task", it.TaskID, "app", it.App,
		"success", v.Success, "completion", v.Completion)
	return res, nil
}

// evaluator returns the compiled rules for an item, shared across runs.
func (r *Runner) evaluator(it Item) (*evaluator.Evaluator, error) {
	path := r.opts.Layout.EvaluatorPath(it)

	r.mu.Lock()
	ev, ok := r.evaluators[path]
	r.mu.Unlock()
	if ok {
		return ev, nil
	}

	rules, err := replay.LoadEvaluator(path)
	if err != nil {
		return nil, err
	}
	ev, err = evaluator.New(rules)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r.mu.Lock()
	r.evaluators[path] = ev
	r.mu.Unlock()
	return ev, nil
}

// Aggregate fills the run totals from its results: SR is the fraction of
// successful traces, ACP the mean completion, both over every manifest
// entry including missing traces.
// scored returns the results a run finished before it was aborted.
func scored(results []store.ResultData, runID uuid.UUID) []store.ResultData {
	var out []store.ResultData
	for _, res := range results {
		if res.RunID == runID {
			out = append(out, res)
		}
	}
	return out
}

func Aggregate(run *store.RunData, results []store.ResultData) {
	run.Tasks = len(results)
	run.Missing, run.TokenTotal = 0, 0
	run.SuccessRate, run.AvgCompletion = 0, 0
	if len(results) == 0 {
		return
	}

	var success int
	var completion float64
	for _, res := range results {
		if res.Success {
			success++
		}
		if res.Missing() {
			run.Missing++
		}
		completion += res.Completion
		run.TokenTotal += res.Tokens
	}
	run.SuccessRate = float64(success) / float64(len(results))
	run.AvgCompletion = completion / float64(len(results))
}
