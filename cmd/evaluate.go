package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/droidbench/internal/evaluator"
	"github.com/nextlevelbuilder/droidbench/internal/replay"
	"github.com/nextlevelbuilder/droidbench/internal/tracing"
	"github.com/nextlevelbuilder/droidbench/pkg/action"
)

func evaluateCmd() *cobra.Command {
	var (
		asJSON    bool
		visualize bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate TRACE_DIR [EVALUATOR_JSON]",
		Short: "Score one trace directory against an evaluator file",
		Long: `Score one trace directory. The evaluator file defaults to
TRACE_DIR/evaluator.json.`,
		Args: cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			dir := args[0]
			evalPath := filepath.Join(dir, replay.EvaluatorFile)
			if len(args) == 2 {
				evalPath = args[1]
			}

			cfg := mustLoadConfig()
			ctx := context.Background()
			tracer, shutdown := initTracing(ctx, cfg)
			defer shutdown()

			v, sum, err := evaluateDir(ctx, tracer, dir, evalPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}

			if visualize {
				t, err := replay.LoadTrace(dir)
				if err == nil {
					_, err = replay.Visualize(dir, t)
				}
				if err != nil {
					fmt.Fprintf(os.Stderr, "Visualize failed: %s\n", err)
				}
			}

			if asJSON {
				data, _ := json.MarshalIndent(v, "", "  ")
				fmt.Println(string(data))
				return
			}
			printVerdict(dir, v, sum)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the verdict as JSON")
	cmd.Flags().BoolVar(&visualize, "visualize", false, "also write visualize_{i}.png and visualize.html")
	return cmd
}

// traceSummary is what printVerdict reports about the trace besides the verdict.
type traceSummary struct {
	Steps int
	Stuck bool
}

// evaluateDir loads and scores one trace inside an evaluation span.
func evaluateDir(ctx context.Context, tracer *tracing.Tracer, dir, evalPath string) (evaluator.Verdict, traceSummary, error) {
	_, span := tracer.StartEvaluate(ctx, 0, filepath.Base(dir))

	rules, err := replay.LoadEvaluator(evalPath)
	if err != nil {
		tracing.EndEvaluate(span, evaluator.Verdict{}, 0, err)
		return evaluator.Verdict{}, traceSummary{}, err
	}
	e, err := evaluator.New(rules)
	if err != nil {
		err = fmt.Errorf("%s: %w", evalPath, err)
		tracing.EndEvaluate(span, evaluator.Verdict{}, 0, err)
		return evaluator.Verdict{}, traceSummary{}, err
	}
	t, err := replay.LoadTrace(dir)
	if err != nil {
		tracing.EndEvaluate(span, evaluator.Verdict{}, 0, err)
		return evaluator.Verdict{}, traceSummary{}, err
	}

	v := e.Evaluate(t)
	tracing.EndEvaluate(span, v, len(t.Actions), nil)
	return v, traceSummary{Steps: len(t.Actions), Stuck: endedStuck(t.Actions)}, nil
}

// endedStuck reports whether the agent repeated one action until the trace
// ended. Trailing STOP actions, including the loader's padding, are ignored.
func endedStuck(actions []action.Action) bool {
	n := len(actions)
	for n > 0 && actions[n-1].Type == action.Stop {
		n--
	}
	return action.IsStuck(actions[:n])
}

func printVerdict(dir string, v evaluator.Verdict, sum traceSummary) {
	fmt.Println(titleStyle.Render(dir))
	for _, r := range v.Rules {
		step := dimStyle.Render("-")
		if r.Step >= 0 {
			step = fmt.Sprintf("step %d", r.Step)
		}
		fmt.Printf("  #%d %-20s %s  %s\n", r.Index, r.Type, passFail(r.Passed), step)
	}
	fmt.Printf("\n  %s  completion %.2f (%d/%d rules, %d steps)\n",
		passFail(v.Success), v.Completion, v.Passed(), len(v.Rules), sum.Steps)
	if sum.Stuck {
		fmt.Printf("  %s  last actions repeat, agent ended stuck\n", failStyle.Render("STUCK"))
	}
}
