package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/droidbench/internal/config"
	"github.com/nextlevelbuilder/droidbench/internal/replay"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch TRACE_DIR [EVALUATOR_JSON]",
		Short: "Re-score a trace whenever its evaluator or logs change",
		Long: `Score a trace, then keep watching the evaluator file and the trace's
action and activity logs, re-scoring on every saved change. Useful while
authoring evaluator.json rules.`,
		Args: cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			dir := args[0]
			evalPath := filepath.Join(dir, replay.EvaluatorFile)
			if len(args) == 2 {
				evalPath = args[1]
			}

			cfg := mustLoadConfig()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			tracer, shutdown := initTracing(ctx, cfg)
			defer shutdown()

			score := func() {
				v, sum, err := evaluateDir(ctx, tracer, dir, evalPath)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %s\n", err)
					return
				}
				printVerdict(dir, v, sum)
			}
			score()

			w, err := config.NewWatcher(evalPath,
				filepath.Join(dir, replay.ActionsFile),
				filepath.Join(dir, replay.ActivitiesFile))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			w.OnChange(func(path string) {
				fmt.Println(dimStyle.Render("--- " + filepath.Base(path) + " changed"))
				score()
			})
			if err := w.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			defer w.Stop()

			<-ctx.Done()
		},
	}
}
