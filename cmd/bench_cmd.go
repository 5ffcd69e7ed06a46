package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/droidbench/internal/bench"
	"github.com/nextlevelbuilder/droidbench/internal/config"
	"github.com/nextlevelbuilder/droidbench/internal/store"
)

func benchCmd() *cobra.Command {
	var (
		llm       string
		mode      string
		skill     bool
		manifest  string
		workers   int
		maxTaskID int
		noStore   bool
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Score every manifest task for the configured runs",
		Long: `Score every (task, app) pair of the task manifest for each configured
run and report the success rate (SR), average completion (ACP) and token
usage. --llm and --mode select a single run instead of the config's runs.`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustLoadConfig()
			if manifest != "" {
				cfg.Manifest = manifest
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			if maxTaskID > 0 {
				cfg.MaxTaskID = maxTaskID
			}

			runs := cfg.Runs
			if llm != "" || mode != "" {
				run := config.RunConfig{LLM: llm, ObservationMode: mode, TellSkill: skill}
				if !config.ValidRunName(run.LLM) || !config.ValidRunName(run.ObservationMode) {
					fmt.Fprintln(os.Stderr, "Error: --llm and --mode must both be plain directory names")
					os.Exit(1)
				}
				runs = []config.RunConfig{run}
			}
			if len(runs) == 0 {
				fmt.Fprintln(os.Stderr, "Error: no runs configured (add \"runs\" to the config or pass --llm and --mode)")
				os.Exit(1)
			}

			m, err := bench.LoadManifest(cfg.Manifest)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			m = m.Filter(cfg.MaxTaskID)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tracer, shutdown := initTracing(ctx, cfg)
			defer shutdown()

			opts := bench.Options{
				Layout:     bench.Layout{TracesDir: cfg.TracesDir, GroundtruthDir: cfg.GroundtruthDir},
				Workers:    cfg.Workers,
				Tracer:     tracer,
				ConfigHash: cfg.Hash(),
			}
			if !noStore {
				s, err := openStore(ctx, cfg)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error opening result store: %s\n", err)
					os.Exit(1)
				}
				defer s.Close()
				opts.Store = s
			}

			reports, err := bench.NewRunner(opts).RunAll(ctx, runs, m)
			printRunTable(reportRuns(reports))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVar(&llm, "llm", "", "score a single run: agent model directory")
	cmd.Flags().StringVar(&mode, "mode", "", "score a single run: observation mode directory")
	cmd.Flags().BoolVar(&skill, "skill", false, "score a single run: use the <mode>_skill directory")
	cmd.Flags().StringVar(&manifest, "manifest", "", "task manifest (overrides config)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel workers (overrides config)")
	cmd.Flags().IntVar(&maxTaskID, "max-task", 0, "skip tasks with a larger id (overrides config)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist results")
	return cmd
}

func reportRuns(reports []*bench.Report) []store.RunData {
	runs := make([]store.RunData, len(reports))
	for i, r := range reports {
		runs[i] = r.Run
	}
	return runs
}

func printRunTable(runs []store.RunData) {
	if len(runs) == 0 {
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tLLM\tMODE\tTASKS\tMISSING\tSR\tACP\tTOKENS\tNOTE")
	for _, r := range runs {
		note := ""
		if r.Error != "" {
			note = "aborted"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.3f\t%.3f\t%d\t%s\n",
			shortRunID(r.ID), r.LLM, r.Mode, r.Tasks, r.Missing, r.SuccessRate, r.AvgCompletion, r.TokenTotal, note)
	}
	tw.Flush()
}

// shortRunID returns the last 12 hex digits of id. Run ids are UUIDv7, whose
// leading digits are the creation time and collide for runs of one bench.
func shortRunID(id uuid.UUID) string {
	s := id.String()
	return s[len(s)-12:]
}
