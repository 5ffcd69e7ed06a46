package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/droidbench/internal/store"
)

func resultsCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "results [RUN_ID]",
		Short: "List stored benchmark runs, or the per-trace results of one run",
		Long: `Without arguments, list the most recent runs. With a run id (or a unique
prefix of one), print its per-trace results.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustLoadConfig()
			ctx := context.Background()
			s, err := openStore(ctx, cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error opening result store: %s\n", err)
				os.Exit(1)
			}
			defer s.Close()

			if len(args) == 0 {
				runs, err := s.ListRuns(ctx, limit)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %s\n", err)
					os.Exit(1)
				}
				if asJSON {
					printJSON(runs)
					return
				}
				if len(runs) == 0 {
					fmt.Println("No runs stored.")
					return
				}
				printRunTable(runs)
				return
			}

			run, err := findRun(ctx, s, args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			results, err := s.ListResults(ctx, run.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			if asJSON {
				printJSON(map[string]any{"run": run, "results": results})
				return
			}
			printRunTable([]store.RunData{*run})
			fmt.Println()
			printResultTable(results)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// findRun resolves a full run id or a unique prefix or suffix of one, such as
// the short id printed in the RUN column.
func findRun(ctx context.Context, s store.ResultStore, ref string) (*store.RunData, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.GetRun(ctx, id)
	}
	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		return nil, err
	}
	var match *store.RunData
	for i := range runs {
		id := runs[i].ID.String()
		if strings.HasPrefix(id, ref) || strings.HasSuffix(id, ref) {
			if match != nil {
				return nil, fmt.Errorf("run id %q is ambiguous", ref)
			}
			match = &runs[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, ref)
	}
	return match, nil
}

func printResultTable(results []store.ResultData) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tAPP\tRESULT\tCOMPLETION\tSTEPS\tTOKENS\tNOTE")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%d\t%d\t%s\n",
			r.TaskID, r.App, passFail(r.Success), r.Completion, r.Steps, r.Tokens, r.Error)
	}
	tw.Flush()
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
