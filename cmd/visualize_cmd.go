package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/droidbench/internal/replay"
)

func visualizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "visualize TRACE_DIR",
		Short: "Draw each action onto its screenshot and write visualize.html",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dir := args[0]
			t, err := replay.LoadTrace(dir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			steps, err := replay.Visualize(dir, t)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			fmt.Printf("%d steps visualized: %s\n", len(steps), filepath.Join(dir, replay.VisualizeHTML))
		},
	}
}
