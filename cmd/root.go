package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/droidbench/internal/config"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "droidbench",
	Short: "Score Android agent traces against declarative success criteria",
	Long: `droidbench replays recorded Android UI agent traces (view hierarchies,
actions and foreground activities) against evaluator.json rule files and
reports strict success and partial completion.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $DROIDBENCH_CONFIG or ~/.droidbench/config.json5)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(benchCmd())
	rootCmd.AddCommand(dumpCmd())
	rootCmd.AddCommand(actionCmd())
	rootCmd.AddCommand(visualizeCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(resultsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ResolvePath()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the droidbench version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("droidbench %s\n", Version)
		},
	}
}
