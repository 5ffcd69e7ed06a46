package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/droidbench/internal/bench"
	"github.com/nextlevelbuilder/droidbench/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment, config, data directories and result store",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("droidbench doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	// Config
	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	// Data
	fmt.Println()
	fmt.Println("  Data:")
	checkDir("Traces", cfg.TracesDir)
	checkDir("Groundtruth", cfg.GroundtruthDir)
	if m, err := bench.LoadManifest(cfg.Manifest); err != nil {
		fmt.Printf("    %-12s %s\n", "Manifest:", failStyle.Render(err.Error()))
	} else {
		fmt.Printf("    %-12s %s (%d tasks, %d traces per run)\n", "Manifest:", cfg.Manifest, len(m), len(m.Filter(cfg.MaxTaskID).Items()))
	}
	fmt.Printf("    %-12s %d configured\n", "Runs:", len(cfg.Runs))

	// Result store
	fmt.Println()
	fmt.Println("  Result store:")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Printf("    %-12s %s\n", cfg.Database.Mode+":", failStyle.Render(err.Error()))
	} else {
		runs, err := s.ListRuns(ctx, 0)
		s.Close()
		if err != nil {
			fmt.Printf("    %-12s %s\n", cfg.Database.Mode+":", failStyle.Render(err.Error()))
		} else {
			fmt.Printf("    %-12s OK (%d runs)\n", cfg.Database.Mode+":", len(runs))
		}
	}

	// Telemetry
	fmt.Println()
	if cfg.Telemetry.Enabled {
		fmt.Printf("  Telemetry: %s via %s\n", cfg.Telemetry.Endpoint, cfg.Telemetry.Protocol)
	} else {
		fmt.Println("  Telemetry: disabled")
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkDir(name, path string) {
	if st, err := os.Stat(path); err != nil || !st.IsDir() {
		fmt.Printf("    %-12s %s (NOT FOUND)\n", name+":", path)
	} else {
		fmt.Printf("    %-12s %s (OK)\n", name+":", path)
	}
}
