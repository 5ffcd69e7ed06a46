package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nextlevelbuilder/droidbench/internal/config"
	"github.com/nextlevelbuilder/droidbench/internal/store"
	"github.com/nextlevelbuilder/droidbench/internal/store/pg"
	"github.com/nextlevelbuilder/droidbench/internal/store/sqlite"
	"github.com/nextlevelbuilder/droidbench/internal/tracing"
	"github.com/nextlevelbuilder/droidbench/internal/tracing/otelexport"
)

var (
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func passFail(ok bool) string {
	if ok {
		return passStyle.Render("PASS")
	}
	return failStyle.Render("FAIL")
}

// mustLoadConfig loads the config or exits.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// openStore opens the result store selected by database.mode.
func openStore(ctx context.Context, cfg *config.Config) (store.ResultStore, error) {
	if cfg.Database.Mode == config.DatabasePostgres {
		s, err := pg.Open(ctx, cfg.Database.PostgresDSN, cfg.Workers)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := sqlite.Open(cfg.Database.SQLitePath)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// initTracing creates the OTLP exporter when telemetry is enabled. The
// returned shutdown func flushes pending spans and is always safe to call.
func initTracing(ctx context.Context, cfg *config.Config) (*tracing.Tracer, func()) {
	noop := func() {}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint == "" {
		slog.Debug("OTel export available but not enabled (set telemetry.enabled + telemetry.endpoint)")
		return tracing.Noop(), noop
	}

	otelexport.Version = Version
	exp, err := otelexport.New(ctx, otelexport.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		Protocol:    cfg.Telemetry.Protocol,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.Telemetry.ServiceName,
		Headers:     cfg.Telemetry.Headers,
	})
	if err != nil {
		slog.Warn("failed to create OTel exporter", "error", err)
		return tracing.Noop(), noop
	}

	slog.Info("OpenTelemetry OTLP export enabled",
		"endpoint", cfg.Telemetry.Endpoint,
		"protocol", cfg.Telemetry.Protocol,
	)
	return tracing.New(exp.Tracer()), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := exp.Shutdown(ctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}
}
