package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/droidbench/internal/config"
	"github.com/nextlevelbuilder/droidbench/internal/store"
)

func TestOpenStore_SQLiteDefault(t *testing.T) {
	cfg := config.Default()
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "results.db")

	s, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer s.Close()
	if _, err := s.ListRuns(context.Background(), 1); err != nil {
		t.Errorf("ListRuns: %v", err)
	}
}

func TestFindRun_Prefix(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "results.db")
	s, err := openStore(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	run := &store.RunData{LLM: "gpt4o", Mode: "tree"}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	for _, ref := range []string{run.ID.String(), run.ID.String()[:8], shortRunID(run.ID)} {
		got, err := findRun(ctx, s, ref)
		if err != nil {
			t.Fatalf("findRun(%q): %v", ref, err)
		}
		if got.ID != run.ID {
			t.Errorf("findRun(%q) = %s", ref, got.ID)
		}
	}
	if _, err := findRun(ctx, s, "zzzz"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("findRun(unknown) err = %v", err)
	}
}

func TestInitTracing_Disabled(t *testing.T) {
	tracer, shutdown := initTracing(context.Background(), config.Default())
	defer shutdown()
	_, span := tracer.StartRun(context.Background(), "r", "l", "m")
	if span.SpanContext().IsValid() {
		t.Error("disabled telemetry should give no-op spans")
	}
}

func TestShortRunID_DistinctWithinOneBench(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		id := store.GenNewID()
		short := shortRunID(id)
		if len(short) != 12 || !strings.HasSuffix(id.String(), short) {
			t.Fatalf("shortRunID(%s) = %q", id, short)
		}
		if seen[short] {
			t.Fatalf("short id %q repeated", short)
		}
		seen[short] = true
	}
}
