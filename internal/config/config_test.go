package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DROIDBENCH_WORKERS", "")
	t.Setenv("DROIDBENCH_POSTGRES_DSN", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json5"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Workers != def.Workers || cfg.TracesDir != def.TracesDir || cfg.Database.Mode != DatabaseSQLite {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoad_JSON5(t *testing.T) {
	t.Setenv("DROIDBENCH_WORKERS", "")
	t.Setenv("DROIDBENCH_POSTGRES_DSN", "")
	path := filepath.Join(t.TempDir(), "config.json5")
	body := `{
		// comments and trailing commas are allowed
		traces_dir: "/data/trace",
		workers: 8,
		runs: [
			{llm: "gpt4o", observation_mode: "tree", tell_skill: true},
		],
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TracesDir != "/data/trace" || cfg.Workers != 8 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Runs) != 1 || cfg.Runs[0].Mode() != "tree_skill" {
		t.Errorf("runs = %+v", cfg.Runs)
	}
	if cfg.GroundtruthDir != "groundtruth" {
		t.Errorf("unset fields should keep defaults, got %q", cfg.GroundtruthDir)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DROIDBENCH_WORKERS", "3")
	t.Setenv("DROIDBENCH_TRACES_DIR", "/env/trace")
	t.Setenv("DROIDBENCH_POSTGRES_DSN", "postgres://u:p@localhost/bench")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json5"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 3 || cfg.TracesDir != "/env/trace" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Database.Mode != DatabasePostgres {
		t.Errorf("database mode = %q, want postgres", cfg.Database.Mode)
	}
	masked := cfg.MaskedCopy()["database"].(map[string]any)["postgres_dsn"]
	if masked == "postgres://u:p@localhost/bench" {
		t.Error("dsn should be masked")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero_workers", func(c *Config) { c.Workers = 0 }},
		{"unknown_db", func(c *Config) { c.Database.Mode = "mysql" }},
		{"pg_without_dsn", func(c *Config) { c.Database.Mode = DatabasePostgres }},
		{"run_path_escape", func(c *Config) { c.Runs = []RunConfig{{LLM: "../x", ObservationMode: "tree"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveAndHash(t *testing.T) {
	t.Setenv("DROIDBENCH_WORKERS", "")
	t.Setenv("DROIDBENCH_POSTGRES_DSN", "")
	t.Setenv("DROIDBENCH_TRACES_DIR", "")
	path := filepath.Join(t.TempDir(), "nested", "config.json5")
	cfg := Default()
	cfg.Workers = 6

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Hash() != cfg.Hash() {
		t.Errorf("hash changed across save/load: %s != %s", loaded.Hash(), cfg.Hash())
	}
	loaded.Workers = 7
	if loaded.Hash() == cfg.Hash() {
		t.Error("hash should change with content")
	}
}

func TestValidRunName(t *testing.T) {
	for name, want := range map[string]bool{
		"gpt4o":           true,
		"qwen_vl_max":     true,
		"annotated_image": true,
		"llama-3.1":       true,
		"":                false,
		"../etc":          false,
		"a/b":             false,
		".hidden":         false,
	} {
		if got := ValidRunName(name); got != want {
			t.Errorf("ValidRunName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestWatcher_DebouncedChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evaluator.json")
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	w.SetDebounce(20 * time.Millisecond)
	changed := make(chan string, 4)
	w.OnChange(func(p string) { changed <- p })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// unrelated file in the same directory is ignored
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if err := os.WriteFile(path, []byte(`[{"type":"stoppage"}]`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case p := <-changed:
		if filepath.Base(p) != "evaluator.json" {
			t.Errorf("changed path = %q", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}
