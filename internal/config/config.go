package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

const (
	// EnvConfigPath overrides the default config file location.
	EnvConfigPath = "DROIDBENCH_CONFIG"

	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

// Config is the droidbench configuration file (JSON5).
type Config struct {
	TracesDir      string          `json:"traces_dir"`
	GroundtruthDir string          `json:"groundtruth_dir"`
	Manifest       string          `json:"manifest"`
	Workers        int             `json:"workers"`
	MaxTaskID      int             `json:"max_task_id,omitempty"`
	Runs           []RunConfig     `json:"runs,omitempty"`
	Database       DatabaseConfig  `json:"database"`
	Telemetry      TelemetryConfig `json:"telemetry"`
}

// RunConfig selects one agent configuration to score: traces live under
// <traces_dir>/<llm>/<observation_mode>[_skill]/.
type RunConfig struct {
	LLM             string `json:"llm"`
	ObservationMode string `json:"observation_mode"`
	TellSkill       bool   `json:"tell_skill,omitempty"`
}

// Mode returns the directory name of the observation mode, with the
// "_skill" suffix when skills were disclosed to the agent.
func (r RunConfig) Mode() string {
	if r.TellSkill {
		return r.ObservationMode + "_skill"
	}
	return r.ObservationMode
}

// DatabaseConfig selects the result store.
type DatabaseConfig struct {
	Mode        string `json:"mode"`
	SQLitePath  string `json:"sqlite_path"`
	PostgresDSN string `json:"postgres_dsn,omitempty"`
}

// TelemetryConfig configures OTLP span export. Disabled by default.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled"`
	Endpoint    string            `json:"endpoint,omitempty"`
	Protocol    string            `json:"protocol,omitempty"`
	Insecure    bool              `json:"insecure,omitempty"`
	ServiceName string            `json:"service_name,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// Dir returns the droidbench home directory (~/.droidbench).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".droidbench"
	}
	return filepath.Join(home, ".droidbench")
}

// ResolvePath returns $DROIDBENCH_CONFIG or ~/.droidbench/config.json5.
func ResolvePath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.json5")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TracesDir:      "trace",
		GroundtruthDir: "groundtruth",
		Manifest:       "task_info.json",
		Workers:        4,
		Database: DatabaseConfig{
			Mode:       DatabaseSQLite,
			SQLitePath: filepath.Join(Dir(), "results.db"),
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "droidbench",
		},
	}
}

// Load reads a JSON5 config file on top of Default, then applies .env and
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Debug("config: .env not loaded", "error", err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		slog.Debug("config: file not found, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := json5.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies DROIDBENCH_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	envStr("DROIDBENCH_TRACES_DIR", &c.TracesDir)
	envStr("DROIDBENCH_GROUNDTRUTH_DIR", &c.GroundtruthDir)
	envStr("DROIDBENCH_MANIFEST", &c.Manifest)
	envStr("DROIDBENCH_DB", &c.Database.SQLitePath)
	envStr("DROIDBENCH_OTLP_ENDPOINT", &c.Telemetry.Endpoint)

	if v := strings.TrimSpace(os.Getenv("DROIDBENCH_POSTGRES_DSN")); v != "" {
		c.Database.PostgresDSN = v
		c.Database.Mode = DatabasePostgres
	}
	if v := strings.TrimSpace(os.Getenv("DROIDBENCH_WORKERS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		} else {
			slog.Warn("config: ignoring invalid DROIDBENCH_WORKERS", "value", v)
		}
	}
}

// Validate checks values that would otherwise fail later in obscure ways.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	switch c.Database.Mode {
	case DatabaseSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("config: database.sqlite_path is required in sqlite mode")
		}
	case DatabasePostgres:
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("config: database.postgres_dsn is required in postgres mode")
		}
	default:
		return fmt.Errorf("config: unknown database mode %q", c.Database.Mode)
	}
	for i, r := range c.Runs {
		if !ValidRunName(r.LLM) || !ValidRunName(r.ObservationMode) {
			return fmt.Errorf("config: runs[%d]: llm and observation_mode must be plain directory names", i)
		}
	}
	return nil
}

// Save writes the config as indented JSON (valid JSON5), creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Hash returns a short content hash, used to detect effective config changes.
func (c *Config) Hash() string {
	data, _ := json.Marshal(c)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum[:8])
}

// MaskedCopy returns the config as a generic map with credentials masked.
func (c *Config) MaskedCopy() map[string]any {
	data, _ := json.Marshal(c)
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	if db, ok := raw["database"].(map[string]any); ok {
		if dsn, ok := db["postgres_dsn"].(string); ok && dsn != "" {
			db["postgres_dsn"] = maskSecret(dsn)
		}
	}
	if tel, ok := raw["telemetry"].(map[string]any); ok {
		if headers, ok := tel["headers"].(map[string]any); ok {
			for k, v := range headers {
				if s, ok := v.(string); ok {
					headers[k] = maskSecret(s)
				}
			}
		}
	}
	return raw
}

func maskSecret(s string) string {
	if len(s) > 8 {
		return s[:4] + "****" + s[len(s)-4:]
	}
	return "****"
}
