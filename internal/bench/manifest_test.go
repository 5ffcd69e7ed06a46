package bench

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "task_info.json")
	yamlPath := filepath.Join(dir, "task_info.yaml")
	if err := os.WriteFile(jsonPath, []byte(`[{"id": 1, "apps": ["clock", "contacts"]}, {"id": 1001, "apps": ["clock"]}]`), 0644); err != nil {
		t.Fatal(err)
	}
	yamlBody := "- id: 1\n  apps: [clock, contacts]\n- id: 1001\n  apps:\n    - clock\n"
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{jsonPath, yamlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			m, err := LoadManifest(path)
			if err != nil {
				t.Fatalf("LoadManifest: %v", err)
			}
			items := m.Items()
			if len(items) != 3 || items[1].String() != "1/contacts" {
				t.Errorf("items = %v", items)
			}
			if got := m.Filter(1000).Items(); len(got) != 2 {
				t.Errorf("filtered items = %v", got)
			}
			if len(m) != 2 {
				t.Error("Filter must not modify the manifest")
			}
		})
	}
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name string
		m    Manifest
		ok   bool
	}{
		{"ok", Manifest{{ID: 1, Apps: []string{"clock"}}}, true},
		{"no_apps", Manifest{{ID: 1}}, false},
		{"duplicate", Manifest{{ID: 1, Apps: []string{"clock"}}, {ID: 1, Apps: []string{"clock"}}}, false},
		{"path_escape", Manifest{{ID: 1, Apps: []string{"../etc"}}}, false},
		{"same_app_other_task", Manifest{{ID: 1, Apps: []string{"clock"}}, {ID: 2, Apps: []string{"clock"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, ok %v", err, tt.ok)
			}
		})
	}
}

func TestLoadManifest_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"id": 1}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(bad); err == nil {
		t.Error("expected parse error for non-array manifest")
	}
	if _, err := LoadManifest(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing manifest")
	}
}
