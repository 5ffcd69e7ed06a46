package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Task is one benchmark task and the apps it is run against.
type Task struct {
	ID   int      `json:"id" yaml:"id"`
	Apps []string `json:"apps" yaml:"apps"`
}

// Manifest is the ordered task list (task_info.json or task_info.yaml).
type Manifest []Task

// LoadManifest reads a task manifest. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	default:
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Validate rejects tasks without apps and duplicate (task, app) pairs.
func (m Manifest) Validate() error {
	seen := map[string]bool{}
	for _, t := range m {
		if len(t.Apps) == 0 {
			return fmt.Errorf("task %d has no apps", t.ID)
		}
		for _, app := range t.Apps {
			if app == "" || strings.ContainsAny(app, `/\`) || app == "." || app == ".." {
				return fmt.Errorf("task %d: invalid app name %q", t.ID, app)
			}
			key := fmt.Sprintf("%d/%s", t.ID, app)
			if seen[key] {
				return fmt.Errorf("task %d: duplicate app %q", t.ID, app)
			}
			seen[key] = true
		}
	}
	return nil
}

// Filter keeps tasks with ID <= maxID. maxID <= 0 keeps everything.
func (m Manifest) Filter(maxID int) Manifest {
	if maxID <= 0 {
		return m
	}
	return slices.DeleteFunc(slices.Clone(m), func(t Task) bool { return t.ID > maxID })
}

// Items flattens the manifest into (task, app) pairs in manifest order.
func (m Manifest) Items() []Item {
	var items []Item
	for _, t := range m {
		for _, app := range t.Apps {
			items = append(items, Item{TaskID: t.ID, App: app})
		}
	}
	return items
}

// Item is one trace to score.
type Item struct {
	TaskID int
	App    string
}

func (it Item) String() string {
	return fmt.Sprintf("%d/%s", it.TaskID, it.App)
}
