package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nextlevelbuilder/droidbench/internal/evaluator"
)

// SaveTrace writes t in the layout LoadTrace reads: one {i}.xml per
// hierarchy (its original document), actions.json, activities.json and
// meta.json. The directory is created if needed.
func SaveTrace(dir string, t *evaluator.Trace, meta Meta) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create trace dir: %w", err)
	}
	for i, h := range t.Hierarchies {
		if err := os.WriteFile(filepath.Join(dir, SnapshotFile(i)), h.Raw(), 0644); err != nil {
			return fmt.Errorf("write snapshot %d: %w", i, err)
		}
	}
	if err := writeJSON(filepath.Join(dir, ActionsFile), t.Actions); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, ActivitiesFile), t.Activities); err != nil {
		return err
	}
	return WriteMeta(dir, meta)
}

// WriteMeta writes meta.json.
func WriteMeta(dir string, meta Meta) error {
	return writeJSON(filepath.Join(dir, MetaFile), meta)
}

// WriteEvaluator writes an evaluator.json rule list.
func WriteEvaluator(path string, rules []evaluator.Rule) error {
	return writeJSON(path, rules)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
