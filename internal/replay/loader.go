package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nextlevelbuilder/droidbench/internal/evaluator"
	"github.com/nextlevelbuilder/droidbench/pkg/action"
	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

// Trace directory layout.
const (
	ActionsFile    = "actions.json"
	ActivitiesFile = "activities.json"
	MetaFile       = "meta.json"
	EvaluatorFile  = "evaluator.json"
	TokenUsageFile = "token_usage.json"
)

const defaultCacheSize = 512

// SnapshotFile returns the hierarchy file name of step i.
func SnapshotFile(i int) string { return strconv.Itoa(i) + ".xml" }

// ScreenshotFile returns the screenshot file name of step i.
func ScreenshotFile(i int) string { return strconv.Itoa(i) + ".png" }

// Meta is the episode summary stored in meta.json.
type Meta struct {
	Success      bool    `json:"success"`
	Length       int     `json:"length"`
	ErrorMessage *string `json:"error_message"`
}

// Loader reads trace directories. Parsed snapshots are cached by path,
// size and modification time, so re-scoring an unchanged trace skips XML
// parsing. A Loader is safe for concurrent use.
type Loader struct {
	cache *lru.Cache[snapshotKey, *hierarchy.Hierarchy]
}

type snapshotKey struct {
	path  string
	size  int64
	mtime int64
}

// NewLoader creates a Loader caching up to size parsed snapshots.
func NewLoader(size int) *Loader {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, _ := lru.New[snapshotKey, *hierarchy.Hierarchy](size)
	return &Loader{cache: cache}
}

var defaultLoader = NewLoader(defaultCacheSize)

// LoadTrace reads a trace directory with the shared default Loader.
func LoadTrace(dir string) (*evaluator.Trace, error) {
	return defaultLoader.LoadTrace(dir)
}

// LoadTrace reads actions.json, activities.json and {i}.xml for each action.
//
// A trace one step short is padded with a STOP action: when there is one
// more activity than actions, the final snapshot is {n}.xml (or the last
// one loaded if it is missing); when the logs have equal length and the last
// action is not STOP, the final snapshot and activity are repeated. Any other
// mismatch is ErrTraceShape.
func (l *Loader) LoadTrace(dir string) (*evaluator.Trace, error) {
	actions, err := LoadActions(filepath.Join(dir, ActionsFile))
	if err != nil {
		return nil, err
	}
	var activities []evaluator.Activity
	if err := readJSON(filepath.Join(dir, ActivitiesFile), &activities); err != nil {
		return nil, err
	}

	n := len(actions)
	hierarchies := make([]*hierarchy.Hierarchy, 0, n+1)
	for i := range n {
		h, err := l.snapshot(dir, i)
		if err != nil {
			return nil, err
		}
		hierarchies = append(hierarchies, h)
	}

	switch {
	case len(activities) == n+1:
		h, err := l.snapshot(dir, n)
		if errors.Is(err, fs.ErrNotExist) && n > 0 {
			h, err = hierarchies[n-1], nil
		}
		if err != nil {
			return nil, err
		}
		hierarchies = append(hierarchies, h)
		actions = append(actions, action.NewStop())
		slog.Debug("replay: padded trace", "dir", dir, "reason", "activities one ahead")
	case len(activities) == n && n > 0 && actions[n-1].Type != action.Stop:
		hierarchies = append(hierarchies, hierarchies[n-1])
		activities = append(activities, activities[n-1])
		actions = append(actions, action.NewStop())
		slog.Debug("replay: padded trace", "dir", dir, "reason", "missing terminal step")
	case len(activities) != n:
		return nil, fmt.Errorf("%w: %s: %d actions, %d activities", ErrTraceShape, dir, n, len(activities))
	}

	t := &evaluator.Trace{Hierarchies: hierarchies, Actions: actions, Activities: activities}
	if !t.Consistent() {
		return nil, fmt.Errorf("%w: %s: %d hierarchies, %d actions, %d activities",
			ErrTraceShape, dir, len(t.Hierarchies), len(t.Actions), len(t.Activities))
	}
	return t, nil
}

func (l *Loader) snapshot(dir string, i int) (*hierarchy.Hierarchy, error) {
	path := filepath.Join(dir, SnapshotFile(i))
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: missing snapshot %s: %w", ErrTraceShape, path, err)
		}
		return nil, fmt.Errorf("stat snapshot: %w", err)
	}
	key := snapshotKey{path: path, size: info.Size(), mtime: info.ModTime().UnixNano()}
	if h, ok := l.cache.Get(key); ok {
		return h, nil
	}
	h, err := hierarchy.ParseFile(path)
	if err != nil {
		return nil, err
	}
	l.cache.Add(key, h)
	return h, nil
}

// LoadActions decodes an actions.json file.
func LoadActions(path string) ([]action.Action, error) {
	var records []action.Record
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}
	actions := make([]action.Action, len(records))
	for i, r := range records {
		a, err := r.Action()
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", filepath.Base(path), i, err)
		}
		actions[i] = a
	}
	return actions, nil
}

// LoadEvaluator reads an evaluator.json rule list.
func LoadEvaluator(path string) ([]evaluator.Rule, error) {
	var rules []evaluator.Rule
	if err := readJSON(path, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// LoadMeta reads meta.json from a trace directory.
func LoadMeta(dir string) (*Meta, error) {
	var m Meta
	if err := readJSON(filepath.Join(dir, MetaFile), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// TokenUsage is the agent's token spend stored in token_usage.json.
type TokenUsage struct {
	Total int `json:"total"`
}

// LoadTokenUsage reads token_usage.json from a trace directory.
func LoadTokenUsage(dir string) (*TokenUsage, error) {
	var u TokenUsage
	if err := readJSON(filepath.Join(dir, TokenUsageFile), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Run loads a trace and scores it against an evaluator file.
func Run(traceDir, evaluatorPath string) (evaluator.Verdict, error) {
	rules, err := LoadEvaluator(evaluatorPath)
	if err != nil {
		return evaluator.Verdict{}, err
	}
	e, err := evaluator.New(rules)
	if err != nil {
		return evaluator.Verdict{}, fmt.Errorf("%s: %w", evaluatorPath, err)
	}
	t, err := LoadTrace(traceDir)
	if err != nil {
		return evaluator.Verdict{}, err
	}
	return e.Evaluate(t), nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
