package bench

import (
	"path/filepath"
	"strconv"

	"github.com/nextlevelbuilder/droidbench/internal/config"
	"github.com/nextlevelbuilder/droidbench/internal/replay"
)

// Layout resolves trace and ground-truth paths:
//
//	<traces>/<llm>/<mode>[_skill]/<id>/<app>/
//	<groundtruth>/<id>/<app>/evaluator.json
type Layout struct {
	TracesDir      string
	GroundtruthDir string
}

// TraceDir returns the directory of one recorded episode.
func (l Layout) TraceDir(run config.RunConfig, it Item) string {
	return filepath.Join(l.TracesDir, run.LLM, run.Mode(), strconv.Itoa(it.TaskID), it.App)
}

// EvaluatorPath returns the rule file of one task/app pair.
func (l Layout) EvaluatorPath(it Item) string {
	return filepath.Join(l.GroundtruthDir, strconv.Itoa(it.TaskID), it.App, replay.EvaluatorFile)
}
