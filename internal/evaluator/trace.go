package evaluator

import (
	"github.com/nextlevelbuilder/droidbench/pkg/action"
	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

// Trace is a recorded episode. Hierarchies[i] and Activities[i] describe the
// screen before Actions[i] was applied. The three slices have equal length.
type Trace struct {
	Hierarchies []*hierarchy.Hierarchy
	Actions     []action.Action
	Activities  []Activity
}

// Len returns the number of steps.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Actions)
}

// Consistent returns true when all three logs have the same length.
func (t *Trace) Consistent() bool {
	return len(t.Hierarchies) == len(t.Actions) && len(t.Actions) == len(t.Activities)
}
