package evaluator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nextlevelbuilder/droidbench/pkg/action"
	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

// RuleResult is the outcome of one rule. Step is the trace index that
// satisfied it, or -1.
type RuleResult struct {
	Index  int      `json:"index"`
	Type   RuleType `json:"type"`
	Passed bool     `json:"passed"`
	Step   int      `json:"step"`
}

// Verdict is the score of one trace.
type Verdict struct {
	// Success is the AND of every rule.
	Success bool `json:"success"`
	// Completion is the fraction of rules satisfied.
	Completion float64      `json:"completion"`
	Rules      []RuleResult `json:"rules"`
}

// Passed returns the number of satisfied rules.
func (v Verdict) Passed() int {
	n := 0
	for _, r := range v.Rules {
		if r.Passed {
			n++
		}
	}
	return n
}

// Evaluator scores traces against an ordered rule list. It holds no mutable
// state and is safe for concurrent use.
type Evaluator struct {
	rules []compiledRule
}

type compiledRule struct {
	Rule
	match        ruleMap
	check        ruleMap
	actionMatch  ruleMap
	elementMatch ruleMap
}

// ruleMap is one rule map split by key family.
type ruleMap struct {
	mode        hierarchy.MatchMode
	element     map[string]string
	action      map[string]string
	activity    string
	hasActivity bool
}

func splitRuleMap(m map[string]string, mode hierarchy.MatchMode) ruleMap {
	rm := ruleMap{mode: mode}
	for k, v := range m {
		switch {
		case k == ActivityKey:
			rm.activity, rm.hasActivity = v, true
		case isActionKey(k):
			if rm.action == nil {
				rm.action = map[string]string{}
			}
			rm.action[k] = v
		default:
			if rm.element == nil {
				rm.element = map[string]string{}
			}
			rm.element[k] = v
		}
	}
	return rm
}

func (m ruleMap) empty() bool {
	return len(m.element) == 0 && len(m.action) == 0 && !m.hasActivity
}

// New validates the rules and builds an evaluator. Rules are copied and
// normalized; the caller's slice is not modified.
func New(rules []Rule) (*Evaluator, error) {
	e := &Evaluator{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		r.Normalize()
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		e.rules = append(e.rules, compiledRule{
			Rule:         r,
			match:        splitRuleMap(r.MatchRules, r.MatchType),
			check:        splitRuleMap(r.CheckRules, r.CheckType),
			actionMatch:  splitRuleMap(r.ActionMatchRules, r.ActionMatchType),
			elementMatch: splitRuleMap(r.ElementMatchRules, r.ElementMatchType),
		})
	}
	return e, nil
}

// Rules returns the normalized rules in order.
func (e *Evaluator) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.Rule
	}
	return out
}

// Len returns the number of rules.
func (e *Evaluator) Len() int {
	return len(e.rules)
}

// Evaluate scores t against every rule. With zero rules the trace succeeds
// with completion 1.
func (e *Evaluator) Evaluate(t *Trace) Verdict {
	if t == nil {
		t = &Trace{}
	}
	v := Verdict{Success: true, Completion: 1, Rules: make([]RuleResult, len(e.rules))}
	for i := range e.rules {
		r := &e.rules[i]
		passed, step := r.eval(t)
		slog.Debug("evaluator: rule evaluated", "index", i, "type", r.Type, "passed", passed, "step", step)
		v.Rules[i] = RuleResult{Index: i, Type: r.Type, Passed: passed, Step: step}
		v.Success = v.Success && passed
	}
	if len(e.rules) > 0 {
		v.Completion = float64(v.Passed()) / float64(len(e.rules))
	}
	return v
}

// EvaluateStrict returns the AND of all rules, stopping at the first failure.
func (e *Evaluator) EvaluateStrict(t *Trace) bool {
	if t == nil {
		t = &Trace{}
	}
	for i := range e.rules {
		if ok, _ := e.rules[i].eval(t); !ok {
			return false
		}
	}
	return true
}

// Completion scores each rule through its own single-rule evaluator and
// returns the mean. It equals Evaluate(t).Completion.
func (e *Evaluator) Completion(t *Trace) float64 {
	if len(e.rules) == 0 {
		return 1
	}
	passed := 0
	for _, r := range e.rules {
		single := &Evaluator{rules: []compiledRule{r}}
		if single.EvaluateStrict(t) {
			passed++
		}
	}
	return float64(passed) / float64(len(e.rules))
}

func (r *compiledRule) eval(t *Trace) (bool, int) {
	switch r.Type {
	case Stoppage:
		return r.evalStoppage(t)
	case FindElement:
		return r.evalFindElement(t)
	case LastAction:
		return r.evalLastAction(t)
	case FindAction:
		return r.evalFindAction(t)
	case FindElementByAction:
		return r.evalFindElementByAction(t)
	default:
		return false, -1
	}
}

func (r *compiledRule) evalStoppage(t *Trace) (bool, int) {
	last := len(t.Hierarchies) - 1
	if last < 0 || len(t.Activities) == 0 {
		return false, -1
	}
	if r.frameHolds(t.Hierarchies[last], t.Activities[len(t.Activities)-1]) {
		return true, last
	}
	return false, -1
}

func (r *compiledRule) evalFindElement(t *Trace) (bool, int) {
	for i, h := range t.Hierarchies {
		if r.frameHolds(h, activityAt(t, i)) {
			return true, i
		}
	}
	return false, -1
}

// frameHolds applies match_rules then check_rules to one frame. Check rules
// with element keys apply to the element match_rules found.
func (r *compiledRule) frameHolds(h *hierarchy.Hierarchy, act Activity) bool {
	if !r.match.activityOK(act) {
		return false
	}
	var matched *hierarchy.Element
	if len(r.match.element) > 0 {
		matched = h.FindElement(r.match.element, r.match.mode, nil)
		if matched == nil {
			return false
		}
	}
	if r.check.empty() {
		return true
	}
	if !r.check.activityOK(act) {
		return false
	}
	if len(r.check.element) == 0 {
		return true
	}
	if matched != nil {
		return matched.Matches(r.check.element, r.check.mode)
	}
	return h.FindElement(r.check.element, r.check.mode, nil) != nil
}

// evalLastAction checks the final action. A trailing STOP is skipped when an
// earlier action exists, since it marks the end of the episode rather than an
// interaction.
func (r *compiledRule) evalLastAction(t *Trace) (bool, int) {
	n := len(t.Actions)
	if n == 0 {
		return false, -1
	}
	i := n - 1
	if t.Actions[i].Type == action.Stop && n > 1 {
		i--
	}
	if _, ok := r.check.actionHolds(t, i, nil); ok {
		return true, i
	}
	return false, -1
}

func (r *compiledRule) evalFindAction(t *Trace) (bool, int) {
	for i := range t.Actions {
		el, ok := r.match.actionHolds(t, i, nil)
		if !ok {
			continue
		}
		if r.check.empty() {
			return true, i
		}
		if _, ok := r.check.actionHolds(t, i, el); ok {
			return true, i
		}
	}
	return false, -1
}

func (r *compiledRule) evalFindElementByAction(t *Trace) (bool, int) {
	touched := func(el *hierarchy.Element) bool {
		return r.elementMatch.elementOK(el) && r.check.elementOK(el)
	}
	for i, a := range t.Actions {
		if _, ok := r.actionMatch.actionHolds(t, i, nil); !ok {
			continue
		}
		if a.Element != nil {
			if touched(a.Element) {
				return true, i
			}
			continue
		}
		p, ok := a.Target()
		if !ok {
			continue
		}
		if hierarchyAt(t, i).FindElementFunc(touched, &p) != nil {
			return true, i
		}
	}
	return false, -1
}

// actionHolds tests action i against the map. Element keys are checked
// against pinned when given, else the action's element, else the first node
// of hierarchy i under the action's target point that satisfies them. The
// element used is returned so a following check can reuse it.
func (m ruleMap) actionHolds(t *Trace, i int, pinned *hierarchy.Element) (*hierarchy.Element, bool) {
	a := t.Actions[i]
	if !m.actionOK(a) {
		return nil, false
	}
	if m.hasActivity && !m.activityOK(activityAt(t, i)) {
		return nil, false
	}
	if len(m.element) == 0 {
		if pinned != nil {
			return pinned, true
		}
		return a.Element, true
	}
	switch {
	case pinned != nil:
		return pinned, m.elementOK(pinned)
	case a.Element != nil:
		return a.Element, m.elementOK(a.Element)
	}
	p, ok := a.Target()
	if !ok {
		return nil, false
	}
	el := hierarchyAt(t, i).FindElementFunc(m.elementOK, &p)
	return el, el != nil
}

func (m ruleMap) elementOK(el *hierarchy.Element) bool {
	if len(m.element) == 0 {
		return true
	}
	return el.Matches(m.element, m.mode)
}

func (m ruleMap) activityOK(a Activity) bool {
	return !m.hasActivity || a.Match(m.activity, m.mode)
}

func (m ruleMap) actionOK(a action.Action) bool {
	for k, want := range m.action {
		if k == KeyActionType {
			if !matchActionType(a.Type, want, m.mode) {
				return false
			}
			continue
		}
		got, ok := actionAttr(a, k)
		if !ok || !m.mode.Match(got, want) {
			return false
		}
	}
	return true
}

// actionAttr exposes the action payload under its rule key. Keys that do
// not apply to the action's type are absent.
func actionAttr(a action.Action, key string) (string, bool) {
	switch key {
	case KeyMessage:
		return a.Message, a.Type == action.Text
	case KeyClear:
		if a.Type != action.Text {
			return "", false
		}
		if a.Clear {
			return "true", true
		}
		return "false", true
	case KeyDirection:
		return string(a.Direction), a.Type == action.Swipe && a.Direction != ""
	}
	return "", false
}

// matchActionType compares type names case-insensitively. Equal resolves
// aliases, so "input" matches a TEXT action.
func matchActionType(t action.Type, want string, mode hierarchy.MatchMode) bool {
	switch mode {
	case hierarchy.MatchEqual:
		parsed, err := action.ParseType(want)
		return err == nil && parsed == t
	case hierarchy.MatchInclude:
		return strings.Contains(t.String(), strings.ToUpper(want))
	default:
		return false
	}
}

func hierarchyAt(t *Trace, i int) *hierarchy.Hierarchy {
	if i < 0 || i >= len(t.Hierarchies) {
		return nil
	}
	return t.Hierarchies[i]
}

func activityAt(t *Trace, i int) Activity {
	if i < 0 || i >= len(t.Activities) {
		return Activity{}
	}
	return t.Activities[i]
}
