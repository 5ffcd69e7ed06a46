package evaluator

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

// RuleType selects how a rule scans the trace.
type RuleType string

const (
	// Stoppage checks the final frame only.
	Stoppage RuleType = "stoppage"
	// FindElement passes if some frame contains a matching element.
	FindElement RuleType = "findelement"
	// LastAction checks the final action.
	LastAction RuleType = "lastaction"
	// FindAction passes if some action matches.
	FindAction RuleType = "findaction"
	// FindElementByAction passes if some matching action touched a matching element.
	FindElementByAction RuleType = "findelementbyaction"
)

// ActivityKey is the reserved rule key matched against the frame's foreground activity.
const ActivityKey = "activity"

// Action attribute keys.
const (
	KeyActionType = "action_type"
	KeyMessage    = "message"
	KeyDirection  = "direction"
	KeyClear      = "clear"
)

func isActionKey(k string) bool {
	switch k {
	case KeyActionType, KeyMessage, KeyDirection, KeyClear:
		return true
	}
	return false
}

// Rule is one declarative success criterion, as stored in evaluator.json.
type Rule struct {
	Type              RuleType            `json:"type"`
	MatchType         hierarchy.MatchMode `json:"match_type,omitempty"`
	MatchRules        map[string]string   `json:"match_rules,omitempty"`
	CheckType         hierarchy.MatchMode `json:"check_type,omitempty"`
	CheckRules        map[string]string   `json:"check_rules,omitempty"`
	ActionMatchType   hierarchy.MatchMode `json:"action_match_type,omitempty"`
	ActionMatchRules  map[string]string   `json:"action_match_rules,omitempty"`
	ElementMatchType  hierarchy.MatchMode `json:"element_match_type,omitempty"`
	ElementMatchRules map[string]string   `json:"element_match_rules,omitempty"`
}

// keyFamily is a bit set of rule key families.
type keyFamily uint8

const (
	famElement keyFamily = 1 << iota
	famAction
	famActivity
)

// ruleMapSpec describes one map of a rule type.
type ruleMapSpec struct {
	name     string
	required bool
	allowed  keyFamily
	rules    func(*Rule) map[string]string
	mode     func(*Rule) *hierarchy.MatchMode
}

var (
	matchMap = func(required bool, allowed keyFamily) ruleMapSpec {
		return ruleMapSpec{"match_rules", required, allowed,
			func(r *Rule) map[string]string { return r.MatchRules },
			func(r *Rule) *hierarchy.MatchMode { return &r.MatchType }}
	}
	checkMap = func(required bool, allowed keyFamily) ruleMapSpec {
		return ruleMapSpec{"check_rules", required, allowed,
			func(r *Rule) map[string]string { return r.CheckRules },
			func(r *Rule) *hierarchy.MatchMode { return &r.CheckType }}
	}
	actionMatchMap = ruleMapSpec{"action_match_rules", true, famElement | famAction,
		func(r *Rule) map[string]string { return r.ActionMatchRules },
		func(r *Rule) *hierarchy.MatchMode { return &r.ActionMatchType }}
	elementMatchMap = ruleMapSpec{"element_match_rules", true, famElement,
		func(r *Rule) map[string]string { return r.ElementMatchRules },
		func(r *Rule) *hierarchy.MatchMode { return &r.ElementMatchType }}
)

// ruleShapes lists the maps each rule type reads. Maps not listed must be empty.
var ruleShapes = map[RuleType][]ruleMapSpec{
	Stoppage:    {matchMap(true, famElement|famActivity), checkMap(false, famElement|famActivity)},
	FindElement: {matchMap(true, famElement|famActivity), checkMap(false, famElement|famActivity)},
	LastAction:  {checkMap(true, famElement|famAction|famActivity)},
	FindAction:  {matchMap(true, famElement|famAction), checkMap(false, famElement|famAction)},
	FindElementByAction: {
		actionMatchMap,
		elementMatchMap,
		checkMap(false, famElement),
	},
}

// Normalize lower-cases the type and fills empty match modes with "equal".
func (r *Rule) Normalize() {
	r.Type = RuleType(strings.ToLower(strings.TrimSpace(string(r.Type))))
	for _, m := range []*hierarchy.MatchMode{&r.MatchType, &r.CheckType, &r.ActionMatchType, &r.ElementMatchType} {
		*m = hierarchy.MatchMode(strings.ToLower(strings.TrimSpace(string(*m))))
		if *m == "" {
			*m = hierarchy.MatchEqual
		}
	}
}

// Validate checks the rule shape: known type, known match modes, required
// maps present, and every key drawn from the families the map allows.
// The rule is expected to be normalized.
func (r *Rule) Validate() error {
	shape, ok := ruleShapes[r.Type]
	if !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRule, r.Type)
	}

	used := map[string]bool{}
	for _, spec := range shape {
		used[spec.name] = true
		rules := spec.rules(r)
		if spec.required && len(rules) == 0 {
			return fmt.Errorf("%w: %s rule requires %s", ErrInvalidRule, r.Type, spec.name)
		}
		if len(rules) == 0 {
			continue
		}
		if mode := *spec.mode(r); !mode.Valid() {
			return fmt.Errorf("%w: %s: unknown match mode %q", ErrInvalidRule, spec.name, mode)
		}
		for _, k := range sortedKeys(rules) {
			if !spec.allowed.has(k) {
				return fmt.Errorf("%w: %s rule: key %q not allowed in %s", ErrInvalidRule, r.Type, k, spec.name)
			}
		}
	}

	for _, m := range []struct {
		name  string
		rules map[string]string
	}{
		{"match_rules", r.MatchRules},
		{"check_rules", r.CheckRules},
		{"action_match_rules", r.ActionMatchRules},
		{"element_match_rules", r.ElementMatchRules},
	} {
		if !used[m.name] && len(m.rules) > 0 {
			return fmt.Errorf("%w: %s rule does not use %s", ErrInvalidRule, r.Type, m.name)
		}
	}
	return nil
}

func (f keyFamily) has(key string) bool {
	switch {
	case key == ActivityKey:
		return f&famActivity != 0
	case isActionKey(key):
		return f&famAction != 0
	case hierarchy.IsAttributeKey(key):
		return f&famElement != 0
	default:
		return false
	}
}

// ParseRuleMap parses the "k1:v1;k2:v2" authoring syntax. Each pair is split
// on its first colon, so values may contain colons. Empty input yields an
// empty map.
func ParseRuleMap(s string) (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("%w: rule pair %q has no ':'", ErrInvalidRule, pair)
		}
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, fmt.Errorf("%w: rule pair %q has an empty key", ErrInvalidRule, pair)
		}
		out[k] = v
	}
	return out, nil
}

// FormatRuleMap renders m in the "k1:v1;k2:v2" syntax with sorted keys.
func FormatRuleMap(m map[string]string) string {
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		parts = append(parts, k+":"+m[k])
	}
	return strings.Join(parts, ";")
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
