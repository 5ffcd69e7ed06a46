package evaluator

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/nextlevelbuilder/droidbench/pkg/action"
	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

// loginTrace: only the middle frame shows the login button.
func loginTrace(t *testing.T) *Trace {
	home := screen(t, "start|Start|[0,0][100,100]")
	login := screen(t, "login_button|Login|[100,200][500,300]", "username||[100,400][980,500]")
	done := screen(t, "welcome|Welcome|[0,0][1080,200]")
	return &Trace{
		Hierarchies: []*hierarchy.Hierarchy{home, login, done},
		Actions: []action.Action{
			clickOn(t, home, "start"),
			clickOn(t, login, "login_button"),
			action.NewStop(),
		},
		Activities: []Activity{act("SplashActivity"), act("LoginActivity"), act("MainActivity")},
	}
}

func TestFindElement_Hit(t *testing.T) {
	tr := loginTrace(t)
	e := mustEvaluator(t, Rule{Type: FindElement, MatchRules: map[string]string{"resource-id": "login_button"}})

	v := e.Evaluate(tr)
	if !v.Success {
		t.Fatal("findelement should pass")
	}
	if v.Rules[0].Step != 1 {
		t.Errorf("Step = %d, want 1", v.Rules[0].Step)
	}
}

func TestFindElement_Check(t *testing.T) {
	tr := loginTrace(t)
	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{"check_same_element", Rule{Type: FindElement,
			MatchRules: map[string]string{"resource-id": "login_button"},
			CheckRules: map[string]string{"text": "Login"}}, true},
		{"check_other_text", Rule{Type: FindElement,
			MatchRules: map[string]string{"resource-id": "login_button"},
			CheckRules: map[string]string{"text": "Logout"}}, false},
		{"check_activity", Rule{Type: FindElement,
			MatchRules: map[string]string{"resource-id": "login_button"},
			CheckRules: map[string]string{"activity": "LoginActivity"}}, true},
		{"check_wrong_activity", Rule{Type: FindElement,
			MatchRules: map[string]string{"resource-id": "login_button"},
			CheckRules: map[string]string{"activity": "MainActivity"}}, false},
		{"include", Rule{Type: FindElement, MatchType: hierarchy.MatchInclude,
			MatchRules: map[string]string{"text": "Welc"}}, true},
		{"activity_only", Rule{Type: FindElement,
			MatchRules: map[string]string{"activity": "com.app/com.app.LoginActivity"}}, true},
		{"mixed_same_frame", Rule{Type: FindElement,
			MatchRules: map[string]string{"activity": "MainActivity", "resource-id": "welcome"}}, true},
		{"mixed_different_frames", Rule{Type: FindElement,
			MatchRules: map[string]string{"activity": "MainActivity", "resource-id": "login_button"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEvaluator(t, tt.rule)
			if got := e.EvaluateStrict(tr); got != tt.want {
				t.Errorf("EvaluateStrict = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStoppage_Activity(t *testing.T) {
	tr := loginTrace(t)
	e := mustEvaluator(t, Rule{Type: Stoppage, MatchRules: map[string]string{"activity": "MainActivity"}})

	if !e.EvaluateStrict(tr) {
		t.Fatal("stoppage on MainActivity should pass")
	}

	tr.Activities[len(tr.Activities)-1] = act("SettingsActivity")
	if e.EvaluateStrict(tr) {
		t.Fatal("stoppage should fail once the final activity changes")
	}
}

func TestStoppage_OnlyFinalFrame(t *testing.T) {
	tr := loginTrace(t)
	e := mustEvaluator(t, Rule{Type: Stoppage, MatchRules: map[string]string{"resource-id": "login_button"}})
	if e.EvaluateStrict(tr) {
		t.Error("stoppage must ignore intermediate frames")
	}
	e = mustEvaluator(t, Rule{Type: Stoppage,
		MatchRules: map[string]string{"resource-id": "welcome"},
		CheckRules: map[string]string{"text": "Welcome", "activity": "MainActivity"}})
	if !e.EvaluateStrict(tr) {
		t.Error("stoppage with check rules on the final frame should pass")
	}
}

func TestLastAction(t *testing.T) {
	tr := loginTrace(t)
	tests := []struct {
		name  string
		check map[string]string
		want  bool
	}{
		{"element_skips_stop", map[string]string{"resource-id": "login_button"}, true},
		{"action_type", map[string]string{"action_type": "click"}, true},
		{"activity", map[string]string{"activity": "LoginActivity"}, true},
		{"earlier_action", map[string]string{"resource-id": "start"}, false},
		{"wrong_type", map[string]string{"action_type": "TEXT"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEvaluator(t, Rule{Type: LastAction, CheckRules: tt.check})
			if got := e.EvaluateStrict(tr); got != tt.want {
				t.Errorf("EvaluateStrict = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindAction(t *testing.T) {
	form := screen(t, "query||[0,0][1080,200]", "go|Go|[0,300][200,400]")
	typed, err := action.NewText("pizza near me", true, form.FindElement(map[string]string{"resource-id": "query"}, hierarchy.MatchEqual, nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	tr := &Trace{
		Hierarchies: []*hierarchy.Hierarchy{form, form, form},
		Actions:     []action.Action{typed, clickAt(t, 100, 350), action.NewStop()},
		Activities:  []Activity{act("Search"), act("Search"), act("Results")},
	}

	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{"message_include", Rule{Type: FindAction, MatchType: hierarchy.MatchInclude,
			MatchRules: map[string]string{"action_type": "text", "message": "pizza"}}, true},
		{"input_alias", Rule{Type: FindAction,
			MatchRules: map[string]string{"action_type": "input", "resource-id": "query"}}, true},
		{"coordinate_resolves", Rule{Type: FindAction,
			MatchRules: map[string]string{"action_type": "click", "resource-id": "go"}}, true},
		{"coordinate_misses", Rule{Type: FindAction,
			MatchRules: map[string]string{"action_type": "click", "resource-id": "query"}}, false},
		{"check_same_action", Rule{Type: FindAction,
			MatchRules: map[string]string{"resource-id": "query"},
			CheckRules: map[string]string{"message": "pizza near me"}}, true},
		{"check_fails", Rule{Type: FindAction,
			MatchRules: map[string]string{"resource-id": "query"},
			CheckRules: map[string]string{"message": "sushi"}}, false},
		{"message_absent_on_click", Rule{Type: FindAction,
			MatchRules: map[string]string{"action_type": "click", "message": ""}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEvaluator(t, tt.rule)
			if got := e.EvaluateStrict(tr); got != tt.want {
				t.Errorf("EvaluateStrict = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindElementByAction(t *testing.T) {
	list := screen(t, "row|Alice|[0,0][1080,100]", "row|Bob|[0,100][1080,200]")
	tr := &Trace{
		Hierarchies: []*hierarchy.Hierarchy{list, list},
		Actions:     []action.Action{clickAt(t, 50, 150), action.NewStop()},
		Activities:  []Activity{act("Contacts"), act("Contacts")},
	}

	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{"touched_bob", Rule{Type: FindElementByAction,
			ActionMatchRules:  map[string]string{"action_type": "click"},
			ElementMatchRules: map[string]string{"text": "Bob"}}, true},
		{"touched_not_alice", Rule{Type: FindElementByAction,
			ActionMatchRules:  map[string]string{"action_type": "click"},
			ElementMatchRules: map[string]string{"text": "Alice"}}, false},
		{"check_on_touched", Rule{Type: FindElementByAction,
			ActionMatchRules:  map[string]string{"action_type": "click"},
			ElementMatchRules: map[string]string{"resource-id": "row"},
			CheckRules:        map[string]string{"text": "Bob"}}, true},
		{"check_mismatch", Rule{Type: FindElementByAction,
			ActionMatchRules:  map[string]string{"action_type": "click"},
			ElementMatchRules: map[string]string{"resource-id": "row"},
			CheckRules:        map[string]string{"text": "Carol"}}, false},
		{"no_matching_action", Rule{Type: FindElementByAction,
			ActionMatchRules:  map[string]string{"action_type": "longclick"},
			ElementMatchRules: map[string]string{"text": "Bob"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEvaluator(t, tt.rule)
			if got := e.EvaluateStrict(tr); got != tt.want {
				t.Errorf("EvaluateStrict = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompletion_PartialCredit(t *testing.T) {
	tr := loginTrace(t)
	e := mustEvaluator(t,
		Rule{Type: FindElement, MatchRules: map[string]string{"resource-id": "login_button"}},
		Rule{Type: FindAction, MatchRules: map[string]string{"resource-id": "start"}},
		Rule{Type: Stoppage, MatchRules: map[string]string{"activity": "SettingsActivity"}},
		Rule{Type: FindElement, MatchRules: map[string]string{"text": "Forgot password"}},
	)

	v := e.Evaluate(tr)
	if v.Success {
		t.Fatal("strict verdict should fail")
	}
	if v.Completion != 0.5 {
		t.Errorf("Completion = %v, want 0.5", v.Completion)
	}
	if got := e.Completion(tr); got != 0.5 {
		t.Errorf("Completion() = %v, want 0.5", got)
	}
	if v.Passed() != 2 {
		t.Errorf("Passed = %d, want 2", v.Passed())
	}
}

func TestEvaluate_PermutationInvariant(t *testing.T) {
	tr := loginTrace(t)
	rules := []Rule{
		{Type: FindElement, MatchRules: map[string]string{"resource-id": "login_button"}},
		{Type: Stoppage, MatchRules: map[string]string{"activity": "MainActivity"}},
		{Type: LastAction, CheckRules: map[string]string{"text": "Login"}},
		{Type: FindAction, MatchRules: map[string]string{"text": "Nope"}},
	}
	individual := map[RuleType]bool{}
	for _, r := range rules {
		individual[r.Type] = mustEvaluator(t, r).EvaluateStrict(tr)
	}
	base := mustEvaluator(t, rules...).Evaluate(tr)

	rng := rand.New(rand.NewSource(1))
	for range 10 {
		perm := make([]Rule, len(rules))
		for i, j := range rng.Perm(len(rules)) {
			perm[i] = rules[j]
		}
		v := mustEvaluator(t, perm...).Evaluate(tr)
		if v.Success != base.Success || v.Completion != base.Completion {
			t.Fatalf("permuted verdict %+v differs from %+v", v, base)
		}
		for _, rr := range v.Rules {
			if rr.Passed != individual[rr.Type] {
				t.Errorf("rule %s passed = %v, alone = %v", rr.Type, rr.Passed, individual[rr.Type])
			}
		}
	}
}

func TestEvaluate_ZeroRules(t *testing.T) {
	e := mustEvaluator(t)
	v := e.Evaluate(loginTrace(t))
	if !v.Success || v.Completion != 1 {
		t.Errorf("zero rules verdict = %+v, want success with completion 1", v)
	}
	if !e.EvaluateStrict(nil) {
		t.Error("zero rules should pass an empty trace")
	}
}

func TestEvaluate_EmptyTrace(t *testing.T) {
	e := mustEvaluator(t,
		Rule{Type: Stoppage, MatchRules: map[string]string{"activity": "MainActivity"}},
		Rule{Type: LastAction, CheckRules: map[string]string{"action_type": "stop"}},
	)
	v := e.Evaluate(&Trace{})
	if v.Success || v.Completion != 0 {
		t.Errorf("empty trace verdict = %+v", v)
	}
}

func TestLastAction_OnlyStop(t *testing.T) {
	h := screen(t)
	tr := &Trace{
		Hierarchies: []*hierarchy.Hierarchy{h},
		Actions:     []action.Action{action.NewStop()},
		Activities:  []Activity{act("Main")},
	}
	e := mustEvaluator(t, Rule{Type: LastAction, CheckRules: map[string]string{"action_type": "STOP"}})
	if !e.EvaluateStrict(tr) {
		t.Error("a lone STOP is the last action")
	}
}

func TestNew_InvalidRules(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"unknown_type", Rule{Type: "findeverything", MatchRules: map[string]string{"text": "x"}}},
		{"unknown_mode", Rule{Type: FindElement, MatchType: "regex", MatchRules: map[string]string{"text": "x"}}},
		{"missing_match", Rule{Type: FindElement}},
		{"missing_check", Rule{Type: LastAction}},
		{"unknown_key", Rule{Type: FindElement, MatchRules: map[string]string{"colour": "red"}}},
		{"action_key_in_findelement", Rule{Type: FindElement, MatchRules: map[string]string{"action_type": "click"}}},
		{"activity_in_findaction", Rule{Type: FindAction, MatchRules: map[string]string{"activity": "Main"}}},
		{"unused_map", Rule{Type: LastAction, CheckRules: map[string]string{"text": "x"}, MatchRules: map[string]string{"text": "y"}}},
		{"byaction_missing_element", Rule{Type: FindElementByAction, ActionMatchRules: map[string]string{"action_type": "click"}}},
		{"byaction_action_key_in_check", Rule{Type: FindElementByAction,
			ActionMatchRules:  map[string]string{"action_type": "click"},
			ElementMatchRules: map[string]string{"text": "x"},
			CheckRules:        map[string]string{"message": "y"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]Rule{{Type: Stoppage, MatchRules: map[string]string{"text": "ok"}}, tt.rule})
			if !errors.Is(err, ErrInvalidRule) {
				t.Errorf("err = %v, want ErrInvalidRule", err)
			}
		})
	}
}

func TestNew_NormalizesType(t *testing.T) {
	e := mustEvaluator(t, Rule{Type: "FindElement", MatchRules: map[string]string{"text": "Login"}})
	r := e.Rules()[0]
	if r.Type != FindElement || r.MatchType != hierarchy.MatchEqual {
		t.Errorf("normalized rule = %+v", r)
	}
}
