package action

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

func element(t *testing.T, attrs map[string]string) *hierarchy.Element {
	t.Helper()
	el, err := hierarchy.NewElement(attrs)
	if err != nil {
		t.Fatalf("NewElement: %v", err)
	}
	return el
}

func submitButton(t *testing.T) *hierarchy.Element {
	return element(t, map[string]string{
		"class":       "android.widget.Button",
		"resource-id": "com.app:id/submit",
		"text":        "Submit",
		"clickable":   "true",
		"bounds":      "[0,0][100,50]",
	})
}

func TestConstructors_RequirePayload(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (Action, error)
	}{
		{"click", func() (Action, error) { return NewClick(nil, nil) }},
		{"longclick", func() (Action, error) { return NewLongClick(nil, nil) }},
		{"text", func() (Action, error) { return NewText("hi", true, nil, nil) }},
		{"swipe_none", func() (Action, error) { return NewSwipe(nil, Up, nil, nil) }},
		{"swipe_half_coords", func() (Action, error) { return NewSwipe(nil, "", &hierarchy.Point{X: 1, Y: 1}, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			if !errors.Is(err, ErrConstruction) {
				t.Errorf("err = %v, want ErrConstruction", err)
			}
		})
	}
}

func TestConstructors_ElementPrecedence(t *testing.T) {
	el := submitButton(t)
	p := hierarchy.Point{X: 900, Y: 900}

	a, err := NewClick(el, &p)
	if err != nil {
		t.Fatal(err)
	}
	if a.Element != el || len(a.Coords) != 1 {
		t.Fatalf("click should keep both payloads: %+v", a)
	}
	if got, _ := a.Target(); got != (hierarchy.Point{X: 50, Y: 25}) {
		t.Errorf("Target = %v, want element center", got)
	}
	if a.Describe() != "Click on a View (resource-id: submit, text: Submit, class: android.widget.Button)." {
		t.Errorf("Describe = %q", a.Describe())
	}

	// equality follows the element even if the coordinates differ
	q := hierarchy.Point{X: 1, Y: 1}
	b, _ := NewClick(el, &q)
	if !Equal(a, b) {
		t.Error("element-bearing clicks on the same rectangle should be equal")
	}

	// coordinate-only target
	c, _ := NewClick(nil, &p)
	if got, ok := c.Target(); !ok || got != p {
		t.Errorf("Target = %v, %v; want %v", got, ok, p)
	}
	if Equal(a, c) {
		t.Error("element click and coordinate click should differ")
	}
}

func TestSwipe_DefaultDirection(t *testing.T) {
	a, err := NewSwipe(submitButton(t), "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.Direction != Up {
		t.Errorf("Direction = %q, want up", a.Direction)
	}
	if _, err := NewSwipe(submitButton(t), "sideways", nil, nil); !errors.Is(err, ErrConstruction) {
		t.Errorf("bad direction err = %v", err)
	}
}

func TestEqual(t *testing.T) {
	el := submitButton(t)
	moved := element(t, map[string]string{"class": "android.widget.Button", "text": "Submit", "bounds": "[0,100][100,150]"})

	click := func(e *hierarchy.Element) Action { a, _ := NewClick(e, nil); return a }
	text := func(msg string) Action { a, _ := NewText(msg, true, el, nil); return a }
	xy := func(x, y int) Action { a, _ := NewClick(nil, &hierarchy.Point{X: x, Y: y}); return a }
	swipe := func(d Direction) Action { a, _ := NewSwipe(el, d, nil, nil); return a }

	tests := []struct {
		name string
		a, b Action
		want bool
	}{
		{"same_click", click(el), click(el), true},
		{"moved_element", click(el), click(moved), false},
		{"back", NewBack(), NewBack(), true},
		{"back_vs_stop", NewBack(), NewStop(), false},
		{"text_same", text("a"), text("a"), true},
		{"text_differs", text("a"), text("b"), false},
		{"coords_same", xy(1, 2), xy(1, 2), true},
		{"coords_differ", xy(1, 2), xy(2, 1), false},
		{"swipe_direction", swipe(Up), swipe(Down), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
			if got := Equal(tt.b, tt.a); got != tt.want {
				t.Errorf("Equal (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"click", Click},
		{"CHECK", Click},
		{"Input", Text},
		{"longclick", LongClick},
		{"STOP", Stop},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseType(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseType("tap"); !errors.Is(err, ErrConstruction) {
		t.Errorf("ParseType(tap) err = %v", err)
	}
}

func TestDescribe(t *testing.T) {
	el := submitButton(t)
	swipeEl, _ := NewSwipe(el, Left, nil, nil)
	swipeXY, _ := NewSwipe(nil, "", &hierarchy.Point{X: 1, Y: 2}, &hierarchy.Point{X: 3, Y: 4})
	typed, _ := NewText("hello", true, el, nil)

	tests := []struct {
		a    Action
		want string
	}{
		{NewNone(), "Do nothing."},
		{NewBack(), "Go back."},
		{NewEnter(), "Press enter."},
		{NewRestart(), "Restart the app."},
		{NewStop(), "Stop the app."},
		{swipeEl, "Swipe on a View (resource-id: submit, text: Submit, class: android.widget.Button) in left direction."},
		{swipeXY, "Swipe from (1, 2) to (3, 4)."},
		{typed, "Type hello on a View (resource-id: submit, text: Submit, class: android.widget.Button)."},
	}
	for _, tt := range tests {
		if got := tt.a.Describe(); got != tt.want {
			t.Errorf("Describe = %q, want %q", got, tt.want)
		}
	}
}

func TestIsStuck(t *testing.T) {
	el := submitButton(t)
	c, _ := NewClick(el, nil)

	tests := []struct {
		name    string
		actions []Action
		want    bool
	}{
		{"short", []Action{c, c}, false},
		{"three_same", []Action{NewBack(), c, c, c}, true},
		{"broken_tail", []Action{c, c, NewBack()}, false},
		{"back_repeated", []Action{NewBack(), NewBack(), NewBack()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStuck(tt.actions); got != tt.want {
				t.Errorf("IsStuck = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSwipeCoords(t *testing.T) {
	r := hierarchy.Rect{X1: 0, Y1: 0, X2: 1000, Y2: 2000}
	tests := []struct {
		dir      Direction
		from, to hierarchy.Point
	}{
		{Up, hierarchy.Point{X: 500, Y: 1800}, hierarchy.Point{X: 500, Y: 200}},
		{Down, hierarchy.Point{X: 500, Y: 200}, hierarchy.Point{X: 500, Y: 1800}},
		{Left, hierarchy.Point{X: 900, Y: 1000}, hierarchy.Point{X: 100, Y: 1000}},
		{Right, hierarchy.Point{X: 100, Y: 1000}, hierarchy.Point{X: 900, Y: 1000}},
	}
	for _, tt := range tests {
		from, to := SwipeCoords(r, tt.dir)
		if from != tt.from || to != tt.to {
			t.Errorf("SwipeCoords(%s) = %v → %v, want %v → %v", tt.dir, from, to, tt.from, tt.to)
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	el := submitButton(t)
	typed, _ := NewText("hello", false, el, nil)

	data, err := json.Marshal(typed)
	if err != nil {
		t.Fatal(err)
	}
	var got Action
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal(%s): %v", data, err)
	}
	if !Equal(typed, got) || got.Clear {
		t.Errorf("round trip = %+v, want %+v", got, typed)
	}
	if !got.Element.Equal(el) {
		t.Error("element identity lost")
	}
}

func TestRecordDecode(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    Type
		wantErr bool
	}{
		{"lowercase_alias", `{"action_type":"input","coords":[[1,2]],"message":"x"}`, Text, false},
		{"stop", `{"action_type":"STOP"}`, Stop, false},
		{"swipe_coords", `{"action_type":"SWIPE","coords":[[1,2],[3,4]]}`, Swipe, false},
		{"click_no_payload", `{"action_type":"CLICK"}`, 0, true},
		{"swipe_one_coord", `{"action_type":"SWIPE","coords":[[1,2]]}`, 0, true},
		{"text_no_message", `{"action_type":"TEXT","coords":[[1,2]]}`, 0, true},
		{"unknown", `{"action_type":"FLING"}`, 0, true},
		{"bad_bounds", `{"action_type":"CLICK","element":{"bounds":"oops"}}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Action
			err := json.Unmarshal([]byte(tt.json), &a)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", a)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if a.Type != tt.want {
				t.Errorf("Type = %v, want %v", a.Type, tt.want)
			}
		})
	}

	var a Action
	if err := json.Unmarshal([]byte(`{"action_type":"TEXT","coords":[[1,2]],"message":"m"}`), &a); err != nil {
		t.Fatal(err)
	}
	if !a.Clear {
		t.Error("clear should default to true")
	}
}
