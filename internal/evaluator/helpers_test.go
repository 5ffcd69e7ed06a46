package evaluator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/droidbench/pkg/action"
	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

// screen builds a one-level hierarchy from "resource-id|text|bounds|extra attrs" specs.
func screen(t *testing.T, nodes ...string) *hierarchy.Hierarchy {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(`<hierarchy><node class="android.widget.FrameLayout" package="com.app" bounds="[0,0][1080,1920]">`)
	for _, n := range nodes {
		parts := strings.SplitN(n, "|", 4)
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		fmt.Fprintf(&sb, `<node class="android.widget.Button" package="com.app" resource-id="com.app:id/%s" text="%s" clickable="true" bounds="%s" %s/>`,
			parts[0], parts[1], parts[2], parts[3])
	}
	sb.WriteString(`</node></hierarchy>`)
	h, err := hierarchy.ParseString(sb.String())
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return h
}

func mustEvaluator(t *testing.T, rules ...Rule) *Evaluator {
	t.Helper()
	e, err := New(rules)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func clickOn(t *testing.T, h *hierarchy.Hierarchy, id string) action.Action {
	t.Helper()
	el := h.FindElement(map[string]string{"resource-id": id}, hierarchy.MatchEqual, nil)
	if el == nil {
		t.Fatalf("no element %q", id)
	}
	a, err := action.NewClick(el, nil)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func clickAt(t *testing.T, x, y int) action.Action {
	t.Helper()
	a, err := action.NewClick(nil, &hierarchy.Point{X: x, Y: y})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func act(name string) Activity {
	return Activity{Package: "com.app", Name: "com.app." + name}
}
