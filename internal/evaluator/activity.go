package evaluator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

// Activity identifies the foreground app component at one trace step.
type Activity struct {
	Package string
	Name    string
}

// ParseActivity accepts "pkg/cls" or a bare class name.
func ParseActivity(s string) Activity {
	s = strings.TrimSpace(s)
	if pkg, name, ok := strings.Cut(s, "/"); ok {
		return Activity{Package: pkg, Name: name}
	}
	return Activity{Name: s}
}

func (a Activity) String() string {
	if a.Package == "" {
		return a.Name
	}
	return a.Package + "/" + a.Name
}

// ShortName is the class name without its package qualifier.
func (a Activity) ShortName() string {
	if i := strings.LastIndex(a.Name, "."); i >= 0 {
		return a.Name[i+1:]
	}
	return a.Name
}

// Match reports whether want identifies this activity under mode. Equal
// accepts the class name, its short form or "pkg/cls"; include tests
// containment in "pkg/cls".
func (a Activity) Match(want string, mode hierarchy.MatchMode) bool {
	switch mode {
	case hierarchy.MatchEqual:
		return want == a.Name || want == a.ShortName() || want == a.String()
	case hierarchy.MatchInclude:
		return strings.Contains(a.String(), want)
	default:
		return false
	}
}

// MarshalJSON writes the ["pkg","cls"] pair used by activities.json.
func (a Activity) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{a.Package, a.Name})
}

// UnmarshalJSON accepts ["pkg","cls"] or "pkg/cls".
func (a *Activity) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err == nil {
		switch len(pair) {
		case 1:
			*a = ParseActivity(pair[0])
		case 2:
			*a = Activity{Package: pair[0], Name: pair[1]}
		default:
			return fmt.Errorf("activity: want [package, class], got %d items", len(pair))
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("activity: %w", err)
	}
	*a = ParseActivity(s)
	return nil
}
