package hierarchy

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// MatchMode selects how a rule value is compared to an attribute value.
type MatchMode string

const (
	MatchEqual   MatchMode = "equal"
	MatchInclude MatchMode = "include"
)

// Valid returns true for the supported modes.
func (m MatchMode) Valid() bool {
	return m == MatchEqual || m == MatchInclude
}

// Match compares an observed value against an expected one.
func (m MatchMode) Match(got, want string) bool {
	switch m {
	case MatchEqual:
		return got == want
	case MatchInclude:
		return strings.Contains(got, want)
	default:
		return false
	}
}

// Element is an immutable view of one UI node.
// Attrs keeps every raw attribute so rules can address arbitrary keys;
// the typed fields serve bounds and capability derivation.
type Element struct {
	Attrs map[string]string

	Index       int
	ResourceID  string
	Class       string
	Package     string
	ContentDesc string
	Text        string

	Checkable     bool
	Checked       bool
	Clickable     bool
	Focusable     bool
	Focused       bool
	Enabled       bool
	Scrollable    bool
	LongClickable bool
	Password      bool
	Selected      bool
	VisibleToUser bool

	Bounds Rect
}

// NewElement builds an Element from a raw attribute map.
// Missing attributes default to "" / false, except visible-to-user which defaults to true.
func NewElement(attrs map[string]string) (*Element, error) {
	get := func(key string) string { return attrs[key] }
	flag := func(key string) bool { return get(key) == "true" }

	bounds, err := ParseBound(get("bounds"))
	if err != nil {
		return nil, err
	}

	index := 0
	if raw := strings.TrimSpace(get("index")); raw != "" {
		index, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid index %q", ErrParse, raw)
		}
	}

	visible := true
	if v, ok := attrs["visible-to-user"]; ok {
		visible = v == "true"
	}

	resourceID := get("resource-id")
	if i := strings.LastIndex(resourceID, "/"); i >= 0 {
		resourceID = resourceID[i+1:]
	}

	return &Element{
		Attrs:         maps.Clone(attrs),
		Index:         index,
		ResourceID:    strings.TrimSpace(resourceID),
		Class:         strings.TrimSpace(get("class")),
		Package:       strings.TrimSpace(get("package")),
		ContentDesc:   strings.TrimSpace(get("content-desc")),
		Text:          strings.TrimSpace(get("text")),
		Checkable:     flag("checkable"),
		Checked:       flag("checked"),
		Clickable:     flag("clickable"),
		Focusable:     flag("focusable"),
		Focused:       flag("focused"),
		Enabled:       flag("enabled"),
		Scrollable:    flag("scrollable"),
		LongClickable: flag("long-clickable"),
		Password:      flag("password"),
		Selected:      flag("selected"),
		VisibleToUser: visible,
		Bounds:        bounds,
	}, nil
}

// Attr returns a raw attribute and whether it was present.
func (e *Element) Attr(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	v, ok := e.Attrs[key]
	return v, ok
}

// Capabilities derives the supported interactions.
// TEXT excludes CLICK and LONGCLICK; SWIPE follows the scrollable flag alone.
func (e *Element) Capabilities() []Capability {
	if e == nil {
		return nil
	}
	var caps []Capability
	if IsEditText(e.Class) {
		caps = append(caps, CapText)
	} else {
		if e.Clickable || e.Checkable {
			caps = append(caps, CapClick)
		}
		if e.LongClickable {
			caps = append(caps, CapLongClick)
		}
	}
	if e.Scrollable {
		caps = append(caps, CapSwipe)
	}
	return caps
}

// Has returns true if the element supports c.
func (e *Element) Has(c Capability) bool {
	for _, got := range e.Capabilities() {
		if got == c {
			return true
		}
	}
	return false
}

// IsInteractable returns true if the element is visible and supports at least one action.
func (e *Element) IsInteractable() bool {
	return e != nil && e.VisibleToUser && len(e.Capabilities()) > 0
}

// IsDull returns true when there is nothing worth describing to a human or an LLM.
func (e *Element) IsDull() bool {
	return e == nil || e.ContentDesc == "" && e.ResourceID == "" && e.Text == ""
}

// Describe renders a human-readable description, e.g.
// "a View (resource-id: submit, text: Submit, class: android.widget.Button)".
func (e *Element) Describe() string {
	if e == nil {
		return "a View"
	}
	var parts []string
	if e.ContentDesc != "" {
		parts = append(parts, "content-desc: "+e.ContentDesc)
	}
	if e.ResourceID != "" {
		parts = append(parts, "resource-id: "+e.ResourceID)
	}
	if e.Text != "" {
		parts = append(parts, "text: "+e.Text)
	}
	if e.Class != "" {
		parts = append(parts, "class: "+e.Class)
	}
	if len(parts) == 0 {
		return "a View"
	}
	return "a View (" + strings.Join(parts, ", ") + ")"
}

// Key is the semantic identity of the element. Geometry is deliberately absent
// so the same widget found in two snapshots compares equal after a layout shift.
func (e *Element) Key() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s@%s/%s#%s#%s", e.Class, e.Package, e.ResourceID, e.ContentDesc, e.Text)
}

// Equal compares semantic identity. Two nil elements are equal.
func (e *Element) Equal(o *Element) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.Key() == o.Key()
}

// Contains reports whether p lies within the element bounds.
func (e *Element) Contains(p Point) bool {
	return e != nil && e.Bounds.Contains(p)
}

// Matches reports whether every key/value pair holds against the raw attributes.
// A missing attribute never matches. resource-id also matches on the short id
// ("login_button" for "com.app:id/login_button").
func (e *Element) Matches(rules map[string]string, mode MatchMode) bool {
	if e == nil {
		return false
	}
	for key, want := range rules {
		got, ok := e.Attrs[key]
		if !ok {
			return false
		}
		if mode.Match(got, want) {
			continue
		}
		if key == "resource-id" && mode.Match(e.ResourceID, want) {
			continue
		}
		return false
	}
	return true
}

// MarshalJSON serializes the element as its raw attribute map,
// the shape stored in actions.json.
func (e *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Attrs)
}

// UnmarshalJSON rebuilds an element from a raw attribute map.
func (e *Element) UnmarshalJSON(data []byte) error {
	var attrs map[string]string
	if err := json.Unmarshal(data, &attrs); err != nil {
		return fmt.Errorf("%w: element attributes: %v", ErrParse, err)
	}
	el, err := NewElement(attrs)
	if err != nil {
		return err
	}
	*e = *el
	return nil
}
