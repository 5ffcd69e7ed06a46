package hierarchy

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Node is one element of the hierarchy arena. Children are positions in the
// flat pre-order node list owned by the Hierarchy.
type Node struct {
	*Element
	Depth    int
	Children []int
}

// Widget is an interactable element together with its dump index.
type Widget struct {
	Index int
	*Element
	Capabilities []Capability
}

// Describe renders the widget with its capabilities, e.g.
// "a View (text: OK) to click or swipe".
func (w Widget) Describe() string {
	names := make([]string, len(w.Capabilities))
	for i, c := range w.Capabilities {
		names[i] = c.String()
	}
	desc := w.Element.Describe()
	switch len(names) {
	case 0:
		return desc + " to do nothing"
	case 1:
		return desc + " to " + names[0]
	default:
		return desc + " to " + strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
	}
}

// Hierarchy is one parsed full-screen snapshot.
type Hierarchy struct {
	nodes   []Node
	roots   []int
	widgets []Widget
	dumpIdx map[int]int // node position → widget index
	raw     []byte
}

// ParseFile reads and parses a hierarchy XML file.
func ParseFile(path string) (*Hierarchy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy: %w", err)
	}
	h, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// ParseString parses a hierarchy XML document.
func ParseString(s string) (*Hierarchy, error) {
	return ParseBytes([]byte(s))
}

// Parse reads the whole document from r and parses it.
func Parse(r io.Reader) (*Hierarchy, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses a uiautomator dump. The document element must be
// <hierarchy>; it is a container and its <node> children become the roots.
// Nodes owned by the status bar package are skipped together with their subtree.
func ParseBytes(data []byte) (*Hierarchy, error) {
	h := &Hierarchy{
		dumpIdx: make(map[int]int),
		raw:     bytes.Clone(data),
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	foundRoot := false
	// stack of open node positions; -1 marks a container or skipped element
	var stack []int

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !foundRoot {
				if t.Name.Local != "hierarchy" {
					return nil, fmt.Errorf("%w: root element %q, want hierarchy", ErrParse, t.Name.Local)
				}
				foundRoot = true
				stack = append(stack, -1)
				continue
			}
			if t.Name.Local != "node" {
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrParse, err)
				}
				continue
			}

			attrs := make(map[string]string, len(t.Attr))
			for _, a := range t.Attr {
				attrs[a.Name.Local] = a.Value
			}
			if attrs["package"] == StatusBarPackage {
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrParse, err)
				}
				continue
			}

			el, err := NewElement(attrs)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", len(h.nodes), err)
			}

			parent := stack[len(stack)-1]
			depth := 0
			if parent >= 0 {
				depth = h.nodes[parent].Depth + 1
			}
			pos := len(h.nodes)
			h.nodes = append(h.nodes, Node{Element: el, Depth: depth})
			if parent >= 0 {
				h.nodes[parent].Children = append(h.nodes[parent].Children, pos)
			} else {
				h.roots = append(h.roots, pos)
			}
			stack = append(stack, pos)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !foundRoot {
		return nil, fmt.Errorf("%w: empty document", ErrParse)
	}

	for pos := range h.nodes {
		el := h.nodes[pos].Element
		if !el.IsInteractable() {
			continue
		}
		h.dumpIdx[pos] = len(h.widgets)
		h.widgets = append(h.widgets, Widget{
			Index:        len(h.widgets),
			Element:      el,
			Capabilities: el.Capabilities(),
		})
	}

	return h, nil
}

// Len returns the number of indexed nodes.
func (h *Hierarchy) Len() int {
	return len(h.nodes)
}

// Node returns the node at pre-order position pos.
func (h *Hierarchy) Node(pos int) Node {
	return h.nodes[pos]
}

// Nodes returns all nodes in pre-order.
func (h *Hierarchy) Nodes() []Node {
	return h.nodes
}

// Roots returns the positions of the top-level nodes.
func (h *Hierarchy) Roots() []int {
	return h.roots
}

// Raw returns the document the hierarchy was parsed from.
func (h *Hierarchy) Raw() []byte {
	return h.raw
}

// Widgets returns every interactable node in pre-order. The slice position
// equals the index shown by DumpText.
func (h *Hierarchy) Widgets() []Widget {
	return h.widgets
}

// Widget returns the widget with dump index id.
func (h *Hierarchy) Widget(id int) (Widget, bool) {
	if id < 0 || id >= len(h.widgets) {
		return Widget{}, false
	}
	return h.widgets[id], true
}

// FindElement returns the first node in pre-order whose attributes satisfy
// every rule under mode. When point is non-nil the node must also contain it.
// Absence is reported as nil, not as an error.
func (h *Hierarchy) FindElement(rules map[string]string, mode MatchMode, point *Point) *Element {
	if !mode.Valid() {
		return nil
	}
	return h.FindElementFunc(func(el *Element) bool {
		return el.Matches(rules, mode)
	}, point)
}

// FindElementFunc is FindElement with an arbitrary predicate. A nil
// hierarchy finds nothing.
func (h *Hierarchy) FindElementFunc(pred func(*Element) bool, point *Point) *Element {
	if h == nil {
		return nil
	}
	for _, n := range h.nodes {
		if point != nil && !n.Contains(*point) {
			continue
		}
		if pred(n.Element) {
			return n.Element
		}
	}
	return nil
}

// DumpText renders the tree as tab-indented lines. Interactable nodes are
// prefixed with their widget index, e.g. "\t[3] a View (text: OK) to click".
func (h *Hierarchy) DumpText() string {
	var sb strings.Builder
	var walk func(pos, indent int)
	walk = func(pos, indent int) {
		n := h.nodes[pos]
		sb.WriteString(strings.Repeat("\t", indent))
		if id, ok := h.dumpIdx[pos]; ok {
			fmt.Fprintf(&sb, "[%d] %s\n", id, h.widgets[id].Describe())
		} else {
			sb.WriteString(n.Describe())
			sb.WriteByte('\n')
		}
		for _, c := range n.Children {
			walk(c, indent+1)
		}
	}
	for _, r := range h.roots {
		walk(r, 0)
	}
	return sb.String()
}
