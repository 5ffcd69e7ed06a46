package action

import (
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

// Type tags an Action.
type Type int

const (
	None Type = iota
	Click
	Swipe
	Text
	LongClick
	Back
	Enter
	Restart
	Stop
)

var typeNames = [...]string{
	None:      "NONE",
	Click:     "CLICK",
	Swipe:     "SWIPE",
	Text:      "TEXT",
	LongClick: "LONGCLICK",
	Back:      "BACK",
	Enter:     "ENTER",
	Restart:   "RESTART",
	Stop:      "STOP",
}

// typeAliases maps every accepted spelling (upper case) to its Type.
var typeAliases = map[string]Type{
	"NONE":      None,
	"CLICK":     Click,
	"CHECK":     Click,
	"SWIPE":     Swipe,
	"TEXT":      Text,
	"INPUT":     Text,
	"LONGCLICK": LongClick,
	"BACK":      Back,
	"ENTER":     Enter,
	"RESTART":   Restart,
	"STOP":      Stop,
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType resolves a type name case-insensitively, including the
// "check" and "input" aliases.
func ParseType(s string) (Type, error) {
	t, ok := typeAliases[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return None, fmt.Errorf("%w: unknown action type %q", ErrConstruction, s)
	}
	return t, nil
}

// Direction is the named direction of an element swipe.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Valid returns true for the four named directions.
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// Action is one interaction in a trace. Build it with the constructors; the
// zero value is a NONE action.
//
// Element-bearing actions may also carry coordinates. In that case the element
// wins for description, target resolution and equality.
type Action struct {
	Type      Type
	Element   *hierarchy.Element
	Coords    []hierarchy.Point
	Message   string
	Clear     bool
	Direction Direction
}

// NewNone returns a do-nothing action.
func NewNone() Action { return Action{Type: None} }

// NewBack returns a back-button press.
func NewBack() Action { return Action{Type: Back} }

// NewEnter returns an enter-key press.
func NewEnter() Action { return Action{Type: Enter} }

// NewRestart returns an app restart.
func NewRestart() Action { return Action{Type: Restart} }

// NewStop returns the terminal action an agent issues when it believes the task is done.
func NewStop() Action { return Action{Type: Stop} }

// NewClick builds a CLICK on an element, a coordinate, or both.
func NewClick(el *hierarchy.Element, coord *hierarchy.Point) (Action, error) {
	return pointAction(Click, el, coord)
}

// NewLongClick builds a LONGCLICK on an element, a coordinate, or both.
func NewLongClick(el *hierarchy.Element, coord *hierarchy.Point) (Action, error) {
	return pointAction(LongClick, el, coord)
}

// NewText builds a TEXT action typing msg into an element or at a coordinate.
func NewText(msg string, clear bool, el *hierarchy.Element, coord *hierarchy.Point) (Action, error) {
	a, err := pointAction(Text, el, coord)
	if err != nil {
		return Action{}, err
	}
	a.Message = msg
	a.Clear = clear
	return a, nil
}

// NewSwipe builds a SWIPE either on an element in a direction (empty means up)
// or between two coordinates.
func NewSwipe(el *hierarchy.Element, dir Direction, from, to *hierarchy.Point) (Action, error) {
	a := Action{Type: Swipe}
	if el != nil {
		if dir == "" {
			dir = Up
		}
		if !dir.Valid() {
			return Action{}, fmt.Errorf("%w: swipe direction %q", ErrConstruction, dir)
		}
		a.Element = el
		a.Direction = dir
	}
	if from != nil && to != nil {
		a.Coords = []hierarchy.Point{*from, *to}
	}
	if a.Element == nil && a.Coords == nil {
		return Action{}, fmt.Errorf("%w: SWIPE needs an element or both from and to coordinates", ErrConstruction)
	}
	return a, nil
}

// New dispatches on t. Payload-free types ignore every other argument.
// coords carries one point for CLICK/LONGCLICK/TEXT and two for SWIPE.
func New(t Type, el *hierarchy.Element, coords []hierarchy.Point, msg string, clear bool, dir Direction) (Action, error) {
	var first, second *hierarchy.Point
	if len(coords) > 0 {
		first = &coords[0]
	}
	if len(coords) > 1 {
		second = &coords[1]
	}
	switch t {
	case None, Back, Enter, Restart, Stop:
		return Action{Type: t}, nil
	case Click:
		return NewClick(el, first)
	case LongClick:
		return NewLongClick(el, first)
	case Text:
		return NewText(msg, clear, el, first)
	case Swipe:
		return NewSwipe(el, dir, first, second)
	default:
		return Action{}, fmt.Errorf("%w: unknown action type %d", ErrConstruction, int(t))
	}
}

func pointAction(t Type, el *hierarchy.Element, coord *hierarchy.Point) (Action, error) {
	if el == nil && coord == nil {
		return Action{}, fmt.Errorf("%w: %s needs an element or a coordinate", ErrConstruction, t)
	}
	a := Action{Type: t, Element: el}
	if coord != nil {
		a.Coords = []hierarchy.Point{*coord}
	}
	return a, nil
}

// HasPayload returns true for types that target an element or coordinates.
func (t Type) HasPayload() bool {
	switch t {
	case Click, LongClick, Text, Swipe:
		return true
	}
	return false
}

// Equal compares two actions structurally. Elements compare by rectangle,
// not identity.
func Equal(a, b Action) bool {
	if a.Type != b.Type {
		return false
	}
	if !a.Type.HasPayload() {
		return true
	}
	if a.Message != b.Message {
		return false
	}
	if (a.Element == nil) != (b.Element == nil) {
		return false
	}
	if a.Element != nil {
		return a.Element.Bounds == b.Element.Bounds && a.Direction == b.Direction
	}
	if len(a.Coords) != len(b.Coords) {
		return false
	}
	for i := range a.Coords {
		if a.Coords[i] != b.Coords[i] {
			return false
		}
	}
	return true
}

// Target returns the point the action touches: the element center, else the
// first coordinate.
func (a Action) Target() (hierarchy.Point, bool) {
	if a.Element != nil {
		return a.Element.Bounds.Center(), true
	}
	if len(a.Coords) > 0 {
		return a.Coords[0], true
	}
	return hierarchy.Point{}, false
}

// Describe renders the action in natural language, e.g.
// "Click on a View (resource-id: foo, text: Submit)."
func (a Action) Describe() string {
	switch a.Type {
	case None:
		return "Do nothing."
	case Back:
		return "Go back."
	case Enter:
		return "Press enter."
	case Restart:
		return "Restart the app."
	case Stop:
		return "Stop the app."
	case Click:
		return "Click on " + a.targetDesc() + "."
	case LongClick:
		return "Long click on " + a.targetDesc() + "."
	case Text:
		return fmt.Sprintf("Type %s on %s.", a.Message, a.targetDesc())
	case Swipe:
		if a.Element == nil && len(a.Coords) == 2 {
			return fmt.Sprintf("Swipe from %s to %s.", pointDesc(a.Coords[0]), pointDesc(a.Coords[1]))
		}
		return fmt.Sprintf("Swipe on %s in %s direction.", a.targetDesc(), a.Direction)
	default:
		return a.Type.String()
	}
}

func (a Action) targetDesc() string {
	if a.Element != nil {
		return a.Element.Describe()
	}
	if len(a.Coords) > 0 {
		return pointDesc(a.Coords[0])
	}
	return "nothing"
}

func pointDesc(p hierarchy.Point) string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

func (a Action) String() string {
	return a.Describe()
}
