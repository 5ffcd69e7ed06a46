package action

import (
	"encoding/json"
	"fmt"

	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

// Record is the persisted form of an action, one entry of actions.json.
// The element is stored as its raw attribute map and coordinates as [x,y] pairs.
type Record struct {
	ActionType string             `json:"action_type"`
	Element    *hierarchy.Element `json:"element,omitempty"`
	Coords     [][2]int           `json:"coords,omitempty"`
	Message    *string            `json:"message,omitempty"`
	Clear      *bool              `json:"clear,omitempty"`
	Direction  string             `json:"direction,omitempty"`
}

// ToRecord converts a to its persisted form.
func (a Action) ToRecord() Record {
	r := Record{
		ActionType: a.Type.String(),
		Element:    a.Element,
		Direction:  string(a.Direction),
	}
	for _, p := range a.Coords {
		r.Coords = append(r.Coords, [2]int{p.X, p.Y})
	}
	if a.Type == Text {
		msg, clear := a.Message, a.Clear
		r.Message = &msg
		r.Clear = &clear
	}
	return r
}

// Action rebuilds the action through the constructors, so a record missing
// its payload fails with ErrConstruction. clear defaults to true and an
// element swipe without direction defaults to up.
func (r Record) Action() (Action, error) {
	t, err := ParseType(r.ActionType)
	if err != nil {
		return Action{}, err
	}
	coords := make([]hierarchy.Point, len(r.Coords))
	for i, c := range r.Coords {
		coords[i] = hierarchy.Point{X: c[0], Y: c[1]}
	}
	if t == Swipe && r.Element == nil && len(coords) != 2 {
		return Action{}, fmt.Errorf("%w: SWIPE record needs 2 coordinates, got %d", ErrConstruction, len(coords))
	}
	if t == Text && r.Message == nil {
		return Action{}, fmt.Errorf("%w: TEXT record without message", ErrConstruction)
	}
	msg := ""
	if r.Message != nil {
		msg = *r.Message
	}
	clear := true
	if r.Clear != nil {
		clear = *r.Clear
	}
	return New(t, r.Element, coords, msg, clear, Direction(r.Direction))
}

// MarshalJSON encodes the action as a Record.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.ToRecord())
}

// UnmarshalJSON decodes a Record and validates it.
func (a *Action) UnmarshalJSON(data []byte) error {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("%w: %w", ErrConstruction, err)
	}
	got, err := r.Action()
	if err != nil {
		return err
	}
	*a = got
	return nil
}
