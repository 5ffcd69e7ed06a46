package action

import "github.com/nextlevelbuilder/droidbench/pkg/hierarchy"

// SwipeCoords returns the gesture endpoints for a swipe on r in dir. The
// gesture runs through the center line, inset by a tenth of the extent from
// each edge. "up" moves the finger from the bottom towards the top.
func SwipeCoords(r hierarchy.Rect, dir Direction) (from, to hierarchy.Point) {
	c := r.Center()
	dx, dy := r.Width()/10, r.Height()/10
	switch dir {
	case Down:
		return hierarchy.Point{X: c.X, Y: r.Y1 + dy}, hierarchy.Point{X: c.X, Y: r.Y2 - dy}
	case Left:
		return hierarchy.Point{X: r.X2 - dx, Y: c.Y}, hierarchy.Point{X: r.X1 + dx, Y: c.Y}
	case Right:
		return hierarchy.Point{X: r.X1 + dx, Y: c.Y}, hierarchy.Point{X: r.X2 - dx, Y: c.Y}
	default:
		return hierarchy.Point{X: c.X, Y: r.Y2 - dy}, hierarchy.Point{X: c.X, Y: r.Y1 + dy}
	}
}

// Gesture returns the from/to points a swipe action performs: its explicit
// coordinates when it has no element, otherwise SwipeCoords on the element.
func (a Action) Gesture() (from, to hierarchy.Point, ok bool) {
	if a.Type != Swipe {
		return hierarchy.Point{}, hierarchy.Point{}, false
	}
	if a.Element != nil {
		from, to = SwipeCoords(a.Element.Bounds, a.Direction)
		return from, to, true
	}
	if len(a.Coords) == 2 {
		return a.Coords[0], a.Coords[1], true
	}
	return hierarchy.Point{}, hierarchy.Point{}, false
}
