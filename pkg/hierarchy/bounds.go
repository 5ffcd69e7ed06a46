package hierarchy

import (
	"fmt"
	"regexp"
	"strconv"
)

var boundPattern = regexp.MustCompile(`^\s*\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]\s*$`)

// Point is a screen coordinate in pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is a screen rectangle (x1,y1) top-left to (x2,y2) bottom-right.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// ParseBound parses the uiautomator bounds format "[x1,y1][x2,y2]".
func ParseBound(s string) (Rect, error) {
	m := boundPattern.FindStringSubmatch(s)
	if m == nil {
		return Rect{}, fmt.Errorf("%w: invalid bounds %q", ErrParse, s)
	}
	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Rect{}, fmt.Errorf("%w: invalid bounds %q: %v", ErrParse, s, err)
		}
		v[i] = n
	}
	return Rect{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}

// Center returns the integer midpoint.
func (r Rect) Center() Point {
	return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return r.X1 <= p.X && p.X <= r.X2 && r.Y1 <= p.Y && p.Y <= r.Y2
}

func (r Rect) Width() int  { return r.X2 - r.X1 }
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// String renders r back into bounds format.
func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d][%d,%d]", r.X1, r.Y1, r.X2, r.Y2)
}
