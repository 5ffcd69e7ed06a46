package action

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

// Agent grammar shared by both observation modes.
//
//	click [id]              click [x,y]
//	longclick [id]          longclick [x,y]
//	text [id] [content]     text [x,y] [content]
//	swipe [id] [direction]  swipe [x1,y1] [x2,y2]
//	press [back|restart|home|none|stop|enter]
var (
	idClickRe     = regexp.MustCompile(`^click \[(#?\d+)\]`)
	idLongClickRe = regexp.MustCompile(`^longclick \[(#?\d+)\]`)
	idTextRe      = regexp.MustCompile(`^text \[(#?\d+)\] \[(.*)\]`)
	idSwipeRe     = regexp.MustCompile(`^swipe \[(#?\d+)\] \[(.*)\]`)
	xyClickRe     = regexp.MustCompile(`^click \[(\d+),(\d+)\]`)
	xyLongClickRe = regexp.MustCompile(`^longclick \[(\d+),(\d+)\]`)
	xyTextRe      = regexp.MustCompile(`^text \[(\d+),(\d+)\] \[(.*)\]`)
	xySwipeRe     = regexp.MustCompile(`^swipe \[(\d+),(\d+)\] \[(\d+),(\d+)\]`)
	pressRe       = regexp.MustCompile(`^press \[(.*)\]`)
)

// ParseByID parses an agent command that addresses widgets by the index shown
// in the text dump ("3" or "#3"). widgets is the numbered list of the observed snapshot.
func ParseByID(s string, widgets []hierarchy.Widget) (Action, error) {
	return parseByID(s, func(raw string) (*hierarchy.Element, error) {
		id, err := widgetID(raw)
		if err != nil {
			return nil, err
		}
		for _, w := range widgets {
			if w.Index == id {
				return w.Element, nil
			}
		}
		return nil, fmt.Errorf("%w: no widget with id %d", ErrActionParse, id)
	})
}

// ParseByRef is ParseByID against the widgets ws holds for snapshot key,
// i.e. the numbering the agent was shown for that step.
func ParseByRef(s string, ws *hierarchy.WidgetStore, key string) (Action, error) {
	if _, ok := ws.Widgets(key); !ok {
		return Action{}, fmt.Errorf("%w: no snapshot stored for %q", ErrActionParse, key)
	}
	return parseByID(s, func(raw string) (*hierarchy.Element, error) {
		if _, err := widgetID(raw); err != nil {
			return nil, err
		}
		w, ok := ws.Resolve(key, raw)
		if !ok {
			return nil, fmt.Errorf("%w: no widget %s in snapshot %q", ErrActionParse, raw, key)
		}
		return w.Element, nil
	})
}

func parseByID(s string, find func(raw string) (*hierarchy.Element, error)) (Action, error) {
	s = strings.TrimSpace(s)

	switch verb(s) {
	case "click":
		m, err := match(idClickRe, s)
		if err != nil {
			return Action{}, err
		}
		el, err := find(m[1])
		if err != nil {
			return Action{}, err
		}
		return NewClick(el, nil)
	case "longclick":
		m, err := match(idLongClickRe, s)
		if err != nil {
			return Action{}, err
		}
		el, err := find(m[1])
		if err != nil {
			return Action{}, err
		}
		return NewLongClick(el, nil)
	case "text":
		m, err := match(idTextRe, s)
		if err != nil {
			return Action{}, err
		}
		el, err := find(m[1])
		if err != nil {
			return Action{}, err
		}
		return NewText(m[2], true, el, nil)
	case "swipe":
		m, err := match(idSwipeRe, s)
		if err != nil {
			return Action{}, err
		}
		dir := Direction(strings.TrimPrefix(m[2], "direction="))
		if !dir.Valid() {
			return Action{}, fmt.Errorf("%w: invalid swipe direction %q in %q", ErrActionParse, dir, s)
		}
		el, err := find(m[1])
		if err != nil {
			return Action{}, err
		}
		return NewSwipe(el, dir, nil, nil)
	case "press":
		return parsePress(s)
	}
	return Action{}, fmt.Errorf("%w: invalid action %q", ErrActionParse, s)
}

// ParseByCoords parses an agent command that addresses the screen by pixel coordinates.
func ParseByCoords(s string) (Action, error) {
	s = strings.TrimSpace(s)

	switch verb(s) {
	case "click":
		m, err := match(xyClickRe, s)
		if err != nil {
			return Action{}, err
		}
		p, err := point(m[1], m[2])
		if err != nil {
			return Action{}, err
		}
		return NewClick(nil, &p)
	case "longclick":
		m, err := match(xyLongClickRe, s)
		if err != nil {
			return Action{}, err
		}
		p, err := point(m[1], m[2])
		if err != nil {
			return Action{}, err
		}
		return NewLongClick(nil, &p)
	case "text":
		m, err := match(xyTextRe, s)
		if err != nil {
			return Action{}, err
		}
		p, err := point(m[1], m[2])
		if err != nil {
			return Action{}, err
		}
		return NewText(m[3], true, nil, &p)
	case "swipe":
		m, err := match(xySwipeRe, s)
		if err != nil {
			return Action{}, err
		}
		from, err := point(m[1], m[2])
		if err != nil {
			return Action{}, err
		}
		to, err := point(m[3], m[4])
		if err != nil {
			return Action{}, err
		}
		return NewSwipe(nil, "", &from, &to)
	case "press":
		return parsePress(s)
	}
	return Action{}, fmt.Errorf("%w: invalid action %q", ErrActionParse, s)
}

func parsePress(s string) (Action, error) {
	m, err := match(pressRe, s)
	if err != nil {
		return Action{}, err
	}
	switch m[1] {
	case "back":
		return NewBack(), nil
	case "restart", "home":
		return NewRestart(), nil
	case "none":
		return NewNone(), nil
	case "stop":
		return NewStop(), nil
	case "enter":
		return NewEnter(), nil
	}
	return Action{}, fmt.Errorf("%w: unknown key %q in %q", ErrActionParse, m[1], s)
}

func verb(s string) string {
	v, _, _ := strings.Cut(s, "[")
	return strings.TrimSpace(v)
}

func match(re *regexp.Regexp, s string) ([]string, error) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: malformed %s action %q", ErrActionParse, verb(s), s)
	}
	return m, nil
}

// widgetID converts an id group ("3" or "#3"). The group is matched by
// #?\d+, so the only failure is an out-of-range number.
func widgetID(raw string) (int, error) {
	id, ok := hierarchy.NormalizeWidgetID(raw)
	if !ok {
		return 0, fmt.Errorf("%w: widget id %q out of range", ErrActionParse, raw)
	}
	return id, nil
}

// point converts two regexp digit groups. The groups are \d+, so Atoi only
// fails when a value is out of range for int.
func point(x, y string) (hierarchy.Point, error) {
	px, errX := strconv.Atoi(x)
	py, errY := strconv.Atoi(y)
	if errX != nil || errY != nil {
		return hierarchy.Point{}, fmt.Errorf("%w: coordinate (%s, %s) out of range", ErrActionParse, x, y)
	}
	return hierarchy.Point{X: px, Y: py}, nil
}
