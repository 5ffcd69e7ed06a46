package replay

import (
	"errors"
	"fmt"
	"html/template"
	"image"
	"image/color"
	"image/draw"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/nextlevelbuilder/droidbench/internal/evaluator"
	"github.com/nextlevelbuilder/droidbench/pkg/action"
	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

const (
	// VisualizeHTML is the index page written by Visualize.
	VisualizeHTML = "visualize.html"

	markThickness = 2
	crossArm      = 10
)

var markColor = color.NRGBA{R: 255, A: 255}

// VisualizedFile returns the file name of the annotated screenshot of step i.
func VisualizedFile(i int) string { return "visualize_" + strconv.Itoa(i) + ".png" }

// Step is one entry of the visualization page.
type Step struct {
	Index       int
	Image       string
	Description string
}

var visualizeTmpl = template.Must(template.New("visualize").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Visualize</title></head>
<body>
{{- range .}}
<h2>Event {{.Index}}:</h2>
{{- if .Image}}
<img src="{{.Image}}">
{{- end}}
<p>{{.Description}}</p>
{{- end}}
</body>
</html>
`))

// Visualize draws every action of t onto the step screenshot {i}.png in dir
// and writes visualize_{i}.png plus visualize.html. Element actions get a
// rectangle, single coordinates a cross and every swipe the line of its
// gesture.
// Steps without a screenshot are listed without an image.
func Visualize(dir string, t *evaluator.Trace) ([]Step, error) {
	steps := make([]Step, 0, len(t.Actions))
	for i, a := range t.Actions {
		step := Step{Index: i, Description: a.Describe()}

		src, err := imaging.Open(filepath.Join(dir, ScreenshotFile(i)))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("replay: no screenshot for step", "dir", dir, "step", i)
		case err != nil:
			return nil, fmt.Errorf("open screenshot %d: %w", i, err)
		default:
			img := imaging.Clone(src)
			markAction(img, a)
			drawCaption(img, 10, 20, a.Describe())
			if err := imaging.Save(img, filepath.Join(dir, VisualizedFile(i))); err != nil {
				return nil, fmt.Errorf("save visualization %d: %w", i, err)
			}
			step.Image = VisualizedFile(i)
		}
		steps = append(steps, step)
	}

	f, err := os.Create(filepath.Join(dir, VisualizeHTML))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", VisualizeHTML, err)
	}
	defer f.Close()
	if err := visualizeTmpl.Execute(f, steps); err != nil {
		return nil, fmt.Errorf("render %s: %w", VisualizeHTML, err)
	}
	return steps, nil
}

func markAction(img *image.NRGBA, a action.Action) {
	if a.Element != nil {
		strokeRect(img, a.Element.Bounds)
	} else if len(a.Coords) == 1 {
		p := a.Coords[0]
		fillRect(img, image.Rect(p.X-crossArm, p.Y-markThickness/2, p.X+crossArm, p.Y+markThickness/2))
		fillRect(img, image.Rect(p.X-markThickness/2, p.Y-crossArm, p.X+markThickness/2, p.Y+crossArm))
	}
	// element swipes also get the gesture their direction implies
	if from, to, ok := a.Gesture(); ok {
		strokeLine(img, from, to)
		drawCaption(img, from.X, from.Y, "from")
		drawCaption(img, to.X, to.Y, "to")
	}
}

func fillRect(img *image.NRGBA, r image.Rectangle) {
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(markColor), image.Point{}, draw.Src)
}

func strokeRect(img *image.NRGBA, r hierarchy.Rect) {
	fillRect(img, image.Rect(r.X1, r.Y1, r.X2, r.Y1+markThickness))
	fillRect(img, image.Rect(r.X1, r.Y2-markThickness, r.X2, r.Y2))
	fillRect(img, image.Rect(r.X1, r.Y1, r.X1+markThickness, r.Y2))
	fillRect(img, image.Rect(r.X2-markThickness, r.Y1, r.X2, r.Y2))
}

// strokeLine plots a Bresenham line with square pen of markThickness.
func strokeLine(img *image.NRGBA, from, to hierarchy.Point) {
	x, y := from.X, from.Y
	dx, dy := abs(to.X-from.X), -abs(to.Y-from.Y)
	sx, sy := sign(to.X-from.X), sign(to.Y-from.Y)
	e := dx + dy
	for {
		fillRect(img, image.Rect(x, y, x+markThickness, y+markThickness))
		if x == to.X && y == to.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func drawCaption(img *image.NRGBA, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(markColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
