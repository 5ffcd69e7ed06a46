package hierarchy

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	boxThickness = 2
	labelPadding = 5
)

// capabilityColors maps the primary capability to its box/label color.
var capabilityColors = map[Capability]color.NRGBA{
	CapClick:     {R: 255, A: 255},
	CapSwipe:     {G: 255, A: 255},
	CapText:      {B: 255, A: 255},
	CapLongClick: {R: 255, B: 255, A: 255},
}

// primaryOrder decides which capability colors the bounding box.
var primaryOrder = []Capability{CapClick, CapSwipe, CapText, CapLongClick}

var labelText = color.NRGBA{R: 255, G: 250, B: 250, A: 255}

// DumpAnnotatedImage returns a copy of img with a bounding box and index label
// drawn for every interactable node. The source image is not modified.
func (h *Hierarchy) DumpAnnotatedImage(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)

	var walk func(pos int)
	walk = func(pos int) {
		n := h.nodes[pos]
		for _, c := range n.Children {
			walk(c)
		}
		id, ok := h.dumpIdx[pos]
		if !ok {
			return
		}
		w := h.widgets[id]
		if c, ok := primaryColor(w.Capabilities); ok {
			drawBox(out, w.Bounds, c)
		}
		label := strconv.Itoa(id)
		k := len(w.Capabilities)
		for i, capability := range w.Capabilities {
			x := (w.Bounds.X1*(i+1)+w.Bounds.X2*(k-i))/(k+1) + labelPadding
			y := (w.Bounds.Y1+w.Bounds.Y2)/2 + labelPadding
			drawLabel(out, x, y, label, capabilityColors[capability])
		}
	}
	for _, r := range h.roots {
		walk(r)
	}
	return out
}

func primaryColor(caps []Capability) (color.NRGBA, bool) {
	for _, want := range primaryOrder {
		for _, c := range caps {
			if c == want {
				return capabilityColors[want], true
			}
		}
	}
	return color.NRGBA{}, false
}

func drawBox(img *image.NRGBA, r Rect, c color.NRGBA) {
	u := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.X1, r.Y1, r.X2, r.Y1+boxThickness),
		image.Rect(r.X1, r.Y2-boxThickness, r.X2, r.Y2),
		image.Rect(r.X1, r.Y1, r.X1+boxThickness, r.Y2),
		image.Rect(r.X2-boxThickness, r.Y1, r.X2, r.Y2),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(img.Bounds()), u, image.Point{}, draw.Src)
	}
}

// drawLabel renders text with its baseline at (x, y) over a filled background.
func drawLabel(img *image.NRGBA, x, y int, text string, bg color.NRGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelText),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	width := d.MeasureString(text).Ceil()
	metrics := face.Metrics()
	box := image.Rect(
		x-labelPadding,
		y-metrics.Ascent.Ceil()-labelPadding,
		x+width+labelPadding,
		y+metrics.Descent.Ceil()+labelPadding,
	)
	bg.A = 180
	draw.Draw(img, box.Intersect(img.Bounds()), image.NewUniform(bg), image.Point{}, draw.Over)
	d.DrawString(text)
}
