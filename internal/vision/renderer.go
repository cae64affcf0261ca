package vision

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/iliyamo/parkease/internal/occupancy"
)

var (
	colorFree     = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	colorOccupied = color.RGBA{R: 200, G: 0, B: 0, A: 255}
	colorReserved = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	colorUnmapped = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	colorText     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Style returns the outline colour and thickness for a display state.
func Style(d occupancy.Display) (color.RGBA, int) {
	switch d {
	case occupancy.DisplayReserved:
		return colorReserved, 5
	case occupancy.DisplayFree:
		return colorFree, 5
	case occupancy.DisplayOccupied:
		return colorOccupied, 2
	}
	return colorUnmapped, 1
}

// Renderer draws spot outlines, labels and the free counter.
type Renderer struct {
	// CounterOrigin is the bottom-left corner of the "Free: K/N" text.
	CounterOrigin image.Point
}

// NewRenderer returns a Renderer with the counter at (50,60).
func NewRenderer() *Renderer {
	return &Renderer{CounterOrigin: image.Pt(50, 60)}
}

// Render implements occupancy.Renderer.
func (r *Renderer) Render(f occupancy.Frame, views []occupancy.SpotView, free, total int) error {
	vf, err := asFrame(f)
	if err != nil {
		return err
	}
	r.Draw(&vf.Mat, views, free, total)
	return nil
}

// Draw annotates img in place.
func (r *Renderer) Draw(img *gocv.Mat, views []occupancy.SpotView, free, total int) {
	for _, v := range views {
		c, thick := Style(v.Display)
		rect := v.Rect()
		gocv.Rectangle(img, rect, c, thick)
		gocv.PutText(img, v.Label, image.Pt(rect.Min.X+5, rect.Min.Y+25), gocv.FontHersheySimplex, 0.5, colorText, 2)
	}
	r.drawCounter(img, fmt.Sprintf("Free: %d/%d", free, total))
}

// drawCounter draws text on a filled green box padded by 20px.
func (r *Renderer) drawCounter(img *gocv.Mat, text string) {
	const (
		scale  = 3.0
		thick  = 3
		offset = 20
	)
	size := gocv.GetTextSize(text, gocv.FontHersheyPlain, scale, thick)
	o := r.CounterOrigin
	box := image.Rect(o.X-offset, o.Y-size.Y-offset, o.X+size.X+offset, o.Y+offset)
	gocv.Rectangle(img, box, colorFree, -1)
	gocv.PutText(img, text, o, gocv.FontHersheyPlain, scale, colorText, thick)
}
