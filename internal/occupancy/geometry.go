// Package occupancy turns per-spot pixel counts into persisted spot
// status.  It owns the spot geometry table, the geometry-to-label
// mapping, the reconciliation rules and the frame loop that ties a
// frame source, classifier, renderer and sink together.  The package
// has no image-processing dependency; internal/vision supplies the
// gocv implementations of its interfaces.
package occupancy

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Reference region size the default threshold was tuned for.
const (
	DefaultSpotWidth  = 103
	DefaultSpotHeight = 43
)

// Geometry is one fixed rectangle of the camera image.  Index is the
// position in the geometry file and never changes after load.
type Geometry struct {
	Index  int
	X, Y   int
	Width  int
	Height int
}

// Rect returns the geometry as an image rectangle.
func (g Geometry) Rect() image.Rectangle {
	return image.Rect(g.X, g.Y, g.X+g.Width, g.Y+g.Height)
}

// geometryFile is the on-disk layout:
//
//	width: 103
//	height: 43
//	spots:
//	  - {x: 29, y: 191}
//	  - {x: 160, y: 140, width: 110}
type geometryFile struct {
	Width  int            `yaml:"width"`
	Height int            `yaml:"height"`
	Spots  []geometrySpot `yaml:"spots"`
}

type geometrySpot struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ErrNoGeometry is returned when a geometry file lists no spots.
var ErrNoGeometry = errors.New("geometry table is empty")

// LoadGeometry reads and validates the geometry table at path.
func LoadGeometry(path string) ([]Geometry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geometry %s: %w", path, err)
	}
	g, err := ParseGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("geometry %s: %w", path, err)
	}
	return g, nil
}

// ParseGeometry decodes a YAML geometry table.  Spots without an explicit
// size inherit the file-level width and height, which in turn default to
// 103x43.
func ParseGeometry(raw []byte) ([]Geometry, error) {
	var f geometryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	if f.Width == 0 {
		f.Width = DefaultSpotWidth
	}
	if f.Height == 0 {
		f.Height = DefaultSpotHeight
	}
	if len(f.Spots) == 0 {
		return nil, ErrNoGeometry
	}
	out := make([]Geometry, 0, len(f.Spots))
	for i, s := range f.Spots {
		g := Geometry{Index: i, X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
		if g.Width == 0 {
			g.Width = f.Width
		}
		if g.Height == 0 {
			g.Height = f.Height
		}
		if g.X < 0 || g.Y < 0 {
			return nil, fmt.Errorf("spot %d: negative origin (%d,%d)", i, g.X, g.Y)
		}
		if g.Width <= 0 || g.Height <= 0 {
			return nil, fmt.Errorf("spot %d: non-positive size %dx%d", i, g.Width, g.Height)
		}
		out = append(out, g)
	}
	return out, nil
}

// LabeledGeometry pairs a geometry with the label it is seeded under.
type LabeledGeometry struct {
	Label string
	Geometry
}

// ColumnLabels assigns seed labels to a geometry table: rectangles are
// sorted left to right (then top to bottom) and split into three equal
// columns A, B and C, numbered from 1.  Any remainder lands in C.
func ColumnLabels(geoms []Geometry) []LabeledGeometry {
	sorted := make([]Geometry, len(geoms))
	copy(sorted, geoms)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})
	per := len(sorted) / 3
	out := make([]LabeledGeometry, 0, len(sorted))
	for i, g := range sorted {
		var label string
		switch {
		case i < per:
			label = fmt.Sprintf("A%d", i+1)
		case i < per*2:
			label = fmt.Sprintf("B%d", i-per+1)
		default:
			label = fmt.Sprintf("C%d", i-per*2+1)
		}
		out = append(out, LabeledGeometry{Label: label, Geometry: g})
	}
	return out
}
