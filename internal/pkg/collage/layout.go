package collage

import (
	"errors"
	"fmt"
)

const (
	DefaultSpacing = 10
	MaxImages      = 20
)

var ErrNoImages = errors.New("collage needs at least one image")

// Size is the pixel size of one input image.
type Size struct {
	Width, Height int
}

// Placement is the top left offset of image Index on the canvas.
type Placement struct {
	Index int `json:"index"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

// Layout is a uniform grid: every cell is as large as the largest input in
// each direction and images sit in the top left corner of their cell without
// scaling or centring. Cells after the last image stay empty.
type Layout struct {
	Columns      int         `json:"columns"`
	Rows         int         `json:"rows"`
	CellWidth    int         `json:"cellWidth"`
	CellHeight   int         `json:"cellHeight"`
	Spacing      int         `json:"spacing"`
	CanvasWidth  int         `json:"canvasWidth"`
	CanvasHeight int         `json:"canvasHeight"`
	Placements   []Placement `json:"placements"`
}

// Compute lays out len(sizes) images in a grid of the given column count.
func Compute(sizes []Size, columns, spacing int) (Layout, error) {
	n := len(sizes)
	if n == 0 {
		return Layout{}, ErrNoImages
	}
	if columns < 1 {
		return Layout{}, fmt.Errorf("columns must be >= 1, got %d", columns)
	}
	if spacing < 0 {
		return Layout{}, fmt.Errorf("spacing must be >= 0, got %d", spacing)
	}

	l := Layout{
		Columns: columns,
		Rows:    (n + columns - 1) / columns,
		Spacing: spacing,
	}
	for i, s := range sizes {
		if s.Width <= 0 || s.Height <= 0 {
			return Layout{}, fmt.Errorf("image %d has invalid size %dx%d", i, s.Width, s.Height)
		}
		l.CellWidth = max(l.CellWidth, s.Width)
		l.CellHeight = max(l.CellHeight, s.Height)
	}
	l.CanvasWidth = l.CellWidth*columns + spacing*(columns+1)
	l.CanvasHeight = l.CellHeight*l.Rows + spacing*(l.Rows+1)

	l.Placements = make([]Placement, n)
	for k := range sizes {
		row, col := k/columns, k%columns
		l.Placements[k] = Placement{
			Index: k,
			X:     spacing + col*(l.CellWidth+spacing),
			Y:     spacing + row*(l.CellHeight+spacing),
		}
	}
	return l, nil
}
