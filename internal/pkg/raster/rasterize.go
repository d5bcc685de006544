package raster

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"
)

// Point is a position in pixel space; (0,0) is the top left corner of the
// top left pixel.
type Point struct {
	X, Y float64
}

// Verb identifies a path segment.
type Verb int

const (
	MoveTo Verb = iota
	LineTo
	CubeTo
	ClosePath
)

// Segment is one path command. CubeTo uses all three points (two controls
// then the end point), MoveTo and LineTo use the first.
type Segment struct {
	Verb   Verb
	Points [3]Point
}

// Path is a vector outline filled with the non-zero rule.
type Path []Segment

func (p *Path) MoveTo(pt Point) { *p = append(*p, Segment{Verb: MoveTo, Points: [3]Point{pt}}) }
func (p *Path) LineTo(pt Point) { *p = append(*p, Segment{Verb: LineTo, Points: [3]Point{pt}}) }
func (p *Path) CubeTo(c1, c2, end Point) {
	*p = append(*p, Segment{Verb: CubeTo, Points: [3]Point{c1, c2, end}})
}
func (p *Path) Close() { *p = append(*p, Segment{Verb: ClosePath}) }

// coverageCut is the minimum antialiased coverage for a pixel to count as inside.
const coverageCut = 128

// RasterizeCoverage fills the path into a binary width x height coverage
// field: 255 where at least half of the pixel is inside the outline, 0 elsewhere.
func RasterizeCoverage(path Path, width, height int) *image.Alpha {
	z := vector.NewRasterizer(width, height)
	for _, s := range path {
		switch s.Verb {
		case MoveTo:
			z.MoveTo(float32(s.Points[0].X), float32(s.Points[0].Y))
		case LineTo:
			z.LineTo(float32(s.Points[0].X), float32(s.Points[0].Y))
		case CubeTo:
			z.CubeTo(
				float32(s.Points[0].X), float32(s.Points[0].Y),
				float32(s.Points[1].X), float32(s.Points[1].Y),
				float32(s.Points[2].X), float32(s.Points[2].Y),
			)
		case ClosePath:
			z.ClosePath()
		}
	}

	dst := image.NewAlpha(image.Rect(0, 0, width, height))
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	for i, v := range dst.Pix {
		if v >= coverageCut {
			dst.Pix[i] = 0xFF
		} else {
			dst.Pix[i] = 0
		}
	}
	return dst
}

// CoverageImage renders a coverage field as a white on black grey image.
func CoverageImage(coverage *image.Alpha) *Image {
	out := image.NewNRGBA(coverage.Rect)
	draw.Draw(out, out.Rect, image.Black, image.Point{}, draw.Src)
	draw.DrawMask(out, out.Rect, image.White, image.Point{}, coverage, image.Point{}, draw.Over)
	return newImage(out, 1, FormatPNG)
}
