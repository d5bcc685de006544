package mask

import (
	"fmt"
	"math"

	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
)

// Shape is the outline revealed by a mask.
type Shape string

const (
	Circle      Shape = "circle"
	RoundedRect Shape = "rounded"
	Star        Shape = "star"
)

// StarPoints is the number of vertices of the star outline (5 outer, 5 inner).
const StarPoints = 10

// innerRatio is the inner to outer radius ratio of the star.
const innerRatio = 0.5

// kappa places cubic control points so that four segments approximate a quarter ellipse each.
const kappa = 0.5522847498

func ParseShape(s string) (Shape, error) {
	switch s {
	case "circle":
		return Circle, nil
	case "rounded", "rounded-rect":
		return RoundedRect, nil
	case "star":
		return Star, nil
	}
	return "", fmt.Errorf("unknown mask shape %q", s)
}

// DefaultRadius is half the shorter image side.
func DefaultRadius(width, height int) float64 {
	return float64(min(width, height)) / 2
}

// ResolveRadius applies the default to a missing or zero radius.
func ResolveRadius(radius *float64, width, height int) (float64, error) {
	if radius == nil || *radius == 0 {
		return DefaultRadius(width, height), nil
	}
	if *radius < 0 || math.IsNaN(*radius) || math.IsInf(*radius, 0) {
		return 0, fmt.Errorf("mask radius must be a positive number, got %v", *radius)
	}
	return *radius, nil
}

// Generate builds the outline for shape on a width x height canvas. Pixels
// inside the outline keep the source, the rest reveal the background.
// A radius beyond half the shorter side is allowed and just grows the shape.
func Generate(shape Shape, width, height int, radius float64) (raster.Path, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("mask canvas must be positive, got %dx%d", width, height)
	}
	w, h := float64(width), float64(height)

	var p raster.Path
	switch shape {
	case Circle:
		ellipse(&p, w/2, h/2, radius, radius)
	case RoundedRect:
		roundedRect(&p, w, h, radius)
	case Star:
		star := StarVertices(width, height, radius)
		p.MoveTo(star[0])
		for _, v := range star[1:] {
			p.LineTo(v)
		}
		p.Close()
	default:
		return nil, fmt.Errorf("unknown mask shape %q", shape)
	}
	return p, nil
}

// StarVertices returns the 10 star vertices starting from the top point and
// going clockwise; even vertices lie on the outer radius, odd ones on half of it.
func StarVertices(width, height int, outer float64) []raster.Point {
	cx, cy := float64(width)/2, float64(height)/2
	points := make([]raster.Point, StarPoints)
	for i := range points {
		angle := float64(i) * math.Pi / 5
		r := outer
		if i%2 == 1 {
			r = outer * innerRatio
		}
		points[i] = raster.Point{
			X: cx + r*math.Cos(angle-math.Pi/2),
			Y: cy + r*math.Sin(angle-math.Pi/2),
		}
	}
	return points
}

func ellipse(p *raster.Path, cx, cy, rx, ry float64) {
	kx, ky := rx*kappa, ry*kappa
	p.MoveTo(raster.Point{X: cx + rx, Y: cy})
	p.CubeTo(raster.Point{X: cx + rx, Y: cy + ky}, raster.Point{X: cx + kx, Y: cy + ry}, raster.Point{X: cx, Y: cy + ry})
	p.CubeTo(raster.Point{X: cx - kx, Y: cy + ry}, raster.Point{X: cx - rx, Y: cy + ky}, raster.Point{X: cx - rx, Y: cy})
	p.CubeTo(raster.Point{X: cx - rx, Y: cy - ky}, raster.Point{X: cx - kx, Y: cy - ry}, raster.Point{X: cx, Y: cy - ry})
	p.CubeTo(raster.Point{X: cx + kx, Y: cy - ry}, raster.Point{X: cx + rx, Y: cy - ky}, raster.Point{X: cx + rx, Y: cy})
	p.Close()
}

// roundedRect insets the canvas by r on every side and rounds the corners
// with r, clamped to half the inner size. When the inset leaves no area the
// shape degenerates to the ellipse inscribed in the canvas.
func roundedRect(p *raster.Path, w, h, r float64) {
	iw, ih := w-2*r, h-2*r
	if iw <= 0 || ih <= 0 {
		ellipse(p, w/2, h/2, w/2, h/2)
		return
	}
	rx, ry := math.Min(r, iw/2), math.Min(r, ih/2)
	x0, y0, x1, y1 := r, r, r+iw, r+ih
	kx, ky := rx*kappa, ry*kappa

	p.MoveTo(raster.Point{X: x0 + rx, Y: y0})
	p.LineTo(raster.Point{X: x1 - rx, Y: y0})
	p.CubeTo(raster.Point{X: x1 - rx + kx, Y: y0}, raster.Point{X: x1, Y: y0 + ry - ky}, raster.Point{X: x1, Y: y0 + ry})
	p.LineTo(raster.Point{X: x1, Y: y1 - ry})
	p.CubeTo(raster.Point{X: x1, Y: y1 - ry + ky}, raster.Point{X: x1 - rx + kx, Y: y1}, raster.Point{X: x1 - rx, Y: y1})
	p.LineTo(raster.Point{X: x0 + rx, Y: y1})
	p.CubeTo(raster.Point{X: x0 + rx - kx, Y: y1}, raster.Point{X: x0, Y: y1 - ry + ky}, raster.Point{X: x0, Y: y1 - ry})
	p.LineTo(raster.Point{X: x0, Y: y0 + ry})
	p.CubeTo(raster.Point{X: x0, Y: y0 + ry - ky}, raster.Point{X: x0 + rx - kx, Y: y0}, raster.Point{X: x0 + rx, Y: y0})
	p.Close()
}

// Bounds returns the axis aligned box of every point on the path, control
// points included.
func Bounds(p raster.Path) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, s := range p {
		n := 0
		switch s.Verb {
		case raster.MoveTo, raster.LineTo:
			n = 1
		case raster.CubeTo:
			n = 3
		}
		for _, pt := range s.Points[:n] {
			minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
			minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
		}
	}
	return minX, minY, maxX, maxY
}
