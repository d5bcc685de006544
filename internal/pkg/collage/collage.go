package collage

import (
	"fmt"
	"image/color"

	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
)

// Options are the collage request parameters. A nil Spacing means DefaultSpacing.
type Options struct {
	Columns    int
	Spacing    *int
	Background color.NRGBA
}

func (o Options) spacing() int {
	if o.Spacing == nil {
		return DefaultSpacing
	}
	return *o.Spacing
}

// Render composes decoded images onto one canvas filled with the background.
func Render(images []*raster.Image, opts Options) (*raster.Image, Layout, error) {
	sizes := make([]Size, len(images))
	for i, img := range images {
		sizes[i] = Size{Width: img.Width(), Height: img.Height()}
	}
	layout, err := Compute(sizes, opts.Columns, opts.spacing())
	if err != nil {
		return nil, Layout{}, err
	}

	bg := opts.Background
	bg.A = 255
	canvas, err := raster.Canvas(layout.CanvasWidth, layout.CanvasHeight, bg)
	if err != nil {
		return nil, Layout{}, fmt.Errorf("collage canvas: %w", err)
	}

	layers := make([]raster.Layer, len(layout.Placements))
	for i, p := range layout.Placements {
		layers[i] = raster.Layer{Image: images[p.Index], Left: p.X, Top: p.Y}
	}
	return raster.Stack(canvas, layers), layout, nil
}
