package mask

import (
	"image/color"

	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
)

// Spec is a mask request. A nil or zero Radius means half the shorter side.
type Spec struct {
	Shape      Shape
	Radius     *float64
	Background color.NRGBA
}

// Apply keeps img inside the shape and fills everything else with the
// background colour. The output has the input size.
func Apply(img *raster.Image, spec Spec) (*raster.Image, error) {
	radius, err := ResolveRadius(spec.Radius, img.Width(), img.Height())
	if err != nil {
		return nil, err
	}
	path, err := Generate(spec.Shape, img.Width(), img.Height(), radius)
	if err != nil {
		return nil, err
	}
	coverage := raster.RasterizeCoverage(path, img.Width(), img.Height())
	return raster.MaskComposite(img, coverage, spec.Background)
}
