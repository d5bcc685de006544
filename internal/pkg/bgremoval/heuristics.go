package bgremoval

import (
	"context"
	"fmt"
	"image/color"

	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
)

// thresholdStrategy: grey -> threshold -> invert -> alpha. Only works on
// subjects darker than a bright background.
type thresholdStrategy struct {
	level uint8
}

func (thresholdStrategy) Name() Method { return MethodThreshold }

func (s thresholdStrategy) Remove(_ context.Context, img *raster.Image) (*raster.Image, error) {
	mask := raster.Negate(raster.Threshold(raster.Greyscale(img), s.level))
	return raster.ApplyAlphaMask(img, mask)
}

// edgeStrategy keeps flat regions and drops outlines found by the Laplacian.
type edgeStrategy struct{}

func (edgeStrategy) Name() Method { return MethodEdge }

func (edgeStrategy) Remove(_ context.Context, img *raster.Image) (*raster.Image, error) {
	edges := raster.Convolve3x3(raster.Greyscale(img), raster.EdgeKernel)
	mask := raster.Negate(raster.Threshold(edges, EdgeThreshold))
	return raster.ApplyAlphaMask(img, mask)
}

// colorStrategy keys out pixels close to a colour in Lab space.
type colorStrategy struct {
	key       color.NRGBA
	tolerance float64
}

func (colorStrategy) Name() Method { return MethodColor }

func (s colorStrategy) Remove(_ context.Context, img *raster.Image) (*raster.Image, error) {
	return raster.ApplyAlphaMask(img, raster.ColorKeyMask(img, s.key, s.tolerance))
}

// defaultStrategy is the edge heuristic with a pre-blur and a lower cut.
type defaultStrategy struct{}

func (defaultStrategy) Name() Method { return MethodDefault }

func (defaultStrategy) Remove(_ context.Context, img *raster.Image) (*raster.Image, error) {
	edges := raster.Convolve3x3(raster.Blur(raster.Greyscale(img), 1), raster.EdgeKernel)
	mask := raster.Negate(raster.Threshold(edges, DefaultEdgeThreshold))
	return raster.ApplyAlphaMask(img, mask)
}

// smartStrategy feathers its mask after thresholding. The mask is not
// inverted, so bright edges (or bright pixels without edge detection) are kept.
type smartStrategy struct {
	edgeDetection bool
	level         uint8
	blur          float64
	feather       float64
}

func newSmart(cfg SmartConfig) (Strategy, error) {
	s := smartStrategy{
		edgeDetection: true,
		level:         DefaultColorThreshold,
		blur:          DefaultSmartBlur,
		feather:       DefaultFeather,
	}
	if cfg.EdgeDetection != nil {
		s.edgeDetection = *cfg.EdgeDetection
	}
	if cfg.ColorThreshold != nil {
		if *cfg.ColorThreshold < 0 || *cfg.ColorThreshold > 255 {
			return nil, apperrors.Validationf("remove background", "colorThreshold must be within 0..255, got %d", *cfg.ColorThreshold)
		}
		s.level = uint8(*cfg.ColorThreshold)
	}
	if cfg.Blur != nil {
		if *cfg.Blur < 0 {
			return nil, apperrors.Validationf("remove background", "blur must not be negative, got %v", *cfg.Blur)
		}
		s.blur = *cfg.Blur
	}
	if cfg.Feather != nil {
		if *cfg.Feather < 0 {
			return nil, apperrors.Validationf("remove background", "feather must not be negative, got %v", *cfg.Feather)
		}
		s.feather = *cfg.Feather
	}
	return s, nil
}

func (smartStrategy) Name() Method { return MethodSmart }

func (s smartStrategy) Remove(_ context.Context, img *raster.Image) (*raster.Image, error) {
	grey := raster.Greyscale(img)
	var mask *raster.Image
	if s.edgeDetection {
		edges := raster.Convolve3x3(raster.Blur(grey, s.blur), raster.EdgeKernel)
		mask = raster.Threshold(edges, s.level)
	} else {
		mask = raster.Threshold(grey, s.level)
	}
	return raster.ApplyAlphaMask(img, raster.Blur(mask, s.feather))
}

// accurateStrategy delegates to the external matting model.
type accurateStrategy struct {
	seg Segmenter
}

func (accurateStrategy) Name() Method { return MethodAccurate }

func (s accurateStrategy) Remove(ctx context.Context, img *raster.Image) (*raster.Image, error) {
	out, err := s.seg.Segment(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("matting model: %w", err)
	}
	return out, nil
}
