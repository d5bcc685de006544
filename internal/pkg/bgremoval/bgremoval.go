package bgremoval

import (
	"context"
	"fmt"
	"image/color"

	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
)

// Method selects a removal strategy.
type Method string

const (
	MethodThreshold Method = "threshold"
	MethodEdge      Method = "edge"
	MethodColor     Method = "color"
	MethodDefault   Method = "default"
	MethodSmart     Method = "smart"
	MethodAccurate  Method = "accurate"
)

const (
	DefaultThreshold      = 128
	EdgeThreshold         = 50
	DefaultEdgeThreshold  = 30
	DefaultTolerance      = 10.0
	DefaultColorThreshold = 50
	DefaultSmartBlur      = 1.0
	DefaultFeather        = 2.0
)

// DefaultKeyColor is keyed out by the color method when no colour is given.
var DefaultKeyColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "", MethodDefault:
		return MethodDefault, nil
	case MethodThreshold, MethodEdge, MethodColor, MethodSmart, MethodAccurate:
		return Method(s), nil
	}
	return "", fmt.Errorf("unknown background removal method %q", s)
}

// Config selects and tunes a strategy. Zero values mean the documented defaults.
type Config struct {
	Method    Method
	Threshold int
	Color     *color.NRGBA
	Tolerance float64
	Smart     SmartConfig
}

// SmartConfig tunes the smart strategy; nil fields take their defaults
// (edge detection on, threshold 50, blur 1, feather 2).
type SmartConfig struct {
	EdgeDetection  *bool
	ColorThreshold *int
	Blur           *float64
	Feather        *float64
}

// Strategy produces an alpha bearing image with the background removed.
type Strategy interface {
	Name() Method
	Remove(ctx context.Context, img *raster.Image) (*raster.Image, error)
}

// Segmenter is the external matting model used by the accurate method.
type Segmenter interface {
	Segment(ctx context.Context, img *raster.Image) (*raster.Image, error)
}

// New builds the strategy for cfg. seg is only needed for MethodAccurate.
func New(cfg Config, seg Segmenter) (Strategy, error) {
	method, err := ParseMethod(string(cfg.Method))
	if err != nil {
		return nil, apperrors.Validation("remove background", err)
	}

	switch method {
	case MethodThreshold:
		level := cfg.Threshold
		if level == 0 {
			level = DefaultThreshold
		}
		if level < 0 || level > 255 {
			return nil, apperrors.Validationf("remove background", "threshold must be within 0..255, got %d", level)
		}
		return thresholdStrategy{level: uint8(level)}, nil
	case MethodEdge:
		return edgeStrategy{}, nil
	case MethodColor:
		key := DefaultKeyColor
		if cfg.Color != nil {
			key = *cfg.Color
		}
		tolerance := cfg.Tolerance
		if tolerance == 0 {
			tolerance = DefaultTolerance
		}
		if tolerance < 0 {
			return nil, apperrors.Validationf("remove background", "tolerance must not be negative, got %v", tolerance)
		}
		return colorStrategy{key: key, tolerance: tolerance}, nil
	case MethodSmart:
		return newSmart(cfg.Smart)
	case MethodAccurate:
		if seg == nil {
			return nil, apperrors.Processing(string(MethodAccurate), fmt.Errorf("no matting model configured"))
		}
		return accurateStrategy{seg: seg}, nil
	}
	return defaultStrategy{}, nil
}

// Remove runs the strategy selected by cfg. Failures are processing errors
// naming the strategy.
func Remove(ctx context.Context, img *raster.Image, cfg Config, seg Segmenter) (*raster.Image, error) {
	s, err := New(cfg, seg)
	if err != nil {
		return nil, err
	}
	out, err := s.Remove(ctx, img)
	if err != nil {
		return nil, apperrors.Processing(string(s.Name())+" background removal", err)
	}
	return out, nil
}
