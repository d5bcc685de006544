package entity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
)

var (
	white = raster.MustParseColor("#ffffff")
	black = raster.MustParseColor("#000000")
)

// ParseNamed turns the short pipeline syntax ("greyscale", "blur:3",
// "resize:800x600") into an operation. Unrecognised names come back as
// Unknown; a recognised name with a malformed argument is an error.
func ParseNamed(s string) (OperationSpec, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(s), ":")
	name = strings.ToLower(strings.TrimSpace(name))
	arg = strings.TrimSpace(arg)

	var op OperationSpec
	switch name {
	case "greyscale", "grayscale":
		op = Filter{Filter: FilterGreyscale}
	case "negate":
		op = ColorAdjust{Adjust: AdjustNegate}
	case "normalize", "normalise":
		op = ColorAdjust{Adjust: AdjustNormalize}
	case "flip":
		op = Flip{Axis: AxisVertical}
	case "flop":
		op = Flip{Axis: AxisHorizontal}
	case "sharpen", "blur":
		kind, sigma := FilterKind(name), 0.0
		if kind == FilterBlur {
			sigma = DefaultBlurSigma
		}
		if hasArg {
			v, err := number(name, arg)
			if err != nil {
				return nil, err
			}
			sigma = v
		}
		return Filter{Filter: kind, Magnitude: sigma}, nil
	case "rotate":
		angle, err := number(name, arg)
		if err != nil {
			return nil, err
		}
		return Rotate{Angle: angle, Background: white}, nil
	case "gamma":
		g, err := number(name, arg)
		if err != nil {
			return nil, err
		}
		return ColorAdjust{Adjust: AdjustGamma, Value: g}, nil
	case "resize":
		w, h, err := dimensions(arg)
		if err != nil {
			return nil, fmt.Errorf("resize: %w", err)
		}
		return Resize{Width: w, Height: h}, nil
	default:
		return Unknown{Name: strings.TrimSpace(s)}, nil
	}

	if err := noArg(name, hasArg); err != nil {
		return nil, err
	}
	return op, nil
}

// ParseNamedList parses a comma separated list such as "greyscale,blur:1.5,flop".
func ParseNamedList(s string) ([]OperationSpec, error) {
	var ops []OperationSpec
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		op, err := ParseNamed(part)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func noArg(name string, hasArg bool) error {
	if hasArg {
		return fmt.Errorf("%s takes no argument", name)
	}
	return nil
}

func number(name, arg string) (float64, error) {
	if arg == "" {
		return 0, fmt.Errorf("%s needs an argument", name)
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, arg)
	}
	return v, nil
}

// dimensions parses "WxH"; either side may be empty to keep the aspect ratio.
func dimensions(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("%q is not WxH", s)
	}
	var w, h int
	var err error
	if ws != "" {
		if w, err = strconv.Atoi(ws); err != nil {
			return 0, 0, fmt.Errorf("bad width %q", ws)
		}
	}
	if hs != "" {
		if h, err = strconv.Atoi(hs); err != nil {
			return 0, 0, fmt.Errorf("bad height %q", hs)
		}
	}
	return w, h, nil
}
