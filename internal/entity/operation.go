package entity

import (
	"fmt"
	"image/color"
	"math"

	"github.com/ds124wfegd/image-studio/internal/pkg/bgremoval"
	"github.com/ds124wfegd/image-studio/internal/pkg/mask"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
)

type OperationKind string

const (
	KindResize           OperationKind = "resize"
	KindCrop             OperationKind = "crop"
	KindFilter           OperationKind = "filter"
	KindComposite        OperationKind = "composite"
	KindRotate           OperationKind = "rotate"
	KindFlip             OperationKind = "flip"
	KindColorAdjust      OperationKind = "color-adjust"
	KindColorSpace       OperationKind = "colorspace"
	KindChannelOp        OperationKind = "channel-op"
	KindMask             OperationKind = "mask"
	KindBorder           OperationKind = "border"
	KindWatermark        OperationKind = "watermark"
	KindRemoveBackground OperationKind = "remove-background"
	KindUnknown          OperationKind = "unknown"
)

// OperationSpec is one step of a pipeline. Each variant carries only the
// parameters of its kind.
type OperationSpec interface {
	Kind() OperationKind
	Validate() error
}

type Resize struct {
	Width  int
	Height int
	Fit    raster.Fit
}

func (Resize) Kind() OperationKind { return KindResize }

func (o Resize) Validate() error {
	if o.Width < 0 || o.Height < 0 || (o.Width == 0 && o.Height == 0) {
		return fmt.Errorf("resize: width and height must be > 0, got %dx%d", o.Width, o.Height)
	}
	switch o.Fit {
	case "", raster.FitCover, raster.FitFill, raster.FitInside:
		return nil
	}
	return fmt.Errorf("resize: unknown fit %q", o.Fit)
}

type Crop struct {
	Left   int
	Top    int
	Width  int
	Height int
}

func (Crop) Kind() OperationKind { return KindCrop }

func (o Crop) Validate() error {
	if o.Left < 0 || o.Top < 0 {
		return fmt.Errorf("crop: left and top must be >= 0")
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("crop: width and height must be > 0")
	}
	return nil
}

type FilterKind string

const (
	FilterBlur       FilterKind = "blur"
	FilterSharpen    FilterKind = "sharpen"
	FilterGreyscale  FilterKind = "greyscale"
	FilterBrightness FilterKind = "brightness"
	FilterContrast   FilterKind = "contrast"
)

// DefaultBlurSigma is the sigma of a bare "blur" step.
const DefaultBlurSigma = 2.0

// Filter: Magnitude is sigma for blur and sharpen (0 means mild, sigma 1)
// and a multiplier for brightness and contrast.
type Filter struct {
	Filter    FilterKind
	Magnitude float64
}

func (Filter) Kind() OperationKind { return KindFilter }

func (o Filter) Validate() error {
	if !finite(o.Magnitude) {
		return fmt.Errorf("filter %s: magnitude must be a finite number", o.Filter)
	}
	switch o.Filter {
	case FilterBlur, FilterSharpen:
		if o.Magnitude < 0 {
			return fmt.Errorf("filter %s: sigma must be >= 0", o.Filter)
		}
	case FilterBrightness, FilterContrast:
		if o.Magnitude < 0 {
			return fmt.Errorf("filter %s: multiplier must be >= 0", o.Filter)
		}
	case FilterGreyscale:
	default:
		return fmt.Errorf("unknown filter %q", o.Filter)
	}
	return nil
}

// Composite draws an encoded overlay image onto the current one.
type Composite struct {
	Overlay []byte
	Left    *int
	Top     *int
	Gravity string
	Blend   string
}

func (Composite) Kind() OperationKind { return KindComposite }

func (o Composite) Validate() error {
	if len(o.Overlay) == 0 {
		return fmt.Errorf("composite: overlay image is required")
	}
	if o.Blend != "" && !raster.ValidBlend(o.Blend) {
		return fmt.Errorf("composite: unknown blend %q", o.Blend)
	}
	if o.Gravity != "" && !raster.ValidGravity(o.Gravity) {
		return fmt.Errorf("composite: unknown gravity %q", o.Gravity)
	}
	return nil
}

type Rotate struct {
	Angle      float64
	Background color.NRGBA
}

func (Rotate) Kind() OperationKind { return KindRotate }

func (o Rotate) Validate() error {
	if !finite(o.Angle) {
		return fmt.Errorf("rotate: angle must be a finite number")
	}
	return nil
}

type FlipAxis string

const (
	AxisVertical   FlipAxis = "vertical"
	AxisHorizontal FlipAxis = "horizontal"
	AxisBoth       FlipAxis = "both"
)

// Flip mirrors the image. Vertical is a top to bottom flip, horizontal
// a left to right flop.
type Flip struct {
	Axis FlipAxis
}

func (Flip) Kind() OperationKind { return KindFlip }

func (o Flip) Validate() error {
	switch o.Axis {
	case AxisVertical, AxisHorizontal, AxisBoth:
		return nil
	}
	return fmt.Errorf("flip: unknown direction %q", o.Axis)
}

type ColorAdjustKind string

const (
	AdjustTint       ColorAdjustKind = "tint"
	AdjustGamma      ColorAdjustKind = "gamma"
	AdjustNegate     ColorAdjustKind = "negate"
	AdjustNormalize  ColorAdjustKind = "normalize"
	AdjustSaturation ColorAdjustKind = "saturation"
)

type ColorAdjust struct {
	Adjust ColorAdjustKind
	Value  float64
	Color  color.NRGBA
}

func (ColorAdjust) Kind() OperationKind { return KindColorAdjust }

func (o ColorAdjust) Validate() error {
	switch o.Adjust {
	case AdjustGamma:
		// те же границы, что и у sharp
		if !finite(o.Value) || o.Value < 1 || o.Value > 3 {
			return fmt.Errorf("gamma must be within 1.0..3.0, got %v", o.Value)
		}
	case AdjustSaturation:
		if !finite(o.Value) || o.Value < 0 {
			return fmt.Errorf("saturation must be >= 0, got %v", o.Value)
		}
	case AdjustTint, AdjustNegate, AdjustNormalize:
	default:
		return fmt.Errorf("unknown color adjustment %q", o.Adjust)
	}
	return nil
}

type ColorSpace struct {
	Space string
}

func (ColorSpace) Kind() OperationKind { return KindColorSpace }

func (o ColorSpace) Validate() error {
	switch o.Space {
	case raster.ColourspaceSRGB, raster.ColourspaceBW:
		return nil
	}
	return fmt.Errorf("unsupported colourspace %q", o.Space)
}

type ChannelOpKind string

const (
	ChannelRemoveAlpha ChannelOpKind = "remove-alpha"
	ChannelEnsureAlpha ChannelOpKind = "ensure-alpha"
	ChannelExtract     ChannelOpKind = "extract"
	ChannelBandBool    ChannelOpKind = "bandbool"
)

type ChannelOp struct {
	Op      ChannelOpKind
	Channel string
	BoolOp  string
}

func (ChannelOp) Kind() OperationKind { return KindChannelOp }

func (o ChannelOp) Validate() error {
	switch o.Op {
	case ChannelRemoveAlpha, ChannelEnsureAlpha:
	case ChannelExtract:
		switch o.Channel {
		case "red", "green", "blue", "alpha":
		default:
			return fmt.Errorf("extract: unknown channel %q", o.Channel)
		}
	case ChannelBandBool:
		switch o.BoolOp {
		case raster.BoolAnd, raster.BoolOr, raster.BoolEor:
		default:
			return fmt.Errorf("bandbool: unknown operation %q", o.BoolOp)
		}
	default:
		return fmt.Errorf("unknown channel operation %q", o.Op)
	}
	return nil
}

type Mask struct {
	Shape      mask.Shape
	Radius     *float64
	Background color.NRGBA
}

func (Mask) Kind() OperationKind { return KindMask }

func (o Mask) Validate() error {
	if _, err := mask.ParseShape(string(o.Shape)); err != nil {
		return err
	}
	if o.Radius != nil && (!finite(*o.Radius) || *o.Radius < 0) {
		return fmt.Errorf("mask: radius must be >= 0, got %v", *o.Radius)
	}
	return nil
}

func (o Mask) Spec() mask.Spec {
	return mask.Spec{Shape: o.Shape, Radius: o.Radius, Background: o.Background}
}

type Border struct {
	Width  int
	Height int
	Color  color.NRGBA
}

func (Border) Kind() OperationKind { return KindBorder }

func (o Border) Validate() error {
	if o.Width <= 0 {
		return fmt.Errorf("border: width must be > 0")
	}
	if o.Height < 0 {
		return fmt.Errorf("border: height must be >= 0")
	}
	return nil
}

// Watermark defaults
const (
	DefaultFontSize = 48
	DefaultOpacity  = 0.7
	DefaultPosition = "southeast"
)

type Watermark struct {
	Text  string
	Style raster.TextStyle
}

func (Watermark) Kind() OperationKind { return KindWatermark }

func (o Watermark) Validate() error {
	if o.Text == "" {
		return fmt.Errorf("watermark: text is required")
	}
	if o.Style.FontSize <= 0 {
		return fmt.Errorf("watermark: font size must be > 0")
	}
	if !finite(o.Style.Opacity) || o.Style.Opacity < 0 || o.Style.Opacity > 1 {
		return fmt.Errorf("watermark: opacity must be within 0..1, got %v", o.Style.Opacity)
	}
	if !raster.ValidGravity(o.Style.Position) {
		return fmt.Errorf("watermark: unknown position %q", o.Style.Position)
	}
	return nil
}

type RemoveBackground struct {
	Config bgremoval.Config
}

func (RemoveBackground) Kind() OperationKind { return KindRemoveBackground }

func (o RemoveBackground) Validate() error {
	method, err := bgremoval.ParseMethod(string(o.Config.Method))
	if err != nil {
		return err
	}
	if method == bgremoval.MethodAccurate {
		// сегментатор подключается исполнителем
		return nil
	}
	_, err = bgremoval.New(o.Config, nil)
	return err
}

// Unknown is an operation name nobody recognised.
type Unknown struct {
	Name string
}

func (Unknown) Kind() OperationKind { return KindUnknown }

func (o Unknown) Validate() error {
	return fmt.Errorf("unknown operation %q", o.Name)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
