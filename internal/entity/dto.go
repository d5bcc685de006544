package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"

	"github.com/ds124wfegd/image-studio/internal/pkg/bgremoval"
	"github.com/ds124wfegd/image-studio/internal/pkg/mask"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
)

// OperationDTO is the wire form of an operation, used by the HTTP pipeline
// endpoint and by queued tasks. A bare JSON string such as "blur:3" is
// accepted as {"type": "blur:3"}.
type OperationDTO struct {
	Type string `json:"type"`

	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Left   *int   `json:"left,omitempty"`
	Top    *int   `json:"top,omitempty"`
	Fit    string `json:"fit,omitempty"`

	// kind внутри типа: blur, gamma, extract ...
	Kind  string   `json:"kind,omitempty"`
	Value *float64 `json:"value,omitempty"`

	Angle      float64 `json:"angle,omitempty"`
	Axis       string  `json:"axis,omitempty"`
	Color      string  `json:"color,omitempty"`
	Background string  `json:"background,omitempty"`
	Space      string  `json:"space,omitempty"`
	Channel    string  `json:"channel,omitempty"`
	BoolOp     string  `json:"boolOp,omitempty"`

	Overlay []byte `json:"overlay,omitempty"`
	Gravity string `json:"gravity,omitempty"`
	Blend   string `json:"blend,omitempty"`

	Shape  string   `json:"shape,omitempty"`
	Radius *float64 `json:"radius,omitempty"`

	Text     string   `json:"text,omitempty"`
	FontSize int      `json:"fontSize,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Position string   `json:"position,omitempty"`

	Method         string   `json:"method,omitempty"`
	Threshold      int      `json:"threshold,omitempty"`
	Tolerance      float64  `json:"tolerance,omitempty"`
	EdgeDetection  *bool    `json:"edgeDetection,omitempty"`
	ColorThreshold *int     `json:"colorThreshold,omitempty"`
	Blur           *float64 `json:"blur,omitempty"`
	Feather        *float64 `json:"feather,omitempty"`
}

type operationDTOAlias OperationDTO

func (d *OperationDTO) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*d = OperationDTO{Type: name}
		return nil
	}
	var alias operationDTOAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*d = OperationDTO(alias)
	return nil
}

// ToSpec converts the DTO into a validated operation. Types that are not
// one of the operation kinds go through the named syntax, so unknown names
// come back as Unknown rather than an error.
func (d OperationDTO) ToSpec() (OperationSpec, error) {
	op, err := d.toSpec()
	if err != nil {
		return nil, err
	}
	if _, unknown := op.(Unknown); unknown {
		return op, nil
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return op, nil
}

func (d OperationDTO) toSpec() (OperationSpec, error) {
	switch OperationKind(d.Type) {
	case KindResize:
		return Resize{Width: d.Width, Height: d.Height, Fit: raster.Fit(d.Fit)}, nil
	case KindCrop:
		return Crop{Left: deref(d.Left), Top: deref(d.Top), Width: d.Width, Height: d.Height}, nil
	case KindFilter:
		return Filter{Filter: FilterKind(d.Kind), Magnitude: filterMagnitude(FilterKind(d.Kind), d.Value)}, nil
	case KindComposite:
		return Composite{Overlay: d.Overlay, Left: d.Left, Top: d.Top, Gravity: d.Gravity, Blend: d.Blend}, nil
	case KindRotate:
		bg, err := colorOr(d.Background, white)
		return Rotate{Angle: d.Angle, Background: bg}, err
	case KindFlip:
		// bare "flip" is the named top to bottom flip
		axis := FlipAxis(d.Axis)
		if axis == "" {
			axis = AxisVertical
		}
		return Flip{Axis: axis}, nil
	case KindColorAdjust:
		return d.colorAdjust()
	case KindColorSpace:
		return ColorSpace{Space: d.Space}, nil
	case KindChannelOp:
		return ChannelOp{Op: ChannelOpKind(d.Kind), Channel: d.Channel, BoolOp: d.BoolOp}, nil
	case KindMask:
		bg, err := colorOr(d.Background, white)
		return Mask{Shape: mask.Shape(d.Shape), Radius: d.Radius, Background: bg}, err
	case KindBorder:
		c, err := colorOr(d.Color, black)
		h := d.Height
		if h == 0 {
			h = d.Width
		}
		return Border{Width: d.Width, Height: h, Color: c}, err
	case KindWatermark:
		return d.watermark()
	case KindRemoveBackground:
		return d.removeBackground()
	}
	return ParseNamed(d.Type)
}

func (d OperationDTO) colorAdjust() (OperationSpec, error) {
	op := ColorAdjust{Adjust: ColorAdjustKind(d.Kind)}
	switch op.Adjust {
	case AdjustTint:
		c, err := raster.ParseColor(d.Color)
		if err != nil {
			return nil, fmt.Errorf("tint: %w", err)
		}
		op.Color = c
	case AdjustGamma:
		op.Value = valueOr(d.Value, 2.2)
	case AdjustSaturation:
		op.Value = valueOr(d.Value, 1)
	}
	return op, nil
}

func (d OperationDTO) watermark() (OperationSpec, error) {
	c, err := colorOr(d.Color, white)
	if err != nil {
		return nil, err
	}
	style := raster.TextStyle{
		FontSize: d.FontSize,
		Color:    c,
		Opacity:  valueOr(d.Opacity, DefaultOpacity),
		Position: d.Position,
	}
	if style.FontSize == 0 {
		style.FontSize = DefaultFontSize
	}
	if style.Position == "" {
		style.Position = DefaultPosition
	}
	return Watermark{Text: d.Text, Style: style}, nil
}

func (d OperationDTO) removeBackground() (OperationSpec, error) {
	cfg := bgremoval.Config{
		Method:    bgremoval.Method(d.Method),
		Threshold: d.Threshold,
		Tolerance: d.Tolerance,
		Smart: bgremoval.SmartConfig{
			EdgeDetection:  d.EdgeDetection,
			ColorThreshold: d.ColorThreshold,
			Blur:           d.Blur,
			Feather:        d.Feather,
		},
	}
	if d.Color != "" {
		c, err := raster.ParseColor(d.Color)
		if err != nil {
			return nil, err
		}
		cfg.Color = &c
	}
	return RemoveBackground{Config: cfg}, nil
}

// ToSpecs converts a list, stopping at the first invalid operation.
func ToSpecs(dtos []OperationDTO) ([]OperationSpec, error) {
	ops := make([]OperationSpec, 0, len(dtos))
	for i, d := range dtos {
		op, err := d.ToSpec()
		if err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, d.Type, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func filterMagnitude(kind FilterKind, v *float64) float64 {
	switch kind {
	case FilterBlur:
		return valueOr(v, DefaultBlurSigma)
	case FilterBrightness, FilterContrast:
		return valueOr(v, 1)
	}
	return valueOr(v, 0)
}

func colorOr(s string, def color.NRGBA) (color.NRGBA, error) {
	if s == "" {
		return def, nil
	}
	return raster.ParseColor(s)
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
