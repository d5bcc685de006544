package processor

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/bgremoval"
	"github.com/ds124wfegd/image-studio/internal/pkg/mask"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
	"github.com/sirupsen/logrus"
)

// UnknownPolicy decides what happens to operations nobody recognises.
type UnknownPolicy string

const (
	PolicyFail UnknownPolicy = "fail"
	PolicySkip UnknownPolicy = "skip"
)

func ParsePolicy(s string) (UnknownPolicy, error) {
	switch UnknownPolicy(s) {
	case "", PolicyFail:
		return PolicyFail, nil
	case PolicySkip:
		return PolicySkip, nil
	}
	return "", fmt.Errorf("unknown operation policy %q (want fail or skip)", s)
}

// mild blur when no sigma was given
const defaultSigma = 1.0

type ImageProcessor interface {
	// Validate checks ops the way Apply does, without touching pixels.
	Validate(ops []entity.OperationSpec) error
	Apply(ctx context.Context, base *raster.Image, ops []entity.OperationSpec) (*raster.Image, error)
}

type imageProcessor struct {
	engine    *raster.Engine
	segmenter bgremoval.Segmenter
	policy    UnknownPolicy
}

// NewImageProcessor builds the pipeline executor. segmenter may be nil, then
// accurate background removal steps fail.
func NewImageProcessor(engine *raster.Engine, segmenter bgremoval.Segmenter, policy UnknownPolicy) ImageProcessor {
	if policy == "" {
		policy = PolicyFail
	}
	return &imageProcessor{engine: engine, segmenter: segmenter, policy: policy}
}

// Apply runs ops left to right, the output of one step feeding the next.
// Every operation is validated before the first step runs. Nothing of a
// failed run is returned.
func (p *imageProcessor) Apply(ctx context.Context, base *raster.Image, ops []entity.OperationSpec) (*raster.Image, error) {
	if base == nil {
		return nil, apperrors.Validation("pipeline", apperrors.ErrMissingPayload)
	}
	if err := p.Validate(ops); err != nil {
		return nil, err
	}

	img := base
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Processing("pipeline", fmt.Errorf("step %d (%s): %w", i, op.Kind(), err))
		}
		if u, ok := op.(entity.Unknown); ok {
			logrus.WithFields(logrus.Fields{"step": i, "operation": u.Name}).Warn("skipping unknown operation")
			continue
		}

		logrus.WithFields(logrus.Fields{
			"step":      i,
			"operation": op.Kind(),
			"width":     img.Width(),
			"height":    img.Height(),
		}).Debug("applying pipeline step")

		out, err := p.apply(ctx, img, op)
		if err != nil {
			return nil, apperrors.Processing("pipeline", fmt.Errorf("step %d (%s): %w", i, op.Kind(), err))
		}
		img = out
	}
	return img, nil
}

func (p *imageProcessor) Validate(ops []entity.OperationSpec) error {
	if len(ops) == 0 {
		return apperrors.Validationf("pipeline", "no operations given")
	}
	for i, op := range ops {
		if u, ok := op.(entity.Unknown); ok {
			if p.policy == PolicySkip {
				continue
			}
			return apperrors.Validation("pipeline",
				fmt.Errorf("step %d: %w %q", i, apperrors.ErrUnknownOperation, u.Name))
		}
		if err := op.Validate(); err != nil {
			return apperrors.Validation("pipeline", fmt.Errorf("step %d (%s): %w", i, op.Kind(), err))
		}
	}
	return nil
}

func (p *imageProcessor) apply(ctx context.Context, img *raster.Image, op entity.OperationSpec) (*raster.Image, error) {
	switch op := op.(type) {
	case entity.Resize:
		return raster.Resize(img, op.Width, op.Height, op.Fit)
	case entity.Crop:
		return raster.Crop(img, op.Left, op.Top, op.Width, op.Height)
	case entity.Filter:
		return applyFilter(img, op)
	case entity.Composite:
		overlay, err := p.engine.Decode(op.Overlay)
		if err != nil {
			return nil, fmt.Errorf("overlay: %w", err)
		}
		return raster.Composite(img, overlay, raster.CompositeOptions{
			Left:    op.Left,
			Top:     op.Top,
			Gravity: op.Gravity,
			Blend:   op.Blend,
		})
	case entity.Rotate:
		return raster.Rotate(img, op.Angle, op.Background), nil
	case entity.Flip:
		switch op.Axis {
		case entity.AxisVertical:
			return raster.Flip(img), nil
		case entity.AxisHorizontal:
			return raster.Flop(img), nil
		}
		return raster.Flop(raster.Flip(img)), nil
	case entity.ColorAdjust:
		return applyColorAdjust(img, op)
	case entity.ColorSpace:
		return raster.ToColourspace(img, op.Space)
	case entity.ChannelOp:
		return applyChannelOp(img, op)
	case entity.Mask:
		return mask.Apply(img, op.Spec())
	case entity.Border:
		return raster.Extend(img, op.Height, op.Width, op.Height, op.Width, op.Color)
	case entity.Watermark:
		return raster.DrawText(img, op.Text, op.Style)
	case entity.RemoveBackground:
		return bgremoval.Remove(ctx, img, op.Config, p.segmenter)
	}
	return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownOperation, op.Kind())
}

func applyFilter(img *raster.Image, op entity.Filter) (*raster.Image, error) {
	switch op.Filter {
	case entity.FilterBlur:
		sigma := op.Magnitude
		if sigma == 0 {
			sigma = defaultSigma
		}
		return raster.Blur(img, sigma), nil
	case entity.FilterSharpen:
		return raster.Sharpen(img, op.Magnitude), nil
	case entity.FilterGreyscale:
		return raster.Greyscale(img), nil
	case entity.FilterBrightness:
		return raster.Brightness(img, op.Magnitude)
	case entity.FilterContrast:
		return raster.Contrast(img, op.Magnitude)
	}
	return nil, fmt.Errorf("unknown filter %q", op.Filter)
}

func applyColorAdjust(img *raster.Image, op entity.ColorAdjust) (*raster.Image, error) {
	switch op.Adjust {
	case entity.AdjustTint:
		return raster.Tint(img, op.Color), nil
	case entity.AdjustGamma:
		return raster.Gamma(img, op.Value)
	case entity.AdjustNegate:
		return raster.Negate(img), nil
	case entity.AdjustNormalize:
		return raster.Normalize(img), nil
	case entity.AdjustSaturation:
		return raster.Saturation(img, op.Value)
	}
	return nil, fmt.Errorf("unknown color adjustment %q", op.Adjust)
}

func applyChannelOp(img *raster.Image, op entity.ChannelOp) (*raster.Image, error) {
	switch op.Op {
	case entity.ChannelRemoveAlpha:
		return raster.RemoveAlpha(img), nil
	case entity.ChannelEnsureAlpha:
		return raster.EnsureAlpha(img), nil
	case entity.ChannelExtract:
		return raster.ExtractChannel(img, op.Channel)
	case entity.ChannelBandBool:
		return raster.BandBool(img, op.BoolOp)
	}
	return nil, fmt.Errorf("unknown channel operation %q", op.Op)
}
