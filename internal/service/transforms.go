package service

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/bgremoval"
	"github.com/ds124wfegd/image-studio/internal/pkg/matting"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
)

func (s *imageService) Info(ctx context.Context, up Upload) (raster.Info, error) {
	img, err := s.decode("info", up)
	if err != nil {
		return raster.Info{}, err
	}
	info := img.Info()
	info.Size = len(up.Data)
	return info, nil
}

func (s *imageService) Resize(ctx context.Context, up Upload, op entity.Resize) (string, error) {
	if op.Fit == "" {
		op.Fit = raster.FitCover
	}
	return s.transform(ctx, "resize", "resized", up, jpegOutput, op)
}

// Convert re-encodes the upload. Only jpeg and png can be written, webp is
// accepted by name but rejected as decode only.
func (s *imageService) Convert(ctx context.Context, up Upload, format string) (string, error) {
	f, err := raster.ParseFormat(format)
	if err != nil {
		return "", apperrors.Validation("convert", err)
	}
	switch f {
	case raster.FormatJPEG, raster.FormatPNG:
	case raster.FormatWEBP:
		return "", apperrors.Validation("convert", raster.ErrEncodeOnlyDecode)
	default:
		return "", apperrors.Validationf("convert", "format must be jpeg, png or webp, got %q", format)
	}

	img, err := s.decode("convert", up)
	if err != nil {
		return "", err
	}
	out := output{format: f}
	if f == raster.FormatJPEG {
		out.quality = raster.DefaultJPEGQuality
	}
	return s.store(ctx, "convert", s.filename("converted", "", f), img, out, up.Name)
}

func (s *imageService) Filters(ctx context.Context, up Upload, opts FilterOptions) (string, error) {
	var ops []entity.OperationSpec
	if opts.Blur != nil {
		ops = append(ops, entity.Filter{Filter: entity.FilterBlur, Magnitude: *opts.Blur})
	}
	if opts.Sharpen {
		ops = append(ops, entity.Filter{Filter: entity.FilterSharpen})
	}
	if opts.Greyscale {
		ops = append(ops, entity.Filter{Filter: entity.FilterGreyscale})
	}
	if opts.Brightness != nil {
		ops = append(ops, entity.Filter{Filter: entity.FilterBrightness, Magnitude: *opts.Brightness})
	}
	if opts.Contrast != nil {
		ops = append(ops, entity.Filter{Filter: entity.FilterContrast, Magnitude: *opts.Contrast})
	}
	return s.transform(ctx, "filters", "filtered", up, jpegOutput, ops...)
}

func (s *imageService) Crop(ctx context.Context, up Upload, op entity.Crop) (string, error) {
	return s.transform(ctx, "crop", "cropped", up, jpegOutput, op)
}

func (s *imageService) Watermark(ctx context.Context, up Upload, op entity.Watermark) (string, error) {
	return s.transform(ctx, "watermark", "watermark", up, jpegOutput, op)
}

func (s *imageService) Border(ctx context.Context, up Upload, op entity.Border) (string, error) {
	if op.Height == 0 {
		op.Height = op.Width
	}
	return s.transform(ctx, "border", "border", up, jpegOutput, op)
}

func (s *imageService) Mask(ctx context.Context, up Upload, op entity.Mask) (string, error) {
	return s.transform(ctx, "mask", "mask", up, pngOutput, op)
}

func (s *imageService) Rotate(ctx context.Context, up Upload, op entity.Rotate) (string, error) {
	return s.transform(ctx, "rotate", "rotate", up, jpegOutput, op)
}

func (s *imageService) Flip(ctx context.Context, up Upload, op entity.Flip) (string, error) {
	return s.transform(ctx, "flip", "rotate_flip", up, jpegOutput, op)
}

func (s *imageService) RotateTransform(ctx context.Context, up Upload, opts RotateTransformOptions) (string, error) {
	var ops []entity.OperationSpec
	if opts.Angle != 0 {
		ops = append(ops, entity.Rotate{Angle: opts.Angle, Background: opts.Background})
	}
	switch {
	case opts.Flip && opts.Flop:
		ops = append(ops, entity.Flip{Axis: entity.AxisBoth})
	case opts.Flip:
		ops = append(ops, entity.Flip{Axis: entity.AxisVertical})
	case opts.Flop:
		ops = append(ops, entity.Flip{Axis: entity.AxisHorizontal})
	}
	return s.transform(ctx, "rotate-transform", "rotate_transform", up, jpegOutput, ops...)
}

func (s *imageService) AdjustColor(ctx context.Context, up Upload, opts ColorOptions) (string, error) {
	var ops []entity.OperationSpec
	if opts.Tint != nil {
		ops = append(ops, entity.ColorAdjust{Adjust: entity.AdjustTint, Color: *opts.Tint})
	}
	if opts.Gamma != nil {
		ops = append(ops, entity.ColorAdjust{Adjust: entity.AdjustGamma, Value: *opts.Gamma})
	}
	if opts.Saturation != nil {
		ops = append(ops, entity.ColorAdjust{Adjust: entity.AdjustSaturation, Value: *opts.Saturation})
	}
	if opts.Negate {
		ops = append(ops, entity.ColorAdjust{Adjust: entity.AdjustNegate})
	}
	if opts.Normalize {
		ops = append(ops, entity.ColorAdjust{Adjust: entity.AdjustNormalize})
	}
	return s.transform(ctx, "color", "color_adjust", up, jpegOutput, ops...)
}

func (s *imageService) Colorspace(ctx context.Context, up Upload, op entity.ColorSpace) (string, error) {
	return s.transform(ctx, "colorspace", "color_space", up, jpegOutput, op)
}

// Channels stores PNG when the result is a single channel or lost its
// alpha on purpose, JPEG otherwise.
func (s *imageService) Channels(ctx context.Context, up Upload, opts ChannelOptions) (string, error) {
	var ops []entity.OperationSpec
	if opts.RemoveAlpha {
		ops = append(ops, entity.ChannelOp{Op: entity.ChannelRemoveAlpha})
	}
	if opts.EnsureAlpha {
		ops = append(ops, entity.ChannelOp{Op: entity.ChannelEnsureAlpha})
	}
	if opts.Extract != "" {
		ops = append(ops, entity.ChannelOp{Op: entity.ChannelExtract, Channel: opts.Extract})
	}
	if opts.BandBool != "" {
		ops = append(ops, entity.ChannelOp{Op: entity.ChannelBandBool, BoolOp: opts.BandBool})
	}

	out := jpegOutput
	if opts.Extract != "" || opts.RemoveAlpha {
		out = pngOutput
	}
	return s.transform(ctx, "channels", "channel_ops", up, out, ops...)
}

// RemoveBackground runs one of the heuristic strategies, or the matting
// model when cfg asks for the accurate method.
func (s *imageService) RemoveBackground(ctx context.Context, up Upload, cfg bgremoval.Config) (string, error) {
	tag := "bg_removed"
	if cfg.Method == bgremoval.MethodSmart {
		tag = "smart_bg_removed"
	}
	return s.transform(ctx, "remove-background", tag, up, pngOutput, entity.RemoveBackground{Config: cfg})
}

// RemoveBackgroundModel cuts the subject out with the external matting model.
func (s *imageService) RemoveBackgroundModel(ctx context.Context, up Upload, opts ModelOptions) (string, error) {
	const op = "bg-removal"
	if opts.Format == "" {
		opts.Format = raster.FormatPNG
	}
	if !opts.Format.Encodable() {
		return "", apperrors.Validationf(op, "output format %q cannot be written", opts.Format)
	}
	if opts.Quality < 0 || opts.Quality > 100 {
		return "", apperrors.Validationf(op, "quality must be within 1..100, got %d", opts.Quality)
	}

	img, err := s.decode(op, up)
	if err != nil {
		return "", err
	}
	var seg bgremoval.Segmenter
	if s.matting != nil {
		seg = bgremoval.ModelSegmenter{
			Client:  s.matting,
			Options: mattingOptions(opts),
		}
	}
	out, err := bgremoval.Remove(ctx, img, bgremoval.Config{Method: bgremoval.MethodAccurate}, seg)
	if err != nil {
		return "", err
	}
	return s.store(ctx, op, s.filename("bg-removed", up.Name, opts.Format), out,
		output{format: opts.Format, quality: opts.Quality}, up.Name)
}

func mattingOptions(opts ModelOptions) matting.Options {
	return matting.Options{
		Model:   opts.Model,
		Format:  fmt.Sprintf("image/%s", raster.FormatPNG),
		Quality: opts.Quality,
	}
}
