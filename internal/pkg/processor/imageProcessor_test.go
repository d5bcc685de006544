package processor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/bgremoval"
	"github.com/ds124wfegd/image-studio/internal/pkg/mask"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T, policy UnknownPolicy) ImageProcessor {
	t.Helper()
	engine, err := raster.New(raster.Config{Concurrency: 2})
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return NewImageProcessor(engine, nil, policy)
}

// asymmetric строит изображение без осей симметрии: каждый пиксель уникален
func asymmetric(w, h int) *raster.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: uint8(x*7 + y*13), A: 255})
		}
	}
	return raster.FromImage(img, raster.FormatPNG)
}

// fillImageWithColor создает изображение одного цвета
func fillImageWithColor(w, h int, c color.NRGBA) *raster.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return raster.FromImage(img, raster.FormatPNG)
}

func named(t *testing.T, names ...string) []entity.OperationSpec {
	t.Helper()
	ops := make([]entity.OperationSpec, len(names))
	for i, n := range names {
		op, err := entity.ParseNamed(n)
		require.NoError(t, err)
		ops[i] = op
	}
	return ops
}

// TestFlipThenFlop сравнивает flip+flop с напрямую собранным эталоном
func TestFlipThenFlop(t *testing.T) {
	p := newTestProcessor(t, PolicyFail)
	src := asymmetric(5, 3)

	got, err := p.Apply(context.Background(), src, named(t, "flip", "flop"))
	require.NoError(t, err)

	want := raster.Flop(raster.Flip(src))
	assert.Equal(t, want.NRGBA().Pix, got.NRGBA().Pix)

	rotated := raster.Rotate(src, 180, color.NRGBA{})
	assert.Equal(t, rotated.NRGBA().Pix, got.NRGBA().Pix)

	// исходник не изменился
	assert.Equal(t, asymmetric(5, 3).NRGBA().Pix, src.NRGBA().Pix)
}

// TestUnknownOperationFailsFast закрепляет политику по умолчанию
func TestUnknownOperationFailsFast(t *testing.T) {
	p := newTestProcessor(t, PolicyFail)

	out, err := p.Apply(context.Background(), asymmetric(4, 4), named(t, "greyscale", "sepia", "flip"))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.ErrorIs(t, err, apperrors.ErrUnknownOperation)
	assert.Contains(t, err.Error(), "step 1")
}

// TestUnknownOperationSkipped закрепляет политику skip
func TestUnknownOperationSkipped(t *testing.T) {
	p := newTestProcessor(t, PolicySkip)
	src := asymmetric(4, 4)

	got, err := p.Apply(context.Background(), src, named(t, "greyscale", "sepia"))
	require.NoError(t, err)

	want := raster.Greyscale(src)
	assert.Equal(t, want.NRGBA().Pix, got.NRGBA().Pix)
	assert.Equal(t, 1, got.Channels())
}

func TestInvalidOperationRejectedBeforeRun(t *testing.T) {
	p := newTestProcessor(t, PolicySkip)

	ops := []entity.OperationSpec{
		entity.Filter{Filter: entity.FilterBlur, Magnitude: 1},
		entity.Crop{Width: 0, Height: 1},
	}
	_, err := p.Apply(context.Background(), asymmetric(4, 4), ops)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Contains(t, err.Error(), "step 1 (crop)")
}

func TestStepFailureIsProcessingError(t *testing.T) {
	p := newTestProcessor(t, PolicyFail)

	ops := []entity.OperationSpec{
		entity.Resize{Width: 10, Height: 10},
		entity.Crop{Left: 5, Top: 5, Width: 10, Height: 10},
	}
	out, err := p.Apply(context.Background(), asymmetric(20, 20), ops)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, apperrors.IsKind(err, apperrors.KindProcessing))
	assert.Contains(t, err.Error(), "step 1 (crop)")
}

func TestEmptyPipeline(t *testing.T) {
	p := newTestProcessor(t, PolicyFail)

	_, err := p.Apply(context.Background(), asymmetric(2, 2), nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = p.Apply(context.Background(), nil, named(t, "flip"))
	assert.ErrorIs(t, err, apperrors.ErrMissingPayload)
}

func TestCancelledContextStops(t *testing.T) {
	p := newTestProcessor(t, PolicyFail)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Apply(ctx, asymmetric(4, 4), named(t, "flip"))
	assert.True(t, errors.Is(err, context.Canceled))
	// отмена классифицируется как обычный сбой шага
	assert.True(t, apperrors.IsKind(err, apperrors.KindProcessing))
	assert.Contains(t, err.Error(), "step 0 (flip)")
}

// TestOperationOrderMatters проверяет, что порядок шагов сохраняется
func TestOperationOrderMatters(t *testing.T) {
	p := newTestProcessor(t, PolicyFail)
	src := fillImageWithColor(100, 50, color.NRGBA{R: 100, G: 150, B: 200, A: 255})
	crop := entity.Crop{Width: 40, Height: 20}

	resizeFirst, err := p.Apply(context.Background(), src, []entity.OperationSpec{entity.Resize{Width: 50}, crop})
	require.NoError(t, err)
	assert.Equal(t, 40, resizeFirst.Width())
	assert.Equal(t, 20, resizeFirst.Height())

	cropFirst, err := p.Apply(context.Background(), src, []entity.OperationSpec{crop, entity.Resize{Width: 50}})
	require.NoError(t, err)
	assert.Equal(t, 50, cropFirst.Width())
	assert.Equal(t, 25, cropFirst.Height())
}

// TestOperationTypes тестирует разные типы операций
func TestOperationTypes(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	overlay, err := raster.Encode(fillImageWithColor(2, 2, blue), raster.FormatPNG, raster.EncodeOptions{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		op    entity.OperationSpec
		check func(*testing.T, *raster.Image)
	}{
		{
			name: "resize operation",
			op:   entity.Resize{Width: 30, Height: 30},
			check: func(t *testing.T, img *raster.Image) {
				assert.Equal(t, 30, img.Width())
				assert.Equal(t, 30, img.Height())
			},
		},
		{
			name: "border operation",
			op:   entity.Border{Width: 2, Height: 3, Color: blue},
			check: func(t *testing.T, img *raster.Image) {
				assert.Equal(t, 14, img.Width())
				assert.Equal(t, 16, img.Height())
				assert.Equal(t, blue, img.NRGBA().NRGBAAt(0, 0))
				assert.Equal(t, red, img.NRGBA().NRGBAAt(7, 8))
			},
		},
		{
			name: "composite operation",
			op:   entity.Composite{Overlay: overlay, Gravity: "northwest"},
			check: func(t *testing.T, img *raster.Image) {
				assert.Equal(t, blue, img.NRGBA().NRGBAAt(0, 0))
				assert.Equal(t, red, img.NRGBA().NRGBAAt(9, 9))
			},
		},
		{
			name: "mask operation",
			op:   entity.Mask{Shape: mask.Circle, Background: blue},
			check: func(t *testing.T, img *raster.Image) {
				assert.Equal(t, 10, img.Width())
				assert.Equal(t, blue, img.NRGBA().NRGBAAt(0, 0))
				assert.Equal(t, red, img.NRGBA().NRGBAAt(5, 5))
			},
		},
		{
			name: "watermark operation",
			op: entity.Watermark{Text: "W", Style: raster.TextStyle{
				FontSize: 13, Color: blue, Opacity: 1, Position: "centre",
			}},
			check: func(t *testing.T, img *raster.Image) {
				assert.Equal(t, 10, img.Width())
				assert.Equal(t, 10, img.Height())
			},
		},
		{
			name: "extract channel operation",
			op:   entity.ChannelOp{Op: entity.ChannelExtract, Channel: "red"},
			check: func(t *testing.T, img *raster.Image) {
				assert.Equal(t, 1, img.Channels())
				assert.Equal(t, uint8(255), img.NRGBA().NRGBAAt(3, 3).R)
			},
		},
		{
			name: "remove background operation",
			op:   entity.RemoveBackground{Config: bgremoval.Config{Method: bgremoval.MethodThreshold}},
			check: func(t *testing.T, img *raster.Image) {
				assert.True(t, img.HasAlpha())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor(t, PolicyFail)
			// Создаем тестовое изображение для каждого теста
			original := fillImageWithColor(10, 10, red)

			result, err := p.Apply(context.Background(), original, []entity.OperationSpec{tt.op})
			require.NoError(t, err)
			require.NotNil(t, result)
			tt.check(t, result)
		})
	}
}

func TestAccurateWithoutSegmenter(t *testing.T) {
	p := newTestProcessor(t, PolicyFail)
	ops := []entity.OperationSpec{entity.RemoveBackground{Config: bgremoval.Config{Method: bgremoval.MethodAccurate}}}

	_, err := p.Apply(context.Background(), asymmetric(4, 4), ops)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindProcessing))
	assert.Contains(t, err.Error(), "accurate")
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFail, p)

	p, err = ParsePolicy("skip")
	require.NoError(t, err)
	assert.Equal(t, PolicySkip, p)

	_, err = ParsePolicy("ignore")
	assert.Error(t, err)
}
