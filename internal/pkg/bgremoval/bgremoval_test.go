package bgremoval

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/matting"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	dark  = color.NRGBA{R: 20, G: 20, B: 20, A: 255}
)

// subject рисует тёмный квадрат 4x4 в центре белого изображения 10x10
func subject() *raster.Image {
	pix := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			c := white
			if x >= 3 && x < 7 && y >= 3 && y < 7 {
				c = dark
			}
			pix.SetNRGBA(x, y, c)
		}
	}
	return raster.FromImage(pix, raster.FormatPNG)
}

func alphaAt(img *raster.Image, x, y int) uint8 {
	return img.NRGBA().NRGBAAt(x, y).A
}

func TestThresholdKeepsDarkSubject(t *testing.T) {
	out, err := Remove(context.Background(), subject(), Config{Method: MethodThreshold}, nil)
	require.NoError(t, err)

	assert.True(t, out.HasAlpha())
	assert.Equal(t, uint8(255), alphaAt(out, 5, 5))
	assert.Equal(t, uint8(0), alphaAt(out, 0, 0))
	assert.Equal(t, dark.R, out.NRGBA().NRGBAAt(5, 5).R)
}

func TestThresholdIsDeterministic(t *testing.T) {
	cfg := Config{Method: MethodThreshold, Threshold: 128}

	a, err := Remove(context.Background(), subject(), cfg, nil)
	require.NoError(t, err)
	b, err := Remove(context.Background(), subject(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, a.NRGBA().Pix, b.NRGBA().Pix)
}

func TestEdgeDropsOutline(t *testing.T) {
	out, err := Remove(context.Background(), subject(), Config{Method: MethodEdge}, nil)
	require.NoError(t, err)

	// плоские области остаются, контур исчезает
	assert.Equal(t, uint8(255), alphaAt(out, 0, 0))
	assert.Equal(t, uint8(255), alphaAt(out, 5, 5))
	assert.Equal(t, uint8(0), alphaAt(out, 2, 5))
	assert.Equal(t, uint8(0), alphaAt(out, 7, 5))
}

func TestDefaultIsMorePermissiveThanEdge(t *testing.T) {
	img := subject()
	edge, err := Remove(context.Background(), img, Config{Method: MethodEdge}, nil)
	require.NoError(t, err)
	def, err := Remove(context.Background(), img, Config{}, nil)
	require.NoError(t, err)

	assert.True(t, def.HasAlpha())
	assert.Equal(t, uint8(255), alphaAt(def, 0, 0))
	assert.Equal(t, uint8(255), alphaAt(def, 5, 5))
	assert.Equal(t, uint8(255), alphaAt(edge, 0, 0))
}

func TestColorKeysOutTarget(t *testing.T) {
	out, err := Remove(context.Background(), subject(), Config{Method: MethodColor}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), alphaAt(out, 0, 0))
	assert.Equal(t, uint8(255), alphaAt(out, 5, 5))

	key := dark
	out, err = Remove(context.Background(), subject(), Config{Method: MethodColor, Color: &key, Tolerance: 5}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), alphaAt(out, 0, 0))
	assert.Equal(t, uint8(0), alphaAt(out, 5, 5))
}

func TestSmart(t *testing.T) {
	off := false
	level := 128
	feather := 0.0

	out, err := Remove(context.Background(), subject(), Config{
		Method: MethodSmart,
		Smart:  SmartConfig{EdgeDetection: &off, ColorThreshold: &level, Feather: &feather},
	}, nil)
	require.NoError(t, err)
	// без инверсии яркий фон сохраняется
	assert.Equal(t, uint8(255), alphaAt(out, 0, 0))
	assert.Equal(t, uint8(0), alphaAt(out, 5, 5))

	feathered, err := Remove(context.Background(), subject(), Config{
		Method: MethodSmart,
		Smart:  SmartConfig{EdgeDetection: &off, ColorThreshold: &level},
	}, nil)
	require.NoError(t, err)
	a := alphaAt(feathered, 3, 5)
	assert.True(t, a > 0 && a < 255, "feathered edge alpha %d", a)
}

func TestSmartWithEdgeDetectionDefaults(t *testing.T) {
	s, err := New(Config{Method: MethodSmart}, nil)
	require.NoError(t, err)

	smart := s.(smartStrategy)
	assert.True(t, smart.edgeDetection)
	assert.Equal(t, uint8(DefaultColorThreshold), smart.level)
	assert.Equal(t, DefaultSmartBlur, smart.blur)
	assert.Equal(t, DefaultFeather, smart.feather)

	out, err := s.Remove(context.Background(), subject())
	require.NoError(t, err)
	assert.Equal(t, 10, out.Width())
}

func TestNewValidation(t *testing.T) {
	bad := 300
	neg := -1.0
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown method", Config{Method: "magic"}},
		{"threshold range", Config{Method: MethodThreshold, Threshold: 300}},
		{"negative tolerance", Config{Method: MethodColor, Tolerance: -1}},
		{"smart threshold", Config{Method: MethodSmart, Smart: SmartConfig{ColorThreshold: &bad}}},
		{"smart blur", Config{Method: MethodSmart, Smart: SmartConfig{Blur: &neg}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, nil)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "got %v", err)
		})
	}
}

type fakeMatting struct {
	out []byte
	err error
}

func (f fakeMatting) Segment(context.Context, []byte, string, matting.Options) ([]byte, error) {
	return f.out, f.err
}

func TestAccurate(t *testing.T) {
	cut, err := raster.Encode(subject(), raster.FormatPNG, raster.EncodeOptions{})
	require.NoError(t, err)

	seg := ModelSegmenter{Client: fakeMatting{out: cut}}
	out, err := Remove(context.Background(), subject(), Config{Method: MethodAccurate}, seg)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Width())

	_, err = Remove(context.Background(), subject(), Config{Method: MethodAccurate}, nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindProcessing))

	seg = ModelSegmenter{Client: fakeMatting{err: errors.New("gpu on fire")}}
	_, err = Remove(context.Background(), subject(), Config{Method: MethodAccurate}, seg)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindProcessing))
	assert.Contains(t, err.Error(), "accurate background removal")
}
