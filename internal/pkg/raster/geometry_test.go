package raster

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResize(t *testing.T) {
	img := gradient(8, 4)

	tests := []struct {
		name          string
		w, h          int
		fit           Fit
		wantW, wantH  int
	}{
		{"cover", 4, 4, FitCover, 4, 4},
		{"fill", 2, 6, FitFill, 2, 6},
		{"inside", 4, 4, FitInside, 4, 2},
		{"keep aspect", 4, 0, FitCover, 4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Resize(img, tt.w, tt.h, tt.fit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, out.Width())
			assert.Equal(t, tt.wantH, out.Height())
		})
	}

	_, err := Resize(img, 0, 0, FitCover)
	assert.Error(t, err)
}

func TestCrop(t *testing.T) {
	img := gradient(6, 6)

	out, err := Crop(img, 1, 2, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Width())
	assert.Equal(t, 2, out.Height())
	assert.Equal(t, img.NRGBA().NRGBAAt(1, 2), out.NRGBA().NRGBAAt(0, 0))

	_, err = Crop(img, 4, 4, 3, 3)
	assert.Error(t, err)
	_, err = Crop(img, 0, 0, 0, 1)
	assert.Error(t, err)
}

func TestFlipFlopEqualsRotate180(t *testing.T) {
	img := gradient(5, 3)

	flipped := Flop(Flip(img))
	rotated := Rotate(img, 180, white)

	assert.Equal(t, rotated.NRGBA().Pix, flipped.NRGBA().Pix)
	assert.Equal(t, img.NRGBA().NRGBAAt(0, 0), flipped.NRGBA().NRGBAAt(4, 2))
}

func TestRotateIsClockwise(t *testing.T) {
	img := gradient(4, 2)
	out := Rotate(img, 90, white)

	assert.Equal(t, 2, out.Width())
	assert.Equal(t, 4, out.Height())
	// верхний левый пиксель уходит в верхний правый угол
	assert.Equal(t, img.NRGBA().NRGBAAt(0, 0), out.NRGBA().NRGBAAt(1, 0))
}

func TestExtend(t *testing.T) {
	img := solid(2, 2, color.NRGBA{R: 255, A: 255})

	out, err := Extend(img, 1, 2, 1, 2, black)
	require.NoError(t, err)
	assert.Equal(t, 6, out.Width())
	assert.Equal(t, 4, out.Height())
	assert.Equal(t, black, out.NRGBA().NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBA().NRGBAAt(2, 1))

	_, err = Extend(img, -1, 0, 0, 0, black)
	assert.Error(t, err)
}

func TestCanvas(t *testing.T) {
	c, err := Canvas(3, 2, white)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Channels())
	assert.Equal(t, white, c.NRGBA().NRGBAAt(2, 1))

	_, err = Canvas(0, 2, white)
	assert.Error(t, err)
}
