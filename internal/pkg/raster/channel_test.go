package raster

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractChannel(t *testing.T) {
	img := solid(2, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	green, err := ExtractChannel(img, "green")
	require.NoError(t, err)
	assert.Equal(t, 1, green.Channels())
	assert.Equal(t, uint8(20), green.NRGBA().NRGBAAt(0, 0).R)

	_, err = ExtractChannel(img, "cyan")
	assert.Error(t, err)
}

func TestAlphaChannels(t *testing.T) {
	img := solid(1, 1, color.NRGBA{R: 10, A: 100})
	require.True(t, img.HasAlpha())

	opaque := RemoveAlpha(img)
	assert.False(t, opaque.HasAlpha())
	assert.Equal(t, color.NRGBA{R: 10, A: 255}, opaque.NRGBA().NRGBAAt(0, 0))

	again := EnsureAlpha(opaque)
	assert.Equal(t, 4, again.Channels())
}

func TestBandBool(t *testing.T) {
	img := solid(1, 1, color.NRGBA{R: 0xF0, G: 0x3C, B: 0x0F, A: 255})

	tests := []struct {
		op   string
		want uint8
	}{
		{BoolAnd, 0xF0 & 0x3C & 0x0F},
		{BoolOr, 0xF0 | 0x3C | 0x0F},
		{BoolEor, 0xF0 ^ 0x3C ^ 0x0F},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			out, err := BandBool(img, tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.NRGBA().NRGBAAt(0, 0).R)
			assert.Equal(t, 1, out.Channels())
		})
	}

	_, err := BandBool(img, "nand")
	assert.Error(t, err)
}

func TestFlatten(t *testing.T) {
	img := solid(1, 1, color.NRGBA{})
	out := Flatten(img, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, out.NRGBA().NRGBAAt(0, 0))
	assert.False(t, out.HasAlpha())
}
