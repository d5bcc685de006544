package raster

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"jpg", FormatJPEG, false},
		{"JPEG", FormatJPEG, false},
		{".png", FormatPNG, false},
		{"tif", FormatTIFF, false},
		{"webp", FormatWEBP, false},
		{"heic", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "jpg", FormatJPEG.Ext())
	assert.Equal(t, "webp", FormatWEBP.Ext())
	assert.False(t, FormatWEBP.Encodable())
	assert.True(t, FormatPNG.Encodable())
}

func TestDecodeReportsInfo(t *testing.T) {
	opaque := solid(6, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img, err := Decode(encodePNG(t, opaque))
	require.NoError(t, err)

	info := img.Info()
	assert.Equal(t, FormatPNG, info.Format)
	assert.Equal(t, 6, info.Width)
	assert.Equal(t, 4, info.Height)
	assert.Equal(t, 3, info.Channels)
	assert.False(t, info.HasAlpha)

	translucent := solid(2, 2, color.NRGBA{R: 10, A: 100})
	img, err = Decode(encodePNG(t, translucent))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Channels())
	assert.True(t, img.HasAlpha())
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEncodeJPEGFlattensAlpha(t *testing.T) {
	img := solid(4, 4, color.NRGBA{A: 0})

	data, err := Encode(img, FormatJPEG, EncodeOptions{})
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, decoded.Format())
	c := decoded.NRGBA().NRGBAAt(1, 1)
	assert.InDelta(t, 255, int(c.R), 3)
	assert.InDelta(t, 255, int(c.G), 3)
	assert.InDelta(t, 255, int(c.B), 3)
}

func TestEncodeWebPIsRejected(t *testing.T) {
	_, err := Encode(solid(1, 1, white), FormatWEBP, EncodeOptions{})
	assert.ErrorIs(t, err, ErrEncodeOnlyDecode)
}
