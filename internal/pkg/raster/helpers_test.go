package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

// solid создаёт однотонное изображение заданного размера
func solid(w, h int, c color.NRGBA) *Image {
	pix := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix.SetNRGBA(x, y, c)
		}
	}
	return FromImage(pix, FormatPNG)
}

// gradient даёт несимметричное изображение: каждый пиксель уникален
func gradient(w, h int) *Image {
	pix := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 30), B: uint8(x*y + 7), A: 255})
		}
	}
	return FromImage(pix, FormatPNG)
}

func encodePNG(t *testing.T, img *Image) []byte {
	t.Helper()
	data, err := Encode(img, FormatPNG, EncodeOptions{})
	require.NoError(t, err)
	return data
}
