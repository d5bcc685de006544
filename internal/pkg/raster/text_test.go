package raster

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawText(t *testing.T) {
	img := solid(120, 40, black)
	style := TextStyle{FontSize: 26, Color: white, Opacity: 1, Position: "northwest"}

	out, err := DrawText(img, "HELLO", style)
	require.NoError(t, err)
	assert.Equal(t, 120, out.Width())

	var lit int
	for y := 0; y < 26; y++ {
		for x := 0; x < 70; x++ {
			if out.NRGBA().NRGBAAt(x, y).R > 128 {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 0)
	assert.Equal(t, color.NRGBA{A: 255}, out.NRGBA().NRGBAAt(119, 39))

	_, err = DrawText(img, "", style)
	assert.Error(t, err)
	style.FontSize = 0
	_, err = DrawText(img, "x", style)
	assert.Error(t, err)
}
