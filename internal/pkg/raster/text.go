package raster

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TextStyle describes a watermark. Position is a gravity name.
type TextStyle struct {
	FontSize int
	Color    color.NRGBA
	Opacity  float64
	Position string
}

const baseGlyphHeight = 13

// DrawText renders a single line of text with the built in bitmap face,
// scales it to FontSize and blends it onto the image.
func DrawText(img *Image, text string, style TextStyle) (*Image, error) {
	if text == "" {
		return nil, fmt.Errorf("draw text: empty text")
	}
	if style.FontSize <= 0 {
		return nil, fmt.Errorf("draw text: font size must be > 0")
	}

	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	layer := image.NewNRGBA(image.Rect(0, 0, width, baseGlyphHeight))
	d := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(color.NRGBA{R: style.Color.R, G: style.Color.G, B: style.Color.B, A: 255}),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	scaled := imaging.Resize(layer, width*style.FontSize/baseGlyphHeight, style.FontSize, imaging.Linear)
	overlay := newImage(scaled, 4, FormatPNG)
	pos, err := placement(img, overlay, CompositeOptions{Gravity: style.Position})
	if err != nil {
		return nil, err
	}

	channels := img.channels
	if channels < 3 {
		channels += 2
	}
	return img.derive(imaging.Overlay(img.pix, scaled, pos, style.Opacity), channels), nil
}
