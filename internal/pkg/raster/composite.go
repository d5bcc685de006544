package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/blend"
	"github.com/disintegration/imaging"
)

// Blend modes accepted by Composite.
const (
	BlendOver       = "over"
	BlendMultiply   = "multiply"
	BlendScreen     = "screen"
	BlendOverlay    = "overlay"
	BlendDarken     = "darken"
	BlendLighten    = "lighten"
	BlendColorDodge = "color-dodge"
	BlendColorBurn  = "color-burn"
	BlendSoftLight  = "soft-light"
	BlendDifference = "difference"
	BlendExclusion  = "exclusion"
	BlendAdd        = "add"
	BlendDestIn     = "dest-in"
)

var blendFuncs = map[string]func(bg, fg image.Image) *image.RGBA{
	BlendMultiply:   blend.Multiply,
	BlendScreen:     blend.Screen,
	BlendOverlay:    blend.Overlay,
	BlendDarken:     blend.Darken,
	BlendLighten:    blend.Lighten,
	BlendColorDodge: blend.ColorDodge,
	BlendColorBurn:  blend.ColorBurn,
	BlendSoftLight:  blend.SoftLight,
	BlendDifference: blend.Difference,
	BlendExclusion:  blend.Exclusion,
	BlendAdd:        blend.Add,
}

// ValidBlend reports whether name is a supported blend mode.
func ValidBlend(name string) bool {
	if name == BlendOver || name == BlendDestIn {
		return true
	}
	_, ok := blendFuncs[name]
	return ok
}

// Gravity names accepted by Composite.
var gravities = map[string]imaging.Anchor{
	"centre":    imaging.Center,
	"center":    imaging.Center,
	"north":     imaging.Top,
	"south":     imaging.Bottom,
	"east":      imaging.Right,
	"west":      imaging.Left,
	"northeast": imaging.TopRight,
	"northwest": imaging.TopLeft,
	"southeast": imaging.BottomRight,
	"southwest": imaging.BottomLeft,
}

func ValidGravity(name string) bool {
	_, ok := gravities[name]
	return name == "" || ok
}

// CompositeOptions place the overlay. Left/Top win over Gravity when both are set.
type CompositeOptions struct {
	Left    *int
	Top     *int
	Gravity string
	Blend   string
}

// Composite draws overlay onto base. The result keeps the base size.
func Composite(base, overlay *Image, opts CompositeOptions) (*Image, error) {
	pos, err := placement(base, overlay, opts)
	if err != nil {
		return nil, err
	}
	mode := opts.Blend
	if mode == "" {
		mode = BlendOver
	}

	channels := base.channels
	if channels < 3 {
		channels += 2
	}

	switch mode {
	case BlendOver:
		return base.derive(imaging.Overlay(base.pix, overlay.pix, pos, 1), channels), nil
	case BlendDestIn:
		layer := imaging.Paste(imaging.New(base.Width(), base.Height(), transparent), overlay.pix, pos)
		return applyAlpha(base, layer, func(c color.NRGBA) uint8 { return c.A }), nil
	}

	fn, ok := blendFuncs[mode]
	if !ok {
		return nil, fmt.Errorf("composite: unknown blend %q", mode)
	}
	layer := imaging.Paste(imaging.New(base.Width(), base.Height(), transparent), overlay.pix, pos)
	return base.derive(imaging.Clone(fn(base.pix, layer)), channels), nil
}

func placement(base, overlay *Image, opts CompositeOptions) (image.Point, error) {
	if opts.Left != nil || opts.Top != nil {
		var x, y int
		if opts.Left != nil {
			x = *opts.Left
		}
		if opts.Top != nil {
			y = *opts.Top
		}
		return image.Pt(x, y), nil
	}

	anchor, ok := gravities[opts.Gravity]
	if opts.Gravity == "" {
		anchor, ok = imaging.Center, true
	}
	if !ok {
		return image.Point{}, fmt.Errorf("composite: unknown gravity %q", opts.Gravity)
	}

	bw, bh := base.Width(), base.Height()
	ow, oh := overlay.Width(), overlay.Height()
	var x, y int
	switch anchor {
	case imaging.TopLeft, imaging.Left, imaging.BottomLeft:
		x = 0
	case imaging.TopRight, imaging.Right, imaging.BottomRight:
		x = bw - ow
	default:
		x = (bw - ow) / 2
	}
	switch anchor {
	case imaging.TopLeft, imaging.Top, imaging.TopRight:
		y = 0
	case imaging.BottomLeft, imaging.Bottom, imaging.BottomRight:
		y = bh - oh
	default:
		y = (bh - oh) / 2
	}
	return image.Pt(x, y), nil
}

// ApplyAlphaMask keeps src only where the mask is bright (dest-in by mask
// luminance). The mask is stretched to src size when they differ.
func ApplyAlphaMask(src, mask *Image) (*Image, error) {
	m := mask.pix
	if mask.Width() != src.Width() || mask.Height() != src.Height() {
		m = imaging.Resize(m, src.Width(), src.Height(), imaging.Linear)
	}
	return applyAlpha(src, m, func(c color.NRGBA) uint8 {
		// маска серая, каналы равны
		return c.R
	}), nil
}

// applyAlpha multiplies src alpha by the weight taken from each mask pixel.
func applyAlpha(src *Image, mask *image.NRGBA, weight func(color.NRGBA) uint8) *Image {
	alpha := image.NewAlpha(src.pix.Rect)
	for y := 0; y < src.Height(); y++ {
		for x := 0; x < src.Width(); x++ {
			alpha.Pix[y*alpha.Stride+x] = weight(mask.NRGBAAt(x, y))
		}
	}
	out := image.NewNRGBA(src.pix.Rect)
	draw.DrawMask(out, out.Rect, src.pix, image.Point{}, alpha, image.Point{}, draw.Src)

	channels := 4
	if src.channels <= 2 {
		channels = 2
	}
	return src.derive(out, channels)
}

// MaskComposite keeps src where coverage is set and fills the rest with bg.
func MaskComposite(src *Image, coverage *image.Alpha, bg color.NRGBA) (*Image, error) {
	if !coverage.Rect.Eq(src.pix.Rect) {
		return nil, fmt.Errorf("mask composite: coverage %v does not match image %v", coverage.Rect, src.pix.Rect)
	}
	out := imaging.New(src.Width(), src.Height(), bg)
	draw.DrawMask(out, out.Rect, src.pix, image.Point{}, coverage, image.Point{}, draw.Over)

	channels := 4
	if bg.A == 255 && !src.HasAlpha() {
		channels = 3
	}
	return src.derive(out, channels), nil
}

// Layer is an image placed at a pixel offset.
type Layer struct {
	Image     *Image
	Left, Top int
}

// Stack draws the layers over base in order using a single copy of base.
func Stack(base *Image, layers []Layer) *Image {
	out := imaging.Clone(base.pix)
	hasAlpha := base.HasAlpha()
	for _, l := range layers {
		r := image.Rect(l.Left, l.Top, l.Left+l.Image.Width(), l.Top+l.Image.Height())
		draw.Draw(out, r, l.Image.pix, image.Point{}, draw.Over)
	}
	channels := 3
	if hasAlpha {
		channels = 4
	}
	return base.derive(out, channels)
}
