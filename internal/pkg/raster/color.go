package raster

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	white       = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black       = color.NRGBA{A: 255}
	transparent = color.NRGBA{}
)

var namedColors = map[string]color.NRGBA{
	"white":       white,
	"black":       black,
	"transparent": transparent,
	"red":         {R: 255, A: 255},
	"green":       {G: 128, A: 255},
	"lime":        {G: 255, A: 255},
	"blue":        {B: 255, A: 255},
	"yellow":      {R: 255, G: 255, A: 255},
	"gray":        {R: 128, G: 128, B: 128, A: 255},
	"grey":        {R: 128, G: 128, B: 128, A: 255},
}

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa, rgb(), rgba() and a few CSS names.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}

	switch {
	case strings.HasPrefix(s, "#") && len(s) == 9:
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
		}
		return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
	case strings.HasPrefix(s, "#") && (len(s) == 4 || len(s) == 7):
		c, err := colorful.Hex(s)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
	case strings.HasPrefix(s, "rgb"):
		return parseFunctional(s)
	}
	return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
}

// MustParseColor is ParseColor for package level literals.
func MustParseColor(s string) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseFunctional(s string) (color.NRGBA, error) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}

	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 || v > 255 {
			return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
		}
		rgb[i] = uint8(v)
	}
	alpha := uint8(255)
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
		}
		alpha = uint8(a*255 + 0.5)
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: alpha}, nil
}

// Tint keeps each pixel's Lab lightness and replaces its chroma with the
// chroma of c.
func Tint(img *Image, c color.NRGBA) *Image {
	ref, _ := colorful.MakeColor(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
	_, ta, tb := ref.Lab()

	out := imaging.AdjustFunc(img.pix, func(px color.NRGBA) color.NRGBA {
		src, _ := colorful.MakeColor(color.NRGBA{R: px.R, G: px.G, B: px.B, A: 255})
		l, _, _ := src.Lab()
		r, g, b := colorful.Lab(l, ta, tb).Clamped().RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: px.A}
	})
	channels := img.channels
	if channels == 1 {
		channels = 3
	}
	return img.derive(out, channels)
}

// LabDistance is the CIE76 colour difference on the usual 0..100 lightness scale.
func LabDistance(a, b color.NRGBA) float64 {
	ca, _ := colorful.MakeColor(color.NRGBA{R: a.R, G: a.G, B: a.B, A: 255})
	cb, _ := colorful.MakeColor(color.NRGBA{R: b.R, G: b.G, B: b.B, A: 255})
	return ca.DistanceLab(cb) * 100
}

// ColorKeyMask returns a grey mask that is black where a pixel lies within
// tolerance (CIE76 delta E) of key and white elsewhere.
func ColorKeyMask(img *Image, key color.NRGBA, tolerance float64) *Image {
	ref, _ := colorful.MakeColor(color.NRGBA{R: key.R, G: key.G, B: key.B, A: 255})
	limit := tolerance / 100

	out := imaging.AdjustFunc(img.pix, func(px color.NRGBA) color.NRGBA {
		c, _ := colorful.MakeColor(color.NRGBA{R: px.R, G: px.G, B: px.B, A: 255})
		if c.DistanceLab(ref) <= limit {
			return black
		}
		return white
	})
	return img.derive(out, 1)
}
