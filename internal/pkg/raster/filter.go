package raster

import (
	"fmt"
	"image/color"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// Kernel3x3 is a row-major 3x3 convolution matrix.
type Kernel3x3 [9]float64

// EdgeKernel is the discrete Laplacian used by the edge based background heuristics.
var EdgeKernel = Kernel3x3{
	-1, -1, -1,
	-1, 8, -1,
	-1, -1, -1,
}

// Blur applies a gaussian blur; sigma <= 0 returns the image unchanged.
func Blur(img *Image, sigma float64) *Image {
	if sigma <= 0 {
		return img
	}
	return img.derive(imaging.Blur(img.pix, sigma), img.channels)
}

func Sharpen(img *Image, sigma float64) *Image {
	if sigma <= 0 {
		sigma = 1
	}
	return img.derive(imaging.Sharpen(img.pix, sigma), img.channels)
}

// Greyscale keeps the alpha channel if there is one.
func Greyscale(img *Image) *Image {
	channels := 1
	if img.HasAlpha() {
		channels = 2
	}
	return img.derive(imaging.Grayscale(img.pix), channels)
}

// Negate inverts colour channels, alpha is left untouched.
func Negate(img *Image) *Image {
	return img.derive(imaging.Invert(img.pix), img.channels)
}

// Normalize stretches luminance so the 1st and 99th percentiles map to 0 and 255.
func Normalize(img *Image) *Image {
	hist := imaging.Histogram(img.pix)
	low, high := percentile(hist, 0.01), percentile(hist, 0.99)
	if high <= low {
		return img
	}

	lut := make([]uint8, 256)
	scale := 255.0 / float64(high-low)
	for i := range lut {
		v := (float64(i) - float64(low)) * scale
		switch {
		case v < 0:
			lut[i] = 0
		case v > 255:
			lut[i] = 255
		default:
			lut[i] = uint8(v + 0.5)
		}
	}
	out := imaging.AdjustFunc(img.pix, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A}
	})
	return img.derive(out, img.channels)
}

func percentile(hist [256]float64, p float64) int {
	var acc float64
	for i, v := range hist {
		acc += v
		if acc >= p {
			return i
		}
	}
	return 255
}

// Gamma applies a gamma correction; 1 is the identity.
func Gamma(img *Image, gamma float64) (*Image, error) {
	if gamma <= 0 {
		return nil, fmt.Errorf("gamma: must be positive, got %v", gamma)
	}
	return img.derive(imaging.AdjustGamma(img.pix, gamma), img.channels), nil
}

// Brightness multiplies every colour channel by m; 1 is the identity.
func Brightness(img *Image, m float64) (*Image, error) {
	if m < 0 {
		return nil, fmt.Errorf("brightness: multiplier must not be negative, got %v", m)
	}
	return img.derive(imaging.Clone(adjust.Brightness(img.pix, m-1)), img.channels), nil
}

// Contrast scales the distance from mid grey by m; 1 is the identity.
func Contrast(img *Image, m float64) (*Image, error) {
	if m < 0 {
		return nil, fmt.Errorf("contrast: multiplier must not be negative, got %v", m)
	}
	return img.derive(imaging.Clone(adjust.Contrast(img.pix, m-1)), img.channels), nil
}

// Saturation scales HSL saturation by m; 0 gives grey, 1 is the identity.
func Saturation(img *Image, m float64) (*Image, error) {
	if m < 0 {
		return nil, fmt.Errorf("saturation: multiplier must not be negative, got %v", m)
	}
	return img.derive(imaging.Clone(adjust.Saturation(img.pix, m-1)), img.channels), nil
}

// Convolve3x3 applies the kernel to the colour channels, keeping alpha.
// Results are clamped to 0..255 without normalising the kernel.
func Convolve3x3(img *Image, k Kernel3x3) *Image {
	kernel := &convolution.Kernel{Matrix: k[:], Width: 3, Height: 3}
	out := convolution.Convolve(img.pix, kernel, &convolution.Options{KeepAlpha: true})
	return img.derive(imaging.Clone(out), img.channels)
}

// Threshold turns the image into a binary grey mask: luminance >= level is
// white, the rest black. The result is opaque.
func Threshold(img *Image, level uint8) *Image {
	return img.derive(imaging.Clone(segment.Threshold(img.pix, level)), 1)
}

// Colourspace names accepted by ToColourspace.
const (
	ColourspaceSRGB = "srgb"
	ColourspaceBW   = "b-w"
)

func ToColourspace(img *Image, space string) (*Image, error) {
	switch space {
	case ColourspaceBW:
		return Greyscale(img), nil
	case ColourspaceSRGB:
		channels := img.channels
		switch channels {
		case 1:
			channels = 3
		case 2:
			channels = 4
		}
		return img.derive(img.pix, channels), nil
	}
	return nil, fmt.Errorf("colourspace: unsupported %q", space)
}
