package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Fit controls how Resize maps the source onto the target box.
type Fit string

const (
	FitCover  Fit = "cover"
	FitFill   Fit = "fill"
	FitInside Fit = "inside"
)

// Resize scales the image. A zero width or height keeps the aspect ratio.
// With both set, cover crops the overflow around the centre, fill stretches,
// inside shrinks to fit within the box.
func Resize(img *Image, width, height int, fit Fit) (*Image, error) {
	if width < 0 || height < 0 || (width == 0 && height == 0) {
		return nil, fmt.Errorf("resize: invalid size %dx%d", width, height)
	}
	if width == 0 || height == 0 {
		return img.derive(imaging.Resize(img.pix, width, height, imaging.Lanczos), img.channels), nil
	}

	var out *image.NRGBA
	switch fit {
	case FitFill:
		out = imaging.Resize(img.pix, width, height, imaging.Lanczos)
	case FitInside:
		out = imaging.Fit(img.pix, width, height, imaging.Lanczos)
	default:
		out = imaging.Fill(img.pix, width, height, imaging.Center, imaging.Lanczos)
	}
	return img.derive(out, img.channels), nil
}

// Crop extracts a region; it must lie fully inside the image.
func Crop(img *Image, left, top, width, height int) (*Image, error) {
	if width <= 0 || height <= 0 || left < 0 || top < 0 {
		return nil, fmt.Errorf("crop: invalid region %d,%d %dx%d", left, top, width, height)
	}
	if left+width > img.Width() || top+height > img.Height() {
		return nil, fmt.Errorf("crop: region %d,%d %dx%d is outside %dx%d image",
			left, top, width, height, img.Width(), img.Height())
	}
	rect := image.Rect(left, top, left+width, top+height)
	return img.derive(imaging.Crop(img.pix, rect), img.channels), nil
}

// Rotate turns the image clockwise by angle degrees; uncovered corners are
// filled with bg.
func Rotate(img *Image, angle float64, bg color.NRGBA) *Image {
	channels := img.channels
	if bg.A < 255 && math.Mod(angle, 90) != 0 {
		channels = 4
	}
	return img.derive(imaging.Rotate(img.pix, -angle, bg), channels)
}

// Flip mirrors top to bottom.
func Flip(img *Image) *Image {
	return img.derive(imaging.FlipV(img.pix), img.channels)
}

// Flop mirrors left to right.
func Flop(img *Image) *Image {
	return img.derive(imaging.FlipH(img.pix), img.channels)
}

// Extend pads the image with a solid border.
func Extend(img *Image, top, right, bottom, left int, bg color.NRGBA) (*Image, error) {
	if top < 0 || right < 0 || bottom < 0 || left < 0 {
		return nil, fmt.Errorf("extend: negative border")
	}
	canvas := imaging.New(img.Width()+left+right, img.Height()+top+bottom, bg)
	out := imaging.Paste(canvas, img.pix, image.Pt(left, top))
	channels := img.channels
	if bg.A < 255 {
		channels = 4
	} else if channels == 1 && (bg.R != bg.G || bg.G != bg.B) {
		channels = 3
	}
	return img.derive(out, channels), nil
}

// Canvas creates a solid image.
func Canvas(width, height int, bg color.NRGBA) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("canvas: invalid size %dx%d", width, height)
	}
	channels := 3
	if bg.A < 255 {
		channels = 4
	}
	return newImage(imaging.New(width, height, bg), channels, FormatPNG), nil
}
