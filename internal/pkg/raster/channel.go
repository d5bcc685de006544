package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/channel"
	"github.com/disintegration/imaging"
)

var channelNames = map[string]channel.Channel{
	"red":   channel.Red,
	"green": channel.Green,
	"blue":  channel.Blue,
	"alpha": channel.Alpha,
}

// ExtractChannel returns one band as a grey image.
func ExtractChannel(img *Image, name string) (*Image, error) {
	c, ok := channelNames[name]
	if !ok {
		return nil, fmt.Errorf("extract channel: unknown channel %q", name)
	}
	return img.derive(imaging.Clone(channel.Extract(img.pix, c)), 1), nil
}

// RemoveAlpha drops transparency, colour values are kept as they are.
func RemoveAlpha(img *Image) *Image {
	out := imaging.AdjustFunc(img.pix, func(c color.NRGBA) color.NRGBA {
		c.A = 255
		return c
	})
	channels := img.channels
	switch channels {
	case 2:
		channels = 1
	case 4:
		channels = 3
	}
	return img.derive(out, channels)
}

// EnsureAlpha adds an alpha band; the pixels are already NRGBA so only the
// reported layout changes.
func EnsureAlpha(img *Image) *Image {
	channels := img.channels
	switch channels {
	case 1:
		channels = 2
	case 3:
		channels = 4
	}
	return img.derive(img.pix, channels)
}

// Bitwise operators for BandBool.
const (
	BoolAnd = "and"
	BoolOr  = "or"
	BoolEor = "eor"
)

// BandBool folds every band of a pixel into one grey value with a bitwise operator.
func BandBool(img *Image, op string) (*Image, error) {
	var fold func(a, b uint8) uint8
	switch op {
	case BoolAnd:
		fold = func(a, b uint8) uint8 { return a & b }
	case BoolOr:
		fold = func(a, b uint8) uint8 { return a | b }
	case BoolEor:
		fold = func(a, b uint8) uint8 { return a ^ b }
	default:
		return nil, fmt.Errorf("bandbool: unknown operator %q", op)
	}

	withAlpha := img.HasAlpha()
	grey := img.channels <= 2
	out := imaging.AdjustFunc(img.pix, func(c color.NRGBA) color.NRGBA {
		v := c.R
		if !grey {
			v = fold(fold(c.R, c.G), c.B)
		}
		if withAlpha {
			v = fold(v, c.A)
		}
		return color.NRGBA{R: v, G: v, B: v, A: 255}
	})
	return img.derive(out, 1), nil
}

// Flatten composites the image over a solid background and drops alpha.
func Flatten(img *Image, bg color.NRGBA) *Image {
	bg.A = 255
	canvas := imaging.New(img.Width(), img.Height(), bg)
	out := imaging.Overlay(canvas, img.pix, image.Pt(0, 0), 1)
	channels := 3
	if img.channels <= 2 && bg.R == bg.G && bg.G == bg.B {
		channels = 1
	}
	return img.derive(out, channels)
}

// JoinChannels multiplies up to two more images into the first one. The
// extra images are resized to the base size concurrently.
func (e *Engine) JoinChannels(ctx context.Context, images []*Image) (*Image, error) {
	if len(images) < 2 {
		return nil, fmt.Errorf("join channels: need at least 2 images, got %d", len(images))
	}
	base := images[0]
	extra := images[1:]
	if len(extra) > 2 {
		extra = extra[:2]
	}

	resized := make([]*Image, len(extra))
	err := e.ForEach(ctx, len(extra), func(i int) error {
		r, err := Resize(extra[i], base.Width(), base.Height(), FitCover)
		if err != nil {
			return err
		}
		resized[i] = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("join channels: %w", err)
	}

	out := base.pix
	for _, r := range resized {
		out = imaging.Clone(blend.Multiply(out, r.pix))
	}
	channels := base.channels
	if channels < 3 {
		channels += 2
	}
	return base.derive(out, channels), nil
}
