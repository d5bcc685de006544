package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Format is the encoded container of an image.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWEBP Format = "webp"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

const DefaultJPEGQuality = 90

var (
	ErrEmptyPayload      = errors.New("empty image payload")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEncodeOnlyDecode  = errors.New("webp is supported for decoding only")
)

// ParseFormat accepts the usual spellings ("jpg", "JPEG", "tif").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWEBP, nil
	case "gif":
		return FormatGIF, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Ext returns the file extension used for output names.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// Encodable reports whether the engine can write this format.
func (f Format) Encodable() bool {
	_, ok := imagingFormats[f]
	return ok
}

var imagingFormats = map[Format]imaging.Format{
	FormatJPEG: imaging.JPEG,
	FormatPNG:  imaging.PNG,
	FormatGIF:  imaging.GIF,
	FormatBMP:  imaging.BMP,
	FormatTIFF: imaging.TIFF,
}

// Image is an immutable decoded raster. Every primitive returns a new Image;
// the underlying pixels are never written after construction.
type Image struct {
	pix      *image.NRGBA
	channels int
	format   Format
}

// Info is the metadata reported for an image.
type Info struct {
	Format   Format `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Channels int    `json:"channels"`
	HasAlpha bool   `json:"hasAlpha"`
	Size     int    `json:"size,omitempty"`
}

// FromImage wraps any image.Image. Channel count is derived from the pixel model:
// grey sources report 1, opaque colour 3, anything with transparency 4.
// Primitives may later report 2 for grey with alpha.
func FromImage(src image.Image, format Format) *Image {
	channels := 4
	switch src.(type) {
	case *image.Gray, *image.Gray16:
		channels = 1
	case *image.YCbCr, *image.CMYK:
		channels = 3
	default:
		if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
			channels = 3
		}
	}
	return newImage(imaging.Clone(src), channels, format)
}

func newImage(pix *image.NRGBA, channels int, format Format) *Image {
	return &Image{pix: pix, channels: channels, format: format}
}

// derive keeps the source format for a new pixel buffer.
func (img *Image) derive(pix *image.NRGBA, channels int) *Image {
	return newImage(pix, channels, img.format)
}

func (img *Image) Width() int    { return img.pix.Rect.Dx() }
func (img *Image) Height() int   { return img.pix.Rect.Dy() }
func (img *Image) Channels() int { return img.channels }
func (img *Image) HasAlpha() bool {
	return img.channels == 2 || img.channels == 4
}
func (img *Image) Format() Format { return img.format }

// NRGBA exposes the pixel buffer for reading. Callers must not modify it.
func (img *Image) NRGBA() *image.NRGBA { return img.pix }

func (img *Image) Info() Info {
	return Info{
		Format:   img.format,
		Width:    img.Width(),
		Height:   img.Height(),
		Channels: img.channels,
		HasAlpha: img.HasAlpha(),
	}
}

// WithFormat returns the same pixels tagged with another source format.
func (img *Image) WithFormat(f Format) *Image {
	return newImage(img.pix, img.channels, f)
}

// Decode parses an encoded payload and applies EXIF orientation.
func Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	format, err := ParseFormat(name)
	if err != nil {
		return nil, err
	}
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return FromImage(src, format), nil
}

// EncodeOptions tune the encoder; zero values mean defaults.
type EncodeOptions struct {
	Quality int
}

// Encode writes the image in the requested format. JPEG output is flattened
// onto white; PNG uses best compression.
func Encode(img *Image, format Format, opts EncodeOptions) ([]byte, error) {
	if format == FormatWEBP {
		return nil, ErrEncodeOnlyDecode
	}
	f, ok := imagingFormats[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	var src image.Image = img.pix
	var encOpts []imaging.EncodeOption
	switch format {
	case FormatJPEG:
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		encOpts = append(encOpts, imaging.JPEGQuality(quality))
		if img.HasAlpha() || !img.pix.Opaque() {
			src = Flatten(img, white).pix
		}
	case FormatPNG:
		encOpts = append(encOpts, imaging.PNGCompressionLevel(png.BestCompression))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, f, encOpts...); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
