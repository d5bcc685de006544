package bgremoval

import (
	"context"

	"github.com/ds124wfegd/image-studio/internal/pkg/matting"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
)

// MattingClient is the part of matting.Client used here.
type MattingClient interface {
	Segment(ctx context.Context, data []byte, filename string, opts matting.Options) ([]byte, error)
}

// ModelSegmenter adapts a matting client to Segmenter by shipping the image
// as PNG and decoding the answer.
type ModelSegmenter struct {
	Client  MattingClient
	Options matting.Options
}

func (m ModelSegmenter) Segment(ctx context.Context, img *raster.Image) (*raster.Image, error) {
	data, err := raster.Encode(img, raster.FormatPNG, raster.EncodeOptions{})
	if err != nil {
		return nil, err
	}
	out, err := m.Client.Segment(ctx, data, "image.png", m.Options)
	if err != nil {
		return nil, err
	}
	return raster.Decode(out)
}
