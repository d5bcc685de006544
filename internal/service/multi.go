package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/collage"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
	"github.com/sirupsen/logrus"
)

// ThumbnailSize is one requested thumbnail, stored as utility_thumb_<ts>_<suffix>.jpg.
type ThumbnailSize struct {
	Width  int
	Height int
	Suffix string
}

var DefaultThumbnailSizes = []ThumbnailSize{
	{Width: 150, Height: 150, Suffix: "thumb"},
	{Width: 300, Height: 300, Suffix: "medium"},
	{Width: 600, Height: 600, Suffix: "large"},
}

// ParseThumbnailSizes reads "WxH:suffix,WxH:suffix". An empty string gives
// the defaults.
func ParseThumbnailSizes(s string) ([]ThumbnailSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultThumbnailSizes, nil
	}
	var sizes []ThumbnailSize
	for _, item := range strings.Split(s, ",") {
		dims, suffix, ok := strings.Cut(strings.TrimSpace(item), ":")
		if !ok {
			return nil, fmt.Errorf("thumbnail size %q: want WxH:suffix", item)
		}
		w, h, ok := strings.Cut(dims, "x")
		if !ok {
			return nil, fmt.Errorf("thumbnail size %q: want WxH:suffix", item)
		}
		width, err := strconv.Atoi(w)
		if err != nil {
			return nil, fmt.Errorf("thumbnail size %q: bad width", item)
		}
		height, err := strconv.Atoi(h)
		if err != nil {
			return nil, fmt.Errorf("thumbnail size %q: bad height", item)
		}
		sizes = append(sizes, ThumbnailSize{Width: width, Height: height, Suffix: suffix})
	}
	return sizes, nil
}

func (t ThumbnailSize) validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("thumbnail %q: width and height must be > 0", t.Suffix)
	}
	if t.Suffix == "" || sanitizeName(t.Suffix) != t.Suffix {
		return fmt.Errorf("thumbnail suffix %q: use letters, digits, '-' or '_'", t.Suffix)
	}
	return nil
}

func (s *imageService) Composite(ctx context.Context, base, overlay Upload, op entity.Composite) (string, error) {
	if len(overlay.Data) == 0 {
		return "", apperrors.Validationf("composite", "exactly 2 images are required")
	}
	op.Overlay = overlay.Data
	return s.transform(ctx, "composite", "composite", base, jpegOutput, op)
}

func (s *imageService) Collage(ctx context.Context, uploads []Upload, opts collage.Options) (string, error) {
	const op = "collage"
	if len(uploads) == 0 || len(uploads) > collage.MaxImages {
		return "", apperrors.Validationf(op, "between 1 and %d images are required, got %d", collage.MaxImages, len(uploads))
	}
	if opts.Columns < 1 {
		return "", apperrors.Validationf(op, "columns must be >= 1, got %d", opts.Columns)
	}
	if opts.Spacing != nil && *opts.Spacing < 0 {
		return "", apperrors.Validationf(op, "spacing must be >= 0, got %d", *opts.Spacing)
	}
	images, err := s.decodeAll(ctx, op, uploads)
	if err != nil {
		return "", err
	}
	img, layout, err := collage.Render(images, opts)
	if err != nil {
		return "", processing(op, err)
	}
	logrus.WithFields(logrus.Fields{
		"images":  len(images),
		"columns": layout.Columns,
		"rows":    layout.Rows,
		"canvas":  fmt.Sprintf("%dx%d", layout.CanvasWidth, layout.CanvasHeight),
	}).Debug("collage laid out")
	return s.store(ctx, op, s.filename("collage", "", raster.FormatJPEG), img, jpegOutput, "")
}

func (s *imageService) JoinChannels(ctx context.Context, uploads []Upload) (string, error) {
	const op = "channels-join"
	if len(uploads) < 2 {
		return "", apperrors.Validationf(op, "at least 2 images are required, got %d", len(uploads))
	}
	images, err := s.decodeAll(ctx, op, uploads)
	if err != nil {
		return "", err
	}
	img, err := s.engine.JoinChannels(ctx, images)
	if err != nil {
		return "", processing(op, err)
	}
	return s.store(ctx, op, s.filename("channel_join", "", raster.FormatPNG), img, pngOutput, uploads[0].Name)
}

// Thumbnails stores one cover-fit JPEG per size, in request order.
func (s *imageService) Thumbnails(ctx context.Context, up Upload, sizes []ThumbnailSize) ([]string, error) {
	const op = "thumbnails"
	if len(sizes) == 0 {
		sizes = DefaultThumbnailSizes
	}
	seen := make(map[string]bool, len(sizes))
	for _, size := range sizes {
		if err := size.validate(); err != nil {
			return nil, apperrors.Validation(op, err)
		}
		if seen[size.Suffix] {
			return nil, apperrors.Validationf(op, "duplicate thumbnail suffix %q", size.Suffix)
		}
		seen[size.Suffix] = true
	}
	img, err := s.decode(op, up)
	if err != nil {
		return nil, err
	}

	// сначала все размеры кодируются, сохранение начинается только после этого
	records := make([]*entity.AssetRecord, len(sizes))
	payloads := make([][]byte, len(sizes))
	err = s.engine.ForEach(ctx, len(sizes), func(i int) error {
		thumb, err := raster.Resize(img, sizes[i].Width, sizes[i].Height, raster.FitCover)
		if err != nil {
			return err
		}
		records[i], payloads[i], err = s.encode(ctx, op, s.filename("utility_thumb", sizes[i].Suffix, raster.FormatJPEG), thumb, thumbOutput, up.Name)
		return err
	})
	if err != nil {
		return nil, processing(op, err)
	}

	names := make([]string, 0, len(sizes))
	for i, record := range records {
		if err := s.repo.SaveAsset(ctx, record, payloads[i]); err != nil {
			s.rollback(ctx, op, names)
			return nil, processing(op, err)
		}
		names = append(names, record.Filename)
	}
	return names, nil
}

// rollback removes outputs saved before a multi-output request failed.
func (s *imageService) rollback(ctx context.Context, op string, filenames []string) {
	for _, name := range filenames {
		if err := s.repo.DeleteAsset(context.WithoutCancel(ctx), name); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"operation": op,
				"filename":  name,
			}).Error("failed to roll back partial output")
		}
	}
}

func (s *imageService) decodeAll(ctx context.Context, op string, uploads []Upload) ([]*raster.Image, error) {
	payloads := make([][]byte, len(uploads))
	for i, up := range uploads {
		if len(up.Data) == 0 {
			return nil, apperrors.Validation(op, fmt.Errorf("image %d: %w", i, apperrors.ErrMissingPayload))
		}
		payloads[i] = up.Data
	}
	images, err := s.engine.DecodeAll(ctx, payloads)
	if err != nil {
		return nil, processing(op, err)
	}
	return images, nil
}
