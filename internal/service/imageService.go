package service

import (
	"context"
	"errors"
	"image/color"
	"io"
	"time"

	"github.com/ds124wfegd/image-studio/internal/database"
	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/bgremoval"
	"github.com/ds124wfegd/image-studio/internal/pkg/collage"
	"github.com/ds124wfegd/image-studio/internal/pkg/kafka"
	"github.com/ds124wfegd/image-studio/internal/pkg/matting"
	"github.com/ds124wfegd/image-studio/internal/pkg/processor"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
)

// Upload is one received file: its client side name and raw bytes.
type Upload struct {
	Name string
	Data []byte
}

type ImageService interface {
	Info(ctx context.Context, up Upload) (raster.Info, error)

	Resize(ctx context.Context, up Upload, op entity.Resize) (string, error)
	Convert(ctx context.Context, up Upload, format string) (string, error)
	Filters(ctx context.Context, up Upload, opts FilterOptions) (string, error)
	Crop(ctx context.Context, up Upload, op entity.Crop) (string, error)
	Watermark(ctx context.Context, up Upload, op entity.Watermark) (string, error)
	Border(ctx context.Context, up Upload, op entity.Border) (string, error)
	Mask(ctx context.Context, up Upload, op entity.Mask) (string, error)
	Rotate(ctx context.Context, up Upload, op entity.Rotate) (string, error)
	Flip(ctx context.Context, up Upload, op entity.Flip) (string, error)
	RotateTransform(ctx context.Context, up Upload, opts RotateTransformOptions) (string, error)
	AdjustColor(ctx context.Context, up Upload, opts ColorOptions) (string, error)
	Colorspace(ctx context.Context, up Upload, op entity.ColorSpace) (string, error)
	Channels(ctx context.Context, up Upload, opts ChannelOptions) (string, error)

	Composite(ctx context.Context, base, overlay Upload, op entity.Composite) (string, error)
	Collage(ctx context.Context, uploads []Upload, opts collage.Options) (string, error)
	JoinChannels(ctx context.Context, uploads []Upload) (string, error)
	Thumbnails(ctx context.Context, up Upload, sizes []ThumbnailSize) ([]string, error)

	RemoveBackground(ctx context.Context, up Upload, cfg bgremoval.Config) (string, error)
	RemoveBackgroundModel(ctx context.Context, up Upload, opts ModelOptions) (string, error)

	Pipeline(ctx context.Context, up Upload, ops []entity.OperationSpec, format string) (string, error)
	SubmitPipeline(ctx context.Context, up Upload, ops []entity.OperationDTO, format string) (*entity.TaskRecord, error)
	RunTask(ctx context.Context, task entity.PipelineTask) error
	HandleMessage(ctx context.Context, value []byte) error
	GetTask(ctx context.Context, id string) (*entity.TaskRecord, error)

	Open(ctx context.Context, filename string) (io.ReadCloser, string, error)
	List(ctx context.Context) ([]entity.AssetRecord, error)
	Delete(ctx context.Context, filename string) error
	ExpiredAssets(ctx context.Context, before time.Time) ([]entity.AssetRecord, error)

	EngineSettings() raster.Config
	TuneEngine(opts EngineOptions) (raster.Config, error)
}

// FilterOptions are applied in field order. Nil pointers and false flags are skipped.
type FilterOptions struct {
	Blur       *float64
	Sharpen    bool
	Greyscale  bool
	Brightness *float64
	Contrast   *float64
}

// RotateTransformOptions rotate first, then flip and flop.
type RotateTransformOptions struct {
	Angle      float64
	Flip       bool
	Flop       bool
	Background color.NRGBA
}

type ColorOptions struct {
	Tint       *color.NRGBA
	Gamma      *float64
	Saturation *float64
	Negate     bool
	Normalize  bool
}

type ChannelOptions struct {
	RemoveAlpha bool
	EnsureAlpha bool
	Extract     string
	BandBool    string
}

// ModelOptions tune the matting model request and the stored output.
type ModelOptions struct {
	Model   matting.Model
	Format  raster.Format
	Quality int
}

// EngineOptions change only the fields that are set.
type EngineOptions struct {
	Cache       *bool
	Concurrency *int
	SIMD        *bool
}

// Deps are the collaborators of the service. Producer may be nil, then
// submitted pipeline tasks run inside this process. Matting may be nil when
// no model service is configured.
type Deps struct {
	Repo      database.AssetRepository
	Producer  kafka.Producer
	Processor processor.ImageProcessor
	Engine    *raster.Engine
	Matting   bgremoval.MattingClient
}

type imageService struct {
	repo      database.AssetRepository
	producer  kafka.Producer
	processor processor.ImageProcessor
	engine    *raster.Engine
	matting   bgremoval.MattingClient
	now       func() time.Time
}

func NewImageService(deps Deps) ImageService {
	return &imageService{
		repo:      deps.Repo,
		producer:  deps.Producer,
		processor: deps.Processor,
		engine:    deps.Engine,
		matting:   deps.Matting,
		now:       time.Now,
	}
}

// output is the encoding chosen for a stored result.
type output struct {
	format  raster.Format
	quality int
}

var (
	jpegOutput  = output{format: raster.FormatJPEG, quality: raster.DefaultJPEGQuality}
	pngOutput   = output{format: raster.FormatPNG}
	thumbOutput = output{format: raster.FormatJPEG, quality: 85}
)

func (s *imageService) decode(op string, up Upload) (*raster.Image, error) {
	if len(up.Data) == 0 {
		return nil, apperrors.Validation(op, apperrors.ErrMissingPayload)
	}
	img, err := s.engine.Decode(up.Data)
	if err != nil {
		return nil, processing(op, err)
	}
	return img, nil
}

// transform decodes up, runs ops through the executor and stores the result
// as tag_<ts>_<name>. No ops means a plain re-encode.
func (s *imageService) transform(ctx context.Context, op, tag string, up Upload, out output, ops ...entity.OperationSpec) (string, error) {
	for _, o := range ops {
		if err := o.Validate(); err != nil {
			return "", apperrors.Validation(op, err)
		}
	}
	img, err := s.decode(op, up)
	if err != nil {
		return "", err
	}
	if len(ops) > 0 {
		if img, err = s.processor.Apply(ctx, img, ops); err != nil {
			return "", err
		}
	}
	return s.store(ctx, op, s.filename(tag, up.Name, out.format), img, out, up.Name)
}

// store encodes img and saves it with its record.
func (s *imageService) store(ctx context.Context, op, filename string, img *raster.Image, out output, source string) (string, error) {
	record, data, err := s.encode(ctx, op, filename, img, out, source)
	if err != nil {
		return "", err
	}
	if err := s.repo.SaveAsset(ctx, record, data); err != nil {
		return "", processing(op, err)
	}
	return filename, nil
}

// encode renders img in the output format and describes it, nothing is saved.
func (s *imageService) encode(ctx context.Context, op, filename string, img *raster.Image, out output, source string) (*entity.AssetRecord, []byte, error) {
	data, err := s.engine.Encode(img, out.format, raster.EncodeOptions{Quality: out.quality})
	if err != nil {
		if errors.Is(err, raster.ErrEncodeOnlyDecode) {
			return nil, nil, apperrors.Validation(op, err)
		}
		return nil, nil, processing(op, err)
	}

	record := &entity.AssetRecord{
		Filename:  filename,
		Operation: op,
		Format:    string(out.format),
		Width:     img.Width(),
		Height:    img.Height(),
		Size:      len(data),
		Source:    source,
		RequestID: entity.RequestIDFrom(ctx),
		CreatedAt: s.now().UTC(),
	}
	return record, data, nil
}

// processing keeps an already classified error and marks anything else as
// a processing failure of op.
func processing(op string, err error) error {
	var ae *apperrors.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperrors.Processing(op, err)
}
