package transport

import (
	"fmt"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
	"github.com/ds124wfegd/image-studio/internal/service"
	"github.com/ds124wfegd/image-studio/internal/transport/middleware"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const DefaultMaxUploadBytes = 10 << 20

// sniffed content types accepted as uploads
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/bmp":  true,
}

type ImageHandler struct {
	service   service.ImageService
	maxUpload int64
}

func NewImageHandler(service service.ImageService, maxUploadBytes int64) *ImageHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &ImageHandler{service: service, maxUpload: maxUploadBytes}
}

// upload reads the single file sent in field.
func (h *ImageHandler) upload(c *gin.Context, field string) (service.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return service.Upload{}, apperrors.Validation("upload", fmt.Errorf("no %q file provided: %w", field, apperrors.ErrMissingPayload))
	}
	return h.readFile(fh)
}

// uploads reads every file sent in field, in form order.
func (h *ImageHandler) uploads(c *gin.Context, field string) ([]service.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.Validation("upload", fmt.Errorf("multipart form expected: %w", err))
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, apperrors.Validation("upload", fmt.Errorf("no %q files provided: %w", field, apperrors.ErrMissingPayload))
	}
	out := make([]service.Upload, 0, len(files))
	for _, fh := range files {
		up, err := h.readFile(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, up)
	}
	return out, nil
}

func (h *ImageHandler) readFile(fh *multipart.FileHeader) (service.Upload, error) {
	if fh.Size > h.maxUpload {
		return service.Upload{}, apperrors.Validationf("upload", "file %q is larger than %d bytes", fh.Filename, h.maxUpload)
	}
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, apperrors.Validation("upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		return service.Upload{}, apperrors.Validation("upload", err)
	}
	if int64(len(data)) > h.maxUpload {
		return service.Upload{}, apperrors.Validationf("upload", "file %q is larger than %d bytes", fh.Filename, h.maxUpload)
	}
	if len(data) == 0 {
		return service.Upload{}, apperrors.Validation("upload", apperrors.ErrMissingPayload)
	}
	if ct := mimetype.Detect(data).String(); !allowedTypes[ct] {
		return service.Upload{}, apperrors.Validation("upload",
			fmt.Errorf("%w: %s (allowed: jpeg, png, webp, gif, bmp)", apperrors.ErrUnsupportedFormat, ct))
	}
	return service.Upload{Name: fh.Filename, Data: data}, nil
}

// bind fills form from the request and runs its binding rules.
func bind(c *gin.Context, form any) error {
	if err := c.ShouldBind(form); err != nil {
		return apperrors.Validation("request", err)
	}
	return nil
}

func parseColor(field, value, def string) (color.NRGBA, error) {
	if value == "" {
		value = def
	}
	col, err := raster.ParseColor(value)
	if err != nil {
		return color.NRGBA{}, apperrors.Validation(field, err)
	}
	return col, nil
}

func downloadURL(filename string) string {
	return "/images/download/" + url.PathEscape(filename)
}

func respondStored(c *gin.Context, message, filename string) {
	c.JSON(http.StatusOK, entity.ProcessResponse{
		Message:     message,
		Filename:    filename,
		DownloadURL: downloadURL(filename),
	})
}

func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("request_id", c.GetString(middleware.RequestIDKey)).Error("request processing failed")
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
