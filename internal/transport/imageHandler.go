package transport

import (
	"net/http"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/collage"
	"github.com/ds124wfegd/image-studio/internal/pkg/mask"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
	"github.com/ds124wfegd/image-studio/internal/service"
	"github.com/gin-gonic/gin"
)

func (h *ImageHandler) Info(c *gin.Context) {
	up, err := h.upload(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}
	info, err := h.service.Info(c.Request.Context(), up)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

type resizeForm struct {
	Width  int    `form:"width" binding:"required,gt=0"`
	Height int    `form:"height" binding:"required,gt=0"`
	Fit    string `form:"fit" binding:"omitempty,oneof=cover fill inside"`
}

func (h *ImageHandler) Resize(c *gin.Context) {
	var form resizeForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.Resize(c.Request.Context(), up, entity.Resize{
		Width:  form.Width,
		Height: form.Height,
		Fit:    raster.Fit(form.Fit),
	})
	h.finish(c, "Image resized successfully", filename, err)
}

type convertForm struct {
	Format string `form:"format" binding:"required"`
}

func (h *ImageHandler) Convert(c *gin.Context) {
	var form convertForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.Convert(c.Request.Context(), up, form.Format)
	h.finish(c, "Image converted successfully", filename, err)
}

type filtersForm struct {
	Blur       *float64 `form:"blur" binding:"omitempty,gte=0"`
	Sharpen    bool     `form:"sharpen"`
	Greyscale  bool     `form:"greyscale"`
	Brightness *float64 `form:"brightness" binding:"omitempty,gte=0"`
	Contrast   *float64 `form:"contrast" binding:"omitempty,gte=0"`
}

func (h *ImageHandler) Filters(c *gin.Context) {
	var form filtersForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.Filters(c.Request.Context(), up, service.FilterOptions{
		Blur:       form.Blur,
		Sharpen:    form.Sharpen,
		Greyscale:  form.Greyscale,
		Brightness: form.Brightness,
		Contrast:   form.Contrast,
	})
	h.finish(c, "Filters applied successfully", filename, err)
}

type cropForm struct {
	Left   int `form:"left" binding:"gte=0"`
	Top    int `form:"top" binding:"gte=0"`
	Width  int `form:"width" binding:"required,gt=0"`
	Height int `form:"height" binding:"required,gt=0"`
}

func (h *ImageHandler) Crop(c *gin.Context) {
	var form cropForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.Crop(c.Request.Context(), up, entity.Crop{
		Left:   form.Left,
		Top:    form.Top,
		Width:  form.Width,
		Height: form.Height,
	})
	h.finish(c, "Image cropped successfully", filename, err)
}

type compositeForm struct {
	Left    *int   `form:"left"`
	Top     *int   `form:"top"`
	Blend   string `form:"blend"`
	Gravity string `form:"gravity"`
}

func (h *ImageHandler) Composite(c *gin.Context) {
	var form compositeForm
	if err := bind(c, &form); err != nil {
		respondError(c, err)
		return
	}
	ups, err := h.uploads(c, "images")
	if err != nil {
		respondError(c, err)
		return
	}
	if len(ups) != 2 {
		respondError(c, apperrors.Validationf("composite", "exactly 2 images are required, got %d", len(ups)))
		return
	}
	filename, err := h.service.Composite(c.Request.Context(), ups[0], ups[1], entity.Composite{
		Left:    form.Left,
		Top:     form.Top,
		Blend:   form.Blend,
		Gravity: form.Gravity,
	})
	h.finish(c, "Images composited successfully", filename, err)
}

type collageForm struct {
	Columns         int    `form:"columns" binding:"required,gte=1"`
	Spacing         *int   `form:"spacing" binding:"omitempty,gte=0"`
	BackgroundColor string `form:"backgroundColor"`
}

func (h *ImageHandler) Collage(c *gin.Context) {
	var form collageForm
	if err := bind(c, &form); err != nil {
		respondError(c, err)
		return
	}
	bg, err := parseColor("backgroundColor", form.BackgroundColor, "#ffffff")
	if err != nil {
		respondError(c, err)
		return
	}
	ups, err := h.uploads(c, "images")
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.Collage(c.Request.Context(), ups, collage.Options{
		Columns:    form.Columns,
		Spacing:    form.Spacing,
		Background: bg,
	})
	h.finish(c, "Collage created successfully", filename, err)
}

type watermarkForm struct {
	Text     string   `form:"text" binding:"required"`
	FontSize *int     `form:"fontSize" binding:"omitempty,gt=0"`
	Color    string   `form:"color"`
	Opacity  *float64 `form:"opacity" binding:"omitempty,gte=0,lte=1"`
	Position string   `form:"position"`
}

func (h *ImageHandler) Watermark(c *gin.Context) {
	var form watermarkForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	col, err := parseColor("color", form.Color, "#ffffff")
	if err != nil {
		respondError(c, err)
		return
	}
	style := raster.TextStyle{
		FontSize: entity.DefaultFontSize,
		Color:    col,
		Opacity:  entity.DefaultOpacity,
		Position: entity.DefaultPosition,
	}
	if form.FontSize != nil {
		style.FontSize = *form.FontSize
	}
	if form.Opacity != nil {
		style.Opacity = *form.Opacity
	}
	if form.Position != "" {
		style.Position = form.Position
	}
	filename, err := h.service.Watermark(c.Request.Context(), up, entity.Watermark{Text: form.Text, Style: style})
	h.finish(c, "Watermark added successfully", filename, err)
}

type borderForm struct {
	Width  int    `form:"width" binding:"required,gt=0"`
	Height int    `form:"height" binding:"gte=0"`
	Color  string `form:"color"`
}

func (h *ImageHandler) Border(c *gin.Context) {
	var form borderForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	col, err := parseColor("color", form.Color, "#000000")
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.Border(c.Request.Context(), up, entity.Border{
		Width:  form.Width,
		Height: form.Height,
		Color:  col,
	})
	h.finish(c, "Border added successfully", filename, err)
}

type maskForm struct {
	MaskType        string   `form:"maskType"`
	Type            string   `form:"type"`
	Radius          *float64 `form:"radius" binding:"omitempty,gte=0"`
	BackgroundColor string   `form:"backgroundColor"`
}

func (h *ImageHandler) Mask(c *gin.Context) {
	var form maskForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	name := form.MaskType
	if name == "" {
		name = form.Type
	}
	shape, err := mask.ParseShape(name)
	if err != nil {
		respondError(c, apperrors.Validation("mask", err))
		return
	}
	bg, err := parseColor("backgroundColor", form.BackgroundColor, "#ffffff")
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.Mask(c.Request.Context(), up, entity.Mask{
		Shape:      shape,
		Radius:     form.Radius,
		Background: bg,
	})
	h.finish(c, "Mask applied successfully", filename, err)
}

type rotateForm struct {
	Angle           *float64 `form:"angle" binding:"required"`
	BackgroundColor string   `form:"backgroundColor"`
}

func (h *ImageHandler) Rotate(c *gin.Context) {
	var form rotateForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	bg, err := parseColor("backgroundColor", form.BackgroundColor, "#ffffff")
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.Rotate(c.Request.Context(), up, entity.Rotate{Angle: *form.Angle, Background: bg})
	h.finish(c, "Image rotated successfully", filename, err)
}

type flipForm struct {
	Direction string `form:"direction" binding:"required,oneof=horizontal vertical both"`
}

func (h *ImageHandler) Flip(c *gin.Context) {
	var form flipForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.Flip(c.Request.Context(), up, entity.Flip{Axis: entity.FlipAxis(form.Direction)})
	h.finish(c, "Image flipped successfully", filename, err)
}

type rotateTransformForm struct {
	Angle           float64 `form:"angle"`
	Flip            bool    `form:"flip"`
	Flop            bool    `form:"flop"`
	BackgroundColor string  `form:"backgroundColor"`
}

func (h *ImageHandler) RotateTransform(c *gin.Context) {
	var form rotateTransformForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	bg, err := parseColor("backgroundColor", form.BackgroundColor, "#ffffff")
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.RotateTransform(c.Request.Context(), up, service.RotateTransformOptions{
		Angle:      form.Angle,
		Flip:       form.Flip,
		Flop:       form.Flop,
		Background: bg,
	})
	h.finish(c, "Image transformed successfully", filename, err)
}

type colorForm struct {
	Tint       string   `form:"tint"`
	Gamma      *float64 `form:"gamma"`
	Saturation *float64 `form:"saturation"`
	Negate     bool     `form:"negate"`
	Normalize  bool     `form:"normalize"`
}

func (h *ImageHandler) Color(c *gin.Context) {
	var form colorForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	opts := service.ColorOptions{
		Gamma:      form.Gamma,
		Saturation: form.Saturation,
		Negate:     form.Negate,
		Normalize:  form.Normalize,
	}
	if form.Tint != "" {
		tint, err := parseColor("tint", form.Tint, "")
		if err != nil {
			respondError(c, err)
			return
		}
		opts.Tint = &tint
	}
	filename, err := h.service.AdjustColor(c.Request.Context(), up, opts)
	h.finish(c, "Color adjusted successfully", filename, err)
}

type colorspaceForm struct {
	Colorspace string `form:"colorspace" binding:"required"`
}

func (h *ImageHandler) Colorspace(c *gin.Context) {
	var form colorspaceForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.Colorspace(c.Request.Context(), up, entity.ColorSpace{Space: form.Colorspace})
	h.finish(c, "Colorspace converted successfully", filename, err)
}

type channelsForm struct {
	RemoveAlpha       bool   `form:"removeAlpha"`
	EnsureAlpha       bool   `form:"ensureAlpha"`
	ExtractChannel    string `form:"extractChannel"`
	BandBoolOperation string `form:"bandBoolOperation"`
}

func (h *ImageHandler) Channels(c *gin.Context) {
	var form channelsForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.Channels(c.Request.Context(), up, service.ChannelOptions{
		RemoveAlpha: form.RemoveAlpha,
		EnsureAlpha: form.EnsureAlpha,
		Extract:     form.ExtractChannel,
		BandBool:    form.BandBoolOperation,
	})
	h.finish(c, "Channel operations applied successfully", filename, err)
}

func (h *ImageHandler) JoinChannels(c *gin.Context) {
	ups, err := h.uploads(c, "images")
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.JoinChannels(c.Request.Context(), ups)
	h.finish(c, "Channels joined successfully", filename, err)
}

type thumbnailsForm struct {
	Sizes string `form:"sizes"`
}

func (h *ImageHandler) Thumbnails(c *gin.Context) {
	var form thumbnailsForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	sizes, err := service.ParseThumbnailSizes(form.Sizes)
	if err != nil {
		respondError(c, apperrors.Validation("thumbnails", err))
		return
	}
	names, err := h.service.Thumbnails(c.Request.Context(), up, sizes)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := entity.ThumbnailResponse{Message: "Thumbnails created successfully"}
	for _, name := range names {
		resp.Thumbnails = append(resp.Thumbnails, entity.ProcessResponse{
			Message:     "Thumbnail created",
			Filename:    name,
			DownloadURL: downloadURL(name),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// bindUpload binds the form fields and reads the "image" file.
func (h *ImageHandler) bindUpload(c *gin.Context, form any) (service.Upload, error) {
	if err := bind(c, form); err != nil {
		return service.Upload{}, err
	}
	return h.upload(c, "image")
}

func (h *ImageHandler) finish(c *gin.Context, message, filename string, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	respondStored(c, message, filename)
}
