package transport

import (
	"math"
	"net/http"
	"strings"

	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/bgremoval"
	"github.com/ds124wfegd/image-studio/internal/pkg/matting"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
	"github.com/ds124wfegd/image-studio/internal/service"
	"github.com/gin-gonic/gin"
)

type removeBackgroundForm struct {
	Method    string  `form:"method"`
	Threshold int     `form:"threshold" binding:"gte=0,lte=255"`
	Color     string  `form:"color"`
	Tolerance float64 `form:"tolerance" binding:"gte=0"`
}

func (h *ImageHandler) RemoveBackground(c *gin.Context) {
	var form removeBackgroundForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	method, err := bgremoval.ParseMethod(form.Method)
	if err != nil {
		respondError(c, apperrors.Validation("remove-background", err))
		return
	}
	cfg := bgremoval.Config{
		Method:    method,
		Threshold: form.Threshold,
		Tolerance: form.Tolerance,
	}
	if form.Color != "" {
		key, err := parseColor("color", form.Color, "")
		if err != nil {
			respondError(c, err)
			return
		}
		cfg.Color = &key
	}
	filename, err := h.service.RemoveBackground(c.Request.Context(), up, cfg)
	h.finish(c, "Background removed successfully", filename, err)
}

type smartRemovalForm struct {
	EdgeDetection  *bool    `form:"edgeDetection"`
	ColorThreshold *int     `form:"colorThreshold" binding:"omitempty,gte=0,lte=255"`
	Blur           *float64 `form:"blur" binding:"omitempty,gte=0"`
	Feather        *float64 `form:"feather" binding:"omitempty,gte=0"`
}

func (h *ImageHandler) SmartRemoveBackground(c *gin.Context) {
	var form smartRemovalForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.RemoveBackground(c.Request.Context(), up, bgremoval.Config{
		Method: bgremoval.MethodSmart,
		Smart: bgremoval.SmartConfig{
			EdgeDetection:  form.EdgeDetection,
			ColorThreshold: form.ColorThreshold,
			Blur:           form.Blur,
			Feather:        form.Feather,
		},
	})
	h.finish(c, "Smart background removal completed", filename, err)
}

type modelRemovalForm struct {
	Model        string   `form:"model" binding:"omitempty,oneof=small medium large"`
	OutputFormat string   `form:"outputFormat"`
	Quality      *float64 `form:"quality" binding:"omitempty,gt=0,lte=100"`
}

// ModelRemoveBackground sends the upload to the matting model.
func (h *ImageHandler) ModelRemoveBackground(c *gin.Context) {
	var form modelRemovalForm
	up, err := h.bindUpload(c, &form)
	if err != nil {
		respondError(c, err)
		return
	}
	model, err := matting.ParseModel(form.Model)
	if err != nil {
		respondError(c, apperrors.Validation("bg-removal", err))
		return
	}
	opts := service.ModelOptions{Model: model, Format: raster.FormatPNG}
	if form.OutputFormat != "" {
		f, err := raster.ParseFormat(strings.TrimPrefix(form.OutputFormat, "image/"))
		if err != nil {
			respondError(c, apperrors.Validation("bg-removal", err))
			return
		}
		opts.Format = f
	}
	if form.Quality != nil {
		opts.Quality = qualityPercent(*form.Quality)
	}

	filename, err := h.service.RemoveBackgroundModel(c.Request.Context(), up, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Background removed successfully",
		"filename":    filename,
		"downloadUrl": downloadURL(filename),
	})
}

// qualityPercent accepts both 0..1 fractions and 1..100 percentages.
func qualityPercent(q float64) int {
	if q <= 1 {
		q *= 100
	}
	return int(math.Round(q))
}
