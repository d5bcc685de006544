package transport

import (
	"fmt"
	"net/http"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/service"
	"github.com/gin-gonic/gin"
)

func (h *ImageHandler) Download(c *gin.Context) {
	filename := c.Param("filename")
	rc, contentType, err := h.service.Open(c.Request.Context(), filename)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", filename),
	})
}

func (h *ImageHandler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []entity.AssetRecord{}
	}
	c.JSON(http.StatusOK, entity.ListResponse{Files: records})
}

func (h *ImageHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("filename")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}

func (h *ImageHandler) EngineSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.EngineSettings())
}

type engineRequest struct {
	Cache       *bool `json:"cache"`
	Concurrency *int  `json:"concurrency" binding:"omitempty,gte=1"`
	SIMD        *bool `json:"simd"`
}

func (h *ImageHandler) TuneEngine(c *gin.Context) {
	var req engineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settings, err := h.service.TuneEngine(service.EngineOptions{
		Cache:       req.Cache,
		Concurrency: req.Concurrency,
		SIMD:        req.SIMD,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
