package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

type pipelineForm struct {
	Operations string `form:"operations" binding:"required"`
	Format     string `form:"format"`
}

// parseOperations accepts a JSON array of operation objects or the named
// form "greyscale,blur:3,resize:100x".
func parseOperations(s string) ([]entity.OperationDTO, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var dtos []entity.OperationDTO
		if err := json.Unmarshal([]byte(s), &dtos); err != nil {
			return nil, fmt.Errorf("operations: %w", err)
		}
		return dtos, nil
	}
	var dtos []entity.OperationDTO
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			dtos = append(dtos, entity.OperationDTO{Type: part})
		}
	}
	return dtos, nil
}

func (h *ImageHandler) bindPipeline(c *gin.Context) (pipelineForm, []entity.OperationDTO, error) {
	var form pipelineForm
	if err := bind(c, &form); err != nil {
		return form, nil, err
	}
	dtos, err := parseOperations(form.Operations)
	if err != nil {
		return form, nil, apperrors.Validation("pipeline", err)
	}
	return form, dtos, nil
}

func (h *ImageHandler) Pipeline(c *gin.Context) {
	form, dtos, err := h.bindPipeline(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ops, err := entity.ToSpecs(dtos)
	if err != nil {
		respondError(c, apperrors.Validation("pipeline", err))
		return
	}
	up, err := h.upload(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}
	filename, err := h.service.Pipeline(c.Request.Context(), up, ops, form.Format)
	h.finish(c, "Pipeline executed successfully", filename, err)
}

func (h *ImageHandler) PipelineAsync(c *gin.Context) {
	form, dtos, err := h.bindPipeline(c)
	if err != nil {
		respondError(c, err)
		return
	}
	up, err := h.upload(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}
	task, err := h.service.SubmitPipeline(c.Request.Context(), up, dtos, form.Format)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, entity.UploadResponse{
		ID:     task.ID,
		Status: task.Status,
	})
}

func (h *ImageHandler) GetTask(c *gin.Context) {
	task, err := h.service.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := entity.TaskResponse{
		ID:     task.ID,
		Status: task.Status,
		Error:  task.Error,
	}
	if task.Status == entity.StatusCompleted {
		response.Filename = task.Filename
		response.DownloadURL = downloadURL(task.Filename)
	}
	c.JSON(http.StatusOK, response)
}
