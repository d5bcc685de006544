package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const pipelineOp = "pipeline"

// pipelineOutput resolves the requested output format, jpeg by default.
func pipelineOutput(format string) (output, error) {
	if format == "" {
		return jpegOutput, nil
	}
	f, err := raster.ParseFormat(format)
	if err != nil {
		return output{}, apperrors.Validation(pipelineOp, err)
	}
	if !f.Encodable() {
		return output{}, apperrors.Validationf(pipelineOp, "output format %q cannot be written", f)
	}
	out := output{format: f}
	if f == raster.FormatJPEG {
		out.quality = raster.DefaultJPEGQuality
	}
	return out, nil
}

// Pipeline runs ops on the upload and stores the result. Every operation is
// checked before the image is decoded.
func (s *imageService) Pipeline(ctx context.Context, up Upload, ops []entity.OperationSpec, format string) (string, error) {
	out, err := pipelineOutput(format)
	if err != nil {
		return "", err
	}
	if err := s.processor.Validate(ops); err != nil {
		return "", err
	}
	img, err := s.decode(pipelineOp, up)
	if err != nil {
		return "", err
	}
	result, err := s.processor.Apply(ctx, img, ops)
	if err != nil {
		return "", err
	}
	return s.store(ctx, pipelineOp, s.filename("utility_pipeline", up.Name, out.format), result, out, up.Name)
}

// SubmitPipeline validates the request, stores the source and queues a task.
// The returned record is in the processing state.
func (s *imageService) SubmitPipeline(ctx context.Context, up Upload, dtos []entity.OperationDTO, format string) (*entity.TaskRecord, error) {
	if len(up.Data) == 0 {
		return nil, apperrors.Validation(pipelineOp, apperrors.ErrMissingPayload)
	}
	if _, err := pipelineOutput(format); err != nil {
		return nil, err
	}
	specs, err := entity.ToSpecs(dtos)
	if err != nil {
		return nil, apperrors.Validation(pipelineOp, err)
	}
	if err := s.processor.Validate(specs); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	source, err := s.repo.SaveSource(ctx, id, up.Data)
	if err != nil {
		return nil, processing(pipelineOp, fmt.Errorf("store source: %w", err))
	}
	now := s.now().UTC()
	record := &entity.TaskRecord{
		ID:        id,
		Status:    entity.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.SaveTask(ctx, record); err != nil {
		return nil, processing(pipelineOp, err)
	}

	task := entity.PipelineTask{
		ID:           id,
		Source:       source,
		Operations:   dtos,
		Format:       format,
		OriginalName: up.Name,
	}
	log := logrus.WithFields(logrus.Fields{"task_id": id, "operations": len(dtos)})

	if s.producer == nil {
		log.Info("running pipeline task in process")
		go func() {
			_ = s.RunTask(context.WithoutCancel(ctx), task)
		}()
		return record, nil
	}

	if err := s.producer.SendMessage(ctx, id, task); err != nil {
		s.finishTask(context.WithoutCancel(ctx), task, "", fmt.Errorf("publish task: %w", err))
		return nil, processing(pipelineOp, fmt.Errorf("publish task: %w", err))
	}
	log.Info("pipeline task queued")
	return record, nil
}

// RunTask executes a queued task and records the outcome. The stored source
// is removed either way.
func (s *imageService) RunTask(ctx context.Context, task entity.PipelineTask) error {
	filename, err := s.runTask(ctx, task)
	s.finishTask(context.WithoutCancel(ctx), task, filename, err)
	return err
}

// HandleMessage decodes a task published by SubmitPipeline and runs it.
func (s *imageService) HandleMessage(ctx context.Context, value []byte) error {
	var task entity.PipelineTask
	if err := json.Unmarshal(value, &task); err != nil {
		return fmt.Errorf("decode task: %w", err)
	}
	if task.ID == "" || task.Source == "" {
		return fmt.Errorf("decode task: id and source are required")
	}
	return s.RunTask(ctx, task)
}

func (s *imageService) runTask(ctx context.Context, task entity.PipelineTask) (string, error) {
	specs, err := entity.ToSpecs(task.Operations)
	if err != nil {
		return "", apperrors.Validation(pipelineOp, err)
	}
	data, err := s.repo.LoadSource(ctx, task.Source)
	if err != nil {
		return "", processing(pipelineOp, fmt.Errorf("load source: %w", err))
	}
	return s.Pipeline(ctx, Upload{Name: task.OriginalName, Data: data}, specs, task.Format)
}

func (s *imageService) finishTask(ctx context.Context, task entity.PipelineTask, filename string, runErr error) {
	log := logrus.WithField("task_id", task.ID)

	record, err := s.repo.FindTask(ctx, task.ID)
	if err != nil {
		record = &entity.TaskRecord{ID: task.ID, CreatedAt: s.now().UTC()}
	}
	record.UpdatedAt = s.now().UTC()
	if runErr != nil {
		record.Status = entity.StatusFailed
		record.Error = runErr.Error()
		log.WithError(runErr).Error("pipeline task failed")
	} else {
		record.Status = entity.StatusCompleted
		record.Filename = filename
		log.WithField("filename", filename).Info("pipeline task completed")
	}
	// источник удаляется до записи статуса: завершенная задача не держит файлов
	if err := s.repo.DeleteSource(ctx, task.Source); err != nil {
		log.WithError(err).Warn("failed to remove task source")
	}
	if err := s.repo.SaveTask(ctx, record); err != nil {
		log.WithError(err).Error("failed to save task record")
	}
}

func (s *imageService) GetTask(ctx context.Context, id string) (*entity.TaskRecord, error) {
	return s.repo.FindTask(ctx, id)
}
