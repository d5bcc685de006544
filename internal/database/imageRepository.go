package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/storage"
	"github.com/sirupsen/logrus"
)

const (
	processedDir = "processed"
	metadataDir  = "metadata"
	uploadsDir   = "uploads"
	tasksDir     = "tasks"
)

func NewAssetRepository(storage storage.FileStorage) AssetRepository {
	return &fileAssetRepository{storage: storage}
}

// SaveAsset writes the bytes first and the record second. If the record
// cannot be written the bytes are removed again.
func (r *fileAssetRepository) SaveAsset(ctx context.Context, record *entity.AssetRecord, data []byte) error {
	if err := validName(record.Filename); err != nil {
		return err
	}
	meta, err := json.Marshal(record)
	if err != nil {
		return err
	}

	assetPath := path.Join(processedDir, record.Filename)
	if err := r.storage.Save(ctx, assetPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("save %s: %w", record.Filename, err)
	}
	if err := r.storage.Save(ctx, metadataPath(record.Filename), bytes.NewReader(meta)); err != nil {
		if rmErr := r.storage.Delete(context.WithoutCancel(ctx), assetPath); rmErr != nil {
			logrus.WithError(rmErr).WithField("filename", record.Filename).Error("failed to roll back asset")
		}
		return fmt.Errorf("save metadata for %s: %w", record.Filename, err)
	}
	return nil
}

func (r *fileAssetRepository) OpenAsset(ctx context.Context, filename string) (io.ReadCloser, error) {
	if err := validName(filename); err != nil {
		return nil, err
	}
	rc, err := r.storage.Get(ctx, path.Join(processedDir, filename))
	return rc, notFound(err, filename)
}

func (r *fileAssetRepository) FindAsset(ctx context.Context, filename string) (*entity.AssetRecord, error) {
	if err := validName(filename); err != nil {
		return nil, err
	}
	var record entity.AssetRecord
	if err := r.readJSON(ctx, metadataPath(filename), &record); err != nil {
		return nil, notFound(err, filename)
	}
	return &record, nil
}

// ListAssets returns the records of all stored outputs, oldest first.
// Outputs without a readable record are listed with what storage knows.
func (r *fileAssetRepository) ListAssets(ctx context.Context) ([]entity.AssetRecord, error) {
	objects, err := r.storage.List(ctx, processedDir)
	if err != nil {
		return nil, err
	}
	records := make([]entity.AssetRecord, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Path, processedDir+"/")
		record, err := r.FindAsset(ctx, name)
		if err != nil {
			record = &entity.AssetRecord{Filename: name, Size: int(obj.Size), CreatedAt: obj.ModTime}
		}
		records = append(records, *record)
	}
	return records, nil
}

func (r *fileAssetRepository) DeleteAsset(ctx context.Context, filename string) error {
	if err := validName(filename); err != nil {
		return err
	}
	if err := r.storage.Delete(ctx, path.Join(processedDir, filename)); err != nil {
		return notFound(err, filename)
	}
	if err := r.storage.Delete(ctx, metadataPath(filename)); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

// SaveSource stores an uploaded original and returns its store path.
func (r *fileAssetRepository) SaveSource(ctx context.Context, name string, data []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	p := path.Join(uploadsDir, name)
	return p, r.storage.Save(ctx, p, bytes.NewReader(data))
}

func (r *fileAssetRepository) LoadSource(ctx context.Context, p string) ([]byte, error) {
	rc, err := r.storage.Get(ctx, p)
	if err != nil {
		return nil, notFound(err, p)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (r *fileAssetRepository) DeleteSource(ctx context.Context, p string) error {
	err := r.storage.Delete(ctx, p)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

func (r *fileAssetRepository) SaveTask(ctx context.Context, task *entity.TaskRecord) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return r.storage.Save(ctx, taskPath(task.ID), bytes.NewReader(data))
}

func (r *fileAssetRepository) FindTask(ctx context.Context, id string) (*entity.TaskRecord, error) {
	if err := validName(id); err != nil {
		return nil, err
	}
	var task entity.TaskRecord
	if err := r.readJSON(ctx, taskPath(id), &task); err != nil {
		return nil, notFound(err, "task "+id)
	}
	return &task, nil
}

func (r *fileAssetRepository) readJSON(ctx context.Context, p string, v any) error {
	reader, err := r.storage.Get(ctx, p)
	if err != nil {
		return err
	}
	defer reader.Close()
	return json.NewDecoder(reader).Decode(v)
}

func metadataPath(filename string) string {
	return path.Join(metadataDir, filename+".json")
}

func taskPath(id string) string {
	return path.Join(tasksDir, id+".json")
}

// validName accepts a single path element.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return apperrors.Validationf("filename", "invalid name %q", name)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NotFound(what, apperrors.ErrNotFound)
	}
	return err
}
