package database

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingMetadata отказывает в записи метаданных
type failingMetadata struct {
	storage.FileStorage
}

func (f failingMetadata) Save(ctx context.Context, p string, data io.Reader) error {
	if strings.HasPrefix(p, metadataDir+"/") {
		return errors.New("disk full")
	}
	return f.FileStorage.Save(ctx, p, data)
}

func TestSaveAndFindAsset(t *testing.T) {
	repo := NewAssetRepository(storage.NewFileStorage(t.TempDir()))
	ctx := context.Background()

	record := &entity.AssetRecord{
		Filename:  "resized_1_a.jpg",
		Operation: "resize",
		Format:    "jpeg",
		Width:     10,
		Height:    5,
		Size:      3,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.SaveAsset(ctx, record, []byte("abc")))

	got, err := repo.FindAsset(ctx, "resized_1_a.jpg")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	rc, err := repo.OpenAsset(ctx, "resized_1_a.jpg")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "abc", string(data))

	list, err := repo.ListAssets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "resize", list[0].Operation)

	require.NoError(t, repo.DeleteAsset(ctx, "resized_1_a.jpg"))
	_, err = repo.OpenAsset(ctx, "resized_1_a.jpg")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	assert.True(t, apperrors.IsKind(repo.DeleteAsset(ctx, "resized_1_a.jpg"), apperrors.KindNotFound))
}

func TestSaveAssetRollsBackWithoutMetadata(t *testing.T) {
	base := storage.NewFileStorage(t.TempDir())
	repo := NewAssetRepository(failingMetadata{base})
	ctx := context.Background()

	err := repo.SaveAsset(ctx, &entity.AssetRecord{Filename: "x.png"}, []byte("data"))
	require.Error(t, err)

	ok, err := base.Exists(ctx, "processed/x.png")
	require.NoError(t, err)
	assert.False(t, ok, "bytes must not outlive a failed record write")
}

func TestRejectsPathNames(t *testing.T) {
	repo := NewAssetRepository(storage.NewFileStorage(t.TempDir()))
	ctx := context.Background()

	for _, name := range []string{"", "..", "a/b.png", `a\b.png`} {
		_, err := repo.OpenAsset(ctx, name)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), name)
	}
}

func TestTasksAndSources(t *testing.T) {
	repo := NewAssetRepository(storage.NewFileStorage(t.TempDir()))
	ctx := context.Background()

	_, err := repo.FindTask(ctx, "nope")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	task := &entity.TaskRecord{ID: "t1", Status: entity.StatusProcessing}
	require.NoError(t, repo.SaveTask(ctx, task))
	task.Status = entity.StatusCompleted
	task.Filename = "pipeline_1_a.jpg"
	require.NoError(t, repo.SaveTask(ctx, task))

	got, err := repo.FindTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, got.Status)
	assert.Equal(t, "pipeline_1_a.jpg", got.Filename)

	p, err := repo.SaveSource(ctx, "t1.png", []byte("src"))
	require.NoError(t, err)
	assert.Equal(t, "uploads/t1.png", p)

	data, err := repo.LoadSource(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "src", string(data))

	require.NoError(t, repo.DeleteSource(ctx, p))
	require.NoError(t, repo.DeleteSource(ctx, p))
}
