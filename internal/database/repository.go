package database

import (
	"context"
	"io"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/storage"
)

// AssetRepository keeps output images under processed/, their metadata
// under metadata/, uploaded pipeline sources under uploads/ and task
// records under tasks/.
type AssetRepository interface {
	SaveAsset(ctx context.Context, record *entity.AssetRecord, data []byte) error
	OpenAsset(ctx context.Context, filename string) (io.ReadCloser, error)
	FindAsset(ctx context.Context, filename string) (*entity.AssetRecord, error)
	ListAssets(ctx context.Context) ([]entity.AssetRecord, error)
	DeleteAsset(ctx context.Context, filename string) error

	SaveSource(ctx context.Context, name string, data []byte) (string, error)
	LoadSource(ctx context.Context, path string) ([]byte, error)
	DeleteSource(ctx context.Context, path string) error

	SaveTask(ctx context.Context, task *entity.TaskRecord) error
	FindTask(ctx context.Context, id string) (*entity.TaskRecord, error)
}

type fileAssetRepository struct {
	storage storage.FileStorage
}
