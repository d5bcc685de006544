package entity

import "time"

// AssetRecord is the metadata stored next to every output image.
type AssetRecord struct {
	Filename  string    `json:"filename"`
	Operation string    `json:"operation"`
	Format    string    `json:"format"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Size      int       `json:"size"`
	Source    string    `json:"source,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// PipelineTask is the message published for an asynchronous pipeline run.
// Source is the asset store path of the uploaded original.
type PipelineTask struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	Operations   []OperationDTO `json:"operations"`
	Format       string         `json:"format,omitempty"`
	OriginalName string         `json:"originalName,omitempty"`
}

// TaskRecord tracks a PipelineTask until it completes or fails.
type TaskRecord struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Filename  string    `json:"filename,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProcessResponse struct {
	Message     string `json:"message"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"downloadUrl"`
}

type ThumbnailResponse struct {
	Message    string            `json:"message"`
	Thumbnails []ProcessResponse `json:"thumbnails"`
}

type UploadResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type TaskResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Filename    string `json:"filename,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}

type ListResponse struct {
	Files []AssetRecord `json:"files"`
}
