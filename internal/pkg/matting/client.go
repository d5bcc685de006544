package matting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// Model is the segmentation model size requested from the service.
type Model string

const (
	ModelSmall  Model = "small"
	ModelMedium Model = "medium"
	ModelLarge  Model = "large"
)

var ErrNotConfigured = errors.New("matting service url is not configured")

func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case "":
		return ModelMedium, nil
	case ModelSmall, ModelMedium, ModelLarge:
		return Model(s), nil
	}
	return "", fmt.Errorf("unknown matting model %q", s)
}

// Config configures the client.
type Config struct {
	URL     string
	Timeout time.Duration // default 60s
	Model   Model
}

// Options are per call settings sent with the image.
type Options struct {
	Model   Model
	Format  string
	Quality int
}

// Client posts images to an external segmentation service and returns the
// cut-out bytes it answers with.
type Client struct {
	url    string
	model  Model
	client *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = ModelMedium
	}
	return &Client{
		url:    cfg.URL,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

// Segment uploads data as multipart field "image" and returns the response body.
func (c *Client) Segment(ctx context.Context, data []byte, filename string, opts Options) ([]byte, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}
	if opts.Model == "" {
		opts.Model = c.model
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	fields := map[string]string{"model": string(opts.Model)}
	if opts.Format != "" {
		fields["format"] = opts.Format
	}
	if opts.Quality > 0 {
		fields["quality"] = strconv.Itoa(opts.Quality)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("matting error (status %d): %s", resp.StatusCode, truncate(respBody, 256))
	}
	if len(respBody) == 0 {
		return nil, errors.New("matting service returned an empty body")
	}
	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
