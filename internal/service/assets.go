package service

import (
	"context"
	"io"
	"time"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/apperrors"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
	"github.com/sirupsen/logrus"
)

// Open returns the stored bytes of an output and its content type.
func (s *imageService) Open(ctx context.Context, filename string) (io.ReadCloser, string, error) {
	rc, err := s.repo.OpenAsset(ctx, filename)
	if err != nil {
		return nil, "", err
	}
	return rc, contentType(filename), nil
}

func (s *imageService) List(ctx context.Context) ([]entity.AssetRecord, error) {
	return s.repo.ListAssets(ctx)
}

func (s *imageService) Delete(ctx context.Context, filename string) error {
	if err := s.repo.DeleteAsset(ctx, filename); err != nil {
		return err
	}
	logrus.WithField("filename", filename).Info("asset deleted")
	return nil
}

// ExpiredAssets lists outputs created before the given time.
func (s *imageService) ExpiredAssets(ctx context.Context, before time.Time) ([]entity.AssetRecord, error) {
	records, err := s.repo.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	var expired []entity.AssetRecord
	for _, r := range records {
		if r.CreatedAt.Before(before) {
			expired = append(expired, r)
		}
	}
	return expired, nil
}

func (s *imageService) EngineSettings() raster.Config {
	return s.engine.Settings()
}

// TuneEngine changes the process wide engine settings. Work already running
// keeps the settings it started with.
func (s *imageService) TuneEngine(opts EngineOptions) (raster.Config, error) {
	cfg := s.engine.Settings()
	if opts.Cache != nil {
		cfg.CacheEnabled = *opts.Cache
	}
	if opts.Concurrency != nil {
		if *opts.Concurrency < 1 {
			return raster.Config{}, apperrors.Validationf("engine", "concurrency must be >= 1, got %d", *opts.Concurrency)
		}
		cfg.Concurrency = *opts.Concurrency
	}
	if opts.SIMD != nil {
		cfg.SIMD = *opts.SIMD
	}
	if err := s.engine.Reconfigure(cfg); err != nil {
		return raster.Config{}, processing("engine", err)
	}

	settings := s.engine.Settings()
	logrus.WithFields(logrus.Fields{
		"cache":       settings.CacheEnabled,
		"concurrency": settings.Concurrency,
		"simd":        settings.SIMD,
	}).Warn("engine settings changed for the whole process")
	return settings, nil
}
