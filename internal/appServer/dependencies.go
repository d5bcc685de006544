package appServer

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/image-studio/config"
	"github.com/ds124wfegd/image-studio/internal/database"
	"github.com/ds124wfegd/image-studio/internal/pkg/bgremoval"
	"github.com/ds124wfegd/image-studio/internal/pkg/kafka"
	"github.com/ds124wfegd/image-studio/internal/pkg/matting"
	"github.com/ds124wfegd/image-studio/internal/pkg/processor"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
	"github.com/ds124wfegd/image-studio/internal/pkg/storage"
	"github.com/ds124wfegd/image-studio/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Dependencies is everything both binaries build from the config.
type Dependencies struct {
	Engine  *raster.Engine
	Service service.ImageService

	closers []func() error
}

// Close releases the engine cache and storage connections.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logrus.Errorf("error occured on closing dependency: %s", err.Error())
		}
	}
}

func SetupLogging(cfg *config.Config) {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", cfg.Server.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// BuildDependencies wires storage, engine, processor and service. A nil
// producer makes asynchronous pipelines run inside this process.
func BuildDependencies(ctx context.Context, cfg *config.Config, producer kafka.Producer) (*Dependencies, error) {
	deps := &Dependencies{}

	fileStorage, err := newStorage(ctx, cfg, deps)
	if err != nil {
		deps.Close()
		return nil, err
	}

	engine, err := raster.New(raster.Config{
		CacheEnabled:  cfg.Engine.CacheEnabled,
		CacheMaxBytes: cfg.Engine.CacheMaxBytes,
		Concurrency:   cfg.Engine.Concurrency,
		SIMD:          cfg.Engine.SIMD,
	})
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("engine: %w", err)
	}
	deps.Engine = engine
	deps.closers = append(deps.closers, func() error { engine.Close(); return nil })

	policy, err := processor.ParsePolicy(cfg.Pipeline.UnknownOperation)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	var (
		mattingClient bgremoval.MattingClient
		segmenter     bgremoval.Segmenter
	)
	if cfg.Matting.URL != "" {
		model, err := matting.ParseModel(cfg.Matting.Model)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("matting: %w", err)
		}
		client := matting.NewClient(matting.Config{
			URL:     cfg.Matting.URL,
			Timeout: cfg.Matting.Timeout,
			Model:   model,
		})
		mattingClient = client
		segmenter = bgremoval.ModelSegmenter{Client: client, Options: matting.Options{Model: model}}
	} else {
		logrus.Info("matting service is not configured, accurate background removal is disabled")
	}

	if producer != nil && kafka.IsMock(producer) {
		producer = nil
	}

	deps.Service = service.NewImageService(service.Deps{
		Repo:      database.NewAssetRepository(fileStorage),
		Producer:  producer,
		Processor: processor.NewImageProcessor(engine, segmenter, policy),
		Engine:    engine,
		Matting:   mattingClient,
	})
	return deps, nil
}

func newStorage(ctx context.Context, cfg *config.Config, deps *Dependencies) (storage.FileStorage, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return storage.NewFileStorage(cfg.Storage.LocalDir), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		deps.closers = append(deps.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		logrus.Info("Successfully connected to Redis")
		return storage.NewRedisStorage(client, cfg.Redis.TTL), nil

	case "s3":
		client, err := storage.NewS3Client(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("s3: %w", err)
		}
		return storage.NewS3Storage(client, cfg.S3.Bucket, cfg.S3.Prefix)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

func kafkaConfig(cfg *config.Config) kafka.Config {
	return kafka.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
		Enabled: cfg.Kafka.Enabled,
		Workers: cfg.Kafka.Workers,
	}
}
