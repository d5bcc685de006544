package raster

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/errgroup"
)

const defaultCacheMaxBytes = 64 << 20

// Config is the engine tuning surface. It is process wide: one Engine is
// shared by every request, so a change made through Reconfigure is seen by
// all in-flight work.
type Config struct {
	CacheEnabled  bool  `json:"cache"`
	CacheMaxBytes int64 `json:"cacheMaxBytes"`
	Concurrency   int   `json:"concurrency"`
	// SIMD is recorded and reported only, the pure Go backend has no vector switch.
	SIMD bool `json:"simd"`
}

func (c Config) normalized() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = runtime.NumCPU()
	}
	if c.CacheMaxBytes <= 0 {
		c.CacheMaxBytes = defaultCacheMaxBytes
	}
	return c
}

// Engine decodes, encodes and fans out per-image work.
//
// Reconfigure follows a single-writer convention: it is meant to be called
// from one admin path at a time. Concurrent reconfiguration is serialized by
// the lock but the last writer wins, and requests already running keep the
// settings they started with.
type Engine struct {
	mu    sync.RWMutex
	cfg   Config
	cache *ristretto.Cache[uint64, *Image]
}

func New(cfg Config) (*Engine, error) {
	e := &Engine{}
	if err := e.Reconfigure(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// Settings returns a copy of the current tuning.
func (e *Engine) Settings() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// Reconfigure swaps the tuning. Disabling the cache drops every cached image.
func (e *Engine) Reconfigure(cfg Config) error {
	cfg = cfg.normalized()

	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case !cfg.CacheEnabled && e.cache != nil:
		e.cache.Clear()
		e.cache.Close()
		e.cache = nil
	case cfg.CacheEnabled && e.cache == nil:
		cache, err := ristretto.NewCache(&ristretto.Config[uint64, *Image]{
			NumCounters: 1e4,
			MaxCost:     cfg.CacheMaxBytes,
			BufferItems: 64,
		})
		if err != nil {
			return fmt.Errorf("create decode cache: %w", err)
		}
		e.cache = cache
	case cfg.CacheEnabled && cfg.CacheMaxBytes != e.cfg.CacheMaxBytes:
		e.cache.UpdateMaxCost(cfg.CacheMaxBytes)
	}

	e.cfg = cfg
	return nil
}

// Decode is the cached variant of the package level Decode.
func (e *Engine) Decode(data []byte) (*Image, error) {
	e.mu.RLock()
	cache := e.cache
	e.mu.RUnlock()

	if cache == nil {
		return Decode(data)
	}

	key := xxhash.Sum64(data)
	if img, ok := cache.Get(key); ok {
		return img, nil
	}
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	cache.Set(key, img, int64(len(img.pix.Pix)))
	return img, nil
}

// DecodeAll decodes payloads concurrently; result i always belongs to payload i.
func (e *Engine) DecodeAll(ctx context.Context, payloads [][]byte) ([]*Image, error) {
	images := make([]*Image, len(payloads))
	err := e.ForEach(ctx, len(payloads), func(i int) error {
		img, err := e.Decode(payloads[i])
		if err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
		images[i] = img
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

// ForEach runs fn for 0..n-1 with at most Concurrency goroutines and returns
// the first error.
func (e *Engine) ForEach(ctx context.Context, n int, fn func(i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Settings().Concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}

func (e *Engine) Encode(img *Image, format Format, opts EncodeOptions) ([]byte, error) {
	return Encode(img, format, opts)
}

// Close releases the decode cache.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cache != nil {
		e.cache.Close()
		e.cache = nil
	}
}
