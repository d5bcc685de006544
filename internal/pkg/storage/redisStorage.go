package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	assetKeyPrefix = "asset:"
	assetIndexKey  = "assets:index"
)

type redisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStorage keeps objects as plain string values under "asset:<path>"
// and indexes them in a sorted set scored by save time. ttl of zero keeps
// objects forever.
func NewRedisStorage(client *redis.Client, ttl time.Duration) FileStorage {
	return &redisStorage{client: client, ttl: ttl}
}

func (s *redisStorage) Save(ctx context.Context, p string, data io.Reader) error {
	clean, err := CleanPath(p)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, assetKeyPrefix+clean, body, s.ttl)
	pipe.ZAdd(ctx, assetIndexKey, redis.Z{Score: float64(time.Now().UnixMilli()), Member: clean})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisStorage) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	body, err := s.client.Get(ctx, assetKeyPrefix+clean).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (s *redisStorage) Delete(ctx context.Context, p string) error {
	clean, err := CleanPath(p)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, assetKeyPrefix+clean)
	pipe.ZRem(ctx, assetIndexKey, clean)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return nil
}

func (s *redisStorage) Exists(ctx context.Context, p string) (bool, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return false, err
	}
	n, err := s.client.Exists(ctx, assetKeyPrefix+clean).Result()
	return n > 0, err
}

// List walks the index; entries whose value already expired are pruned.
func (s *redisStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if prefix != "" {
		clean, err := CleanPath(prefix)
		if err != nil {
			return nil, err
		}
		prefix = strings.TrimSuffix(clean, "/") + "/"
	}

	members, err := s.client.ZRangeWithScores(ctx, assetIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var (
		paths []string
		times []time.Time
	)
	for _, z := range members {
		member, ok := z.Member.(string)
		if !ok || !strings.HasPrefix(member, prefix) {
			continue
		}
		paths = append(paths, member)
		times = append(times, time.UnixMilli(int64(z.Score)))
	}
	if len(paths) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	sizes := make([]*redis.IntCmd, len(paths))
	for i, p := range paths {
		sizes[i] = pipe.StrLen(ctx, assetKeyPrefix+p)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	var (
		objects []ObjectInfo
		expired []any
	)
	for i, p := range paths {
		if sizes[i].Val() == 0 {
			expired = append(expired, p)
			continue
		}
		objects = append(objects, ObjectInfo{Path: p, Size: sizes[i].Val(), ModTime: times[i]})
	}
	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, assetIndexKey, expired...).Err(); err != nil {
			return nil, err
		}
	}
	sortByTime(objects)
	return objects, nil
}
