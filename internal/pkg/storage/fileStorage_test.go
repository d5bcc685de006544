package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStorage прогоняет общий контракт на любом бэкенде
func exerciseStorage(t *testing.T, s FileStorage) {
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "processed/a.png", strings.NewReader("first")))
	require.NoError(t, s.Save(ctx, "processed/b.png", strings.NewReader("second")))
	require.NoError(t, s.Save(ctx, "metadata/a.png.json", strings.NewReader("{}")))

	rc, err := s.Get(ctx, "processed/a.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "first", string(data))

	ok, err := s.Exists(ctx, "processed/b.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "processed/missing.png")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "processed/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.List(ctx, "processed")
	require.NoError(t, err)
	paths := make([]string, len(list))
	for i, o := range list {
		paths[i] = o.Path
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"processed/a.png", "processed/b.png"}, paths)

	require.NoError(t, s.Delete(ctx, "processed/a.png"))
	assert.ErrorIs(t, s.Delete(ctx, "processed/a.png"), ErrNotFound)

	_, err = s.Get(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestLocalStorage(t *testing.T) {
	exerciseStorage(t, NewFileStorage(t.TempDir()))
}

func TestLocalStorageListMissingDir(t *testing.T) {
	s := NewFileStorage(t.TempDir())
	list, err := s.List(context.Background(), "processed")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLocalStorageOverwrite(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStorage(dir)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "x/y.txt", strings.NewReader("one")))
	require.NoError(t, s.Save(ctx, "x/y.txt", strings.NewReader("two")))

	data, err := os.ReadFile(dir + "/x/y.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir + "/x")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"processed/a.png", "processed/a.png", true},
		{"/processed//a.png", "processed/a.png", true},
		{"processed\\a.png", "processed/a.png", true},
		{"../a.png", "", false},
		{"processed/../../a", "", false},
		{"", "", false},
		{"/", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanPath(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	out := &s3.ListObjectsV2Output{}
	for k, v := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{
				Key:          aws.String(k),
				Size:         aws.Int64(int64(len(v))),
				LastModified: &now,
			})
		}
	}
	return out, nil
}

func TestS3Storage(t *testing.T) {
	fake := newFakeS3()
	s, err := NewS3Storage(fake, "images", "/studio/")
	require.NoError(t, err)
	exerciseStorage(t, s)

	_, ok := fake.objects["studio/processed/b.png"]
	assert.True(t, ok, "keys carry the configured prefix")
}

func TestS3StorageConfigErrors(t *testing.T) {
	_, err := NewS3Storage(nil, "b", "")
	assert.Error(t, err)
	_, err = NewS3Storage(newFakeS3(), "", "")
	assert.Error(t, err)
}

// TestRedisStorage нужен живой redis: REDIS_ADDR=localhost:6379
func TestRedisStorage(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	require.NoError(t, client.FlushDB(context.Background()).Err())

	exerciseStorage(t, NewRedisStorage(client, time.Minute))
}
