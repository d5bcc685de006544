package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePNG сохраняет однотонную картинку во временный файл
func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 20, 40, 220, 255
	}
	data, err := raster.Encode(raster.FromImage(img, raster.FormatPNG), raster.FormatPNG, raster.EncodeOptions{})
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := New().WithOutput(&stdout, &stderr).ExecuteWithArgs(context.Background(), args)
	return stdout.String(), err
}

func readImage(t *testing.T, path string) *raster.Image {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := raster.Decode(data)
	require.NoError(t, err)
	return img
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "imagectl version")
}

func TestInfo(t *testing.T) {
	in := writePNG(t, t.TempDir(), "in.png", 6, 4)

	out, err := run(t, "info", in)
	require.NoError(t, err)

	var info raster.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, raster.FormatPNG, info.Format)
	assert.Equal(t, 6, info.Width)
	assert.Equal(t, 4, info.Height)
}

func TestPipeline(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "in.png", 20, 10)

	t.Run("named", func(t *testing.T) {
		out := filepath.Join(dir, "named.jpg")
		_, err := run(t, "pipeline", in, out, "--ops", "greyscale,resize:10x")
		require.NoError(t, err)
		img := readImage(t, out)
		assert.Equal(t, 10, img.Width())
		assert.Equal(t, 5, img.Height())
	})

	t.Run("json file", func(t *testing.T) {
		ops := filepath.Join(dir, "ops.json")
		require.NoError(t, os.WriteFile(ops, []byte(`[{"type":"rotate","angle":90},"flop"]`), 0o644))
		out := filepath.Join(dir, "json.png")
		_, err := run(t, "pipeline", in, out, "--ops-file", ops)
		require.NoError(t, err)
		img := readImage(t, out)
		assert.Equal(t, 10, img.Width())
		assert.Equal(t, 20, img.Height())
	})

	t.Run("unknown fails", func(t *testing.T) {
		out := filepath.Join(dir, "unknown.png")
		_, err := run(t, "pipeline", in, out, "--ops", "greyscale,sparkle")
		require.Error(t, err)
		assert.NoFileExists(t, out)
	})

	t.Run("unknown skipped", func(t *testing.T) {
		out := filepath.Join(dir, "skipped.png")
		_, err := run(t, "pipeline", in, out, "--ops", "greyscale,sparkle", "--unknown", "skip")
		require.NoError(t, err)
		assert.FileExists(t, out)
	})

	t.Run("needs ops", func(t *testing.T) {
		_, err := run(t, "pipeline", in, filepath.Join(dir, "x.png"))
		assert.Error(t, err)
	})

	t.Run("webp output", func(t *testing.T) {
		_, err := run(t, "pipeline", in, filepath.Join(dir, "x.webp"), "--ops", "greyscale")
		assert.ErrorIs(t, err, raster.ErrEncodeOnlyDecode)
	})
}

func TestMask(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "in.png", 20, 20)
	out := filepath.Join(dir, "star.png")

	_, err := run(t, "mask", in, out, "--shape", "star", "--background", "#00ff00")
	require.NoError(t, err)

	img := readImage(t, out).NRGBA()
	// угол вне звезды залит фоном, центр остается исходным
	assert.EqualValues(t, 255, img.NRGBAAt(0, 0).G)
	assert.EqualValues(t, 220, img.NRGBAAt(10, 10).B)

	_, err = run(t, "mask", in, out, "--shape", "hexagon")
	assert.Error(t, err)
}

func TestCollage(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 6, 4)
	b := writePNG(t, dir, "b.png", 4, 6)
	out := filepath.Join(dir, "collage.png")

	_, err := run(t, "collage", a, b, "-o", out, "--columns", "2", "--spacing", "1")
	require.NoError(t, err)

	img := readImage(t, out)
	// ячейка 6x6, два столбца и три промежутка
	assert.Equal(t, 15, img.Width())
	assert.Equal(t, 8, img.Height())

	_, err = run(t, "collage", a, "--columns", "1")
	assert.Error(t, err, "output is required")
}

func TestRemoveBackground(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "in.png", 8, 8)
	out := filepath.Join(dir, "cut.png")

	_, err := run(t, "remove-bg", in, out, "--method", "color", "--color", "#1428dc")
	require.NoError(t, err)
	assert.True(t, readImage(t, out).HasAlpha())

	_, err = run(t, "remove-bg", in, out, "--method", "accurate")
	assert.ErrorContains(t, err, "--matting-url")

	_, err = run(t, "remove-bg", in, out, "--method", "magic")
	assert.Error(t, err)
}
