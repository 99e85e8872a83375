package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFit(t *testing.T) {
	small := image.NewRGBA(image.Rect(0, 0, 100, 50))
	assert.Same(t, small, Fit(small, 512))

	wide := Fit(image.NewRGBA(image.Rect(0, 0, 2048, 1024)), 512)
	assert.Equal(t, 512, wide.Bounds().Dx())
	assert.Equal(t, 256, wide.Bounds().Dy())

	tall := Fit(image.NewRGBA(image.Rect(0, 0, 300, 1200)), 512)
	assert.Equal(t, 128, tall.Bounds().Dx())
	assert.Equal(t, 512, tall.Bounds().Dy())
}

func TestSaveClientPhoto(t *testing.T) {
	store := NewStore(t.TempDir())

	rel, err := store.SaveClientPhoto(7, bytes.NewReader(pngBytes(t, 1024, 768)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "clients/7/"))
	assert.True(t, strings.HasSuffix(rel, ".webp"))

	f, err := os.Open(filepath.Join(store.Root(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	defer f.Close()

	img, err := webp.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, 384, img.Bounds().Dy())

	require.NoError(t, store.Remove(rel))
	assert.NoFileExists(t, filepath.Join(store.Root(), filepath.FromSlash(rel)))
}

func TestSaveClientPhotoRejectsGarbage(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.SaveClientPhoto(1, strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)

	entries, err := os.ReadDir(store.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoveIgnoresPathsOutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	t.Cleanup(func() { os.Remove(outside) })

	store := NewStore(root)
	require.NoError(t, store.Remove("../keep.txt"))
	assert.FileExists(t, outside)
}
