package services

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"backoffice/internal/core"
	"backoffice/internal/features/categories/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storedNamePattern = regexp.MustCompile(`^category-\d+-[0-9a-f]{32}\.png$`)

func testLogger() *core.Logger {
	return core.NewLoggerWithLevel(io.Discard, "error")
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func pngUpload(t *testing.T, filename string) *models.ImageUpload {
	return &models.ImageUpload{
		Filename:    filename,
		ContentType: "image/png",
		Body:        bytes.NewReader(pngBytes(t)),
	}
}

// filesIn lists regular files in dir, ignoring a missing directory
func filesIn(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names
}

func TestImageStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewImageStore(dir, core.DefaultMaxUploadBytes, testLogger())
	store.now = func() time.Time { return time.UnixMilli(1700000000000) }

	ref, written, err := store.Save(pngUpload(t, "Photo.PNG"))
	require.NoError(t, err)
	assert.True(t, ref.IsStored())
	assert.Positive(t, written)
	assert.Regexp(t, storedNamePattern, ref.Name())
	assert.True(t, strings.HasPrefix(ref.Name(), "category-1700000000000-"))
	assert.Regexp(t, `^/uploads/category-.*\.png$`, ref.URL())
	assert.True(t, store.Exists(ref))

	// Only the final file remains, no temp files
	assert.Equal(t, []string{ref.Name()}, filesIn(t, dir))
}

func TestImageStoreUniqueNames(t *testing.T) {
	store := NewImageStore(t.TempDir(), core.DefaultMaxUploadBytes, testLogger())
	store.now = func() time.Time { return time.UnixMilli(1700000000000) }

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		ref, _, err := store.Save(pngUpload(t, "a.png"))
		require.NoError(t, err)
		assert.False(t, seen[ref.Name()], "duplicate name %s", ref.Name())
		seen[ref.Name()] = true
	}
}

func TestImageStoreRejects(t *testing.T) {
	oversized := append(pngBytes(t), make([]byte, 6<<20)...)

	tests := []struct {
		name    string
		upload  *models.ImageUpload
		wantErr error
	}{
		{
			name:    "too large",
			upload:  &models.ImageUpload{Filename: "big.png", ContentType: "image/png", Body: bytes.NewReader(oversized)},
			wantErr: ErrPayloadTooLarge,
		},
		{
			name:    "text renamed to png",
			upload:  &models.ImageUpload{Filename: "notes.png", ContentType: "text/plain", Body: strings.NewReader("hello")},
			wantErr: ErrUnsupportedMediaType,
		},
		{
			name:    "text declared as png",
			upload:  &models.ImageUpload{Filename: "notes.png", ContentType: "image/png", Body: strings.NewReader("just some text")},
			wantErr: ErrUnsupportedMediaType,
		},
		{
			name:    "bad extension",
			upload:  &models.ImageUpload{Filename: "image.bmp", ContentType: "image/png", Body: bytes.NewReader(pngBytes(t))},
			wantErr: ErrUnsupportedMediaType,
		},
		{
			name:    "no extension",
			upload:  &models.ImageUpload{Filename: "image", ContentType: "image/png", Body: bytes.NewReader(pngBytes(t))},
			wantErr: ErrUnsupportedMediaType,
		},
		{
			name:    "missing content type",
			upload:  &models.ImageUpload{Filename: "image.png", Body: bytes.NewReader(pngBytes(t))},
			wantErr: ErrUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "uploads")
			store := NewImageStore(dir, core.DefaultMaxUploadBytes, testLogger())

			_, _, err := store.Save(tt.upload)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, filesIn(t, dir))
		})
	}
}

func TestImageStoreRemove(t *testing.T) {
	dir := t.TempDir()
	store := NewImageStore(dir, core.DefaultMaxUploadBytes, testLogger())

	ref, _, err := store.Save(pngUpload(t, "a.png"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(ref))
	assert.False(t, store.Exists(ref))

	// Already gone is not an error
	require.NoError(t, store.Remove(ref))

	// Placeholders and empty references are never touched
	require.NoError(t, store.Remove(models.PlaceholderImage("hats.jpg")))
	require.NoError(t, store.Remove(models.NoImage()))
}

func TestImageStoreRemoveURLStaysInsideDirectory(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "uploads")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	outside := filepath.Join(root, "backoffice.db")
	require.NoError(t, os.WriteFile(outside, []byte("data"), 0o644))

	store := NewImageStore(dir, core.DefaultMaxUploadBytes, testLogger())

	for _, raw := range []string{"/uploads/../backoffice.db", "../backoffice.db", outside} {
		assert.ErrorIs(t, store.RemoveURL(raw), ErrInvalidImagePath, raw)
	}
	assert.ErrorIs(t, store.Remove(models.StoredImage("../backoffice.db")), ErrInvalidImagePath)

	_, err := os.Stat(outside)
	assert.NoError(t, err)

	require.NoError(t, store.RemoveURL("/uploads/missing.png"))
	require.NoError(t, store.RemoveURL("/api/placeholder/hats.jpg"))
}
