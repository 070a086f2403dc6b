package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"social-backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUploadAndDestroy(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "http://localhost:5000/uploads")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Upload(ctx, "abc123.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/uploads/abc123.png", url)
	_, err = os.Stat(filepath.Join(dir, "abc123.png"))
	assert.NoError(t, err)

	require.NoError(t, store.Destroy(ctx, util.MediaToken(url)))
	_, err = os.Stat(filepath.Join(dir, "abc123.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalDestroyMissingIsNoop(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost:5000/uploads")
	require.NoError(t, err)
	assert.NoError(t, store.Destroy(context.Background(), "nothing-here"))
}

func TestUploadDataURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "/uploads")
	require.NoError(t, err)

	url, err := UploadDataURL(context.Background(), store, "data:image/jpeg;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	_, err = UploadDataURL(context.Background(), store, "not-a-data-url")
	assert.ErrorIs(t, err, util.ErrInvalidDataURL)
}
