package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/videotube-be/internal/assets"
)

func TestUploader(t *testing.T) {
	ctx := context.Background()
	publicDir := filepath.Join(t.TempDir(), "assets")
	u, err := New(publicDir, "http://localhost:8080/static/")
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "Avatar.PNG")
	require.NoError(t, os.WriteFile(src, []byte("image-bytes"), 0o600))

	asset, err := u.Upload(ctx, src)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(asset.URL, "http://localhost:8080/static/"))
	assert.True(t, strings.HasSuffix(asset.PublicID, ".png"))
	assert.NoFileExists(t, src)

	stored, err := os.ReadFile(filepath.Join(publicDir, asset.PublicID))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(stored))

	require.NoError(t, u.Delete(ctx, asset))
	assert.NoFileExists(t, filepath.Join(publicDir, asset.PublicID))
	assert.NoError(t, u.Delete(ctx, asset), "deleting twice is harmless")
}

func TestUploader_Errors(t *testing.T) {
	ctx := context.Background()
	u, err := New(t.TempDir(), "http://cdn")
	require.NoError(t, err)

	_, err = u.Upload(ctx, "")
	assert.Error(t, err)

	_, err = u.Upload(ctx, filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	err = u.Delete(ctx, assets.Asset{PublicID: "../etc/passwd"})
	assert.ErrorContains(t, err, "invalid id")
}
