package fs_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-metadata/pkg/formmeta"
	"github.com/tendant/simple-metadata/pkg/formmeta/storage/fs"
)

func newBackend(t *testing.T) (*fs.Backend, string) {
	dir := t.TempDir()
	backend, err := fs.New(fs.Config{BaseDir: dir})
	require.NoError(t, err)
	return backend, dir
}

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := fs.New(fs.Config{})
	assert.Error(t, err)
}

func TestUploadCreatesNestedDirectories(t *testing.T) {
	backend, dir := newBackend(t)
	ctx := context.Background()

	err := backend.UploadWithParams(ctx, strings.NewReader("doc body"), formmeta.UploadParams{
		ObjectKey: "bob/docs/survey.pdf",
		MimeType:  "application/pdf",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "bob", "docs", "survey.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "doc body", string(data))

	exists, err := backend.Exists(ctx, "bob/docs/survey.pdf")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDownload(t *testing.T) {
	backend, _ := newBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "bob/formid-media/cat.png", strings.NewReader("png bytes")))

	rc, err := backend.Download(ctx, "bob/formid-media/cat.png")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))

	_, err = backend.Download(ctx, "bob/formid-media/missing.png")
	assert.Error(t, err)
}

func TestDeleteCleansUpEmptyDirectories(t *testing.T) {
	backend, dir := newBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "bob/docs/only.pdf", strings.NewReader("x")))
	require.NoError(t, backend.Delete(ctx, "bob/docs/only.pdf"))

	exists, err := backend.Exists(ctx, "bob/docs/only.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = os.Stat(filepath.Join(dir, "bob"))
	assert.True(t, os.IsNotExist(err), "empty directories are removed")

	assert.Error(t, backend.Delete(ctx, "bob/docs/only.pdf"))
}
