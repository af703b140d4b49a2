package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-metadata/pkg/formmeta"
	"github.com/tendant/simple-metadata/pkg/formmeta/storage/memory"
)

func TestUploadDownloadRoundTrip(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "bob/docs/a.txt", strings.NewReader("hello")))

	exists, err := backend.Exists(ctx, "bob/docs/a.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := backend.Download(ctx, "bob/docs/a.txt")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestUploadWithParams(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	err := backend.UploadWithParams(ctx, strings.NewReader("png bytes"), formmeta.UploadParams{
		ObjectKey: "bob/formid-media/cat.png",
		MimeType:  "image/png",
	})
	require.NoError(t, err)

	exists, err := backend.Exists(ctx, "bob/formid-media/cat.png")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDownloadMissingObject(t *testing.T) {
	backend := memory.New()

	_, err := backend.Download(context.Background(), "missing")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "bob/docs/a.txt", strings.NewReader("hello")))
	require.NoError(t, backend.Delete(ctx, "bob/docs/a.txt"))

	exists, err := backend.Exists(ctx, "bob/docs/a.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Error(t, backend.Delete(ctx, "bob/docs/a.txt"))
}
