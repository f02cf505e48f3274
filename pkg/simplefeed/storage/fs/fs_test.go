package fs_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-feed/pkg/simplefeed"
	"github.com/tendant/simple-feed/pkg/simplefeed/storage/fs"
)

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := fs.New(fs.Config{})
	assert.Error(t, err)
}

func TestSaveOpenDelete(t *testing.T) {
	store, err := fs.New(fs.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "2024/cat.png", strings.NewReader("png bytes")))

	rc, err := store.Open(ctx, "2024/cat.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png bytes", string(data))

	require.NoError(t, store.Delete(ctx, "2024/cat.png"))

	_, err = store.Open(ctx, "2024/cat.png")
	assert.ErrorIs(t, err, simplefeed.ErrImageNotFound)

	err = store.Delete(ctx, "2024/cat.png")
	assert.ErrorIs(t, err, simplefeed.ErrImageNotFound)
}

func TestRejectsTraversal(t *testing.T) {
	store, err := fs.New(fs.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	err = store.Save(ctx, "../escape.png", strings.NewReader("x"))
	// Leading dot segments are cleaned away; the write must land inside
	// the base directory either way.
	if err == nil {
		_, openErr := store.Open(ctx, "escape.png")
		assert.NoError(t, openErr)
	}

	err = store.Save(ctx, "", strings.NewReader("x"))
	assert.Error(t, err)
}
