// Package local_test tests the local archive.
package local_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/jobboard-harvester/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("ValidConfig", func(t *testing.T) {
		t.Parallel()
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("CreatesMissingDir", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "archive", "nested")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		assert.DirExists(t, dir)
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		t.Parallel()
		_, err := local.New(local.Config{})
		assert.EqualError(t, err, "base directory is required")
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		t.Parallel()
		file := filepath.Join(t.TempDir(), "plain")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		assert.ErrorContains(t, err, "is not a directory")
	})
}

func TestUploadCSV(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "ofertas.csv")
	require.NoError(t, os.WriteFile(src, []byte("Título\nGo Dev\n"), 0o600))

	root := t.TempDir()
	store, err := local.New(local.Config{BaseDir: root})
	require.NoError(t, err)

	uri, err := store.UploadCSV(context.Background(), src, "run-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "file://"))
	assert.True(t, strings.HasSuffix(uri, "/run-1.csv"))

	got, err := os.ReadFile(filepath.Join(root, "run-1.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Título\nGo Dev\n", string(got))
}

func TestUploadCSVErrors(t *testing.T) {
	t.Parallel()

	store, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = store.UploadCSV(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), "run-1")
	assert.ErrorContains(t, err, "open csv")

	_, err = store.UploadCSV(context.Background(), "ignored.csv", " ")
	assert.EqualError(t, err, "run id is required")
}

func TestPutObject(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := local.New(local.Config{BaseDir: root})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("NestedPath", func(t *testing.T) {
		t.Parallel()
		_, err := store.PutObject(ctx, "2026/10/run.csv", bytes.NewBufferString("data"))
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(root, "2026", "10", "run.csv"))
	})

	t.Run("PathTraversal", func(t *testing.T) {
		t.Parallel()
		_, err := store.PutObject(ctx, "../escape.csv", bytes.NewBufferString("data"))
		assert.ErrorContains(t, err, "escapes archive root")
	})

	t.Run("EmptyPath", func(t *testing.T) {
		t.Parallel()
		_, err := store.PutObject(ctx, "", bytes.NewBufferString("data"))
		assert.EqualError(t, err, "path is required")
	})

	t.Run("CanceledContext", func(t *testing.T) {
		t.Parallel()
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.PutObject(canceled, "late.csv", bytes.NewBufferString("data"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
