package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDocumentStorage_SaveAndOverwrite(t *testing.T) {
	root := t.TempDir()
	store, err := NewDocumentStorage(root)
	assert.NoError(t, err)

	projectID := uuid.New()
	ctx := context.Background()

	rel, err := store.Save(ctx, projectID, "change-order-001.pdf", []byte("первая версия"))
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(projectID.String(), "change-order-001.pdf"), rel)

	// Повторная выгрузка по тому же пути перезаписывает документ.
	_, err = store.Save(ctx, projectID, "change-order-001.pdf", []byte("вторая версия"))
	assert.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, rel))
	assert.NoError(t, err)
	assert.Equal(t, []byte("вторая версия"), data)
}

func TestDocumentStorage_SanitizesFilename(t *testing.T) {
	root := t.TempDir()
	store, err := NewDocumentStorage(root)
	assert.NoError(t, err)

	projectID := uuid.New()
	rel, err := store.Save(context.Background(), projectID, "../../etc/passwd", []byte("x"))
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(projectID.String(), "passwd"), rel)
}

func TestDocumentStorage_CancelledContext(t *testing.T) {
	store, err := NewDocumentStorage(t.TempDir())
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Save(ctx, uuid.New(), "x.pdf", []byte("x"))
	assert.Error(t, err)
}
