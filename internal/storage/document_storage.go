package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DocumentStorage — файловое хранилище сгенерированных документов.
// Путь детерминирован проектом и именем файла, повторная выгрузка по тому же
// пути перезаписывает документ (upsert).
type DocumentStorage struct {
	rootPath string
}

// NewDocumentStorage создаёт хранилище документов.
func NewDocumentStorage(rootPath string) (*DocumentStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}
	return &DocumentStorage{rootPath: rootPath}, nil
}

// Save сохраняет документ и возвращает относительный путь.
// Запись идёт через временный файл и rename, чтобы параллельное чтение не
// увидело недописанный документ.
func (s *DocumentStorage) Save(ctx context.Context, projectID uuid.UUID, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	safeName := sanitizeFilename(fileName)
	projectDir := filepath.Join(s.rootPath, projectID.String())
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", fmt.Errorf("storage: не удалось создать каталог проекта: %w", err)
	}

	targetPath := filepath.Join(projectDir, safeName)
	tempPath := targetPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return filepath.Join(projectID.String(), safeName), nil
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "document.pdf"
	}
	return name
}
