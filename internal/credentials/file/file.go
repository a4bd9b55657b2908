// file - файловый бэкенд хранилища учётных данных: один JSON-файл с правами 0600.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pribylovaa/draftmail/internal/credentials"
)

type Backend struct {
	path string
}

// New создаёт бэкенд поверх файла path. Каталог создаётся при первой записи.
func New(path string) *Backend {
	return &Backend{path: path}
}

// Load читает снимок. Отсутствующий файл: credentials.ErrNotFound.
func (b *Backend) Load(_ context.Context) (credentials.Snapshot, error) {
	const op = "credentials.file.Load"

	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return credentials.Snapshot{}, credentials.ErrNotFound
		}

		return credentials.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	var snap credentials.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return credentials.Snapshot{}, fmt.Errorf("%s: decode %q: %w", op, b.path, err)
	}

	return snap, nil
}

// Save атомарно заменяет файл: запись во временный файл того же каталога + rename.
// Пустой снимок удаляет файл.
func (b *Backend) Save(_ context.Context, snap credentials.Snapshot) error {
	const op = "credentials.file.Save"

	if snap == (credentials.Snapshot{}) {
		if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", op, err)
		}

		return nil
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
