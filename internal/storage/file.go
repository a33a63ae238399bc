package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// FileBackend хранит каждый документ в отдельном файле <dir>/<name>.json.
// Запись атомарная: временный файл, fsync, rename.
type FileBackend struct {
	dir string
}

// NewFileBackend создаёт каталог (если нужно) и возвращает backend.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог данных %s: %w", dir, err)
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

func (f *FileBackend) Load(_ context.Context, name string) ([]byte, error) {
	body, err := os.ReadFile(f.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", name, err)
	}
	return body, nil
}

func (f *FileBackend) Save(ctx context.Context, docs []Document) error {
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.writeFile(d); err != nil {
			return err
		}
	}
	return nil
}

// writeFile пишет во временный файл того же каталога, делает fsync
// и переименовывает его поверх документа.
func (f *FileBackend) writeFile(d Document) error {
	if err := renameio.WriteFile(f.path(d.Name), d.Body, 0o644, renameio.WithTempDir(f.dir)); err != nil {
		return fmt.Errorf("запись %s: %w", d.Name, err)
	}
	return nil
}

func (f *FileBackend) Close() error { return nil }
