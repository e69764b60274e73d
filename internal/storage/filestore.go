package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore хранит смещения в JSON-файле
type FileStore struct {
	Path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load читает смещения; отсутствующий файл — пустая карта
func (f *FileStore) Load() (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	processed := make(map[string]int64)
	bs, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return processed, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bs) == 0 {
		return processed, nil
	}
	if err := json.Unmarshal(bs, &processed); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return processed, nil
}

// Save атомарно перезаписывает файл через временный
func (f *FileStore) Save(data map[string]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := f.Path + ".tmp"
	bs, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, bs, 0o644); err != nil {
		return err
	}
	// Удаляем старый файл, чтобы Rename не ошибся (актуально для Windows)
	_ = os.Remove(f.Path)
	return os.Rename(tmp, f.Path)
}
