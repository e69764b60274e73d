package precheck

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNotFound — обязательный файл отсутствует
	ErrNotFound = errors.New("not found")
	// ErrUsage — неверное число аргументов командной строки
	ErrUsage = errors.New("wrong number of arguments")
)

// PreconditionError — фатальная ошибка до выполнения первой инструкции.
// Kind — человекочитаемое название файла ("DuckDB file", "SQL file", "CSV").
type PreconditionError struct {
	Kind string
	Path string
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Err, e.Path)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// RequireFile проверяет, что путь существует
func RequireFile(kind, path string) error {
	if path == "" {
		return &PreconditionError{Kind: kind, Path: path, Err: ErrNotFound}
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &PreconditionError{Kind: kind, Path: path, Err: ErrNotFound}
		}
		return &PreconditionError{Kind: kind, Path: path, Err: err}
	}
	return nil
}
