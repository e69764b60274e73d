// Package jobs содержит точки входа конвертаций: каждая принимает явную конфигурацию
// и работает на переданном соединении DuckDB.
package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"HMDARiskPump/internal/models"
)

// DB — операции DuckDB, которые нужны заданиям
type DB interface {
	Exec(ctx context.Context, stmt string) error
	QueryInt(ctx context.Context, stmt string) (int64, error)
	Columns(ctx context.Context, relation string) ([]string, error)
	Stream(ctx context.Context, query string, fn func(models.Row) error) error
}

// ensureParentDir создаёт каталог для выходного файла
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

func execAll(ctx context.Context, db DB, stmts ...string) error {
	for _, stmt := range stmts {
		if err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}
