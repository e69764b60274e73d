package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"HMDARiskPump/internal/models"
)

// Client — одно соединение с встроенной DuckDB.
// Пул ограничен одним соединением: SET, временные представления и
// настройки s3_* живут в сессии.
type Client struct {
	db     *sql.DB
	Path   string
	Logger *zap.Logger
}

// Open открывает файл базы (пустой путь — база в памяти)
func Open(ctx context.Context, path string, logger *zap.Logger) (*Client, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("duckdb open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("duckdb ping: %w", err)
	}
	logger.Debug("Соединение с DuckDB открыто", zap.String("path", displayPath(path)))
	return &Client{db: db, Path: path, Logger: logger}, nil
}

// Exec выполняет инструкцию без чтения результата
func (c *Client) Exec(ctx context.Context, stmt string) error {
	_, err := c.db.ExecContext(ctx, stmt)
	return err
}

// ExecCount выполняет инструкцию и возвращает число затронутых строк (для COPY — записанных)
func (c *Client) ExecCount(ctx context.Context, stmt string) (int64, error) {
	res, err := c.db.ExecContext(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Query читает весь результат, сохраняя только первые preview строк.
// Total — полное число строк.
func (c *Client) Query(ctx context.Context, stmt string, preview int) (*models.ResultSet, error) {
	rows, err := c.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	rs := &models.ResultSet{Columns: cols}
	for rows.Next() {
		rs.Total++
		if rs.Total > preview {
			continue
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// QueryInt возвращает первое значение первой строки (SELECT COUNT(*) ...)
func (c *Client) QueryInt(ctx context.Context, stmt string) (int64, error) {
	var n int64
	if err := c.db.QueryRowContext(ctx, stmt).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Columns возвращает имена колонок отношения (таблицы или представления) по порядку
func (c *Client) Columns(ctx context.Context, relation string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT * FROM "+relation+" LIMIT 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return rows.Columns()
}

// Stream построчно читает результат как текст и передаёт строки в fn.
// Ошибка fn прерывает чтение.
func (c *Client) Stream(ctx context.Context, query string, fn func(models.Row) error) error {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		row := make(models.Row, len(cols))
		for i, v := range values {
			if v.Valid {
				s := v.String
				row[i] = &s
			}
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close закрывает соединение
func (c *Client) Close() error {
	return c.db.Close()
}

// QuoteIdent заключает идентификатор в двойные кавычки
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral заключает строку в одинарные кавычки
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Qualified возвращает schema.table с экранированием
func Qualified(schema, table string) string {
	return QuoteIdent(schema) + "." + QuoteIdent(table)
}

func displayPath(path string) string {
	if path == "" {
		return ":memory:"
	}
	return path
}
