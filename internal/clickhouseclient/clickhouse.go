package clickhouseclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"HMDARiskPump/internal/config"
	"HMDARiskPump/internal/models"
)

// Client — выгрузка строк таблицы DuckDB в одну таблицу ClickHouse.
// Все колонки передаются как Nullable(String): данные приходят lossless-чтением.
type Client struct {
	conn     clickhouse.Conn
	Database string
	Table    string
	Columns  []string
	Logger   *zap.Logger
}

// New создает клиента ClickHouse
func New(cfg config.ClickHouseConfig, logger *zap.Logger) (*Client, error) {
	protocol := clickhouse.Native
	if cfg.Protocol == "http" {
		protocol = clickhouse.HTTP
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Address},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		Protocol:    protocol,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	return &Client{
		conn:     conn,
		Database: cfg.Database,
		Table:    cfg.Table,
		Logger:   logger,
	}, nil
}

// Prepare проверяет соединение, запоминает колонки и при create создаёт таблицу
func (c *Client) Prepare(ctx context.Context, columns []string, create bool) error {
	if len(columns) == 0 {
		return fmt.Errorf("no columns to publish")
	}
	if err := c.conn.Ping(ctx); err != nil {
		return fmt.Errorf("clickhouse ping: %w", err)
	}
	c.Columns = columns
	if !create {
		return nil
	}
	if err := c.conn.Exec(ctx, createTableSQL(c.Database, c.Table, columns)); err != nil {
		c.Logger.Error("create table", zap.Error(err), zap.String("table", c.Table))
		return fmt.Errorf("create table: %w", err)
	}
	c.Logger.Info("Таблица ClickHouse готова", zap.String("table", c.Database+"."+c.Table), zap.Int("columns", len(columns)))
	return nil
}

// InsertRows отправляет пачку строк одним batch
func (c *Client) InsertRows(ctx context.Context, rows []models.Row) error {
	// Отдельный контекст с таймаутом: отмена сервиса не должна обрывать уже начатую отправку
	dbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 60*time.Second)
	defer cancel()

	batch, err := c.conn.PrepareBatch(dbCtx, insertSQL(c.Database, c.Table, c.Columns))
	if err != nil {
		c.Logger.Error("prepare batch", zap.Error(err), zap.String("table", c.Table))
		return fmt.Errorf("prepare batch: %w", err)
	}
	for i, row := range rows {
		if len(row) != len(c.Columns) {
			_ = batch.Abort()
			return fmt.Errorf("row %d: expected %d values, got %d", i, len(c.Columns), len(row))
		}
		if err := batch.Append(rowArgs(row)...); err != nil {
			_ = batch.Abort()
			c.Logger.Error("append batch", zap.Error(err), zap.Int("row", i))
			return fmt.Errorf("append: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		c.Logger.Error("send batch", zap.Error(err), zap.String("table", c.Table))
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// Close закрывает соединение с ClickHouse
func (c *Client) Close() error {
	return c.conn.Close()
}

func rowArgs(row models.Row) []any {
	args := make([]any, len(row))
	for i, v := range row {
		args[i] = v
	}
	return args
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "\\`") + "`"
}

func tableName(database, table string) string {
	if database == "" {
		return quoteIdent(table)
	}
	return quoteIdent(database) + "." + quoteIdent(table)
}

func createTableSQL(database, table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = quoteIdent(col) + " Nullable(String)"
	}
	return "CREATE TABLE IF NOT EXISTS " + tableName(database, table) +
		" (" + strings.Join(defs, ", ") + ") ENGINE = MergeTree ORDER BY tuple()"
}

func insertSQL(database, table string, columns []string) string {
	cols := make([]string, len(columns))
	for i, col := range columns {
		cols[i] = quoteIdent(col)
	}
	return "INSERT INTO " + tableName(database, table) + " (" + strings.Join(cols, ", ") + ")"
}
