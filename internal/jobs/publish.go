package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"HMDARiskPump/internal/batch"
	"HMDARiskPump/internal/config"
	"HMDARiskPump/internal/duckdb"
	"HMDARiskPump/internal/models"
	"HMDARiskPump/internal/storage"
	"HMDARiskPump/internal/transform"
)

// Publisher — приёмник публикации (ClickHouse)
type Publisher interface {
	batch.Sink
	Prepare(ctx context.Context, columns []string, create bool) error
}

// Publish выгружает таблицу DuckDB пачками, продолжая с сохранённого смещения.
// Смещение сохраняется в store после каждой успешно отправленной пачки.
// Порядок строк — порядок вставки в таблицу (preserve_insertion_order DuckDB).
func Publish(ctx context.Context, db DB, cfg config.PublishConfig, create bool, sink Publisher, store storage.ProcessedStore, logger *zap.Logger) (models.PublishSummary, error) {
	key := cfg.Schema + "." + cfg.Table
	sum := models.PublishSummary{Table: key}
	if err := cfg.Validate(); err != nil {
		return sum, err
	}

	offsets, err := store.Load()
	if err != nil {
		return sum, fmt.Errorf("load checkpoint: %w", err)
	}
	if offsets == nil {
		offsets = make(map[string]int64)
	}
	sum.StartedAt = offsets[key]

	table := duckdb.Qualified(cfg.Schema, cfg.Table)
	cols, err := db.Columns(ctx, table)
	if err != nil {
		return sum, err
	}
	if err := sink.Prepare(ctx, cols, create); err != nil {
		return sum, err
	}
	logger.Info("Публикация таблицы",
		zap.String("table", key),
		zap.Int("columns", len(cols)),
		zap.Int64("offset", sum.StartedAt),
	)

	b := batch.NewBatcher(cfg.BatchSize, cfg.BatchInterval, logger, sink)
	b.OnFlush(func(n int) error {
		sum.Published += int64(n)
		sum.Batches++
		offsets[key] = sum.StartedAt + sum.Published
		if err := store.Save(offsets); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		return nil
	})

	rows := make(chan models.Row, cfg.BatchSize)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		query := transform.SelectAsVarchar(table, cols, sum.StartedAt)
		return db.Stream(gctx, query, func(r models.Row) error {
			select {
			case rows <- r:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})
	g.Go(func() error {
		_, err := b.Run(gctx, rows)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("Публикация прервана",
			zap.String("table", key),
			zap.Int64("checkpoint", sum.StartedAt+sum.Published),
			zap.Error(err),
		)
		return sum, err
	}

	logger.Info("Публикация завершена",
		zap.String("table", key),
		zap.Int64("rows", sum.Published),
		zap.Int("batches", sum.Batches),
	)
	return sum, nil
}
