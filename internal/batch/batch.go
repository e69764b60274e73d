package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"HMDARiskPump/internal/models"
)

// Sink — получатель пачек (ClickHouse)
type Sink interface {
	InsertRows(ctx context.Context, rows []models.Row) error
}

// Batcher накапливает строки и отправляет их в Sink пачками
// batchSize — сколько строк отправлять за раз
// batchInterval — максимальный интервал между отправками
type Batcher struct {
	batchSize     int
	batchInterval time.Duration
	logger        *zap.Logger
	sink          Sink
	onFlush       func(n int) error
}

// NewBatcher создает новый batcher; batchInterval в секундах
func NewBatcher(batchSize int, batchInterval int, logger *zap.Logger, sink Sink) *Batcher {
	return &Batcher{
		batchSize:     batchSize,
		batchInterval: time.Duration(batchInterval) * time.Second,
		logger:        logger,
		sink:          sink,
	}
}

// OnFlush задаёт обработчик, вызываемый после каждой успешной отправки
// (например, сохранение checkpoint). Его ошибка останавливает batcher.
func (b *Batcher) OnFlush(fn func(n int) error) {
	b.onFlush = fn
}

// Run читает строки из in до его закрытия или отмены ctx.
// Возвращает число отправленных строк. Ошибка отправки останавливает работу:
// строки неудачной пачки не считаются отправленными.
func (b *Batcher) Run(ctx context.Context, in <-chan models.Row) (int64, error) {
	batch := make([]models.Row, 0, b.batchSize)
	timer := time.NewTimer(b.batchInterval)
	defer timer.Stop()
	var sent int64

	flush := func(reason string) error {
		if len(batch) == 0 {
			return nil
		}
		b.logger.Info("Отправляем batch", zap.Int("count", len(batch)), zap.String("reason", reason))
		if err := b.sink.InsertRows(ctx, batch); err != nil {
			b.logger.Error("Ошибка при отправке batch", zap.Int("count", len(batch)), zap.Error(err))
			return fmt.Errorf("flush %d rows (%s): %w", len(batch), reason, err)
		}
		sent += int64(len(batch))
		if b.onFlush != nil {
			if err := b.onFlush(len(batch)); err != nil {
				return fmt.Errorf("after flush: %w", err)
			}
		}
		b.logger.Debug("Batch успешно отправлен", zap.Int("count", len(batch)))
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			if err := flush("graceful shutdown"); err != nil {
				return sent, err
			}
			return sent, ctx.Err()
		case row, ok := <-in:
			if !ok {
				return sent, flush("source drained")
			}
			batch = append(batch, row)
			if len(batch) >= b.batchSize {
				if err := flush("batch size reached"); err != nil {
					return sent, err
				}
				timer.Reset(b.batchInterval)
			}
		case <-timer.C:
			if err := flush("interval"); err != nil {
				return sent, err
			}
			timer.Reset(b.batchInterval)
		}
	}
}
