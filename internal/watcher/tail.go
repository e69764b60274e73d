package watcher

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hpcloud/tail"
	"go.uber.org/zap"

	"HMDARiskPump/internal/parser"
)

// Follow читает файл с начала и дальше следит за дописываемыми строками,
// передавая в fn каждую завершённую (по ';' вне кавычек) инструкцию.
// Незавершённый хвост при остановке не выполняется.
func Follow(ctx context.Context, path string, logger *zap.Logger, fn func(ctx context.Context, stmt string)) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Poll:      true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekStart},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("tail %s: %w", path, err)
	}
	defer t.Cleanup()
	logger.Info("Запущен tail для файла", zap.String("file", path))

	sc := parser.NewScanner()
	first := true
	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			if rest := sc.Flush(); rest != "" {
				logger.Warn("Незавершённая инструкция не выполнена", zap.String("sql", rest))
			}
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				logger.Warn("Ошибка чтения строки", zap.String("file", path), zap.Error(line.Err))
				continue
			}
			text := strings.TrimSuffix(line.Text, "\r")
			if first {
				text = parser.Normalize(text)
				first = false
			}
			for _, stmt := range sc.Feed(text + "\n") {
				fn(ctx, stmt)
			}
		}
	}
}
