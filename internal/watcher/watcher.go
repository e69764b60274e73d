package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchFile вызывает fn после каждого изменения файла, пока не отменён ctx.
// Наблюдаем за каталогом, а не за файлом: редакторы часто сохраняют через
// запись во временный файл и rename, после чего watch на старом inode теряется.
// Серия событий в пределах debounce схлопывается в один вызов.
func WatchFile(ctx context.Context, path string, debounce time.Duration, logger *zap.Logger, fn func()) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("abs %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(target)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("Старт слежения за файлом", zap.String("file", target))

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Слежение за файлом остановлено", zap.String("file", target))
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Файл изменился", zap.String("file", target), zap.Stringer("op", ev.Op))
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			fn()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("Ошибка watcher-а", zap.String("file", target), zap.Error(err))
		}
	}
}
