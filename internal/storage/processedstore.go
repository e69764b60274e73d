package storage

// ProcessedStore — интерфейс для загрузки/сохранения смещений публикации
// (ключ — таблица, значение — сколько строк уже выгружено).
type ProcessedStore interface {
	Load() (map[string]int64, error)
	Save(data map[string]int64) error
}
