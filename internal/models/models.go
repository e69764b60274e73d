package models

import "time"

// Statement — одна SQL-инструкция скрипта.
// Ordinal — порядковый номер среди выполняемых (не пустых и не комментариев) инструкций, с 1.
type Statement struct {
	Ordinal int
	Text    string
}

// ResultSet — результат row-producing инструкции.
// Rows содержит только превью (первые N строк), Total — полное количество строк.
type ResultSet struct {
	Columns []string
	Rows    [][]any
	Total   int
}

// Report — итог одного прогона скрипта
type Report struct {
	Executed  int
	Succeeded int
	Failed    int
	Skipped   int
}

// Row — строка таблицы DuckDB в текстовом виде для публикации в ClickHouse.
// nil означает NULL.
type Row []*string

// DiffSummary — итог сравнения lossless- и parsed-чтения CSV
type DiffSummary struct {
	LosslessRows   int64
	ParsedRows     int64
	DroppedRows    int64
	TableRows      int64
	BadRowsWritten bool
	FinishedAt     time.Time
}

// PublishSummary — итог выгрузки таблицы в ClickHouse
type PublishSummary struct {
	Table     string
	StartedAt int64 // смещение из checkpoint на момент старта
	Published int64
	Batches   int
}
