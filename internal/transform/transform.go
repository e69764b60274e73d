package transform

import (
	"fmt"
	"strings"

	"HMDARiskPump/internal/duckdb"
)

// CSVOptions — параметры read_csv_auto
type CSVOptions struct {
	AllVarchar      bool   // все колонки как VARCHAR, без вывода типов
	FullSample      bool   // SAMPLE_SIZE=-1: анализировать весь файл
	IgnoreErrors    bool   // отбрасывать строки, которые не удалось разобрать
	DateFormat      string // пусто — автоопределение
	TimestampFormat string
}

// Lossless — чтение без потерь: всё строками, ошибки не игнорируются
var Lossless = CSVOptions{AllVarchar: true, FullSample: true}

// ReadCSV возвращает выражение read_csv_auto('path', ...)
func ReadCSV(path string, opts CSVOptions) string {
	args := []string{duckdb.QuoteLiteral(path)}
	if opts.AllVarchar {
		args = append(args, "ALL_VARCHAR=TRUE")
	}
	if opts.FullSample {
		args = append(args, "SAMPLE_SIZE=-1")
	}
	if opts.DateFormat != "" {
		args = append(args, "DATEFORMAT="+duckdb.QuoteLiteral(opts.DateFormat))
	}
	if opts.TimestampFormat != "" {
		args = append(args, "TIMESTAMPFORMAT="+duckdb.QuoteLiteral(opts.TimestampFormat))
	}
	args = append(args, fmt.Sprintf("IGNORE_ERRORS=%s", sqlBool(opts.IgnoreErrors)))
	return "read_csv_auto(" + strings.Join(args, ", ") + ")"
}

// ReadParquet возвращает выражение read_parquet('path')
func ReadParquet(path string) string {
	return "read_parquet(" + duckdb.QuoteLiteral(path) + ")"
}

// CopyToParquet — COPY (query) TO 'dest' (FORMAT 'parquet', COMPRESSION 'codec')
func CopyToParquet(query, dest, codec string) string {
	return fmt.Sprintf("COPY (%s) TO %s (FORMAT 'parquet', COMPRESSION %s)",
		query, duckdb.QuoteLiteral(dest), duckdb.QuoteLiteral(codec))
}

// CopyToCSV — COPY (query) TO 'dest' (FORMAT 'csv', HEADER)
func CopyToCSV(query, dest string) string {
	return fmt.Sprintf("COPY (%s) TO %s (FORMAT 'csv', HEADER)", query, duckdb.QuoteLiteral(dest))
}

// CreateView — CREATE OR REPLACE VIEW name AS SELECT * FROM source
func CreateView(name, source string) string {
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM %s", duckdb.QuoteIdent(name), source)
}

// Count — SELECT COUNT(*) FROM relation
func Count(relation string) string {
	return "SELECT COUNT(*) FROM " + relation
}

// CommonColumns возвращает колонки lossless, присутствующие и в parsed, в порядке lossless
func CommonColumns(lossless, parsed []string) []string {
	seen := make(map[string]struct{}, len(parsed))
	for _, c := range parsed {
		seen[c] = struct{}{}
	}
	var out []string
	for _, c := range lossless {
		if _, ok := seen[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// BadRows — строки lossless-чтения, которых нет в parsed-чтении (после приведения к VARCHAR).
// EXCEPT — множественная операция: одинаковые строки схлопываются.
func BadRows(losslessView, parsedView string, columns []string) string {
	plain := make([]string, len(columns))
	cast := make([]string, len(columns))
	for i, c := range columns {
		q := duckdb.QuoteIdent(c)
		plain[i] = q
		cast[i] = "CAST(" + q + " AS VARCHAR)"
	}
	return fmt.Sprintf("SELECT %s FROM %s EXCEPT SELECT %s FROM %s",
		strings.Join(plain, ", "), duckdb.QuoteIdent(losslessView),
		strings.Join(cast, ", "), duckdb.QuoteIdent(parsedView))
}

// SelectAsVarchar — все колонки relation как VARCHAR, начиная со смещения offset
func SelectAsVarchar(relation string, columns []string, offset int64) string {
	cast := make([]string, len(columns))
	for i, c := range columns {
		q := duckdb.QuoteIdent(c)
		cast[i] = "CAST(" + q + " AS VARCHAR) AS " + q
	}
	q := "SELECT " + strings.Join(cast, ", ") + " FROM " + relation
	if offset > 0 {
		q += fmt.Sprintf(" OFFSET %d", offset)
	}
	return q
}

func sqlBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
