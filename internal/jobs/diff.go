package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"HMDARiskPump/internal/config"
	"HMDARiskPump/internal/duckdb"
	"HMDARiskPump/internal/models"
	"HMDARiskPump/internal/precheck"
	"HMDARiskPump/internal/transform"
)

const (
	losslessView = "v_csv_all"
	parsedView   = "v_csv_parsed"
)

// ErrNoCommonColumns — lossless- и parsed-чтение не имеют общих колонок
// (обычно не тот разделитель, заголовок или кавычки)
var ErrNoCommonColumns = errors.New("no common columns between v_csv_all and v_csv_parsed; check header row, delimiter and quoting")

// Diff сравнивает чтение CSV без потерь (всё как VARCHAR) с типизированным чтением,
// сохраняет потерянные строки в BadRows, пишет Parquet из lossless-чтения
// и пересоздаёт по нему таблицу Schema.Table.
func Diff(ctx context.Context, db DB, cfg config.DiffConfig, logger *zap.Logger) (models.DiffSummary, error) {
	var sum models.DiffSummary
	if err := cfg.Validate(); err != nil {
		return sum, err
	}
	if err := precheck.RequireFile("CSV", cfg.Source); err != nil {
		return sum, err
	}
	for _, p := range []string{cfg.Destination, cfg.BadRows} {
		if err := ensureParentDir(p); err != nil {
			return sum, err
		}
	}

	// 1. lossless
	if err := db.Exec(ctx, transform.CreateView(losslessView, transform.ReadCSV(cfg.Source, transform.Lossless))); err != nil {
		return sum, fmt.Errorf("lossless read of %s: %w", cfg.Source, err)
	}
	n, err := db.QueryInt(ctx, transform.Count(duckdb.QuoteIdent(losslessView)))
	if err != nil {
		return sum, fmt.Errorf("count lossless rows: %w", err)
	}
	sum.LosslessRows = n
	logger.Info("[1/5] Lossless (string) read", zap.Int64("rows", n))

	// 2. parsed
	parsed := transform.ReadCSV(cfg.Source, transform.CSVOptions{
		IgnoreErrors:    true,
		DateFormat:      cfg.DateFormat,
		TimestampFormat: cfg.TimestampFormat,
	})
	if err := db.Exec(ctx, transform.CreateView(parsedView, parsed)); err != nil {
		return sum, fmt.Errorf("parsed read of %s: %w", cfg.Source, err)
	}
	if sum.ParsedRows, err = db.QueryInt(ctx, transform.Count(duckdb.QuoteIdent(parsedView))); err != nil {
		return sum, fmt.Errorf("count parsed rows: %w", err)
	}
	logger.Info("[2/5] Parsed (auto-typed, ignore errors) read", zap.Int64("rows", sum.ParsedRows))

	// 3. потерянные строки
	allCols, err := db.Columns(ctx, duckdb.QuoteIdent(losslessView))
	if err != nil {
		return sum, err
	}
	parsedCols, err := db.Columns(ctx, duckdb.QuoteIdent(parsedView))
	if err != nil {
		return sum, err
	}
	common := transform.CommonColumns(allCols, parsedCols)
	if len(common) == 0 {
		return sum, ErrNoCommonColumns
	}
	bad := transform.BadRows(losslessView, parsedView, common)
	if sum.DroppedRows, err = db.QueryInt(ctx, transform.Count("("+bad+")")); err != nil {
		return sum, fmt.Errorf("count dropped rows: %w", err)
	}
	logger.Info("[3/5] Rows present in CSV but missing after parsed read", zap.Int64("rows", sum.DroppedRows))

	if sum.DroppedRows > 0 {
		if err := db.Exec(ctx, transform.CopyToCSV(bad, cfg.BadRows)); err != nil {
			return sum, fmt.Errorf("write bad rows to %s: %w", cfg.BadRows, err)
		}
		sum.BadRowsWritten = true
		logger.Info("[4/5] Dropped rows saved", zap.String("path", cfg.BadRows))
	} else {
		logger.Info("[4/5] No dropped rows detected with current settings")
	}

	// 5. Parquet без потерь и таблица по нему
	all := "SELECT * FROM " + duckdb.QuoteIdent(losslessView)
	if err := db.Exec(ctx, transform.CopyToParquet(all, cfg.Destination, cfg.Compression)); err != nil {
		return sum, fmt.Errorf("write parquet %s: %w", cfg.Destination, err)
	}
	logger.Info("[5/5] Wrote Parquet (no-loss)", zap.String("path", cfg.Destination))

	table := duckdb.Qualified(cfg.Schema, cfg.Table)
	err = execAll(ctx, db,
		"CREATE SCHEMA IF NOT EXISTS "+duckdb.QuoteIdent(cfg.Schema),
		"DROP TABLE IF EXISTS "+table,
		"CREATE TABLE "+table+" AS SELECT * FROM "+transform.ReadParquet(cfg.Destination),
	)
	if err != nil {
		return sum, err
	}
	if sum.TableRows, err = db.QueryInt(ctx, transform.Count(table)); err != nil {
		return sum, fmt.Errorf("count %s: %w", table, err)
	}
	sum.FinishedAt = time.Now()
	return sum, nil
}

// PrintSummary печатает итог в формате блока === SUMMARY ===
func PrintSummary(w io.Writer, s models.DiffSummary) {
	fmt.Fprintln(w, "\n=== SUMMARY ===")
	fmt.Fprintf(w, "CSV rows (lossless):        %s\n", groupThousands(s.LosslessRows))
	fmt.Fprintf(w, "Parsed rows (ignore errs):  %s\n", groupThousands(s.ParsedRows))
	fmt.Fprintf(w, "Dropped rows detected:      %s\n", groupThousands(s.DroppedRows))
	fmt.Fprintf(w, "DuckDB table rows:          %s\n", groupThousands(s.TableRows))
	fmt.Fprintf(w, "Done at %s\n", s.FinishedAt.Format(time.DateTime))
}

func groupThousands(n int64) string {
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
