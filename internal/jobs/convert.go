package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"HMDARiskPump/internal/config"
	"HMDARiskPump/internal/duckdb"
	"HMDARiskPump/internal/precheck"
	"HMDARiskPump/internal/transform"
)

// Convert переписывает CSV в Parquet и возвращает число записанных строк.
// В режиме permissive нераспознанные строки отбрасываются.
func Convert(ctx context.Context, db DB, cfg config.ConvertConfig, logger *zap.Logger) (int64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if err := precheck.RequireFile("CSV", cfg.Source); err != nil {
		return 0, err
	}
	if err := ensureParentDir(cfg.Destination); err != nil {
		return 0, err
	}

	var settings []string
	if cfg.Threads > 0 {
		settings = append(settings, fmt.Sprintf("SET threads TO %d", cfg.Threads))
	}
	if cfg.MemoryLimit != "" {
		settings = append(settings, "SET memory_limit="+duckdb.QuoteLiteral(cfg.MemoryLimit))
	}
	if err := execAll(ctx, db, settings...); err != nil {
		return 0, err
	}

	src := transform.ReadCSV(cfg.Source, transform.CSVOptions{
		IgnoreErrors:    cfg.Mode == config.ModePermissive,
		DateFormat:      cfg.DateFormat,
		TimestampFormat: cfg.TimestampFormat,
	})
	logger.Info("Конвертация CSV в Parquet",
		zap.String("source", cfg.Source),
		zap.String("destination", cfg.Destination),
		zap.String("compression", cfg.Compression),
		zap.String("mode", cfg.Mode),
	)
	if err := db.Exec(ctx, transform.CopyToParquet("SELECT * FROM "+src, cfg.Destination, cfg.Compression)); err != nil {
		return 0, fmt.Errorf("convert %s: %w", cfg.Source, err)
	}

	// RowsAffected у COPY зависит от версии драйвера, считаем по результату
	n, err := db.QueryInt(ctx, transform.Count(transform.ReadParquet(cfg.Destination)))
	if err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", cfg.Destination, err)
	}
	logger.Info("Parquet записан", zap.String("destination", cfg.Destination), zap.Int64("rows", n))
	return n, nil
}
