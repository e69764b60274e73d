package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"HMDARiskPump/internal/config"
	"HMDARiskPump/internal/duckdb"
	"HMDARiskPump/internal/s3check"
	"HMDARiskPump/internal/transform"
)

// ObjectVerifier проверяет, что объект на S3 существует, и возвращает его размер
type ObjectVerifier interface {
	Verify(ctx context.Context, url string) (int64, error)
}

// ImportS3 создаёт (или заменяет) таблицу imp.Schema.imp.Table из Parquet на S3
// и возвращает число строк в ней. verifier может быть nil.
func ImportS3(ctx context.Context, db DB, s3 config.S3Config, imp config.ImportConfig, verifier ObjectVerifier, logger *zap.Logger) (int64, error) {
	// значения ключей не логируются, только их наличие
	logger.Info("Настройки S3",
		zap.String("region", s3.Region),
		zap.Bool("access_key_found", s3.AccessKeyID != ""),
		zap.Bool("secret_key_found", s3.SecretAccessKey != ""),
	)
	if err := s3.Validate(); err != nil {
		return 0, err
	}
	if err := imp.Validate(); err != nil {
		return 0, err
	}

	if verifier != nil && s3.Verify {
		size, err := verifier.Verify(ctx, imp.Source)
		if err != nil {
			return 0, err
		}
		logger.Info("Объект найден", zap.String("url", imp.Source), zap.Int64("size", size))
	}

	if err := execAll(ctx, db, s3Settings(s3)...); err != nil {
		return 0, err
	}

	table := duckdb.Qualified(imp.Schema, imp.Table)
	err := execAll(ctx, db,
		"CREATE SCHEMA IF NOT EXISTS "+duckdb.QuoteIdent(imp.Schema),
		"CREATE OR REPLACE TABLE "+table+" AS SELECT * FROM "+transform.ReadParquet(imp.Source),
	)
	if err != nil {
		return 0, err
	}
	n, err := db.QueryInt(ctx, transform.Count(table))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	logger.Info("Таблица создана из S3 Parquet", zap.String("table", table), zap.Int64("rows", n))
	return n, nil
}

// s3Settings — SET s3_* для httpfs
func s3Settings(c config.S3Config) []string {
	stmts := []string{
		"SET s3_region=" + duckdb.QuoteLiteral(c.Region),
		fmt.Sprintf("SET s3_use_ssl=%t", c.UseSSL),
		"SET s3_url_style=" + duckdb.QuoteLiteral(c.URLStyle),
		"SET s3_access_key_id=" + duckdb.QuoteLiteral(c.AccessKeyID),
		"SET s3_secret_access_key=" + duckdb.QuoteLiteral(c.SecretAccessKey),
	}
	if c.Endpoint != "" {
		stmts = append(stmts, "SET s3_endpoint="+duckdb.QuoteLiteral(s3check.Host(c.Endpoint)))
	}
	return stmts
}
