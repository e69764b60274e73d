// run_sql выполняет SQL-скрипт на файле DuckDB:
//
//	run_sql <db_path> <sql_file>
//
// Ошибка отдельной инструкции печатается и не останавливает скрипт.
// Код выхода 1 — только при неверных аргументах или отсутствующих файлах.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"HMDARiskPump/internal/config"
	"HMDARiskPump/internal/duckdb"
	"HMDARiskPump/internal/logger"
	"HMDARiskPump/internal/precheck"
	"HMDARiskPump/internal/runner"
)

const usage = "Usage: run_sql <db_path> <sql_file>"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, usage)
		return 1
	}
	dbPath, sqlFile := args[0], args[1]

	// Проверки до открытия соединения
	if err := precheck.RequireFile("DuckDB file", dbPath); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := precheck.RequireFile("SQL file", sqlFile); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	// Уровень логов — из HMDA_LOGGING_LEVEL / HMDA_LOGGING_LOGFILE
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	lg, err := logger.New(&cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer lg.Sync()

	script, err := os.ReadFile(sqlFile)
	if err != nil {
		lg.Error("Не удалось прочитать скрипт", zap.String("path", sqlFile), zap.Error(err))
		return 1
	}

	db, err := duckdb.Open(ctx, dbPath, lg.Named("duckdb"))
	if err != nil {
		lg.Error("Не удалось открыть DuckDB", zap.String("path", dbPath), zap.Error(err))
		return 1
	}
	defer db.Close()
	fmt.Fprintf(stdout, "Connected to: %s\n", dbPath)

	if _, err := runner.New(db, stdout, lg.Named("runner")).Run(ctx, string(script)); err != nil {
		lg.Error("Выполнение прервано", zap.Error(err))
	}
	return 0
}
