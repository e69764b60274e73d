package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"HMDARiskPump/internal/config"
	"HMDARiskPump/internal/duckdb"
	"HMDARiskPump/internal/logger"
)

type cmdGlobal struct {
	flagConfig   string
	flagEnvFile  string
	flagLogLevel string
	flagLogFile  string
	flagDatabase string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp().ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}

func newApp() *cobra.Command {
	app := &cobra.Command{}
	app.Use = "hmdapump"
	app.Short = "HMDA loan data pipeline on DuckDB"
	app.Long = `Description:
  HMDA loan data pipeline on DuckDB

  Runs SQL scripts against a DuckDB file, converts the raw CSV extract
  to Parquet, checks what typed parsing drops, imports Parquet from S3
  and publishes DuckDB tables to ClickHouse.
`
	app.SilenceUsage = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	// Global flags.
	globalCmd := cmdGlobal{}
	app.PersistentFlags().StringVarP(&globalCmd.flagConfig, "config", "c", "", "Config file (yaml, json or toml)"+"``")
	app.PersistentFlags().StringVar(&globalCmd.flagEnvFile, "env-file", ".env", "Env file with AWS_* and HMDA_* variables"+"``")
	app.PersistentFlags().StringVar(&globalCmd.flagLogLevel, "log-level", "", "Log level (debug|info|warn|error)"+"``")
	app.PersistentFlags().StringVar(&globalCmd.flagLogFile, "log-file", "", "File receiving error logs"+"``")
	app.PersistentFlags().StringVar(&globalCmd.flagDatabase, "database", "", "DuckDB file (default hmda_risk.duckdb)"+"``")

	// run sub-command.
	runCmd := cmdRun{global: &globalCmd}
	app.AddCommand(runCmd.Command())

	// convert sub-command.
	convertCmd := cmdConvert{global: &globalCmd}
	app.AddCommand(convertCmd.Command())

	// diff sub-command.
	diffCmd := cmdDiff{global: &globalCmd}
	app.AddCommand(diffCmd.Command())

	// import-s3 sub-command.
	importCmd := cmdImportS3{global: &globalCmd}
	app.AddCommand(importCmd.Command())

	// publish sub-command.
	publishCmd := cmdPublish{global: &globalCmd}
	app.AddCommand(publishCmd.Command())

	return app
}

// CheckArgs validates the number of arguments passed to the function and shows the help if incorrect.
func (c *cmdGlobal) CheckArgs(cmd *cobra.Command, args []string, minArgs int, maxArgs int) (bool, error) {
	if len(args) < minArgs || (maxArgs != -1 && len(args) > maxArgs) {
		_ = cmd.Help()

		if len(args) == 0 {
			return true, nil
		}

		return true, fmt.Errorf("Invalid number of arguments")
	}

	return false, nil
}

// Setup привязывает флаги команды к ключам конфига, читает конфиг и создаёт логгер.
// bindings: имя флага → ключ конфига.
func (c *cmdGlobal) Setup(cmd *cobra.Command, bindings map[string]string) error {
	loader := config.NewLoader()
	all := map[string]string{
		"log-level": "Logging.Level",
		"log-file":  "Logging.LogFile",
		"database":  "Database",
	}
	for name, key := range bindings {
		all[name] = key
	}
	for name, key := range all {
		flag := cmd.Flag(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := loader.BindFlag(key, flag); err != nil {
			return err
		}
	}

	cfg, err := loader.Load(c.flagConfig, c.flagEnvFile)
	if err != nil {
		return err
	}
	lg, err := logger.New(&cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = lg
	return nil
}

// OpenDatabase открывает (и при необходимости создаёт) файл DuckDB из конфига
func (c *cmdGlobal) OpenDatabase(ctx context.Context, out io.Writer) (*duckdb.Client, error) {
	path := c.cfg.Database
	if dir := filepath.Dir(path); path != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	db, err := duckdb.Open(ctx, path, c.logger.Named("duckdb"))
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Connected to DuckDB: %s\n", path)
	return db, nil
}
