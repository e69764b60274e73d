package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"HMDARiskPump/internal/clickhouseclient"
	"HMDARiskPump/internal/duckdb"
	"HMDARiskPump/internal/jobs"
	"HMDARiskPump/internal/precheck"
	"HMDARiskPump/internal/storage"
)

type cmdPublish struct {
	global *cmdGlobal

	flagSchema        string
	flagTable         string
	flagBatchSize     int
	flagBatchInterval int
	flagCheckpoint    string
	flagAddress       string
	flagTarget        string
	flagCreateTable   bool
}

// Command generates the command definition.
func (c *cmdPublish) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "publish"
	cmd.Short = "Copy a DuckDB table into ClickHouse"
	cmd.Long = `Description:
  Copy a DuckDB table into ClickHouse

  Rows are sent in batches. After every batch the number of published
  rows is saved to the checkpoint file, so an interrupted run resumes
  where it stopped.
`
	cmd.RunE = c.Run
	cmd.Flags().StringVar(&c.flagSchema, "schema", "", "DuckDB schema (default hmda)"+"``")
	cmd.Flags().StringVar(&c.flagTable, "table", "", "DuckDB table (default loan_applications)"+"``")
	cmd.Flags().IntVar(&c.flagBatchSize, "batch-size", 0, "Rows per batch (default 10000)"+"``")
	cmd.Flags().IntVar(&c.flagBatchInterval, "batch-interval", 0, "Max seconds between batches (default 5)"+"``")
	cmd.Flags().StringVar(&c.flagCheckpoint, "checkpoint", "", "Checkpoint file"+"``")
	cmd.Flags().StringVar(&c.flagAddress, "clickhouse-address", "", "ClickHouse host:port"+"``")
	cmd.Flags().StringVar(&c.flagTarget, "clickhouse-table", "", "ClickHouse table"+"``")
	cmd.Flags().BoolVar(&c.flagCreateTable, "create-table", true, "Create the ClickHouse table if it does not exist")

	return cmd
}

// Run runs the actual command logic.
func (c *cmdPublish) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	err = c.global.Setup(cmd, map[string]string{
		"schema":             "Publish.Schema",
		"table":              "Publish.Table",
		"batch-size":         "Publish.BatchSize",
		"batch-interval":     "Publish.BatchInterval",
		"checkpoint":         "Publish.CheckpointPath",
		"clickhouse-address": "ClickHouse.Address",
		"clickhouse-table":   "ClickHouse.Table",
		"create-table":       "ClickHouse.CreateTable",
	})
	if err != nil {
		return err
	}
	lg := c.global.logger.Named("publish")
	defer lg.Sync()

	cfg := c.global.cfg
	if err := cfg.ClickHouse.Validate(); err != nil {
		return err
	}
	if err := cfg.Publish.Validate(); err != nil {
		return err
	}
	// публикуем только существующую базу
	if err := precheck.RequireFile("DuckDB file", cfg.Database); err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := duckdb.Open(ctx, cfg.Database, lg.Named("duckdb"))
	if err != nil {
		return err
	}
	defer db.Close()

	ch, err := clickhouseclient.New(cfg.ClickHouse, lg.Named("clickhouse"))
	if err != nil {
		return err
	}
	defer ch.Close()

	store := storage.NewFileStore(cfg.Publish.CheckpointPath)
	sum, err := jobs.Publish(ctx, db, cfg.Publish, cfg.ClickHouse.CreateTable, ch, store, lg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Published %s: rows=%d batches=%d (started at offset %d)\n",
		sum.Table, sum.Published, sum.Batches, sum.StartedAt)
	return nil
}
