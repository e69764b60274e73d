package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"HMDARiskPump/internal/duckdb"
	"HMDARiskPump/internal/jobs"
)

type cmdConvert struct {
	global *cmdGlobal

	flagSource          string
	flagDestination     string
	flagCompression     string
	flagMode            string
	flagDateFormat      string
	flagTimestampFormat string
	flagThreads         int
	flagMemoryLimit     string
}

// Command generates the command definition.
func (c *cmdConvert) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "convert"
	cmd.Short = "Convert a CSV file to Parquet"
	cmd.Long = `Description:
  Convert a CSV file to Parquet

  The CSV is read with type inference by an in-memory DuckDB.
  In permissive mode rows that fail to parse are dropped,
  in strict mode they fail the conversion.
`
	cmd.RunE = c.Run
	cmd.Flags().StringVarP(&c.flagSource, "source", "s", "", "CSV file to read"+"``")
	cmd.Flags().StringVarP(&c.flagDestination, "destination", "d", "", "Parquet file to write"+"``")
	cmd.Flags().StringVar(&c.flagCompression, "compression", "", "Parquet codec (zstd|snappy|gzip|lz4|brotli|uncompressed)"+"``")
	cmd.Flags().StringVar(&c.flagMode, "mode", "", "Parse error handling (strict|permissive)"+"``")
	cmd.Flags().StringVar(&c.flagDateFormat, "date-format", "", "DATEFORMAT for the CSV reader"+"``")
	cmd.Flags().StringVar(&c.flagTimestampFormat, "timestamp-format", "", "TIMESTAMPFORMAT for the CSV reader"+"``")
	cmd.Flags().IntVar(&c.flagThreads, "threads", 0, "DuckDB worker threads"+"``")
	cmd.Flags().StringVar(&c.flagMemoryLimit, "memory-limit", "", "DuckDB memory limit, e.g. 2GB"+"``")

	return cmd
}

// Run runs the actual command logic.
func (c *cmdConvert) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	err = c.global.Setup(cmd, map[string]string{
		"source":           "Convert.Source",
		"destination":      "Convert.Destination",
		"compression":      "Convert.Compression",
		"mode":             "Convert.Mode",
		"date-format":      "Convert.DateFormat",
		"timestamp-format": "Convert.TimestampFormat",
		"threads":          "Convert.Threads",
		"memory-limit":     "Convert.MemoryLimit",
	})
	if err != nil {
		return err
	}
	lg := c.global.logger.Named("convert")
	defer lg.Sync()

	// конвертации не нужен файл базы
	db, err := duckdb.Open(cmd.Context(), "", lg.Named("duckdb"))
	if err != nil {
		return err
	}
	defer db.Close()

	cfg := c.global.cfg.Convert
	n, err := jobs.Convert(cmd.Context(), db, cfg, lg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Successfully converted CSV to Parquet: %s (rows=%d)\n", cfg.Destination, n)
	return nil
}
