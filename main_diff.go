package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"HMDARiskPump/internal/jobs"
)

type cmdDiff struct {
	global *cmdGlobal

	flagSource      string
	flagDestination string
	flagBadRows     string
	flagSchema      string
	flagTable       string
	flagCompression string
}

// Command generates the command definition.
func (c *cmdDiff) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "diff"
	cmd.Short = "Find CSV rows lost by typed parsing and write a no-loss Parquet"
	cmd.Long = `Description:
  Find CSV rows lost by typed parsing and write a no-loss Parquet

  The CSV is read twice: once with every column as text and once with
  type inference ignoring errors. Rows missing from the typed read are
  saved to the bad rows file. The Parquet and the DuckDB table are built
  from the text read, so no rows are lost.
`
	cmd.RunE = c.Run
	cmd.Flags().StringVarP(&c.flagSource, "source", "s", "", "CSV file to read"+"``")
	cmd.Flags().StringVarP(&c.flagDestination, "destination", "d", "", "Parquet file to write"+"``")
	cmd.Flags().StringVar(&c.flagBadRows, "bad-rows", "", "CSV file receiving dropped rows"+"``")
	cmd.Flags().StringVar(&c.flagSchema, "schema", "", "DuckDB schema (default hmda)"+"``")
	cmd.Flags().StringVar(&c.flagTable, "table", "", "DuckDB table (default loan_applications)"+"``")
	cmd.Flags().StringVar(&c.flagCompression, "compression", "", "Parquet codec"+"``")

	return cmd
}

// Run runs the actual command logic.
func (c *cmdDiff) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	err = c.global.Setup(cmd, map[string]string{
		"source":      "Diff.Source",
		"destination": "Diff.Destination",
		"bad-rows":    "Diff.BadRows",
		"schema":      "Diff.Schema",
		"table":       "Diff.Table",
		"compression": "Diff.Compression",
	})
	if err != nil {
		return err
	}
	lg := c.global.logger.Named("diff")
	defer lg.Sync()

	cfg := c.global.cfg.Diff
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	db, err := c.global.OpenDatabase(cmd.Context(), out)
	if err != nil {
		return err
	}
	defer db.Close()

	sum, err := jobs.Diff(cmd.Context(), db, cfg, lg)
	if err != nil {
		return err
	}
	if sum.BadRowsWritten {
		fmt.Fprintf(out, "Saved dropped rows to: %s\n", cfg.BadRows)
	}
	fmt.Fprintf(out, "Wrote Parquet (no-loss) to: %s\n", cfg.Destination)
	jobs.PrintSummary(out, sum)
	return nil
}
