package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"HMDARiskPump/internal/duckdb"
	"HMDARiskPump/internal/jobs"
	"HMDARiskPump/internal/s3check"
)

type cmdImportS3 struct {
	global *cmdGlobal

	flagSource string
	flagSchema string
	flagTable  string
	flagVerify bool
}

// Command generates the command definition.
func (c *cmdImportS3) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "import-s3"
	cmd.Short = "Create a DuckDB table from a Parquet object on S3"
	cmd.Long = `Description:
  Create a DuckDB table from a Parquet object on S3

  Credentials are taken from AWS_REGION, AWS_ACCESS_KEY_ID and
  AWS_SECRET_ACCESS_KEY, including those set in the env file.
`
	cmd.RunE = c.Run
	cmd.Flags().StringVarP(&c.flagSource, "source", "s", "", "s3:// URL of the Parquet object"+"``")
	cmd.Flags().StringVar(&c.flagSchema, "schema", "", "DuckDB schema (default hmda)"+"``")
	cmd.Flags().StringVar(&c.flagTable, "table", "", "DuckDB table (default loan_applications)"+"``")
	cmd.Flags().BoolVar(&c.flagVerify, "verify", false, "Check that the object exists before importing")

	return cmd
}

// Run runs the actual command logic.
func (c *cmdImportS3) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	err = c.global.Setup(cmd, map[string]string{
		"source": "Import.Source",
		"schema": "Import.Schema",
		"table":  "Import.Table",
		"verify": "S3.Verify",
	})
	if err != nil {
		return err
	}
	lg := c.global.logger.Named("import")
	defer lg.Sync()

	cfg := c.global.cfg
	if err := cfg.S3.Validate(); err != nil {
		return err
	}
	if err := cfg.Import.Validate(); err != nil {
		return err
	}
	var verifier jobs.ObjectVerifier
	if cfg.S3.Verify {
		v, err := s3check.NewVerifier(cfg.S3, lg.Named("s3"))
		if err != nil {
			return err
		}
		verifier = v
	}

	out := cmd.OutOrStdout()
	db, err := c.global.OpenDatabase(cmd.Context(), out)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := jobs.ImportS3(cmd.Context(), db, cfg.S3, cfg.Import, verifier, lg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Table created from S3 Parquet: %s (rows=%d)\n", duckdb.Qualified(cfg.Import.Schema, cfg.Import.Table), n)
	return nil
}
