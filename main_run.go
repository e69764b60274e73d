package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"HMDARiskPump/internal/duckdb"
	"HMDARiskPump/internal/precheck"
	"HMDARiskPump/internal/runner"
	"HMDARiskPump/internal/watcher"
)

type cmdRun struct {
	global *cmdGlobal

	flagWatch    bool
	flagFollow   bool
	flagPreview  int
	flagDebounce time.Duration
}

// Command generates the command definition.
func (c *cmdRun) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "run <db_path> <sql_file>"
	cmd.Short = "Run a SQL script against a DuckDB file"
	cmd.Long = `Description:
  Run a SQL script against a DuckDB file

  Statements are split on semicolons outside quotes and executed in order.
  A failing statement is reported and the script continues.
`
	cmd.RunE = c.Run
	cmd.Flags().BoolVarP(&c.flagWatch, "watch", "w", false, "Re-run the script whenever the file changes")
	cmd.Flags().BoolVarP(&c.flagFollow, "follow", "f", false, "Execute statements as they are appended to the file")
	cmd.Flags().IntVar(&c.flagPreview, "preview", runner.DefaultPreviewRows, "Rows printed for each result"+"``")
	cmd.Flags().DurationVar(&c.flagDebounce, "debounce", 300*time.Millisecond, "Delay before re-running after a change"+"``")

	return cmd
}

// Run runs the actual command logic.
func (c *cmdRun) Run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := c.global.CheckArgs(cmd, args, 2, 2)
	if exit {
		return err
	}
	if c.flagWatch && c.flagFollow {
		return fmt.Errorf("--watch and --follow are mutually exclusive")
	}

	dbPath, sqlFile := args[0], args[1]
	if err := precheck.RequireFile("DuckDB file", dbPath); err != nil {
		return err
	}
	if err := precheck.RequireFile("SQL file", sqlFile); err != nil {
		return err
	}

	if err := c.global.Setup(cmd, nil); err != nil {
		return err
	}
	lg := c.global.logger.Named("run")
	defer lg.Sync()

	ctx := cmd.Context()
	db, err := duckdb.Open(ctx, dbPath, lg.Named("duckdb"))
	if err != nil {
		return err
	}
	defer db.Close()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Connected to: %s\n", dbPath)

	r := runner.New(db, out, lg)
	r.SetPreviewRows(c.flagPreview)

	if c.flagFollow {
		return watcher.Follow(ctx, sqlFile, lg.Named("follow"), r.RunStatement)
	}

	runFile := func() {
		script, err := os.ReadFile(sqlFile)
		if err != nil {
			lg.Error("Не удалось прочитать скрипт", zap.String("path", sqlFile), zap.Error(err))
			return
		}
		if _, err := r.Run(ctx, string(script)); err != nil {
			lg.Warn("Выполнение прервано", zap.Error(err))
		}
	}
	runFile()
	if !c.flagWatch {
		return nil
	}
	return watcher.WatchFile(ctx, sqlFile, c.flagDebounce, lg.Named("watch"), runFile)
}
