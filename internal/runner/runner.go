package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"HMDARiskPump/internal/models"
	"HMDARiskPump/internal/parser"
)

// DefaultPreviewRows — сколько строк результата печатать
const DefaultPreviewRows = 50

// Executor — соединение, на котором выполняются инструкции
type Executor interface {
	Exec(ctx context.Context, stmt string) error
	Query(ctx context.Context, stmt string, preview int) (*models.ResultSet, error)
}

// Runner выполняет инструкции скрипта строго по порядку.
// Ошибка одной инструкции печатается и не прерывает остальные.
type Runner struct {
	exec        Executor
	out         io.Writer
	logger      *zap.Logger
	previewRows int

	ordinal int
	report  models.Report
}

// New создаёт Runner, печатающий результаты в out
func New(exec Executor, out io.Writer, logger *zap.Logger) *Runner {
	return &Runner{
		exec:        exec,
		out:         out,
		logger:      logger,
		previewRows: DefaultPreviewRows,
	}
}

// SetPreviewRows меняет размер превью; n <= 0 — значение по умолчанию
func (r *Runner) SetPreviewRows(n int) {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	r.previewRows = n
}

// Reset обнуляет нумерацию и счётчики перед новым прогоном
func (r *Runner) Reset() {
	r.ordinal = 0
	r.report = models.Report{}
}

// Report возвращает счётчики с момента последнего Reset
func (r *Runner) Report() models.Report {
	return r.report
}

// Run делит скрипт на инструкции и выполняет их.
// Ошибка возвращается только при отмене ctx.
func (r *Runner) Run(ctx context.Context, script string) (models.Report, error) {
	r.Reset()
	stmts := parser.Split(script)
	r.logger.Debug("Скрипт разобран", zap.Int("statements", len(stmts)))

	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return r.report, err
		}
		r.RunStatement(ctx, stmt)
	}
	r.logger.Info("Скрипт выполнен",
		zap.Int("executed", r.report.Executed),
		zap.Int("ok", r.report.Succeeded),
		zap.Int("failed", r.report.Failed),
		zap.Int("skipped", r.report.Skipped),
	)
	return r.report, nil
}

// RunStatement выполняет одну инструкцию, продолжая нумерацию.
// Пустые инструкции и инструкции из одних комментариев пропускаются без номера.
func (r *Runner) RunStatement(ctx context.Context, stmt string) {
	if parser.IsCommentOnly(stmt) {
		r.report.Skipped++
		return
	}
	r.ordinal++
	r.report.Executed++
	st := models.Statement{Ordinal: r.ordinal, Text: stmt}

	started := time.Now()
	err := r.execute(ctx, st)
	if err != nil {
		r.report.Failed++
		r.logger.Warn("Инструкция завершилась с ошибкой", zap.Int("n", st.Ordinal), zap.Error(err))
		fmt.Fprintf(r.out, "\n*** Statement #%d FAILED ***\n", st.Ordinal)
		fmt.Fprintln(r.out, err)
		fmt.Fprint(r.out, "SQL:\n"+st.Text+"\n\n")
		return
	}
	r.report.Succeeded++
	r.logger.Debug("Инструкция выполнена", zap.Int("n", st.Ordinal), zap.Duration("took", time.Since(started)))
}

func (r *Runner) execute(ctx context.Context, st models.Statement) error {
	if !parser.IsRowProducing(st.Text) {
		if err := r.exec.Exec(ctx, st.Text); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "\n--- Statement #%d OK ---\n", st.Ordinal)
		return nil
	}

	rs, err := r.exec.Query(ctx, st.Text, r.previewRows)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "\n--- Result #%d (rows=%d) ---\n", st.Ordinal, rs.Total)
	renderResult(r.out, rs, r.previewRows)
	return nil
}
