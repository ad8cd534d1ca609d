// Package actionsout reports run progress to a GitHub Actions runner:
// workflow command annotations on stdout and a markdown job summary.
package actionsout

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
	"github.com/nathantilsley/state-dispatcher/internal/platform/logger"
)

// Adapter implements ports.ReportingPort.
type Adapter struct {
	mu          sync.Mutex
	out         io.Writer
	summaryPath string
}

// New creates a reporter writing commands to out. The markdown summary is
// appended to summaryPath ($GITHUB_STEP_SUMMARY); an empty path skips it.
func New(out io.Writer, summaryPath string) *Adapter {
	return &Adapter{out: out, summaryPath: summaryPath}
}

// Notice emits a notice annotation.
func (a *Adapter) Notice(ctx context.Context, msg string) {
	a.command(ctx, logger.CommandNotice, msg)
}

// Error emits an error annotation.
func (a *Adapter) Error(ctx context.Context, msg string) {
	a.command(ctx, logger.CommandError, msg)
}

// Failure emits the error annotation that marks the run failed. The exit
// status itself comes from the command returning an error.
func (a *Adapter) Failure(ctx context.Context, msg string) {
	a.command(ctx, logger.CommandError, msg)
}

// Summary prints rows as a text table and appends them, under heading, to
// the job summary file.
func (a *Adapter) Summary(ctx context.Context, heading string, rows []domain.SummaryRow) {
	t := newTable(rows, table.StyleLight)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := fmt.Fprintf(a.out, "%s\n%s\n", heading, t.Render()); err != nil {
		slogcontext.FromCtx(ctx).Warn("writing summary table", "error", err)
	}

	if a.summaryPath == "" {
		return
	}
	if err := appendFile(a.summaryPath, RenderMarkdown(heading, rows)); err != nil {
		slogcontext.FromCtx(ctx).Warn("writing step summary", "path", a.summaryPath, "error", err)
	}
}

func (a *Adapter) command(ctx context.Context, command, msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := logger.WriteCommand(a.out, command, msg); err != nil {
		slogcontext.FromCtx(ctx).Warn("writing workflow command", "command", command, "error", err)
	}
}

// RenderMarkdown renders the summary section: a level two heading followed
// by a markdown table.
func RenderMarkdown(heading string, rows []domain.SummaryRow) string {
	return "## " + heading + "\n\n" + newTable(rows, table.StyleDefault).RenderMarkdown() + "\n\n"
}

func newTable(rows []domain.SummaryRow, style table.Style) table.Writer {
	t := table.NewWriter()
	t.SetStyle(style)
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, 0, len(domain.SummaryHeader))
	for _, h := range domain.SummaryHeader {
		header = append(header, h)
	}
	t.AppendHeader(header)

	for _, r := range rows {
		cells := r.Cells()
		row := make(table.Row, 0, len(cells))
		for _, c := range cells {
			row = append(row, c)
		}
		t.AppendRow(row)
	}
	return t
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
