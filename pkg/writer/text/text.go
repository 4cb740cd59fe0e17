// Package text implements a ReportWriter that renders the dashboard for a terminal.
package text

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/fdepm/painel/pkg/aggregate"
	"github.com/fdepm/painel/pkg/api"
	"github.com/fdepm/painel/pkg/currency"
)

const (
	// DefaultMaxRows limits each raw table. Negative means no limit.
	DefaultMaxRows = 20
	// DefaultBarWidth is the width of the longest chart bar in characters.
	DefaultBarWidth = 40
	// OtherLabel names the bar that folds the points beyond MaxBars.
	OtherLabel = "Outros"
)

// Writer renders reports as plain text.
type Writer struct {
	fmtr     *currency.Formatter
	filePath string
	out      io.Writer
	maxRows  int
	maxBars  int
	barWidth int
	logger   *slog.Logger
}

// Config holds configuration for the text writer.
type Config struct {
	// FilePath writes to a file instead of Output.
	FilePath string
	// Output defaults to os.Stdout.
	Output io.Writer
	// MaxRows caps each raw table. Zero selects DefaultMaxRows; negative is unlimited.
	MaxRows int
	// MaxBars caps each chart, folding the rest into OtherLabel. Zero shows every bar.
	MaxBars int
	// BarWidth defaults to DefaultBarWidth.
	BarWidth int
}

// New creates a text writer. A nil formatter uses the fallback format.
func New(fmtr *currency.Formatter, cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.MaxRows == 0 {
		cfg.MaxRows = DefaultMaxRows
	}
	if cfg.BarWidth <= 0 {
		cfg.BarWidth = DefaultBarWidth
	}
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o750); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	return &Writer{
		fmtr:     fmtr,
		filePath: cfg.FilePath,
		out:      cfg.Output,
		maxRows:  cfg.MaxRows,
		maxBars:  cfg.MaxBars,
		barWidth: cfg.BarWidth,
		logger:   logger,
	}, nil
}

// WriteReport implements api.ReportWriter.
func (w *Writer) WriteReport(ctx context.Context, report *api.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := w.out
	if w.filePath != "" {
		f, err := os.OpenFile(w.filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("opening output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	var b strings.Builder
	w.render(&b, report)

	if _, err := io.WriteString(out, b.String()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if w.filePath != "" {
		w.logger.Info("wrote report", "file", w.filePath)
	}
	return nil
}

func (w *Writer) render(b *strings.Builder, r *api.Report) {
	fmt.Fprintf(b, "Dashboard de Execução - FDEPM\n")
	fmt.Fprintf(b, "Fundo de Desenvolvimento do Ensino Profissional Marítimo\n")
	fmt.Fprintf(b, "Exercício %d  UO %s  Órgão %s\n\n", r.Year, r.UnitCode, r.OrgCode)

	exp := r.Expenditure
	heading(b, fmt.Sprintf("Execução da Despesa (UO %s)", r.UnitCode))
	if w.notice(b, exp.Status, exp.Error, "Nenhum dado de despesa encontrado.") {
		w.metrics(b, [][2]string{
			{"Dotação Atualizada", w.fmtr.Format(exp.Allocated)},
			{"Empenhado", w.fmtr.Format(exp.Committed)},
			{"Pago", w.fmtr.Format(exp.Paid)},
		})
		w.chart(b, "Empenhado por Ação", exp.ByAction)
		w.chart(b, "Empenhado por Natureza (GND)", exp.ByNature)
		table(b, w.maxRows, "Dados detalhados", api.ExpenditureColumns, exp.Rows)
	}

	rev := r.Revenue
	heading(b, fmt.Sprintf("Execução da Receita (Órgão %s)", r.OrgCode))
	if w.notice(b, rev.Status, rev.Error, "Nenhum dado de receita encontrado.") {
		w.metrics(b, [][2]string{
			{"Receita Prevista (Total)", w.fmtr.Format(rev.Predicted)},
			{"Receita Realizada (Total)", w.fmtr.Format(rev.Realized)},
		})
		w.chart(b, "Receita Realizada por Categoria", rev.ByCategory)
		table(b, w.maxRows, "Dados detalhados", api.RevenueColumns, rev.Rows)
	}
}

// notice prints the non-ok states and reports whether the section has data.
func (w *Writer) notice(b *strings.Builder, status api.Status, msg, emptyText string) bool {
	switch status {
	case api.StatusOK:
		return true
	case api.StatusEmpty:
		fmt.Fprintf(b, "  %s\n\n", emptyText)
	case api.StatusMissingCredential:
		fmt.Fprintf(b, "  Chave da API do Portal da Transparência não informada.\n")
		fmt.Fprintf(b, "  Defina PORTAL_API_KEY ou execute 'fdepm setup'.\n\n")
	default:
		fmt.Fprintf(b, "  ERRO: %s\n\n", msg)
	}
	return false
}

func heading(b *strings.Builder, title string) {
	fmt.Fprintf(b, "%s\n%s\n", title, strings.Repeat("=", len([]rune(title))))
}

func (w *Writer) metrics(b *strings.Builder, rows [][2]string) {
	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	for _, m := range rows {
		fmt.Fprintf(tw, "  %s\t%s\n", m[0], m[1])
	}
	tw.Flush()
	b.WriteByte('\n')
}

func (w *Writer) chart(b *strings.Builder, title string, series []api.SeriesPoint) {
	fmt.Fprintf(b, "%s\n", title)
	if len(series) == 0 {
		b.WriteString("  (sem dados)\n\n")
		return
	}
	series = aggregate.Top(series, w.maxBars, OtherLabel)

	peak := decimal.Zero
	for _, p := range series {
		if p.Value.Abs().GreaterThan(peak) {
			peak = p.Value.Abs()
		}
	}

	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	for _, p := range series {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", truncate(p.Label, 48), bar(p.Value, peak, w.barWidth), w.fmtr.Format(p.Value))
	}
	tw.Flush()
	b.WriteByte('\n')
}

// bar scales value against peak into at most width block characters.
func bar(value, peak decimal.Decimal, width int) string {
	if peak.IsZero() || !value.IsPositive() {
		return ""
	}
	n := value.Mul(decimal.NewFromInt(int64(width))).Div(peak).Round(0).IntPart()
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", int(n))
}

func table[T api.Record](b *strings.Builder, maxRows int, title string, columns []string, ds api.Dataset[T]) {
	fmt.Fprintf(b, "%s (%d linhas)\n", title, ds.Len())

	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  %s\n", strings.Join(columns, "\t"))
	ds.All(func(i int, r T) bool {
		if maxRows > 0 && i >= maxRows {
			return false
		}
		cells := r.Cells()
		for j := range cells {
			cells[j] = truncate(cells[j], 40)
		}
		fmt.Fprintf(tw, "  %s\n", strings.Join(cells, "\t"))
		return true
	})
	tw.Flush()

	if maxRows > 0 && ds.Len() > maxRows {
		fmt.Fprintf(b, "  ... %d linhas omitidas\n", ds.Len()-maxRows)
	}
	b.WriteByte('\n')
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
