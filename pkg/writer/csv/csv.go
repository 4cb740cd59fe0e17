// Package csv implements a ReportWriter that writes each report table to its
// own CSV file.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fdepm/painel/pkg/api"
)

// File names written into the output directory.
const (
	SummaryFile             = "resumo.csv"
	ExpenditureByActionFile = "despesas_por_acao.csv"
	ExpenditureByNatureFile = "despesas_por_gnd.csv"
	ExpenditureRowsFile     = "despesas.csv"
	RevenueByCategoryFile   = "receitas_por_categoria.csv"
	RevenueRowsFile         = "receitas.csv"
)

// Writer writes report tables as CSV files.
type Writer struct {
	dir    string
	comma  rune
	logger *slog.Logger
}

// Config holds configuration for the CSV writer.
type Config struct {
	// Dir is the output directory. Created if missing.
	Dir string
	// Comma is the field delimiter. Defaults to ','.
	Comma rune
}

// New creates a new CSV writer.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if cfg.Comma == 0 {
		cfg.Comma = ','
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	logger.Info("csv writer initialized", "dir", cfg.Dir)
	return &Writer{dir: cfg.Dir, comma: cfg.Comma, logger: logger}, nil
}

// WriteReport implements api.ReportWriter. Sections without rows still get
// their header-only files so the set of outputs is stable.
func (w *Writer) WriteReport(ctx context.Context, report *api.Report) error {
	exp, rev := report.Expenditure, report.Revenue

	tables := []struct {
		name string
		rows [][]string
	}{
		{SummaryFile, summaryRows(report)},
		{ExpenditureByActionFile, seriesRows(api.ColActionDesc, api.ColCommitted, exp.ByAction)},
		{ExpenditureByNatureFile, seriesRows(api.ColNatureDesc, api.ColCommitted, exp.ByNature)},
		{ExpenditureRowsFile, datasetRows(api.ExpenditureColumns, exp.Rows)},
		{RevenueByCategoryFile, seriesRows(api.ColPrimaryDesc, api.ColRealized, rev.ByCategory)},
		{RevenueRowsFile, datasetRows(api.RevenueColumns, rev.Rows)},
	}

	for _, tbl := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.writeFile(tbl.name, tbl.rows); err != nil {
			return err
		}
	}

	w.logger.Info("wrote report", "dir", w.dir, "files", len(tables))
	return nil
}

func (w *Writer) writeFile(name string, rows [][]string) error {
	path := filepath.Join(w.dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("opening csv file: %w", err)
	}

	cw := csv.NewWriter(file)
	cw.Comma = w.comma
	if err := cw.WriteAll(rows); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			return fmt.Errorf("writing %s: %w (close error: %w)", name, err, closeErr)
		}
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing csv file: %w", err)
	}

	w.logger.Debug("wrote csv table", "file", path, "rows", len(rows)-1)
	return nil
}

func summaryRows(r *api.Report) [][]string {
	year := strconv.Itoa(r.Year)
	exp, rev := r.Expenditure, r.Revenue
	return [][]string{
		{"ano", "secao", "status", "metrica", "valor"},
		{year, "despesas", string(exp.Status), api.ColAllocated, exp.Allocated.StringFixed(2)},
		{year, "despesas", string(exp.Status), api.ColCommitted, exp.Committed.StringFixed(2)},
		{year, "despesas", string(exp.Status), api.ColPaid, exp.Paid.StringFixed(2)},
		{year, "receitas", string(rev.Status), api.ColPredicted, rev.Predicted.StringFixed(2)},
		{year, "receitas", string(rev.Status), api.ColRealized, rev.Realized.StringFixed(2)},
	}
}

func seriesRows(label, value string, series []api.SeriesPoint) [][]string {
	rows := make([][]string, 0, len(series)+1)
	rows = append(rows, []string{label, value})
	for _, p := range series {
		rows = append(rows, []string{p.Label, p.Value.StringFixed(2)})
	}
	return rows
}

func datasetRows[T api.Record](columns []string, ds api.Dataset[T]) [][]string {
	rows := make([][]string, 0, ds.Len()+1)
	rows = append(rows, columns)
	ds.All(func(_ int, r T) bool {
		rows = append(rows, r.Cells())
		return true
	})
	return rows
}
