// Package xlsx implements a ReportWriter that produces an Excel workbook with
// a summary sheet, one charted sheet per series and the raw tables.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/fdepm/painel/pkg/api"
)

// Sheet names.
const (
	SheetSummary           = "Resumo"
	SheetByAction          = "Despesa por Ação"
	SheetByNature          = "Despesa por GND"
	SheetRevenueByCategory = "Receita por Categoria"
	SheetExpenditureRows   = "Despesas"
	SheetRevenueRows       = "Receitas"
)

// moneyFormat renders amounts with grouping and two decimals in Excel.
const moneyFormat = `"R$" #,##0.00`

// Writer writes reports as XLSX workbooks.
type Writer struct {
	filePath string
	charts   bool
	logger   *slog.Logger
}

// Config holds configuration for the XLSX writer.
type Config struct {
	// FilePath is the workbook path.
	FilePath string
	// DisableCharts skips the native bar charts.
	DisableCharts bool
}

// New creates a new XLSX writer.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o750); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{
		filePath: cfg.FilePath,
		charts:   !cfg.DisableCharts,
		logger:   logger,
	}, nil
}

// workbook wraps an excelize file with the shared styles.
type workbook struct {
	f      *excelize.File
	header int
	money  int
}

// WriteReport implements api.ReportWriter.
func (w *Writer) WriteReport(ctx context.Context, report *api.Report) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			w.logger.Warn("closing workbook", "error", err)
		}
	}()

	wb, err := newWorkbook(f)
	if err != nil {
		return err
	}

	exp, rev := report.Expenditure, report.Revenue
	if err := wb.summary(report); err != nil {
		return err
	}

	series := []struct {
		sheet, label, value string
		points              []api.SeriesPoint
	}{
		{SheetByAction, api.ColActionDesc, api.ColCommitted, exp.ByAction},
		{SheetByNature, api.ColNatureDesc, api.ColCommitted, exp.ByNature},
		{SheetRevenueByCategory, api.ColPrimaryDesc, api.ColRealized, rev.ByCategory},
	}
	for _, s := range series {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := wb.series(s.sheet, s.label, s.value, s.points, w.charts); err != nil {
			return err
		}
	}

	if err := writeRows(wb, SheetExpenditureRows, api.ExpenditureColumns, 6, exp.Rows); err != nil {
		return err
	}
	if err := writeRows(wb, SheetRevenueRows, api.RevenueColumns, 5, rev.Rows); err != nil {
		return err
	}

	if err := f.SaveAs(w.filePath); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	w.logger.Info("wrote report", "file", w.filePath)
	return nil
}

func newWorkbook(f *excelize.File) (*workbook, error) {
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	numFmt := moneyFormat
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, fmt.Errorf("creating currency style: %w", err)
	}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("renaming default sheet: %w", err)
	}
	return &workbook{f: f, header: header, money: money}, nil
}

func (wb *workbook) summary(r *api.Report) error {
	rows := [][]any{
		{"Exercício", r.Year},
		{"Unidade Orçamentária", r.UnitCode},
		{"Órgão", r.OrgCode},
		{},
		{"Seção", "Métrica", "Valor", "Situação"},
		{"Despesas", "Dotação Atualizada", r.Expenditure.Allocated.InexactFloat64(), string(r.Expenditure.Status)},
		{"Despesas", "Empenhado", r.Expenditure.Committed.InexactFloat64(), string(r.Expenditure.Status)},
		{"Despesas", "Pago", r.Expenditure.Paid.InexactFloat64(), string(r.Expenditure.Status)},
		{"Receitas", "Receita Prevista", r.Revenue.Predicted.InexactFloat64(), string(r.Revenue.Status)},
		{"Receitas", "Receita Realizada", r.Revenue.Realized.InexactFloat64(), string(r.Revenue.Status)},
	}
	if r.Expenditure.Error != "" {
		rows = append(rows, []any{"Erro despesas", r.Expenditure.Error})
	}
	if r.Revenue.Error != "" {
		rows = append(rows, []any{"Erro receitas", r.Revenue.Error})
	}

	for i, row := range rows {
		if err := wb.f.SetSheetRow(SheetSummary, cell(1, i+1), &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}
	if err := wb.f.SetCellStyle(SheetSummary, "A5", "D5", wb.header); err != nil {
		return fmt.Errorf("styling summary: %w", err)
	}
	if err := wb.f.SetCellStyle(SheetSummary, "C6", "C10", wb.money); err != nil {
		return fmt.Errorf("styling summary: %w", err)
	}
	return wb.f.SetColWidth(SheetSummary, "A", "B", 24)
}

func (wb *workbook) series(sheet, label, value string, points []api.SeriesPoint, chart bool) error {
	if _, err := wb.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}

	if err := wb.f.SetSheetRow(sheet, "A1", &[]any{label, value}); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	for i, p := range points {
		row := []any{p.Label, p.Value.InexactFloat64()}
		if err := wb.f.SetSheetRow(sheet, cell(1, i+2), &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}
	if err := wb.f.SetCellStyle(sheet, "A1", "B1", wb.header); err != nil {
		return fmt.Errorf("styling %s: %w", sheet, err)
	}
	if err := wb.f.SetColWidth(sheet, "A", "A", 48); err != nil {
		return fmt.Errorf("sizing %s: %w", sheet, err)
	}
	if err := wb.f.SetColWidth(sheet, "B", "B", 20); err != nil {
		return fmt.Errorf("sizing %s: %w", sheet, err)
	}

	if len(points) == 0 {
		return nil
	}
	last := strconv.Itoa(len(points) + 1)
	if err := wb.f.SetCellStyle(sheet, "B2", "B"+last, wb.money); err != nil {
		return fmt.Errorf("styling %s: %w", sheet, err)
	}
	if !chart {
		return nil
	}

	ref := "'" + sheet + "'!"
	err := wb.f.AddChart(sheet, "D2", &excelize.Chart{
		Type: excelize.Bar,
		Series: []excelize.ChartSeries{{
			Name:       ref + "$B$1",
			Categories: ref + "$A$2:$A$" + last,
			Values:     ref + "$B$2:$B$" + last,
		}},
		Title:     []excelize.RichTextRun{{Text: sheet}},
		Legend:    excelize.ChartLegend{Position: "none"},
		Dimension: excelize.ChartDimension{Width: 720, Height: uint(max(320, 24*len(points)))},
	})
	if err != nil {
		return fmt.Errorf("adding chart to %s: %w", sheet, err)
	}
	return nil
}

// writeRows writes a raw dataset. Columns after the first moneyFrom hold amounts.
func writeRows[T api.Record](wb *workbook, sheet string, columns []string, moneyFrom int, ds api.Dataset[T]) error {
	if _, err := wb.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := wb.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	if err := wb.f.SetCellStyle(sheet, "A1", cell(len(columns), 1), wb.header); err != nil {
		return fmt.Errorf("styling %s: %w", sheet, err)
	}

	var err error
	ds.All(func(i int, r T) bool {
		cells := r.Cells()
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = c
			if j+1 > moneyFrom {
				if f, perr := strconv.ParseFloat(c, 64); perr == nil {
					row[j] = f
				}
			}
		}
		if err = wb.f.SetSheetRow(sheet, cell(1, i+2), &row); err != nil {
			err = fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	if ds.Len() > 0 {
		if err := wb.f.SetCellStyle(sheet, cell(moneyFrom+1, 2), cell(len(columns), ds.Len()+1), wb.money); err != nil {
			return fmt.Errorf("styling %s: %w", sheet, err)
		}
	}
	return nil
}

func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "A1"
	}
	return name
}
