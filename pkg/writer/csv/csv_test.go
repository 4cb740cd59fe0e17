package csv

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fdepm/painel/pkg/api"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return rows
}

func TestWriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "csv")
	w, err := New(Config{Dir: dir}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	report := &api.Report{
		Year: 2024,
		Expenditure: api.ExpenditureSection{
			Status:    api.StatusOK,
			Allocated: decimal.RequireFromString("1500.5"),
			ByAction: []api.SeriesPoint{
				{Label: "B", Value: decimal.NewFromInt(300)},
				{Label: "A, com vírgula", Value: decimal.NewFromInt(150)},
			},
			Rows: api.NewDataset([]api.ExpenditureRecord{
				{ActionCode: "20XW", ActionDesc: "A", Committed: decimal.NewFromInt(100)},
			}),
		},
		Revenue: api.RevenueSection{Status: api.StatusEmpty},
	}

	if err := w.WriteReport(context.Background(), report); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	for _, name := range []string{SummaryFile, ExpenditureByActionFile, ExpenditureByNatureFile, ExpenditureRowsFile, RevenueByCategoryFile, RevenueRowsFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	summary := readCSV(t, filepath.Join(dir, SummaryFile))
	if len(summary) != 6 {
		t.Fatalf("summary rows = %d, want 6", len(summary))
	}
	if summary[1][3] != api.ColAllocated || summary[1][4] != "1500.50" {
		t.Errorf("allocated row = %v", summary[1])
	}
	if summary[4][2] != "empty" {
		t.Errorf("revenue status = %q", summary[4][2])
	}

	byAction := readCSV(t, filepath.Join(dir, ExpenditureByActionFile))
	if len(byAction) != 3 || byAction[1][0] != "B" || byAction[2][0] != "A, com vírgula" {
		t.Errorf("by action = %v", byAction)
	}

	rows := readCSV(t, filepath.Join(dir, ExpenditureRowsFile))
	if len(rows) != 2 || len(rows[0]) != len(api.ExpenditureColumns) {
		t.Fatalf("expenditure rows = %v", rows)
	}
	if rows[1][0] != "20XW" || rows[1][8] != "100.00" {
		t.Errorf("expenditure row = %v", rows[1])
	}

	revenue := readCSV(t, filepath.Join(dir, RevenueRowsFile))
	if len(revenue) != 1 {
		t.Errorf("empty revenue should be header only, got %v", revenue)
	}
}

func TestNew_RequiresDir(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Error("expected error for empty dir")
	}
}
