package json

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fdepm/painel/pkg/api"
)

func sampleReport() *api.Report {
	return &api.Report{
		Year:        2024,
		UnitCode:    api.DefaultUnitCode,
		OrgCode:     api.DefaultOrgCode,
		GeneratedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Expenditure: api.ExpenditureSection{
			Status:    api.StatusOK,
			Allocated: decimal.NewFromInt(1000),
			Committed: decimal.NewFromInt(800),
			Paid:      decimal.NewFromInt(500),
			ByAction:  []api.SeriesPoint{{Label: "A", Value: decimal.NewFromInt(800)}},
			Rows: api.NewDataset([]api.ExpenditureRecord{
				{ActionDesc: "A", Committed: decimal.NewFromInt(800)},
			}),
		},
		Revenue: api.RevenueSection{
			Status: api.StatusMissingCredential,
			Error:  api.ErrMissingCredential.Error(),
		},
	}
}

func TestWriteReport_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	w, err := New(Config{FilePath: path, Indent: true}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := w.WriteReport(context.Background(), sampleReport()); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, data)
	}
	exp := got["expenditure"].(map[string]any)
	if exp["status"] != "ok" || exp["committed"] != "800" {
		t.Errorf("unexpected expenditure section: %v", exp)
	}
	if rows := exp["rows"].([]any); len(rows) != 1 {
		t.Errorf("rows = %v", rows)
	}

	rev := got["revenue"].(map[string]any)
	if rev["status"] != "missing_credential" {
		t.Errorf("revenue status = %v", rev["status"])
	}
	if rows, ok := rev["rows"].([]any); !ok || len(rows) != 0 {
		t.Errorf("empty rows should encode as [], got %v", rev["rows"])
	}
}

func TestWriteReport_Stdout(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(Config{FilePath: "-", Output: &buf}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteReport(context.Background(), sampleReport()); err != nil {
		t.Fatal(err)
	}
	if !json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Errorf("invalid json on output: %s", buf.String())
	}
}

func TestWriteReport_Canceled(t *testing.T) {
	w, _ := New(Config{Output: &bytes.Buffer{}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.WriteReport(ctx, sampleReport()); err == nil {
		t.Error("expected context error")
	}
}
