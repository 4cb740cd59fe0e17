package aggregate

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fdepm/painel/pkg/api"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func expenditures(rows ...api.ExpenditureRecord) api.Dataset[api.ExpenditureRecord] {
	return api.NewDataset(rows)
}

func assertSeries(t *testing.T, got []api.SeriesPoint, want []api.SeriesPoint) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("series length: got %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Label != want[i].Label || !got[i].Value.Equal(want[i].Value) {
			t.Errorf("point %d: got (%q, %s), want (%q, %s)",
				i, got[i].Label, got[i].Value, want[i].Label, want[i].Value)
		}
	}
}

func TestGroupSum_Scenario(t *testing.T) {
	ds := expenditures(
		api.ExpenditureRecord{ActionDesc: "A", Committed: dec("100")},
		api.ExpenditureRecord{ActionDesc: "B", Committed: dec("300")},
		api.ExpenditureRecord{ActionDesc: "A", Committed: dec("50")},
	)

	got, err := GroupSum(ds, api.ColActionDesc, api.ColCommitted)
	if err != nil {
		t.Fatalf("GroupSum: %v", err)
	}
	assertSeries(t, got, []api.SeriesPoint{
		{Label: "B", Value: dec("300")},
		{Label: "A", Value: dec("150")},
	})
}

func TestGroupSum_TiesKeepFirstSeenOrder(t *testing.T) {
	ds := expenditures(
		api.ExpenditureRecord{NatureDesc: "Pessoal", Committed: dec("10")},
		api.ExpenditureRecord{NatureDesc: "Investimentos", Committed: dec("40")},
		api.ExpenditureRecord{NatureDesc: "Outras Despesas", Committed: dec("5")},
		api.ExpenditureRecord{NatureDesc: "Outras Despesas", Committed: dec("5")},
		api.ExpenditureRecord{NatureDesc: "Juros", Committed: dec("10")},
	)

	got, err := GroupSum(ds, api.ColNatureDesc, api.ColCommitted)
	if err != nil {
		t.Fatalf("GroupSum: %v", err)
	}
	assertSeries(t, got, []api.SeriesPoint{
		{Label: "Investimentos", Value: dec("40")},
		{Label: "Pessoal", Value: dec("10")},
		{Label: "Outras Despesas", Value: dec("10")},
		{Label: "Juros", Value: dec("10")},
	})
}

func TestGroupSum_LabelsAreOpaque(t *testing.T) {
	ds := expenditures(
		api.ExpenditureRecord{ActionDesc: "Custeio", Committed: dec("1")},
		api.ExpenditureRecord{ActionDesc: "custeio", Committed: dec("2")},
		api.ExpenditureRecord{ActionDesc: "Custeio ", Committed: dec("3")},
	)

	got, err := GroupSum(ds, api.ColActionDesc, api.ColCommitted)
	if err != nil {
		t.Fatalf("GroupSum: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 distinct groups, got %v", got)
	}
}

func TestGroupSum_DoesNotMutateDataset(t *testing.T) {
	ds := expenditures(
		api.ExpenditureRecord{ActionDesc: "A", Committed: dec("1")},
		api.ExpenditureRecord{ActionDesc: "B", Committed: dec("2")},
	)

	if _, err := GroupSum(ds, api.ColActionDesc, api.ColCommitted); err != nil {
		t.Fatalf("GroupSum: %v", err)
	}
	if ds.At(0).ActionDesc != "A" || ds.At(1).ActionDesc != "B" {
		t.Errorf("dataset order changed: %v", ds.Rows())
	}
}

func TestGroupSum_Empty(t *testing.T) {
	got, err := GroupSum(api.Dataset[api.RevenueRecord]{}, api.ColPrimaryDesc, api.ColRealized)
	if err != nil {
		t.Fatalf("GroupSum on empty dataset: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil series, got %#v", got)
	}
}

func TestGroupSum_UnknownField(t *testing.T) {
	ds := expenditures(api.ExpenditureRecord{ActionDesc: "A", Committed: dec("1")})

	if _, err := GroupSum(ds, "nope", api.ColCommitted); !errors.Is(err, api.ErrUnknownField) {
		t.Errorf("unknown group field: expected ErrUnknownField, got %v", err)
	}
	if _, err := GroupSum(ds, api.ColActionDesc, api.ColActionDesc); !errors.Is(err, api.ErrUnknownField) {
		t.Errorf("non-numeric sum field: expected ErrUnknownField, got %v", err)
	}
}

func TestTotalSum(t *testing.T) {
	ds := api.NewDataset([]api.RevenueRecord{
		{PrimaryDesc: "Taxas", Predicted: dec("100.10"), Realized: dec("120")},
		{PrimaryDesc: "Serviços", Predicted: dec("0.20"), Realized: dec("0.05")},
	})

	predicted, err := TotalSum(ds, api.ColPredicted)
	if err != nil {
		t.Fatalf("TotalSum: %v", err)
	}
	if !predicted.Equal(dec("100.30")) {
		t.Errorf("predicted: got %s, want 100.30", predicted)
	}

	realized, err := TotalSum(ds, api.ColRealized)
	if err != nil {
		t.Fatalf("TotalSum: %v", err)
	}
	if !realized.Equal(dec("120.05")) {
		t.Errorf("realized: got %s, want 120.05", realized)
	}
}

func TestTotalSum_Empty(t *testing.T) {
	got, err := TotalSum(api.Dataset[api.ExpenditureRecord]{}, api.ColPaid)
	if err != nil {
		t.Fatalf("TotalSum: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("expected zero, got %s", got)
	}
}

func TestTotals(t *testing.T) {
	ds := expenditures(
		api.ExpenditureRecord{Allocated: dec("10"), Committed: dec("7"), Paid: dec("3")},
		api.ExpenditureRecord{Allocated: dec("5"), Committed: dec("5"), Paid: dec("5")},
	)

	got, err := Totals(ds, api.ColAllocated, api.ColCommitted, api.ColPaid)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	for field, want := range map[string]string{
		api.ColAllocated: "15",
		api.ColCommitted: "12",
		api.ColPaid:      "8",
	} {
		if !got[field].Equal(dec(want)) {
			t.Errorf("%s: got %s, want %s", field, got[field], want)
		}
	}

	if _, err := Totals(ds, api.ColAllocated, "valor"); !errors.Is(err, api.ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestTop(t *testing.T) {
	series := []api.SeriesPoint{
		{Label: "a", Value: dec("5")},
		{Label: "b", Value: dec("4")},
		{Label: "c", Value: dec("3")},
		{Label: "d", Value: dec("2")},
	}

	assertSeries(t, Top(series, 2, "Outros"), []api.SeriesPoint{
		{Label: "a", Value: dec("5")},
		{Label: "b", Value: dec("4")},
		{Label: "Outros", Value: dec("5")},
	})

	if got := Top(series, 0, "Outros"); len(got) != 4 {
		t.Errorf("n=0 should return the series unchanged, got %v", got)
	}
	if got := Top(series, 10, "Outros"); len(got) != 4 {
		t.Errorf("n larger than series should return it unchanged, got %v", got)
	}
}
