// Package aggregate computes top-line totals and grouped chart series over datasets.
package aggregate

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/fdepm/painel/pkg/api"
)

// GroupSum groups ds by the exact value of groupBy and sums sumField within
// each group. The result is sorted by sum descending; equal sums keep the
// order in which their group was first seen. The dataset is not modified.
//
// An empty dataset yields an empty series. Unknown columns are an error.
func GroupSum[T api.Record](ds api.Dataset[T], groupBy, sumField string) ([]api.SeriesPoint, error) {
	if ds.Empty() {
		return []api.SeriesPoint{}, nil
	}

	index := make(map[string]int)
	var series []api.SeriesPoint

	var err error
	ds.All(func(i int, r T) bool {
		var label string
		label, err = r.Label(groupBy)
		if err != nil {
			err = fmt.Errorf("grouping row %d: %w", i, err)
			return false
		}
		var amount decimal.Decimal
		amount, err = r.Amount(sumField)
		if err != nil {
			err = fmt.Errorf("summing row %d: %w", i, err)
			return false
		}

		pos, ok := index[label]
		if !ok {
			index[label] = len(series)
			series = append(series, api.SeriesPoint{Label: label, Value: amount})
			return true
		}
		series[pos].Value = series[pos].Value.Add(amount)
		return true
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(series, func(a, b api.SeriesPoint) int {
		return b.Value.Cmp(a.Value)
	})
	return series, nil
}

// TotalSum adds field across every row of ds. An empty dataset sums to zero.
func TotalSum[T api.Record](ds api.Dataset[T], field string) (decimal.Decimal, error) {
	total := decimal.Zero

	var err error
	ds.All(func(i int, r T) bool {
		var amount decimal.Decimal
		amount, err = r.Amount(field)
		if err != nil {
			err = fmt.Errorf("summing row %d: %w", i, err)
			return false
		}
		total = total.Add(amount)
		return true
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Totals sums several fields at once, keyed by field name.
func Totals[T api.Record](ds api.Dataset[T], fields ...string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(fields))
	for _, f := range fields {
		sum, err := TotalSum(ds, f)
		if err != nil {
			return nil, err
		}
		out[f] = sum
	}
	return out, nil
}

// Top returns at most n points of series, folding the remainder into a single
// trailing point labelled other. n <= 0 returns series unchanged.
func Top(series []api.SeriesPoint, n int, other string) []api.SeriesPoint {
	if n <= 0 || len(series) <= n {
		return series
	}
	out := make([]api.SeriesPoint, 0, n+1)
	out = append(out, series[:n]...)

	rest := decimal.Zero
	for _, p := range series[n:] {
		rest = rest.Add(p.Value)
	}
	return append(out, api.SeriesPoint{Label: other, Value: rest})
}
