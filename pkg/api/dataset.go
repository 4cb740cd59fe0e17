package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Record is a row whose columns can be addressed by name.
type Record interface {
	// Label returns the text value of a categorical column.
	Label(column string) (string, error)
	// Amount returns the numeric value of a monetary column.
	Amount(column string) (decimal.Decimal, error)
	// Cells returns the row values in Columns order, for tabular rendering.
	Cells() []string
}

// Dataset is an ordered, read-only sequence of records of one type.
// The zero value is an empty dataset.
type Dataset[T Record] struct {
	rows []T
}

// NewDataset copies rows into a new dataset.
func NewDataset[T Record](rows []T) Dataset[T] {
	if len(rows) == 0 {
		return Dataset[T]{}
	}
	cp := make([]T, len(rows))
	copy(cp, rows)
	return Dataset[T]{rows: cp}
}

// Len returns the number of records.
func (d Dataset[T]) Len() int { return len(d.rows) }

// Empty reports whether the dataset holds no records.
func (d Dataset[T]) Empty() bool { return len(d.rows) == 0 }

// At returns the i-th record.
func (d Dataset[T]) At(i int) T { return d.rows[i] }

// Rows returns a copy of the records.
func (d Dataset[T]) Rows() []T {
	cp := make([]T, len(d.rows))
	copy(cp, d.rows)
	return cp
}

// All iterates over the records in order without copying them.
func (d Dataset[T]) All(yield func(int, T) bool) {
	for i, r := range d.rows {
		if !yield(i, r) {
			return
		}
	}
}

// MarshalJSON encodes the dataset as a JSON array, never null.
func (d Dataset[T]) MarshalJSON() ([]byte, error) {
	if d.rows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.rows)
}
