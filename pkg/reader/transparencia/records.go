package transparencia

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fdepm/painel/pkg/api"
	"github.com/fdepm/painel/pkg/currency"
)

// amount accepts JSON numbers as well as plain ("1234.56") and Brazilian
// ("1.234,56") strings.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := currency.ParseAmount(s)
		if err != nil {
			return err
		}
		a.Decimal = d
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("%w: %s", currency.ErrInvalidAmount, b)
	}
	a.Decimal = d
	return nil
}

// wireRecord is one element of a /receitas/por-orgao page.
type wireRecord struct {
	Org         string  `json:"orgao"`
	Category    string  `json:"categoria"`
	Origin      string  `json:"origem"`
	Species     string  `json:"especie"`
	PrimaryDesc *string `json:"descricaoPrimaria"`
	Predicted   *amount `json:"valorPrevisto"`
	Realized    *amount `json:"valorRealizado"`
}

func (w wireRecord) record() (api.RevenueRecord, error) {
	switch {
	case w.PrimaryDesc == nil:
		return api.RevenueRecord{}, fmt.Errorf("%w: %s", api.ErrMissingField, api.ColPrimaryDesc)
	case w.Predicted == nil:
		return api.RevenueRecord{}, fmt.Errorf("%w: %s", api.ErrMissingField, api.ColPredicted)
	case w.Realized == nil:
		return api.RevenueRecord{}, fmt.Errorf("%w: %s", api.ErrMissingField, api.ColRealized)
	}
	return api.RevenueRecord{
		Org:         w.Org,
		Category:    w.Category,
		Origin:      w.Origin,
		Species:     w.Species,
		PrimaryDesc: *w.PrimaryDesc,
		Predicted:   w.Predicted.Decimal,
		Realized:    w.Realized.Decimal,
	}, nil
}

func decodePage(body []byte) ([]api.RevenueRecord, error) {
	var page []wireRecord
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}
	out := make([]api.RevenueRecord, 0, len(page))
	for i, w := range page {
		rec, err := w.record()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
