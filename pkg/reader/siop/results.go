package siop

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/fdepm/painel/pkg/api"
)

// sparqlResults is the application/sparql-results+json document.
type sparqlResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]sparqlTerm `json:"bindings"`
	} `json:"results"`
}

type sparqlTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
}

// decodeResults parses a SPARQL JSON result set into expenditure rows.
// Every column in want must be declared and bound in every row.
func decodeResults(body io.Reader, want []string) ([]api.ExpenditureRecord, error) {
	var res sparqlResults
	if err := json.NewDecoder(body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decoding sparql results: %w", err)
	}

	for _, col := range want {
		if !slices.Contains(res.Head.Vars, col) {
			return nil, fmt.Errorf("%w: column %q not in result set", api.ErrMissingField, col)
		}
	}

	rows := make([]api.ExpenditureRecord, 0, len(res.Results.Bindings))
	for i, b := range res.Results.Bindings {
		rec, err := toRecord(b, want)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func toRecord(b map[string]sparqlTerm, want []string) (api.ExpenditureRecord, error) {
	var rec api.ExpenditureRecord

	for _, col := range want {
		term, ok := b[col]
		if !ok {
			return rec, fmt.Errorf("%w: %q unbound", api.ErrMissingField, col)
		}

		if text := textField(&rec, col); text != nil {
			*text = term.Value
			continue
		}

		amount, err := decimal.NewFromString(term.Value)
		if err != nil {
			return rec, fmt.Errorf("parsing %s %q: %w", col, term.Value, err)
		}
		*amountField(&rec, col) = amount
	}
	return rec, nil
}

func textField(rec *api.ExpenditureRecord, col string) *string {
	switch col {
	case api.ColActionCode:
		return &rec.ActionCode
	case api.ColActionDesc:
		return &rec.ActionDesc
	case api.ColNatureCode:
		return &rec.NatureCode
	case api.ColNatureDesc:
		return &rec.NatureDesc
	case api.ColSourceCode:
		return &rec.SourceCode
	case api.ColSourceDesc:
		return &rec.SourceDesc
	}
	return nil
}

func amountField(rec *api.ExpenditureRecord, col string) *decimal.Decimal {
	switch col {
	case api.ColInitial:
		return &rec.Initial
	case api.ColAllocated:
		return &rec.Allocated
	case api.ColCommitted:
		return &rec.Committed
	case api.ColLiquidated:
		return &rec.Liquidated
	case api.ColPaid:
		return &rec.Paid
	}
	var discard decimal.Decimal
	return &discard
}
