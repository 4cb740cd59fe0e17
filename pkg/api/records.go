package api

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Expenditure column names, as returned by the budget-execution provider.
const (
	ColActionCode = "Acao_cod"
	ColActionDesc = "Acao_desc"
	ColNatureCode = "GND_cod"
	ColNatureDesc = "GND_desc"
	ColSourceCode = "Fonte_cod"
	ColSourceDesc = "Fonte_desc"
	ColInitial    = "loa"
	ColAllocated  = "loa_mais_credito"
	ColCommitted  = "empenhado"
	ColLiquidated = "liquidado"
	ColPaid       = "pago"
)

// Revenue column names, as returned by the transparency portal.
const (
	ColPredicted   = "valorPrevisto"
	ColRealized    = "valorRealizado"
	ColPrimaryDesc = "descricaoPrimaria"
	ColOrg         = "orgao"
	ColCategory    = "categoria"
	ColOrigin      = "origem"
	ColSpecies     = "especie"
)

// ExpenditureColumns is the column order of ExpenditureRecord.Cells.
var ExpenditureColumns = []string{
	ColActionCode, ColActionDesc,
	ColNatureCode, ColNatureDesc,
	ColSourceCode, ColSourceDesc,
	ColInitial, ColAllocated, ColCommitted, ColLiquidated, ColPaid,
}

// RevenueColumns is the column order of RevenueRecord.Cells.
var RevenueColumns = []string{
	ColOrg, ColCategory, ColOrigin, ColSpecies, ColPrimaryDesc,
	ColPredicted, ColRealized,
}

// ExpenditureRecord is one row of detailed budget execution, broken down by
// action, expenditure nature (GND) and funding source.
type ExpenditureRecord struct {
	ActionCode string `json:"Acao_cod,omitempty"`
	ActionDesc string `json:"Acao_desc,omitempty"`
	NatureCode string `json:"GND_cod,omitempty"`
	NatureDesc string `json:"GND_desc,omitempty"`
	SourceCode string `json:"Fonte_cod,omitempty"`
	SourceDesc string `json:"Fonte_desc,omitempty"`

	Initial    decimal.Decimal `json:"loa"`
	Allocated  decimal.Decimal `json:"loa_mais_credito"`
	Committed  decimal.Decimal `json:"empenhado"`
	Liquidated decimal.Decimal `json:"liquidado"`
	Paid       decimal.Decimal `json:"pago"`
}

// Label implements Record.
func (r ExpenditureRecord) Label(column string) (string, error) {
	switch column {
	case ColActionCode:
		return r.ActionCode, nil
	case ColActionDesc:
		return r.ActionDesc, nil
	case ColNatureCode:
		return r.NatureCode, nil
	case ColNatureDesc:
		return r.NatureDesc, nil
	case ColSourceCode:
		return r.SourceCode, nil
	case ColSourceDesc:
		return r.SourceDesc, nil
	}
	return "", fmt.Errorf("%w: expenditure label %q", ErrUnknownField, column)
}

// Amount implements Record.
func (r ExpenditureRecord) Amount(column string) (decimal.Decimal, error) {
	switch column {
	case ColInitial:
		return r.Initial, nil
	case ColAllocated:
		return r.Allocated, nil
	case ColCommitted:
		return r.Committed, nil
	case ColLiquidated:
		return r.Liquidated, nil
	case ColPaid:
		return r.Paid, nil
	}
	return decimal.Zero, fmt.Errorf("%w: expenditure amount %q", ErrUnknownField, column)
}

// Cells implements Record.
func (r ExpenditureRecord) Cells() []string {
	return []string{
		r.ActionCode, r.ActionDesc,
		r.NatureCode, r.NatureDesc,
		r.SourceCode, r.SourceDesc,
		r.Initial.StringFixed(2), r.Allocated.StringFixed(2), r.Committed.StringFixed(2),
		r.Liquidated.StringFixed(2), r.Paid.StringFixed(2),
	}
}

// RevenueRecord is one revenue line of an organization.
// Realized may exceed Predicted.
type RevenueRecord struct {
	Org         string `json:"orgao,omitempty"`
	Category    string `json:"categoria,omitempty"`
	Origin      string `json:"origem,omitempty"`
	Species     string `json:"especie,omitempty"`
	PrimaryDesc string `json:"descricaoPrimaria"`

	Predicted decimal.Decimal `json:"valorPrevisto"`
	Realized  decimal.Decimal `json:"valorRealizado"`
}

// Label implements Record.
func (r RevenueRecord) Label(column string) (string, error) {
	switch column {
	case ColPrimaryDesc:
		return r.PrimaryDesc, nil
	case ColOrg:
		return r.Org, nil
	case ColCategory:
		return r.Category, nil
	case ColOrigin:
		return r.Origin, nil
	case ColSpecies:
		return r.Species, nil
	}
	return "", fmt.Errorf("%w: revenue label %q", ErrUnknownField, column)
}

// Amount implements Record.
func (r RevenueRecord) Amount(column string) (decimal.Decimal, error) {
	switch column {
	case ColPredicted:
		return r.Predicted, nil
	case ColRealized:
		return r.Realized, nil
	}
	return decimal.Zero, fmt.Errorf("%w: revenue amount %q", ErrUnknownField, column)
}

// Cells implements Record.
func (r RevenueRecord) Cells() []string {
	return []string{
		r.Org, r.Category, r.Origin, r.Species, r.PrimaryDesc,
		r.Predicted.StringFixed(2), r.Realized.StringFixed(2),
	}
}
