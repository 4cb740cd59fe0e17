// Package api defines the core interfaces and data structures for the FDEPM dashboard.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Default deployment constants for the FDEPM fund.
const (
	// DefaultUnitCode is the budget unit (UO) of the Fundo de Desenvolvimento
	// do Ensino Profissional Marítimo.
	DefaultUnitCode = "52133"
	// DefaultOrgCode is the organization code used for revenue queries.
	DefaultOrgCode = "52133"

	MinYear = 2010
	MaxYear = 2025
)

// FetchRequest parameterizes a single dashboard query.
type FetchRequest struct {
	Year     int
	OrgCode  string
	UnitCode string
	// APIKey is forwarded as-is to the revenue API. Blank means missing.
	APIKey string
}

// ValidateYear reports whether year lies within [minYear, maxYear].
func ValidateYear(year, minYear, maxYear int) error {
	if year < minYear || year > maxYear {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrYearOutOfRange, year, minYear, maxYear)
	}
	return nil
}

// ExpenditureFetcher retrieves the detailed expenditure dataset for a fiscal year.
// On failure it returns an empty dataset together with the error.
type ExpenditureFetcher interface {
	Fetch(ctx context.Context, year int, unitCode string) (Dataset[ExpenditureRecord], error)
}

// RevenueFetcher retrieves revenue records for a fiscal year and organization.
type RevenueFetcher interface {
	Fetch(ctx context.Context, year int, orgCode, apiKey string) (Dataset[RevenueRecord], error)
}

// ReportWriter renders a report to some destination.
type ReportWriter interface {
	WriteReport(ctx context.Context, report *Report) error
}

// Status describes the outcome of one report section.
type Status string

const (
	StatusOK                Status = "ok"
	StatusEmpty             Status = "empty"
	StatusError             Status = "error"
	StatusMissingCredential Status = "missing_credential"
)

// SeriesPoint is one bar of a grouped chart.
type SeriesPoint struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// Report is everything the presentation layer renders for one query.
type Report struct {
	Year        int                `json:"year"`
	UnitCode    string             `json:"unit_code"`
	OrgCode     string             `json:"org_code"`
	GeneratedAt time.Time          `json:"generated_at"`
	Expenditure ExpenditureSection `json:"expenditure"`
	Revenue     RevenueSection     `json:"revenue"`
}

// ExpenditureSection holds the expenditure metrics, series and raw rows.
type ExpenditureSection struct {
	Status Status `json:"status"`
	// Error is the provider failure text shown to the operator, if any.
	Error string `json:"error,omitempty"`

	Allocated decimal.Decimal `json:"allocated"`
	Committed decimal.Decimal `json:"committed"`
	Paid      decimal.Decimal `json:"paid"`

	ByAction []SeriesPoint              `json:"by_action"`
	ByNature []SeriesPoint              `json:"by_nature"`
	Rows     Dataset[ExpenditureRecord] `json:"rows"`
}

// RevenueSection holds the revenue metrics, series and raw rows.
type RevenueSection struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`

	Predicted decimal.Decimal `json:"predicted"`
	Realized  decimal.Decimal `json:"realized"`

	ByCategory []SeriesPoint          `json:"by_category"`
	Rows       Dataset[RevenueRecord] `json:"rows"`
}
