// Package dashboard runs one dashboard query: resolve the credential, fetch
// both datasets, aggregate them into a report and render it.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fdepm/painel/internal/plugins"
	"github.com/fdepm/painel/pkg/aggregate"
	"github.com/fdepm/painel/pkg/api"
	"github.com/fdepm/painel/pkg/credential"
	"github.com/fdepm/painel/pkg/currency"
)

// Deps are the collaborators of a Runner.
type Deps struct {
	Registry     *plugins.Registry
	Formatter    *currency.Formatter
	Expenditures api.ExpenditureFetcher
	Revenues     api.RevenueFetcher
	// Credentials supplies the API key when the request carries none.
	Credentials credential.Provider
}

// Config holds runner options.
type Config struct {
	MinYear int
	MaxYear int
}

// Runner builds and renders dashboard reports.
type Runner struct {
	deps    Deps
	minYear int
	maxYear int
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a new dashboard runner.
func New(deps Deps, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinYear == 0 {
		cfg.MinYear = api.MinYear
	}
	if cfg.MaxYear == 0 {
		cfg.MaxYear = api.MaxYear
	}

	return &Runner{
		deps:    deps,
		minYear: cfg.MinYear,
		maxYear: cfg.MaxYear,
		now:     time.Now,
		logger:  logger,
	}
}

// Run builds the report for req and renders it with the named writer plugin.
// Fetch failures are reported inside the report; the returned error covers
// invalid requests, writer setup and rendering.
func (r *Runner) Run(ctx context.Context, req api.FetchRequest, writerName string, writerConfig json.RawMessage) (*api.Report, error) {
	writer, err := r.deps.Registry.CreateWriter(
		writerName,
		r.deps.Formatter,
		writerConfig,
		r.logger.With("component", "writer", "plugin", writerName),
	)
	if err != nil {
		return nil, fmt.Errorf("creating writer: %w", err)
	}

	report, err := r.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := writer.WriteReport(ctx, report); err != nil {
		return report, fmt.Errorf("writing report: %w", err)
	}
	return report, nil
}

// Build fetches and aggregates both sections. Expenditures are fetched before
// revenues, one after the other.
func (r *Runner) Build(ctx context.Context, req api.FetchRequest) (*api.Report, error) {
	if err := api.ValidateYear(req.Year, r.minYear, r.maxYear); err != nil {
		return nil, err
	}
	if req.UnitCode == "" {
		req.UnitCode = api.DefaultUnitCode
	}
	if req.OrgCode == "" {
		req.OrgCode = api.DefaultOrgCode
	}

	r.logger.Info("building report",
		"year", req.Year,
		"unit_code", req.UnitCode,
		"org_code", req.OrgCode,
	)

	report := &api.Report{
		Year:        req.Year,
		UnitCode:    req.UnitCode,
		OrgCode:     req.OrgCode,
		GeneratedAt: r.now().UTC(),
	}

	report.Expenditure = r.expenditure(ctx, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.Revenue = r.revenue(ctx, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.logger.Info("report built",
		"expenditure_status", report.Expenditure.Status,
		"expenditure_records", report.Expenditure.Rows.Len(),
		"revenue_status", report.Revenue.Status,
		"revenue_records", report.Revenue.Rows.Len(),
	)
	return report, nil
}

func (r *Runner) expenditure(ctx context.Context, req api.FetchRequest) api.ExpenditureSection {
	var sec api.ExpenditureSection
	if r.deps.Expenditures == nil {
		sec.Status = api.StatusError
		sec.Error = "no expenditure provider configured"
		return sec
	}

	ds, err := r.deps.Expenditures.Fetch(ctx, req.Year, req.UnitCode)
	if err != nil {
		sec.Status, sec.Error = api.StatusError, err.Error()
		return sec
	}
	sec.Rows = ds
	if ds.Empty() {
		sec.Status = api.StatusEmpty
		return sec
	}

	if err := summarizeExpenditure(&sec); err != nil {
		r.logger.Error("aggregating expenditures", "error", err)
		sec.Status, sec.Error = api.StatusError, err.Error()
		return sec
	}
	sec.Status = api.StatusOK
	return sec
}

func summarizeExpenditure(sec *api.ExpenditureSection) error {
	totals, err := aggregate.Totals(sec.Rows, api.ColAllocated, api.ColCommitted, api.ColPaid)
	if err != nil {
		return err
	}
	sec.Allocated = totals[api.ColAllocated]
	sec.Committed = totals[api.ColCommitted]
	sec.Paid = totals[api.ColPaid]

	if sec.ByAction, err = aggregate.GroupSum(sec.Rows, api.ColActionDesc, api.ColCommitted); err != nil {
		return err
	}
	if sec.ByNature, err = aggregate.GroupSum(sec.Rows, api.ColNatureDesc, api.ColCommitted); err != nil {
		return err
	}
	return nil
}

func (r *Runner) revenue(ctx context.Context, req api.FetchRequest) api.RevenueSection {
	var sec api.RevenueSection
	if r.deps.Revenues == nil {
		sec.Status = api.StatusError
		sec.Error = "no revenue provider configured"
		return sec
	}

	key, err := r.apiKey(ctx, req)
	if err != nil {
		return failedRevenue(err)
	}

	ds, err := r.deps.Revenues.Fetch(ctx, req.Year, req.OrgCode, key)
	if err != nil {
		return failedRevenue(err)
	}
	sec.Rows = ds
	if ds.Empty() {
		sec.Status = api.StatusEmpty
		return sec
	}

	totals, err := aggregate.Totals(ds, api.ColPredicted, api.ColRealized)
	if err == nil {
		sec.Predicted, sec.Realized = totals[api.ColPredicted], totals[api.ColRealized]
		sec.ByCategory, err = aggregate.GroupSum(ds, api.ColPrimaryDesc, api.ColRealized)
	}
	if err != nil {
		r.logger.Error("aggregating revenues", "error", err)
		sec.Status, sec.Error = api.StatusError, err.Error()
		return sec
	}
	sec.Status = api.StatusOK
	return sec
}

func (r *Runner) apiKey(ctx context.Context, req api.FetchRequest) (string, error) {
	if !credential.Blank(req.APIKey) {
		return strings.TrimSpace(req.APIKey), nil
	}
	if r.deps.Credentials == nil {
		return "", api.ErrMissingCredential
	}
	return r.deps.Credentials.APIKey(ctx)
}

func failedRevenue(err error) api.RevenueSection {
	if errors.Is(err, api.ErrMissingCredential) {
		return api.RevenueSection{Status: api.StatusMissingCredential, Error: err.Error()}
	}
	return api.RevenueSection{Status: api.StatusError, Error: err.Error()}
}
