// Package siop implements an ExpenditureFetcher backed by the SIOP budget
// execution SPARQL endpoint.
package siop

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/fdepm/painel/pkg/api"
	"github.com/fdepm/painel/pkg/cache"
)

// DefaultURL is the public SIOP SPARQL endpoint.
const DefaultURL = "https://www1.siop.planejamento.gov.br/sparql/"

// ProviderName identifies SIOP in errors and logs.
const ProviderName = "siop"

// Config holds configuration for the SIOP reader.
type Config struct {
	// URL of the SPARQL endpoint. Defaults to DefaultURL.
	URL string
	// Breakdown selects the grouping dimensions. The zero value means FullBreakdown.
	Breakdown *Breakdown
	// Cache bounds the per-(year, unit) memo.
	Cache cache.Config
}

// Reader fetches detailed expenditure datasets from SIOP.
type Reader struct {
	client    *http.Client
	url       string
	breakdown Breakdown
	memo      *cache.Memo[api.Dataset[api.ExpenditureRecord]]
	logger    *slog.Logger
}

var _ api.ExpenditureFetcher = (*Reader)(nil)

// New creates a SIOP reader. httpClient carries the timeout and TLS policy.
func New(httpClient *http.Client, cfg Config, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	breakdown := FullBreakdown
	if cfg.Breakdown != nil {
		breakdown = *cfg.Breakdown
	}

	return &Reader{
		client:    httpClient,
		url:       cfg.URL,
		breakdown: breakdown,
		memo:      cache.NewMemo[api.Dataset[api.ExpenditureRecord]]("expenditure", cfg.Cache, logger),
		logger:    logger.With("component", "siop"),
	}
}

// Fetch returns the expenditure rows for year and unitCode. Successful results
// are memoized per (year, unitCode). Any failure yields an empty dataset and
// a *api.ProviderError.
func (r *Reader) Fetch(ctx context.Context, year int, unitCode string) (api.Dataset[api.ExpenditureRecord], error) {
	key := cache.Key(year, unitCode)

	ds, hit, err := r.memo.Do(ctx, key, func(ctx context.Context) (api.Dataset[api.ExpenditureRecord], error) {
		r.logger.Info("fetching expenditures", "year", year, "unit_code", unitCode)
		return r.fetch(ctx, year, unitCode)
	})
	if err != nil {
		r.logger.Error("expenditure fetch failed", "year", year, "unit_code", unitCode, "error", err)
		return api.Dataset[api.ExpenditureRecord]{}, &api.ProviderError{Provider: ProviderName, Err: err}
	}
	if hit {
		r.logger.Debug("expenditures served from cache", "year", year, "unit_code", unitCode)
	}
	return ds, nil
}

func (r *Reader) fetch(ctx context.Context, year int, unitCode string) (api.Dataset[api.ExpenditureRecord], error) {
	var empty api.Dataset[api.ExpenditureRecord]

	query, err := BuildQuery(year, unitCode, r.breakdown)
	if err != nil {
		return empty, fmt.Errorf("building query: %w", err)
	}

	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, strings.NewReader(form.Encode()))
	if err != nil {
		return empty, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := r.client.Do(req)
	if err != nil {
		return empty, &api.HTTPError{URL: r.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return empty, &api.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    strings.TrimSpace(string(msg)),
			URL:        r.url,
		}
	}

	rows, err := decodeResults(resp.Body, r.breakdown.Columns())
	if err != nil {
		return empty, err
	}

	r.logger.Info("fetched expenditures", "year", year, "unit_code", unitCode, "records", len(rows))
	return api.NewDataset(rows), nil
}

// Ping checks that the endpoint answers a trivial query.
func (r *Reader) Ping(ctx context.Context) error {
	form := url.Values{"query": {"ASK { ?s ?p ?o }"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := r.client.Do(req)
	if err != nil {
		return &api.HTTPError{URL: r.url, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &api.HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, URL: r.url}
	}
	return nil
}
