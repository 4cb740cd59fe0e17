// Package transparencia implements a RevenueFetcher backed by the
// Portal da Transparência "receitas por órgão" API.
package transparencia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fdepm/painel/pkg/api"
	"github.com/fdepm/painel/pkg/cache"
	"github.com/fdepm/painel/pkg/credential"
)

const (
	// DefaultURL is the revenue-by-organization endpoint.
	DefaultURL = "https://api.portaldatransparencia.gov.br/api-de-dados/receitas/por-orgao"
	// DefaultMaxPages bounds pagination against an upstream that never
	// returns an empty page.
	DefaultMaxPages = 200
	// KeyHeader carries the caller's API key.
	KeyHeader = "chave-api-dados"

	maxBodySize = 32 << 20
	// maxMessageRunes bounds the error body quoted in an HTTPError.
	maxMessageRunes = 256
)

// Config holds configuration for the revenue reader.
type Config struct {
	// URL defaults to DefaultURL.
	URL string
	// MaxPages is the number of non-empty pages accepted before giving up.
	// Defaults to DefaultMaxPages.
	MaxPages int
	// Cache bounds the per-(year, org, key) memo.
	Cache cache.Config
}

// Reader fetches paginated revenue records.
type Reader struct {
	client   *http.Client
	url      string
	maxPages int
	memo     *cache.Memo[api.Dataset[api.RevenueRecord]]
	logger   *slog.Logger
}

var _ api.RevenueFetcher = (*Reader)(nil)

// New creates a revenue reader. httpClient carries the request timeout.
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
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}

	return &Reader{
		client:   httpClient,
		url:      cfg.URL,
		maxPages: cfg.MaxPages,
		memo:     cache.NewMemo[api.Dataset[api.RevenueRecord]]("revenue", cfg.Cache, logger),
		logger:   logger.With("component", "transparencia"),
	}
}

// Fetch accumulates every page of revenue records for year and orgCode.
//
// A blank apiKey returns api.ErrMissingCredential without any request. A
// failed page discards everything accumulated so far and returns an error
// wrapping *api.HTTPError. Successful results are memoized per
// (year, orgCode, apiKey).
func (r *Reader) Fetch(ctx context.Context, year int, orgCode, apiKey string) (api.Dataset[api.RevenueRecord], error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return api.Dataset[api.RevenueRecord]{}, api.ErrMissingCredential
	}

	key := cache.Key(year, orgCode, cache.Secret(apiKey))
	ds, _, err := r.memo.Do(ctx, key, func(ctx context.Context) (api.Dataset[api.RevenueRecord], error) {
		r.logger.Info("fetching revenues",
			"year", year,
			"org_code", orgCode,
			"api_key", credential.Mask(apiKey),
		)
		return r.fetchAll(ctx, year, orgCode, apiKey)
	})
	if err != nil {
		r.logger.Error("revenue fetch failed", "year", year, "org_code", orgCode, "error", err)
		return api.Dataset[api.RevenueRecord]{}, err
	}
	return ds, nil
}

func (r *Reader) fetchAll(ctx context.Context, year int, orgCode, apiKey string) (api.Dataset[api.RevenueRecord], error) {
	var all []api.RevenueRecord

	for page := 1; page <= r.maxPages; page++ {
		records, err := r.fetchPage(ctx, year, orgCode, apiKey, page)
		if err != nil {
			return api.Dataset[api.RevenueRecord]{}, fmt.Errorf("fetching page %d: %w", page, err)
		}
		if len(records) == 0 {
			r.logger.Info("fetched revenues", "year", year, "org_code", orgCode, "pages", page-1, "records", len(all))
			return api.NewDataset(all), nil
		}

		r.logger.Debug("fetched revenue page", "page", page, "records", len(records))
		all = append(all, records...)
	}

	return api.Dataset[api.RevenueRecord]{}, fmt.Errorf("%w: no empty page after %d pages", api.ErrPageLimitExceeded, r.maxPages)
}

func (r *Reader) fetchPage(ctx context.Context, year int, orgCode, apiKey string, page int) ([]api.RevenueRecord, error) {
	body, err := r.get(ctx, year, orgCode, apiKey, page)
	if err != nil {
		return nil, err
	}
	return decodePage(body)
}

// get issues one page request and returns the body of a 2xx response.
func (r *Reader) get(ctx context.Context, year int, orgCode, apiKey string, page int) ([]byte, error) {
	u, err := url.Parse(r.url)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	q := u.Query()
	q.Set("anoExercicio", strconv.Itoa(year))
	q.Set("codigoOrgao", orgCode)
	q.Set("pagina", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(KeyHeader, apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &api.HTTPError{URL: r.url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &api.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    errorMessage(body),
			URL:        r.url,
		}
	}
	if err != nil {
		return nil, &api.HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, URL: r.url, Err: err}
	}
	return body, nil
}

// Ping requests the first page of year for orgCode, checking the key is accepted.
func (r *Reader) Ping(ctx context.Context, year int, orgCode, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return api.ErrMissingCredential
	}
	_, err := r.get(ctx, year, orgCode, apiKey, 1)
	return err
}

// RawPage returns the undecoded body of one page. It bypasses the memo.
func (r *Reader) RawPage(ctx context.Context, year int, orgCode, apiKey string, page int) ([]byte, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, api.ErrMissingCredential
	}
	if page < 1 {
		return nil, fmt.Errorf("page %d: pages start at 1", page)
	}
	return r.get(ctx, year, orgCode, apiKey, page)
}

// errorMessage extracts a short description from an error body.
func errorMessage(body []byte) string {
	msg := []rune(strings.TrimSpace(string(body)))
	if len(msg) > maxMessageRunes {
		return string(msg[:maxMessageRunes]) + "..."
	}
	return string(msg)
}

// IsAuthError reports whether err is a rejected API key.
func IsAuthError(err error) bool {
	var herr *api.HTTPError
	if !errors.As(err, &herr) {
		return false
	}
	return herr.StatusCode == http.StatusUnauthorized || herr.StatusCode == http.StatusForbidden
}
