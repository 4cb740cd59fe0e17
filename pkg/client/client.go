// Package client builds the HTTP clients used to reach the upstream data providers.
package client

import (
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds every request when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// UserAgent is sent on every upstream request.
const UserAgent = "fdepm-painel/1.0"

// Config holds HTTP client options.
type Config struct {
	// Timeout is the per-request deadline. Defaults to DefaultTimeout.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate validation.
	InsecureSkipVerify bool
}

// New creates an HTTP client with a per-request timeout. TLS certificates are
// verified unless cfg.InsecureSkipVerify is set.
func New(cfg Config, logger *slog.Logger) *http.Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	if cfg.InsecureSkipVerify {
		logger.Warn("TLS certificate verification disabled for upstream client")
		transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec // operator opt-in
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &userAgentTransport{base: transport},
	}
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", UserAgent)
	return t.base.RoundTrip(r)
}
