package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	c := New(Config{}, nil)
	if c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}

	ua, ok := c.Transport.(*userAgentTransport)
	if !ok {
		t.Fatalf("unexpected transport %T", c.Transport)
	}
	tr := ua.base.(*http.Transport)
	if tr.TLSClientConfig.InsecureSkipVerify {
		t.Error("certificate verification must be on by default")
	}
}

func TestNew_InsecureOptIn(t *testing.T) {
	c := New(Config{Timeout: time.Second, InsecureSkipVerify: true}, nil)
	tr := c.Transport.(*userAgentTransport).base.(*http.Transport)
	if !tr.TLSClientConfig.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify to be set")
	}
	if c.Timeout != time.Second {
		t.Errorf("Timeout = %v, want 1s", c.Timeout)
	}
}

func TestNew_SetsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	resp, err := New(Config{}, nil).Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got != UserAgent {
		t.Errorf("User-Agent = %q, want %q", got, UserAgent)
	}
}

func TestNew_TimeoutApplies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := New(Config{Timeout: 50 * time.Millisecond}, nil).Get(srv.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
