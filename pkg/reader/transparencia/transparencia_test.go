package transparencia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/fdepm/painel/pkg/api"
)

// fakePortal serves pages[i] for pagina=i+1 and an empty array afterwards.
// A status other than 200 in statuses[i] fails that page.
type fakePortal struct {
	t        *testing.T
	pages    [][]map[string]any
	statuses map[int]int
	calls    atomic.Int32
	lastKey  atomic.Value
}

func (f *fakePortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	f.lastKey.Store(r.Header.Get(KeyHeader))

	q := r.URL.Query()
	if q.Get("anoExercicio") == "" || q.Get("codigoOrgao") == "" {
		f.t.Errorf("missing query params: %s", r.URL.RawQuery)
	}
	page, err := strconv.Atoi(q.Get("pagina"))
	if err != nil || page < 1 {
		f.t.Errorf("bad pagina %q", q.Get("pagina"))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if status, ok := f.statuses[page]; ok {
		w.WriteHeader(status)
		fmt.Fprint(w, `{"mensagem":"erro interno"}`)
		return
	}

	body := []map[string]any{}
	if page <= len(f.pages) {
		body = f.pages[page-1]
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func makePage(n int, realized any) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{
			"orgao":             "Comando da Marinha",
			"categoria":         "Receitas Correntes",
			"origem":            "Receita Patrimonial",
			"especie":           "Exploração do Patrimônio",
			"descricaoPrimaria": fmt.Sprintf("Receita %d", i),
			"valorPrevisto":     "1.000,00",
			"valorRealizado":    realized,
		}
	}
	return out
}

func newReader(t *testing.T, f *fakePortal, cfg Config) *Reader {
	t.Helper()
	f.t = t
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	cfg.URL = srv.URL
	return New(srv.Client(), cfg, nil)
}

func TestFetch_AccumulatesPages(t *testing.T) {
	f := &fakePortal{pages: [][]map[string]any{makePage(10, 25.5), makePage(5, "1234.56")}}
	r := newReader(t, f, Config{})

	ds, err := r.Fetch(context.Background(), 2024, "52133", "key-123")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if ds.Len() != 15 {
		t.Errorf("got %d records, want 15", ds.Len())
	}
	if n := f.calls.Load(); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}
	if got := f.lastKey.Load(); got != "key-123" {
		t.Errorf("api key header = %v", got)
	}

	first, last := ds.At(0), ds.At(14)
	if !first.Realized.Equal(decimal.RequireFromString("25.5")) {
		t.Errorf("numeric amount: got %s", first.Realized)
	}
	if !last.Realized.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("string amount: got %s", last.Realized)
	}
	if !first.Predicted.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("brazilian amount: got %s", first.Predicted)
	}
	if first.Category != "Receitas Correntes" || first.PrimaryDesc != "Receita 0" {
		t.Errorf("unexpected labels: %+v", first)
	}
}

func TestFetch_FailedPageDiscardsPartialResults(t *testing.T) {
	f := &fakePortal{
		pages:    [][]map[string]any{makePage(10, 1), makePage(5, 1)},
		statuses: map[int]int{2: http.StatusInternalServerError},
	}
	r := newReader(t, f, Config{})

	ds, err := r.Fetch(context.Background(), 2024, "52133", "key")
	if ds.Len() != 0 {
		t.Errorf("got %d records, want 0", ds.Len())
	}

	var herr *api.HTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if herr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", herr.StatusCode)
	}
	if herr.Message == "" {
		t.Error("expected error body in message")
	}
	if n := f.calls.Load(); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
}

func TestFetch_EmptyFirstPage(t *testing.T) {
	f := &fakePortal{}
	r := newReader(t, f, Config{})

	ds, err := r.Fetch(context.Background(), 2024, "52133", "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ds.Empty() {
		t.Errorf("expected empty dataset, got %d", ds.Len())
	}
}

func TestFetch_MissingCredential(t *testing.T) {
	for _, key := range []string{"", "   ", "\t"} {
		f := &fakePortal{pages: [][]map[string]any{makePage(1, 1)}}
		r := newReader(t, f, Config{})

		ds, err := r.Fetch(context.Background(), 2024, "52133", key)
		if !errors.Is(err, api.ErrMissingCredential) {
			t.Errorf("key %q: expected ErrMissingCredential, got %v", key, err)
		}
		var herr *api.HTTPError
		if errors.As(err, &herr) {
			t.Errorf("key %q: missing credential must be distinct from HTTPError", key)
		}
		if !ds.Empty() {
			t.Errorf("key %q: expected empty dataset", key)
		}
		if n := f.calls.Load(); n != 0 {
			t.Errorf("key %q: network called %d times", key, n)
		}
	}
}

func TestFetch_Memoized(t *testing.T) {
	f := &fakePortal{pages: [][]map[string]any{makePage(3, 1)}}
	r := newReader(t, f, Config{})
	ctx := context.Background()

	a, err := r.Fetch(ctx, 2024, "52133", "key")
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Fetch(ctx, 2024, "52133", "key")
	if err != nil {
		t.Fatal(err)
	}
	if n := f.calls.Load(); n != 2 {
		t.Errorf("requests = %d, want 2 (one page plus terminator)", n)
	}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Error("memoized dataset is not identical")
	}

	if _, err := r.Fetch(ctx, 2024, "52133", "other-key"); err != nil {
		t.Fatal(err)
	}
	if n := f.calls.Load(); n != 4 {
		t.Errorf("distinct key should refetch, requests = %d", n)
	}
}

func TestFetch_PageLimit(t *testing.T) {
	pages := make([][]map[string]any, 10)
	for i := range pages {
		pages[i] = makePage(1, 1)
	}
	f := &fakePortal{pages: pages}
	r := newReader(t, f, Config{MaxPages: 3})

	ds, err := r.Fetch(context.Background(), 2024, "52133", "key")
	if !errors.Is(err, api.ErrPageLimitExceeded) {
		t.Fatalf("expected ErrPageLimitExceeded, got %v", err)
	}
	if !ds.Empty() {
		t.Error("expected empty dataset")
	}
	if n := f.calls.Load(); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}
}

func TestFetch_MalformedPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not":"an array"}`)
	}))
	defer srv.Close()
	r := New(srv.Client(), Config{URL: srv.URL}, nil)

	if _, err := r.Fetch(context.Background(), 2024, "52133", "key"); err == nil {
		t.Error("expected decode error")
	}
}

func TestFetch_MissingField(t *testing.T) {
	page := makePage(1, 1)
	delete(page[0], "valorRealizado")
	f := &fakePortal{pages: [][]map[string]any{page}}
	r := newReader(t, f, Config{})

	if _, err := r.Fetch(context.Background(), 2024, "52133", "key"); !errors.Is(err, api.ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	r := New(srv.Client(), Config{URL: srv.URL}, nil)

	_, err := r.Fetch(context.Background(), 2024, "52133", "key")
	var herr *api.HTTPError
	if !errors.As(err, &herr) || herr.StatusCode != 0 {
		t.Errorf("expected transport HTTPError, got %v", err)
	}
}

func TestFetch_ContextCanceled(t *testing.T) {
	f := &fakePortal{pages: [][]map[string]any{makePage(1, 1)}}
	r := newReader(t, f, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Fetch(ctx, 2024, "52133", "key"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIsAuthError(t *testing.T) {
	f := &fakePortal{statuses: map[int]int{1: http.StatusUnauthorized}}
	r := newReader(t, f, Config{})

	err := r.Ping(context.Background(), 2024, "52133", "bad")
	if !IsAuthError(err) {
		t.Errorf("expected auth error, got %v", err)
	}
	if IsAuthError(errors.New("other")) {
		t.Error("plain error reported as auth error")
	}
	if err := r.Ping(context.Background(), 2024, "52133", ""); !errors.Is(err, api.ErrMissingCredential) {
		t.Errorf("blank key ping: got %v", err)
	}
}

func TestAmountUnmarshal(t *testing.T) {
	tests := map[string]string{
		`12.5`:       "12.5",
		`"12.5"`:     "12.5",
		`"1.234,56"`: "1234.56",
		`"R$ 10,00"`: "10",
		`-3`:         "-3",
		`1e3`:        "1000",
	}
	for in, want := range tests {
		var a amount
		if err := json.Unmarshal([]byte(in), &a); err != nil {
			t.Errorf("%s: %v", in, err)
			continue
		}
		if !a.Equal(decimal.RequireFromString(want)) {
			t.Errorf("%s: got %s, want %s", in, a.Decimal, want)
		}
	}

	var a amount
	if err := json.Unmarshal([]byte(`"n/a"`), &a); err == nil {
		t.Error("expected error for non-numeric string")
	}
}

func TestRawPage(t *testing.T) {
	f := &fakePortal{pages: [][]map[string]any{makePage(2, 10)}}
	r := newReader(t, f, Config{})

	body, err := r.RawPage(context.Background(), 2024, "52133", "key", 1)
	if err != nil {
		t.Fatalf("RawPage: %v", err)
	}
	var page []map[string]any
	if err := json.Unmarshal(body, &page); err != nil || len(page) != 2 {
		t.Errorf("page = %s (%v)", body, err)
	}

	if _, err := r.RawPage(context.Background(), 2024, "52133", "", 1); !errors.Is(err, api.ErrMissingCredential) {
		t.Errorf("blank key: err = %v", err)
	}
	if _, err := r.RawPage(context.Background(), 2024, "52133", "key", 0); err == nil {
		t.Error("page 0 accepted")
	}
	if n := f.calls.Load(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestFetch_TrimsKey(t *testing.T) {
	f := &fakePortal{pages: [][]map[string]any{makePage(1, 10)}}
	r := newReader(t, f, Config{})

	if _, err := r.Fetch(context.Background(), 2024, "52133", "  abcd1234\n"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := f.lastKey.Load(); got != "abcd1234" {
		t.Errorf("api key header = %q, want trimmed key", got)
	}

	calls := f.calls.Load()
	if _, err := r.Fetch(context.Background(), 2024, "52133", "abcd1234"); err != nil {
		t.Fatal(err)
	}
	if f.calls.Load() != calls {
		t.Error("trimmed and untrimmed keys should share a memo entry")
	}

	if err := r.Ping(context.Background(), 2024, "52133", "\tabcd1234 "); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if got := f.lastKey.Load(); got != "abcd1234" {
		t.Errorf("ping header = %q", got)
	}
}

func TestErrorMessage_TruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("ã", 300)

	msg := errorMessage([]byte(body))
	if !utf8.ValidString(msg) {
		t.Fatalf("truncated message is not valid UTF-8: %q", msg)
	}
	if want := strings.Repeat("ã", maxMessageRunes) + "..."; msg != want {
		t.Errorf("got %d runes, want %d plus ellipsis", utf8.RuneCountInString(msg), maxMessageRunes)
	}
	if short := errorMessage([]byte("  chave inválida \n")); short != "chave inválida" {
		t.Errorf("short message = %q", short)
	}
}
