package api

import (
	"Unbewohnte/BlogDedup/internal/db"
	"Unbewohnte/BlogDedup/internal/dedup"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testToken = "test-secret"

func newTestServer(t *testing.T) (*Server, *db.DB) {
	t.Helper()

	store, err := db.NewDB(filepath.Join(t.TempDir(), "api.sqlite3"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	checker := dedup.NewChecker(store, dedup.DefaultOptions(), logger)
	srv := NewServer(Config{
		APIToken:    testToken,
		TokenTTL:    time.Hour,
		Environment: "test",
		Version:     "9.9.9",
	}, store, checker, logger)
	return srv, store
}

// do sends body (a string is sent verbatim, anything else as JSON) with the
// given bearer token; an empty token sends no Authorization header.
func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, want, rec.Body.String())
	}
}

func TestAuthentication(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	jwtToken, err := IssueToken(testToken, "pipeline", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	expired, err := IssueToken(testToken, "pipeline", time.Hour, time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	foreign, err := IssueToken("another-secret", "pipeline", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "Unauthorized"},
		{"not bearer", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "Unauthorized"},
		{"wrong secret", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"expired jwt", "Bearer " + expired, http.StatusUnauthorized, "Invalid token"},
		{"foreign jwt", "Bearer " + foreign, http.StatusUnauthorized, "Invalid token"},
		{"shared secret", "Bearer " + testToken, http.StatusOK, ""},
		{"signed jwt", "Bearer " + jwtToken, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/content/check-hash", strings.NewReader(`{"contentHash":"abc"}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			expectStatus(t, rec, tt.status)
			if tt.message != "" {
				if got := decode[errorResponse](t, rec); got.Error != tt.message {
					t.Fatalf("error = %q, want %q", got.Error, tt.message)
				}
			}
		})
	}
}

func TestEmptySecretRejectsEverything(t *testing.T) {
	if err := ValidateToken("", ""); err == nil {
		t.Fatal("empty secret must not validate an empty token")
	}
	if _, err := IssueToken("", "x", time.Hour, time.Now()); err == nil {
		t.Fatal("IssueToken must fail without a secret")
	}
}

func TestMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/trends/mark-processing", testToken, `{"trendHash": `)
	expectStatus(t, rec, http.StatusBadRequest)
	got := decode[errorResponse](t, rec)
	if got.Error != "Invalid request data" || len(got.Details) != 1 || got.Details[0].Field != "body" {
		t.Fatalf("unexpected error body: %+v", got)
	}

	rec = do(t, h, http.MethodPost, "/trends/mark-processing", testToken, `{"trendHash": 5}`)
	expectStatus(t, rec, http.StatusBadRequest)
	got = decode[errorResponse](t, rec)
	if len(got.Details) != 1 || got.Details[0].Field != "trendHash" {
		t.Fatalf("unexpected details: %+v", got.Details)
	}

	rec = do(t, h, http.MethodPost, "/trends/mark-processing", testToken, map[string]string{"query": "solar"})
	expectStatus(t, rec, http.StatusBadRequest)
	got = decode[errorResponse](t, rec)
	fields := map[string]bool{}
	for _, d := range got.Details {
		fields[d.Field] = true
	}
	if !fields["trendHash"] || !fields["date"] || fields["query"] {
		t.Fatalf("unexpected details: %+v", got.Details)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/nope", testToken, nil)
	expectStatus(t, rec, http.StatusNotFound)
	if got := decode[errorResponse](t, rec); got.Error != "Not found" {
		t.Fatalf("error = %q", got.Error)
	}

	rec = do(t, h, http.MethodDelete, "/health", "", nil)
	expectStatus(t, rec, http.StatusMethodNotAllowed)
}

func TestRecoverPanics(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.recoverPanics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	expectStatus(t, rec, http.StatusInternalServerError)
	if got := decode[errorResponse](t, rec); got.Error != "Internal server error" {
		t.Fatalf("error = %q", got.Error)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestHealth(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	expectStatus(t, rec, http.StatusOK)
	got := decode[healthResponse](t, rec)
	if got.Status != "healthy" || got.Environment != "test" || got.Version != "9.9.9" || got.Timestamp == "" {
		t.Fatalf("unexpected health: %+v", got)
	}

	rec = do(t, h, http.MethodHead, "/health", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.Len() != 0 {
		t.Fatalf("HEAD returned a body: %q", rec.Body.String())
	}

	store.Close()

	rec = do(t, h, http.MethodGet, "/health", "", nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)
	if got := decode[healthResponse](t, rec); got.Status != "unhealthy" || got.Error == "" {
		t.Fatalf("unexpected health: %+v", got)
	}

	rec = do(t, h, http.MethodHead, "/health", "", nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)
}
