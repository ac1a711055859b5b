package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/llamagate/llamagate/internal/metrics"
)

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error body, got content type %q", ct)
	}
}

func TestRequestIDMiddleware_Generates(t *testing.T) {
	var seen string
	h := requestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(requestIDKey).(string)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if seen == "" {
		t.Fatal("expected a generated request ID in the context")
	}
	if got := rec.Header().Get("X-Request-Id"); got != seen {
		t.Errorf("response header %q does not match context ID %q", got, seen)
	}
}

func TestRequestIDMiddleware_HonorsCaller(t *testing.T) {
	h := requestIDMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Request-Id", "caller-id-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "caller-id-1" {
		t.Errorf("expected caller-supplied ID echoed, got %q", got)
	}
}

func TestLoggingMiddleware_RecordsMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	h := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), collector)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status not propagated: %d", rec.Code)
	}

	mrec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(mrec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if body := mrec.Body.String(); !strings.Contains(body, `llamagate_requests_total{path="/",status="418"} 1`) {
		t.Errorf("expected recorded request in metrics output, got:\n%s", body)
	}
}

func TestFlushWriter_NoFlusher(t *testing.T) {
	// httptest.ResponseRecorder implements Flusher, so wrap it in a plain
	// writer that does not.
	w := &noFlushWriter{httptest.NewRecorder()}
	fw := newFlushWriter(w)

	if _, err := fw.Write([]byte("chunk")); err != nil {
		t.Fatalf("write: %v", err)
	}
	fw.Flush() // must not panic
}

type noFlushWriter struct {
	rec *httptest.ResponseRecorder
}

func (w *noFlushWriter) Header() http.Header         { return w.rec.Header() }
func (w *noFlushWriter) Write(p []byte) (int, error) { return w.rec.Write(p) }
func (w *noFlushWriter) WriteHeader(code int)        { w.rec.WriteHeader(code) }
