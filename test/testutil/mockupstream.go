// Package testutil provides a mock downstream chat service for gateway tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"
)

// MockUpstream is an httptest.Server that simulates the downstream chat
// endpoint. Its fields select the scripted behavior for the next request.
type MockUpstream struct {
	Server *httptest.Server

	// Response is the blocking-mode body. Defaults to {"ok":true}.
	Response []byte
	// Chunks, when non-empty, are written one by one with a flush between
	// each, regardless of the request's stream flag.
	Chunks [][]byte
	// ChunkDelay is slept between chunks.
	ChunkDelay time.Duration
	// Status overrides the response status when non-zero.
	Status int
	// Delay is slept before answering (for timeout tests).
	Delay time.Duration

	calls atomic.Int64

	mu          sync.Mutex
	lastRequest map[string]any
}

// NewMockUpstream creates and starts a mock downstream server.
func NewMockUpstream() *MockUpstream {
	m := &MockUpstream{Response: []byte(`{"ok":true}`)}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// Close shuts down the mock server.
func (m *MockUpstream) Close() {
	m.Server.Close()
}

// URL returns the base URL of the mock server.
func (m *MockUpstream) URL() string {
	return m.Server.URL
}

// Calls returns how many chat requests reached the mock.
func (m *MockUpstream) Calls() int {
	return int(m.calls.Load())
}

// LastRequest returns the most recent decoded request body, or nil.
func (m *MockUpstream) LastRequest() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

func (m *MockUpstream) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	m.calls.Add(1)

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	m.mu.Lock()
	m.lastRequest = body
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if m.Status != 0 {
		w.WriteHeader(m.Status)
		_, _ = w.Write(m.Response)
		return
	}

	if len(m.Chunks) > 0 {
		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher, _ := w.(http.Flusher)
		for i, chunk := range m.Chunks {
			if i > 0 && m.ChunkDelay > 0 {
				time.Sleep(m.ChunkDelay)
			}
			_, _ = w.Write(chunk)
			if flusher != nil {
				flusher.Flush()
			}
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(m.Response)
}
