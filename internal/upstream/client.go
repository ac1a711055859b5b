// Package upstream implements the client for the fixed downstream chat
// endpoint the gateway proxies to.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors for classifying downstream failures. Callers use errors.Is
// to map them onto HTTP outcomes.
var (
	// ErrUnavailable: the downstream could not be reached (connect failure,
	// reset, DNS).
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrTimeout: the downstream did not answer within the request deadline.
	ErrTimeout = errors.New("upstream timeout")
	// ErrBadResponse: the downstream answered but the body is not valid JSON.
	ErrBadResponse = errors.New("upstream sent malformed response")
)

// StatusError is returned when the downstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

// Client sends chat requests to the downstream inference service.
type Client struct {
	// chatURL is the full URL of the downstream chat endpoint. If the
	// configured base URL does not already end with "/api/chat" the suffix
	// is appended, so either a bare host or the full endpoint URL works.
	chatURL    string
	httpClient *http.Client
	// streamClient has no client-level timeout; the request context carries
	// the deadline so long streams are not cut off mid-body by the
	// round-trip timer.
	streamClient *http.Client
}

// NewClient constructs a Client for the given base URL (or full endpoint URL)
// and per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	chatURL := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(chatURL, "/api/chat") {
		chatURL += "/api/chat"
	}

	transport := http.DefaultTransport
	return &Client{
		chatURL: chatURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		streamClient: &http.Client{Transport: transport},
	}
}

// ChatURL returns the resolved downstream endpoint.
func (c *Client) ChatURL() string {
	return c.chatURL
}

// SendBlocking posts a non-streaming chat request and returns the downstream
// body verbatim after checking that it is well-formed JSON.
func (c *Client) SendBlocking(ctx context.Context, req *ChatRequest) (json.RawMessage, error) {
	req.Stream = false
	resp, err := c.send(ctx, c.httpClient, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("read response: %w", err))
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: %s", ErrBadResponse, snippet(raw))
	}
	return raw, nil
}

// SendStreaming posts a streaming chat request and returns the open response
// for incremental relay. The caller owns the StreamResponse and must Close it.
func (c *Client) SendStreaming(ctx context.Context, req *ChatRequest) (*StreamResponse, error) {
	req.Stream = true
	resp, err := c.send(ctx, c.streamClient, req)
	if err != nil {
		return nil, err
	}
	return &StreamResponse{
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

func (c *Client) send(ctx context.Context, client *http.Client, req *ChatRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, nil
}

// classify maps a transport error onto the sentinel taxonomy.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func snippet(raw []byte) string {
	const max = 256
	if len(raw) > max {
		raw = raw[:max]
	}
	return string(raw)
}
