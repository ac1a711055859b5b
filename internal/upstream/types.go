package upstream

import (
	"encoding/json"
	"io"
)

// ChatRequest is the narrowed body forwarded to the downstream chat endpoint.
// Only these three fields ever reach the downstream service; anything else a
// caller sends is dropped before forwarding. Messages are relayed as opaque
// JSON values, the gateway never inspects role or content.
type ChatRequest struct {
	Model    string            `json:"model"`
	Messages []json.RawMessage `json:"messages"`
	Stream   bool              `json:"stream"`
}

// StreamResponse is an open downstream streaming response. Body yields the
// downstream chunks undecoded; the caller must Close it.
type StreamResponse struct {
	ContentType string
	Body        io.ReadCloser
}

// Close releases the underlying connection.
func (s *StreamResponse) Close() error {
	return s.Body.Close()
}
