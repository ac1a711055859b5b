package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/llamagate/llamagate/internal/auth"
	apierrors "github.com/llamagate/llamagate/internal/errors"
	"github.com/llamagate/llamagate/internal/metrics"
	"github.com/llamagate/llamagate/internal/upstream"
)

// Handler serves the single chat route: authenticate, validate, forward,
// relay.
type Handler struct {
	cred      auth.Credential
	client    *upstream.Client
	timeout   time.Duration
	collector *metrics.Collector
}

// NewHandler constructs a Handler.
func NewHandler(cred auth.Credential, client *upstream.Client, timeout time.Duration, collector *metrics.Collector) *Handler {
	return &Handler{cred: cred, client: client, timeout: timeout, collector: collector}
}

// inboundRequest is the decoded caller body. Fields beyond these three are
// dropped by decoding; they never reach the downstream service.
type inboundRequest struct {
	Model    string            `json:"model"`
	Messages []json.RawMessage `json:"messages"`
	Stream   bool              `json:"stream"`
}

// ServeHTTP handles POST /.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.cred.Authenticate(r) {
		apierrors.WriteUnauthorized(w)
		return
	}

	req, err := decodeInbound(r)
	if err != nil {
		apierrors.WriteJSONError(w, http.StatusBadRequest, apierrors.CodeInvalidRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	chatReq := &upstream.ChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   req.Stream,
	}

	if req.Stream {
		h.relayStreaming(ctx, w, chatReq)
		return
	}
	h.relayBlocking(ctx, w, chatReq)
}

// decodeInbound parses and validates the caller body. A missing or malformed
// body, or missing model/messages, is a validation failure; no downstream
// call is made in that case.
func decodeInbound(r *http.Request) (*inboundRequest, error) {
	var req inboundRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, apierrors.ErrMalformedBody
		}
	}
	if req.Model == "" {
		return nil, apierrors.ErrMissingModel
	}
	if len(req.Messages) == 0 {
		return nil, apierrors.ErrMissingMessages
	}
	return &req, nil
}

func (h *Handler) relayBlocking(ctx context.Context, w http.ResponseWriter, req *upstream.ChatRequest) {
	raw, err := h.client.SendBlocking(ctx, req)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// relayStreaming copies downstream chunks to the caller as they arrive,
// flushing after each one. Order is preserved and the full response is never
// held in memory.
func (h *Handler) relayStreaming(ctx context.Context, w http.ResponseWriter, req *upstream.ChatRequest) {
	stream, err := h.client.SendStreaming(ctx, req)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	defer stream.Close()

	if h.collector != nil {
		done := h.collector.StreamStarted()
		defer done()
	}

	if stream.ContentType != "" {
		w.Header().Set("Content-Type", stream.ContentType)
	}
	w.WriteHeader(http.StatusOK)

	fw := newFlushWriter(w)
	buf := make([]byte, 32*1024)
	for {
		n, rerr := stream.Body.Read(buf)
		if n > 0 {
			if _, werr := fw.Write(buf[:n]); werr != nil {
				// Caller went away; the deferred Close aborts downstream.
				return
			}
			fw.Flush()
		}
		if rerr != nil {
			// io.EOF ends the stream; headers are already sent, so a read
			// fault mid-stream can only terminate the body early.
			return
		}
	}
}

// writeUpstreamError maps a downstream failure onto the error taxonomy.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var statusErr *upstream.StatusError
	switch {
	case errors.Is(err, upstream.ErrTimeout):
		apierrors.WriteJSONError(w, http.StatusGatewayTimeout, apierrors.CodeUpstreamTimeout, "upstream timed out")
	case errors.Is(err, upstream.ErrBadResponse):
		apierrors.WriteJSONError(w, http.StatusBadGateway, apierrors.CodeBadUpstreamResponse, err.Error())
	case errors.As(err, &statusErr):
		apierrors.WriteJSONError(w, http.StatusBadGateway, apierrors.CodeUpstreamError, statusErr.Error())
	default:
		apierrors.WriteJSONError(w, http.StatusBadGateway, apierrors.CodeUpstreamUnavailable, err.Error())
	}
}
