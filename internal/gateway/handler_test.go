package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apierrors "github.com/llamagate/llamagate/internal/errors"
	"github.com/llamagate/llamagate/internal/upstream"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"valid", `{"model":"llama3","messages":[{"role":"user","content":"hi"}]}`, nil},
		{"valid with stream", `{"model":"llama3","messages":[{}],"stream":true}`, nil},
		{"empty body", ``, apierrors.ErrMalformedBody},
		{"not json", `{oops`, apierrors.ErrMalformedBody},
		{"json array", `[]`, apierrors.ErrMalformedBody},
		{"missing model", `{"messages":[{}]}`, apierrors.ErrMissingModel},
		{"empty model", `{"model":"","messages":[{}]}`, apierrors.ErrMissingModel},
		{"missing messages", `{"model":"llama3"}`, apierrors.ErrMissingMessages},
		{"empty messages", `{"model":"llama3","messages":[]}`, apierrors.ErrMissingMessages},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req, err := decodeInbound(r)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("decodeInbound error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && req == nil {
				t.Fatal("expected a decoded request")
			}
		})
	}
}

func TestDecodeInbound_StreamDefaultsFalse(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"model":"llama3","messages":[{}]}`))
	req, err := decodeInbound(r)
	if err != nil {
		t.Fatalf("decodeInbound: %v", err)
	}
	if req.Stream {
		t.Error("stream should default to false when absent")
	}
}

func TestWriteUpstreamError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"timeout", fmt.Errorf("wrapped: %w", upstream.ErrTimeout), http.StatusGatewayTimeout, apierrors.CodeUpstreamTimeout},
		{"bad response", fmt.Errorf("wrapped: %w", upstream.ErrBadResponse), http.StatusBadGateway, apierrors.CodeBadUpstreamResponse},
		{"status", &upstream.StatusError{StatusCode: 500, Body: "boom"}, http.StatusBadGateway, apierrors.CodeUpstreamError},
		{"unreachable", fmt.Errorf("wrapped: %w", upstream.ErrUnavailable), http.StatusBadGateway, apierrors.CodeUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeUpstreamError(rec, tt.err)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), `"error":"`+tt.wantCode+`"`) {
				t.Errorf("body %q missing code %q", rec.Body.String(), tt.wantCode)
			}
		})
	}
}
