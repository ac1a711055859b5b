// Package auth implements the gateway's shared-secret credential check.
package auth

import (
	"crypto/subtle"
	"net/http"
)

// Credential is the shared secret expected in the Authorization header.
// It is constructed once at startup and injected into the handler; handler
// logic never reads it from ambient state.
type Credential struct {
	secret string
}

// NewCredential wraps the configured shared secret. An empty secret yields a
// credential that matches nothing.
func NewCredential(secret string) Credential {
	return Credential{secret: secret}
}

// Match reports whether the raw Authorization header value equals the
// configured secret. The header is compared as-is; no "Bearer " or other
// scheme prefix is stripped. An unconfigured (empty) secret never matches,
// including against an empty header: unset credentials fail closed rather
// than meaning "no auth required".
func (c Credential) Match(header string) bool {
	if c.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.secret), []byte(header)) == 1
}

// Authenticate checks the request's Authorization header. A missing header
// is treated as an empty string.
func (c Credential) Authenticate(r *http.Request) bool {
	return c.Match(r.Header.Get("Authorization"))
}
