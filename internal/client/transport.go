// internal/client/transport.go
package client

import (
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/communityhub/internal/client/session"
	"go.uber.org/zap"
)

// DefaultLogoutDelay is the pause between an auth failure and the logout
// handler, long enough for the error banner to be read.
const DefaultLogoutDelay = 1500 * time.Millisecond

// authTransport attaches the bearer token to every request and turns a
// 401/403 response into a logout.
type authTransport struct {
	base     http.RoundTripper
	session  *session.Provider
	log      *zap.Logger
	onLogout func()
	delay    time.Duration

	mu      sync.Mutex
	pending *time.Timer
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.session != nil {
		if tok := t.session.Token(); tok != "" {
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		t.forceLogout(req, resp.StatusCode)
	}
	return resp, nil
}

func (t *authTransport) forceLogout(req *http.Request, status int) {
	if t.session == nil {
		return
	}
	if _, signedIn := t.session.Claims(); !signedIn {
		return
	}
	t.log.Warn("auth failure; clearing session",
		zap.Int("status", status),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path))
	if err := t.session.Logout(); err != nil {
		t.log.Warn("clear session failed", zap.Error(err))
	}
	if t.onLogout == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil {
		return
	}
	t.pending = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		t.pending = nil
		t.mu.Unlock()
		t.onLogout()
	})
}
