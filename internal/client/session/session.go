// internal/client/session/session.go
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned when there is no stored token.
var ErrNoSession = errors.New("not signed in")

// Claims is the read-only view of the current token.
type Claims struct {
	UserID         string
	CurrentGroupID string
	Permissions    []string
	Name           string
	Email          string
	ExpiresAt      time.Time
}

// Can reports whether the claims grant perm. The client only uses this to
// decide what to show; the server enforces the real check.
func (c Claims) Can(perm string) bool {
	for _, p := range c.Permissions {
		if p == models.PermAdmin || p == perm {
			return true
		}
	}
	return false
}

// Expired reports whether the token has passed its expiry.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Provider is the single owner of the session token. It decodes the token
// once per change and hands out copies of the typed claims.
type Provider struct {
	mu     sync.RWMutex
	store  TokenStore
	token  string
	claims Claims
	loaded bool

	listeners []func(Claims, bool)
}

// NewProvider creates a provider backed by store.
func NewProvider(store TokenStore) *Provider {
	return &Provider{store: store}
}

// Load reads the stored token, if any. A missing token is not an error; a
// token that cannot be decoded is cleared.
func (p *Provider) Load() error {
	tok, err := p.store.Load()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			p.mu.Lock()
			p.loaded = true
			p.mu.Unlock()
			return nil
		}
		return err
	}
	claims, err := Decode(tok)
	if err != nil {
		_ = p.store.Clear()
		return err
	}
	p.mu.Lock()
	p.token, p.claims, p.loaded = tok, claims, true
	p.mu.Unlock()
	return nil
}

// Token returns the raw bearer token ("" when signed out).
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// Claims returns the current claims and whether a session exists.
func (p *Provider) Claims() (Claims, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.token == "" {
		return Claims{}, false
	}
	c := p.claims
	c.Permissions = append([]string(nil), p.claims.Permissions...)
	return c, true
}

// Refresh replaces the session with a newly issued token (after login or
// a group switch) and persists it.
func (p *Provider) Refresh(token string) error {
	claims, err := Decode(token)
	if err != nil {
		return err
	}
	if err := p.store.Save(token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	p.mu.Lock()
	p.token, p.claims = token, claims
	listeners := append([]func(Claims, bool){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(claims, true)
	}
	return nil
}

// Logout forgets the token in memory and in storage.
func (p *Provider) Logout() error {
	p.mu.Lock()
	had := p.token != ""
	p.token, p.claims = "", Claims{}
	listeners := append([]func(Claims, bool){}, p.listeners...)
	p.mu.Unlock()

	err := p.store.Clear()
	if had {
		for _, fn := range listeners {
			fn(Claims{}, false)
		}
	}
	return err
}

// OnChange registers fn to run after every Refresh or Logout.
func (p *Provider) OnChange(fn func(c Claims, signedIn bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Decode reads claims from token without verifying the signature. Only the
// server holds the key.
func Decode(token string) (Claims, error) {
	var ac auth.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &ac); err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}
	c := Claims{
		UserID:         ac.UserID,
		CurrentGroupID: ac.CurrentGroupID,
		Permissions:    ac.Permissions,
		Name:           ac.Name,
		Email:          ac.Email,
	}
	if ac.ExpiresAt != nil {
		c.ExpiresAt = ac.ExpiresAt.Time
	}
	return c, nil
}
