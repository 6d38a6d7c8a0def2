package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingToken = errors.New("missing token")
)

// Issuer is stamped into every token.
const Issuer = "communityhub"

// Claims is the token payload. The client reads the same struct (without
// verifying) to decide what to show; the server verifies it on every request.
type Claims struct {
	UserID         string   `json:"userId"`
	CurrentGroupID string   `json:"currentGroupId"`
	Permissions    []string `json:"permissions"`
	Name           string   `json:"name,omitempty"`
	Email          string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SessionUser converts verified claims into the request user.
func (c *Claims) SessionUser() *SessionUser {
	return &SessionUser{
		ID:          c.UserID,
		Name:        c.Name,
		Email:       c.Email,
		GroupID:     c.CurrentGroupID,
		Permissions: append([]string(nil), c.Permissions...),
	}
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

// NewTokenManager validates the secret and returns a manager.
func NewTokenManager(secret string, ttl time.Duration, logger *zap.Logger) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty; provide ≥32 random chars")
	}
	if len(secret) < 32 {
		logger.Warn("jwt secret is short; 32+ chars recommended",
			zap.Int("length", len(secret)))
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, log: logger, now: time.Now}, nil
}

// TTL is the lifetime of issued tokens.
func (tm *TokenManager) TTL() time.Duration { return tm.ttl }

// Issue signs a token for u.
func (tm *TokenManager) Issue(u SessionUser) (string, time.Time, error) {
	now := tm.now()
	exp := now.Add(tm.ttl)
	claims := Claims{
		UserID:         u.ID,
		CurrentGroupID: u.GroupID,
		Permissions:    append([]string{}, u.Permissions...),
		Name:           u.Name,
		Email:          u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses raw, checking the signature, algorithm, issuer and expiry.
func (tm *TokenManager) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}
		return tm.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
