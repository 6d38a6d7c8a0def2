package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we decode from the bearer token & inject into r.Context().
type SessionUser struct {
	ID          string
	Name        string
	Email       string
	GroupID     string // current group; empty until the user joins one
	Permissions []string
}

// Can reports whether the user holds perm in the current group. Admin
// implies every permission.
func (u *SessionUser) Can(perm string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == models.PermAdmin || p == perm {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user administers the current group.
func (u *SessionUser) IsAdmin() bool {
	return u.Can(models.PermAdmin)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// LoadTokenUser verifies a bearer token when one is sent and injects the
// user into context. Requests without a token pass through untouched, which
// is what public routes want. A token that is present but invalid is
// rejected with 401 so the client drops it.
func (tm *TokenManager) LoadTokenUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := tm.Verify(raw)
		if err != nil {
			tm.log.Debug("rejected bearer token", zap.Error(err), zap.String("path", r.URL.Path))
			respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, withUser(r, claims.SessionUser()))
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadTokenUser).
// API callers get a 401 with a JSON message.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		respond.Error(w, http.StatusUnauthorized, "authentication required")
	})
}

// RequireGroup ensures the signed-in user has a current group.
func RequireGroup(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if u.GroupID == "" {
			respond.Error(w, http.StatusForbidden, "join or create a group first")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission ensures the user holds perm (or admin) in the current
// group.
//   - no user:          401
//   - missing the perm: 403
func RequirePermission(perm string) func(http.Handler) http.Handler {
	perm = strings.TrimSpace(perm)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !u.Can(perm) {
				respond.Error(w, http.StatusForbidden, "you do not have permission to do that")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithTestUser injects u into the request context. Tests use it to bypass
// token verification.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}
