// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /private/audit. Only admins of the current group
// get past ServeList's gate, and they only see that group's events.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	return r
}
