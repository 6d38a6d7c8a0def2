// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /private/groups.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Post("/join", h.HandleJoin)
	r.Patch("/permissions", h.HandlePermissions)
	r.Post("/{id}/switch", h.HandleSwitch)
	return r
}
