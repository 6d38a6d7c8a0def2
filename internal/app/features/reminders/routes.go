// internal/app/features/reminders/routes.go
package reminders

import (
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /private/reminders. Only treasurers (and admins)
// of the current group get through.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireGroup)
	r.Use(auth.RequirePermission(models.PermManageFinances))
	r.Post("/run", h.HandleRun)
	return r
}
