// internal/app/features/records/routes.go
package records

import (
	"github.com/go-chi/chi/v5"
)

// Mount registers the kind's routes on the /private router:
// /search-<path> plus everything under /<path>.
func (h *Handler[T]) Mount(r chi.Router) {
	r.Get("/search-"+h.Kind.Path, h.ServeSearch)
	r.Mount("/"+h.Kind.Path, h.Routes())
}

// Routes is the router mounted at /private/<path>. Read-only kinds get no
// mutation routes.
func (h *Handler[T]) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/export.csv", h.ServeExport)
	r.Get("/{id}", h.ServeShow)

	if !h.Kind.ReadOnly() {
		r.Post("/", h.HandleCreate)
		r.Post("/bulk-delete", h.HandleBulkDelete)
		r.Patch("/{id}", h.HandleUpdate)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	}
	if h.extend != nil {
		h.extend(r)
	}
	return r
}
