// internal/app/features/records/read.go
package records

import (
	"errors"
	"net/http"

	recordstore "github.com/dalemusser/communityhub/internal/app/store/records"
	"github.com/dalemusser/communityhub/internal/app/system/paging"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList serves GET /private/<path>?page=N: the group's records, newest
// first, as {<plural>: [...], totalPages}.
func (h *Handler[T]) ServeList(w http.ResponseWriter, r *http.Request) {
	h.serveListing(w, r, nil)
}

// ServeSearch serves GET /private/search-<path>?<filters>&page=N with the
// same envelope as ServeList.
func (h *Handler[T]) ServeSearch(w http.ResponseWriter, r *http.Request) {
	filter, err := recordstore.Filter(h.Kind.Filters, h.Kind.Filters.FromValues(r.URL.Query()))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "search: bad filter", err, err.Error())
		return
	}
	h.serveListing(w, r, filter)
}

func (h *Handler[T]) serveListing(w http.ResponseWriter, r *http.Request, filter bson.M) {
	res := h.readGate(w, r)
	if !res.OK {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list "+h.Kind.Name)
	defer cancel()

	page, err := h.Store.List(ctx, res.GroupID, filter, paging.ParsePage(r), paging.Size())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list "+h.Kind.Name+" failed", err, "A database error occurred.")
		return
	}
	respond.OK(w, map[string]any{
		h.Kind.Plural: page.Items,
		"totalPages":  page.TotalPages,
	})
}

// ServeShow serves GET /private/<path>/{id} as {<singular>: record}.
func (h *Handler[T]) ServeShow(w http.ResponseWriter, r *http.Request) {
	res := h.readGate(w, r)
	if !res.OK {
		return
	}
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get "+h.Kind.Singular)
	defer cancel()

	rec, err := h.Store.Get(ctx, res.GroupID, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		h.notFound(w)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "get "+h.Kind.Singular+" failed", err, "A database error occurred.")
		return
	}
	respond.OK(w, map[string]any{h.Kind.Singular: rec})
}

func (h *Handler[T]) parseID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid ID.")
		return primitive.NilObjectID, false
	}
	return id, true
}
