// internal/app/features/records/write.go
package records

import (
	"errors"
	"fmt"
	"net/http"

	recordstore "github.com/dalemusser/communityhub/internal/app/store/records"
	"github.com/dalemusser/communityhub/internal/app/system/formutil"
	"github.com/dalemusser/communityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/limits"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.uber.org/zap"
)

// asRecord exposes rec through the models.Record methods. Kinds whose
// document type does not implement it are read-only.
func asRecord[T any](rec *T) (models.Record, bool) {
	mr, ok := any(rec).(models.Record)
	return mr, ok
}

// clean normalizes rec, sanitizes its rich-text body and validates it.
// It returns the first validation message, or "".
func clean(rec models.Record) string {
	rec.Normalize()
	if b, ok := rec.(models.Bodied); ok {
		body := b.BodyText()
		*body = htmlsanitize.Body(*body)
	}
	if v := inputval.Validate(rec); v.HasErrors() {
		return v.First()
	}
	return ""
}

// HandleCreate serves POST /private/<path>.
func (h *Handler[T]) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := h.writeGate(w, r)
	if !res.OK {
		return
	}
	rec := new(T)
	mr, ok := asRecord(rec)
	if !ok {
		respond.Error(w, http.StatusMethodNotAllowed, capitalize(h.Kind.Plural)+" are read-only.")
		return
	}
	if err := formutil.DecodeJSON(w, r, rec); err != nil {
		h.ErrLog.LogBadRequest(w, r, "create "+h.Kind.Singular+": bad body", err, formutil.Message(err))
		return
	}
	*mr.Base() = models.Meta{}
	if h.prepare != nil {
		h.prepare(rec, nil)
	}
	if msg := clean(mr); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create "+h.Kind.Singular)
	defer cancel()

	err := h.Store.Create(ctx, res.GroupID, res.Author, mr)
	if errors.Is(err, recordstore.ErrDuplicate) {
		respond.Error(w, http.StatusConflict, "A matching "+h.Kind.Singular+" already exists.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create "+h.Kind.Singular+" failed", err, "Unable to save.")
		return
	}
	h.Log.Info("record created",
		zap.String("id", mr.Base().ID.Hex()),
		zap.String("group_id", res.GroupID.Hex()),
		zap.String("label", mr.Label()))
	h.Audit.RecordCreated(ctx, r, h.Kind.Name, mr.Base().ID)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"message":       capitalize(h.Kind.Singular) + " created.",
		h.Kind.Singular: rec,
	})
}

// HandleUpdate serves PATCH and PUT /private/<path>/{id}. Fields absent
// from the body keep their stored values; bookkeeping fields never change.
func (h *Handler[T]) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	res := h.writeGate(w, r)
	if !res.OK {
		return
	}
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update "+h.Kind.Singular)
	defer cancel()

	existing, err := h.Store.Get(ctx, res.GroupID, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		h.notFound(w)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update "+h.Kind.Singular+": load failed", err, "A database error occurred.")
		return
	}

	rec := new(T)
	*rec = existing
	mr, ok := asRecord(rec)
	if !ok {
		respond.Error(w, http.StatusMethodNotAllowed, capitalize(h.Kind.Plural)+" are read-only.")
		return
	}
	meta := *mr.Base()
	if err := formutil.DecodeJSON(w, r, rec); err != nil {
		h.ErrLog.LogBadRequest(w, r, "update "+h.Kind.Singular+": bad body", err, formutil.Message(err))
		return
	}
	*mr.Base() = meta
	if h.prepare != nil {
		h.prepare(rec, &existing)
	}
	if msg := clean(mr); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg)
		return
	}

	err = h.Store.Replace(ctx, mr)
	if errors.Is(err, recordstore.ErrNotFound) {
		h.notFound(w)
		return
	}
	if errors.Is(err, recordstore.ErrDuplicate) {
		respond.Error(w, http.StatusConflict, "A matching "+h.Kind.Singular+" already exists.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update "+h.Kind.Singular+" failed", err, "Unable to save.")
		return
	}
	h.Log.Info("record updated", zap.String("id", id.Hex()), zap.String("group_id", res.GroupID.Hex()))
	h.Audit.RecordUpdated(ctx, r, h.Kind.Name, id)
	respond.OK(w, map[string]any{
		"message":       capitalize(h.Kind.Singular) + " updated.",
		h.Kind.Singular: rec,
	})
}

// HandleDelete serves DELETE /private/<path>/{id}.
func (h *Handler[T]) HandleDelete(w http.ResponseWriter, r *http.Request) {
	res := h.writeGate(w, r)
	if !res.OK {
		return
	}
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete "+h.Kind.Singular)
	defer cancel()

	err := h.Store.Delete(ctx, res.GroupID, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		h.notFound(w)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete "+h.Kind.Singular+" failed", err, "Unable to delete.")
		return
	}
	h.Log.Info("record deleted", zap.String("id", id.Hex()), zap.String("group_id", res.GroupID.Hex()))
	h.Audit.RecordDeleted(ctx, r, h.Kind.Name, id)
	respond.Message(w, http.StatusOK, capitalize(h.Kind.Singular)+" deleted.")
}

type bulkDeleteInput struct {
	IDs []string `json:"ids"`
}

type bulkDeleteResponse struct {
	Message string                `json:"message"`
	Deleted []string              `json:"deleted"`
	Failed  []recordstore.Failure `json:"failed"`
}

// HandleBulkDelete serves POST /private/<path>/bulk-delete. It removes
// what it can and reports the IDs it could not.
func (h *Handler[T]) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	res := h.writeGate(w, r)
	if !res.OK {
		return
	}
	var in bulkDeleteInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "bulk delete: bad body", err, formutil.Message(err))
		return
	}
	switch {
	case len(in.IDs) == 0:
		respond.Error(w, http.StatusBadRequest, "Select at least one item to delete.")
		return
	case len(in.IDs) > limits.MaxBulkIDs:
		respond.Error(w, http.StatusBadRequest, fmt.Sprintf("At most %d items can be deleted at once.", limits.MaxBulkIDs))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "bulk delete "+h.Kind.Name)
	defer cancel()

	rep, err := h.Store.BulkDelete(ctx, res.GroupID, in.IDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "bulk delete "+h.Kind.Name+" failed", err, "Unable to delete.")
		return
	}
	h.Log.Info("records bulk deleted",
		zap.String("group_id", res.GroupID.Hex()),
		zap.Int("deleted", len(rep.Deleted)),
		zap.Int("failed", len(rep.Failed)))
	h.Audit.BulkDeleted(ctx, r, h.Kind.Name, len(rep.Deleted), len(rep.Failed))
	respond.OK(w, bulkDeleteResponse{
		Message: fmt.Sprintf("Deleted %d of %d.", len(rep.Deleted), len(rep.Deleted)+len(rep.Failed)),
		Deleted: rep.Deleted,
		Failed:  rep.Failed,
	})
}
