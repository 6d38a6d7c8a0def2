// internal/app/features/records/export.go
package records

import (
	"net/http"
	"time"

	recordstore "github.com/dalemusser/communityhub/internal/app/store/records"
	"github.com/dalemusser/communityhub/internal/app/system/csvexport"
	"github.com/dalemusser/communityhub/internal/app/system/limits"
	"github.com/dalemusser/communityhub/internal/app/system/paging"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/domain/record"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// ServeExport serves GET /private/<path>/export.csv?<filters>&page=N. With
// a page it exports that listing page; without one it exports the first
// limits.MaxExportRows matching records.
func (h *Handler[T]) ServeExport(w http.ResponseWriter, r *http.Request) {
	res := h.readGate(w, r)
	if !res.OK {
		return
	}
	filter, err := recordstore.Filter(h.Kind.Filters, h.Kind.Filters.FromValues(r.URL.Query()))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "export: bad filter", err, err.Error())
		return
	}
	page, size := 1, limits.MaxExportRows
	if query.Get(r, "page") != "" {
		page, size = paging.ParsePage(r), paging.Size()
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "export "+h.Kind.Name)
	defer cancel()

	listing, err := h.Store.List(ctx, res.GroupID, filter, page, size)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export "+h.Kind.Name+" failed", err, "A database error occurred.")
		return
	}
	rows, err := record.FromSlice(listing.Items)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export "+h.Kind.Name+": convert failed", err, "")
		return
	}

	writeCSVHeaders(w, csvexport.Filename(h.Kind.Name, time.Now()))
	if err := csvexport.WriteTable(w, rows); err != nil {
		h.Log.Warn("export write failed", zap.Error(err))
		return
	}
	h.Metrics.Export(h.Kind.Name)
}

func writeCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
}
