// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"slices"
	"time"

	"github.com/dalemusser/communityhub/internal/app/store/audit"
	"github.com/dalemusser/communityhub/internal/app/system/gates"
	"github.com/dalemusser/communityhub/internal/app/system/paging"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

const dateLayout = "2006-01-02"

// ServeList serves GET /private/audit. Filters: category, eventType,
// userId (actor or target), from and to (YYYY-MM-DD, inclusive) and page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	category := query.Get(r, "category")
	eventType := query.Get(r, "eventType")
	if category != "" && !slices.Contains(categories, category) {
		respond.Error(w, http.StatusBadRequest, "Unknown category.")
		return
	}
	if eventType != "" && !slices.Contains(eventTypesForCategory(category), eventType) {
		respond.Error(w, http.StatusBadRequest, "Unknown event type.")
		return
	}

	page := paging.ParsePage(r)
	filter := audit.QueryFilter{
		GroupID:   &res.GroupID,
		Category:  category,
		EventType: eventType,
		Limit:     pageSize,
		Offset:    paging.Skip(page, pageSize),
	}
	if s := query.Get(r, "userId"); s != "" {
		uid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid user ID.")
			return
		}
		filter.UserID = &uid
	}
	if s := query.Get(r, "from"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "From must be a date like 2024-06-01.")
			return
		}
		filter.StartTime = &t
	}
	if s := query.Get(r, "to"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "To must be a date like 2024-06-30.")
			return
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &end
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err, "A database error occurred.")
		return
	}
	total, err := h.Events.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err, "A database error occurred.")
		return
	}

	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, e := range events {
		for _, id := range []*primitive.ObjectID{e.ActorID, e.UserID} {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; !ok {
				seen[*id] = struct{}{}
				ids = append(ids, *id)
			}
		}
	}
	names, err := h.Users.NamesByID(ctx, ids)
	if err != nil {
		// names are cosmetic; fall back to IDs
		h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		names = nil
	}
	nameOf := func(id *primitive.ObjectID) string {
		if id == nil {
			return ""
		}
		if n, ok := names[*id]; ok {
			return n
		}
		return id.Hex()
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			ActorName:     nameOf(e.ActorID),
			TargetName:    nameOf(e.UserID),
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		})
	}

	respond.OK(w, listResponse{
		Events:     items,
		Page:       page,
		TotalPages: paging.TotalPages(total, pageSize),
		Total:      total,
		Categories: categories,
		EventTypes: eventTypesForCategory(category),
	})
}
