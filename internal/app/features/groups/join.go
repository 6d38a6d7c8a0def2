// internal/app/features/groups/join.go
package groups

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/communityhub/internal/app/features/errors"
	groupstore "github.com/dalemusser/communityhub/internal/app/store/groups"
	userstore "github.com/dalemusser/communityhub/internal/app/store/users"
	"github.com/dalemusser/communityhub/internal/app/system/formutil"
	"github.com/dalemusser/communityhub/internal/app/system/gates"
	"github.com/dalemusser/communityhub/internal/app/system/normalize"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type joinInput struct {
	JoinCode string `json:"joinCode"`
}

// HandleJoin serves POST /private/groups/join. The joiner gets no
// permissions and the group becomes their current one.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}
	var in joinInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "join group: bad body", err, formutil.Message(err))
		return
	}
	code := normalize.JoinCode(in.JoinCode)
	if code == "" {
		respond.Error(w, http.StatusBadRequest, "Join code is required.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "join group")
	defer cancel()

	g, err := h.Groups.GetByJoinCode(ctx, code)
	if errors.Is(err, groupstore.ErrNotFound) {
		uierrors.NotFound(w, "No group has that join code.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "join group: lookup failed", err, "")
		return
	}

	err = h.Users.AddMembership(ctx, res.UserID, g.ID, nil)
	if errors.Is(err, userstore.ErrAlreadyMember) {
		uierrors.Conflict(w, "You already belong to this group.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "join group: add membership failed", err, "")
		return
	}

	u, err := h.Users.GetByID(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "join group: reload user failed", err, "")
		return
	}
	h.register(ctx, g, u, "member")
	h.Log.Info("group joined", zap.String("group_id", g.ID.Hex()), zap.String("user_id", u.ID.Hex()))
	h.Audit.GroupJoined(ctx, r, u.ID, g.ID, g.Name)
	view := viewOf(g, false)
	h.reissue(w, r, u, &view, http.StatusOK, "Joined "+g.Name+".")
}

// HandleSwitch serves POST /private/groups/{id}/switch.
func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}
	gid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid group ID.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "switch group")
	defer cancel()

	err = h.Users.SetCurrentGroup(ctx, res.UserID, gid)
	if errors.Is(err, userstore.ErrNotMember) {
		uierrors.NotFound(w, "You do not belong to that group.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "switch group failed", err, "")
		return
	}
	g, err := h.Groups.GetByID(ctx, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "switch group: load group failed", err, "")
		return
	}
	u, err := h.Users.GetByID(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "switch group: reload user failed", err, "")
		return
	}
	h.Audit.GroupSwitched(ctx, r, u.ID, g.ID, g.Name)
	perms, _ := u.PermissionsIn(gid)
	view := viewOf(g, hasAdmin(perms))
	h.reissue(w, r, u, &view, http.StatusOK, "Switched to "+g.Name+".")
}
