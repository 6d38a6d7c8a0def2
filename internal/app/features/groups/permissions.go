// internal/app/features/groups/permissions.go
package groups

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/communityhub/internal/app/features/errors"
	userstore "github.com/dalemusser/communityhub/internal/app/store/users"
	"github.com/dalemusser/communityhub/internal/app/system/formutil"
	"github.com/dalemusser/communityhub/internal/app/system/gates"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/normalize"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type permissionsInput struct {
	UserID      string   `json:"userId" validate:"required,objectid" label:"User ID"`
	Permissions []string `json:"permissions" validate:"dive,permission" label:"Permission"`
}

// HandlePermissions serves PATCH /private/groups/permissions: an admin
// replaces another member's permissions in the current group.
func (h *Handler) HandlePermissions(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}
	var in permissionsInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "permissions: bad body", err, formutil.Message(err))
		return
	}
	in.Permissions = normalize.Permissions(in.Permissions)
	if v := inputval.Validate(in); v.HasErrors() {
		respond.Error(w, http.StatusBadRequest, v.First())
		return
	}
	target, _ := primitive.ObjectIDFromHex(in.UserID)
	if target == res.UserID && !hasAdmin(in.Permissions) {
		respond.Error(w, http.StatusBadRequest, "You cannot remove your own admin permission.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set permissions")
	defer cancel()

	err := h.Users.SetPermissions(ctx, target, res.GroupID, in.Permissions)
	if errors.Is(err, userstore.ErrNotMember) {
		uierrors.NotFound(w, "That user is not in this group.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "set permissions failed", err, "")
		return
	}
	h.Log.Info("permissions updated",
		zap.String("group_id", res.GroupID.Hex()),
		zap.String("target_user_id", in.UserID),
		zap.Strings("permissions", in.Permissions))
	h.Audit.PermissionsChanged(ctx, r, target, in.Permissions)

	caller, err := h.Users.GetByID(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "set permissions: reload caller failed", err, "")
		return
	}
	g, err := h.Groups.GetByID(ctx, res.GroupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "set permissions: load group failed", err, "")
		return
	}
	view := viewOf(g, true)
	h.reissue(w, r, caller, &view, http.StatusOK, "Permissions updated.")
}
