// internal/app/features/groups/list.go
package groups

import (
	"net/http"

	"github.com/dalemusser/communityhub/internal/app/system/gates"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/domain/models"
)

type listResponse struct {
	Groups         []listedGroup `json:"groups"`
	CurrentGroupID string        `json:"currentGroupId"`
}

type listedGroup struct {
	groupView
	Permissions []string `json:"permissions"`
	Current     bool     `json:"current"`
}

func hasAdmin(perms []string) bool {
	for _, p := range perms {
		if p == models.PermAdmin {
			return true
		}
	}
	return false
}

// ServeList serves GET /private/groups: the caller's groups, by name.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list groups")
	defer cancel()

	u, err := h.Users.GetByID(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list groups: load user failed", err, "")
		return
	}
	gs, err := h.Groups.ListByIDs(ctx, u.GroupIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list groups failed", err, "A database error occurred.")
		return
	}

	out := listResponse{Groups: make([]listedGroup, 0, len(gs))}
	if u.CurrentGroupID != nil {
		out.CurrentGroupID = u.CurrentGroupID.Hex()
	}
	for _, g := range gs {
		perms, _ := u.PermissionsIn(g.ID)
		if perms == nil {
			perms = []string{}
		}
		out.Groups = append(out.Groups, listedGroup{
			groupView:   viewOf(g, hasAdmin(perms)),
			Permissions: perms,
			Current:     u.CurrentGroupID != nil && *u.CurrentGroupID == g.ID,
		})
	}
	respond.OK(w, out)
}
