// internal/app/features/groups/create.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"strings"

	groupstore "github.com/dalemusser/communityhub/internal/app/store/groups"
	"github.com/dalemusser/communityhub/internal/app/system/formutil"
	"github.com/dalemusser/communityhub/internal/app/system/gates"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type createInput struct {
	Name        string `json:"name" validate:"required,max=120" label:"Group name"`
	Description string `json:"description" validate:"max=2000" label:"Description"`
}

// JoinCodeLen is the length of generated join codes.
const JoinCodeLen = 8

// NewJoinCode returns a random upper-case join code.
func NewJoinCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:JoinCodeLen]
}

// HandleCreate serves POST /private/groups. The creator becomes the group's
// admin and is entered in its member register as chairperson.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}
	var in createInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "create group: bad body", err, formutil.Message(err))
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if v := inputval.Validate(in); v.HasErrors() {
		respond.Error(w, http.StatusBadRequest, v.First())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create group")
	defer cancel()

	u, err := h.Users.GetByID(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create group: load user failed", err, "")
		return
	}
	author := models.Author{ID: u.ID, FullName: u.FullName, Email: u.Email}

	var g models.Group
	for attempt := 0; attempt < 3; attempt++ {
		g, err = h.Groups.Create(ctx, models.Group{
			Name:        in.Name,
			Description: in.Description,
			JoinCode:    NewJoinCode(),
			CreatedBy:   author,
		})
		if !errors.Is(err, groupstore.ErrDuplicateJoinCode) {
			break
		}
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create group failed", err, "Unable to create the group.")
		return
	}

	if err := h.Users.AddMembership(ctx, u.ID, g.ID, []string{models.PermAdmin}); err != nil {
		h.ErrLog.LogServerError(w, r, "create group: add admin membership failed", err, "")
		return
	}
	h.register(ctx, g, u, "chairperson")

	u, err = h.Users.GetByID(ctx, u.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create group: reload user failed", err, "")
		return
	}
	h.Log.Info("group created", zap.String("group_id", g.ID.Hex()), zap.String("user_id", u.ID.Hex()))
	h.Audit.GroupCreated(ctx, r, u.ID, g.ID, g.Name)
	view := viewOf(g, true)
	h.reissue(w, r, u, &view, http.StatusCreated, "Group created.")
}

// register adds u to g's member register. A failure is logged only; the
// membership itself already succeeded.
func (h *Handler) register(ctx context.Context, g models.Group, u *models.User, role string) {
	uid := u.ID
	m := &models.Member{
		FullName: u.FullName,
		Email:    u.Email,
		Role:     role,
		Status:   "active",
		UserID:   &uid,
	}
	author := models.Author{ID: u.ID, FullName: u.FullName, Email: u.Email}
	if err := h.Members.Create(ctx, g.ID, author, m); err != nil {
		h.Log.Warn("member register entry failed",
			zap.String("group_id", g.ID.Hex()), zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
}
