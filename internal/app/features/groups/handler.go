// internal/app/features/groups/handler.go
package groups

import (
	"net/http"

	uierrors "github.com/dalemusser/communityhub/internal/app/features/errors"
	groupstore "github.com/dalemusser/communityhub/internal/app/store/groups"
	recordstore "github.com/dalemusser/communityhub/internal/app/store/records"
	userstore "github.com/dalemusser/communityhub/internal/app/store/users"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/authutil"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/communityhub/internal/domain/resource"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves group creation, joining, switching and permission grants.
// Every mutation answers with a fresh token because the caller's current
// group or permissions changed.
type Handler struct {
	Groups  *groupstore.Store
	Users   *userstore.Store
	Members *recordstore.Store[models.Member]
	Tokens  *auth.TokenManager
	ErrLog  *uierrors.ErrorLogger
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, tokens *auth.TokenManager, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Groups:  groupstore.New(db),
		Users:   userstore.New(db),
		Members: recordstore.New[models.Member](db, resource.Members),
		Tokens:  tokens,
		ErrLog:  errLog,
		Audit:   auditLog,
		Log:     logger,
	}
}

// groupView is the wire shape of a group.
type groupView struct {
	ID          string        `json:"_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	JoinCode    string        `json:"joinCode,omitempty"`
	CreatedBy   models.Author `json:"createdBy"`
	CreatedAt   string        `json:"createdAt"`
}

// viewOf renders g. The join code is only shown to group admins.
func viewOf(g models.Group, showCode bool) groupView {
	v := groupView{
		ID:          g.ID.Hex(),
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		CreatedAt:   g.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if showCode {
		v.JoinCode = g.JoinCode
	}
	return v
}

type mutationResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    authutil.UserView `json:"user"`
	Group   *groupView        `json:"group,omitempty"`
}

// reissue signs a token for u and writes the mutation response.
func (h *Handler) reissue(w http.ResponseWriter, r *http.Request, u *models.User, g *groupView, status int, msg string) {
	token, _, err := h.Tokens.Issue(authutil.SessionFor(u))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "issue token failed", err, "")
		return
	}
	respond.JSON(w, status, mutationResponse{Message: msg, Token: token, User: authutil.ViewOf(u), Group: g})
}
