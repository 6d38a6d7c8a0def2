// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/communityhub/internal/app/features/errors"
	"github.com/dalemusser/communityhub/internal/app/store/audit"
	userstore "github.com/dalemusser/communityhub/internal/app/store/users"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/authutil"
	"github.com/dalemusser/communityhub/internal/app/system/formutil"
	"github.com/dalemusser/communityhub/internal/app/system/gates"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/normalize"
	"github.com/dalemusser/communityhub/internal/app/system/ratelimit"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users   *userstore.Store
	Tokens  *auth.TokenManager
	Limiter *ratelimit.LoginLimiter
	ErrLog  *uierrors.ErrorLogger
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, tokens *auth.TokenManager, limiter *ratelimit.LoginLimiter, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:   userstore.New(db),
		Tokens:  tokens,
		Limiter: limiter,
		ErrLog:  errLog,
		Audit:   auditLog,
		Log:     logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Wire types                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

type loginInput struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

type registerInput struct {
	FullName string `json:"fullName" validate:"required,max=200" label:"Full name"`
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// AuthResponse is returned by login, register and every group mutation so
// the client can replace its stored token.
type AuthResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    authutil.UserView `json:"user"`
}

type meResponse struct {
	Claims claimsView        `json:"claims"`
	User   authutil.UserView `json:"user"`
}

type claimsView struct {
	UserID         string   `json:"userId"`
	CurrentGroupID string   `json:"currentGroupId"`
	Permissions    []string `json:"permissions"`
}

const badCredentials = "Invalid email or password."

/*─────────────────────────────────────────────────────────────────────────────*
| Handlers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLogin serves POST /public/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "login: bad body", err, formutil.Message(err))
		return
	}
	in.Email = normalize.Email(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, http.StatusBadRequest, res.First())
		return
	}
	if ok, reason := h.Limiter.Check(r, in.Email); !ok {
		h.Log.Warn("login rate limited", zap.String("ip", ratelimit.ClientIP(r)))
		h.Audit.LoginFailed(r.Context(), r, audit.EventLoginFailedRateLimit, primitive.NilObjectID, in.Email, reason)
		respond.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login lookup")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, in.Email)
	if errors.Is(err, userstore.ErrNotFound) {
		h.Audit.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, primitive.NilObjectID, in.Email, "no such user")
		respond.Error(w, http.StatusUnauthorized, badCredentials)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: user lookup failed", err, "Unable to sign in right now.")
		return
	}
	if !authutil.CheckPassword(u.PasswordHash, in.Password) {
		h.Audit.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, u.ID, in.Email, "wrong password")
		respond.Error(w, http.StatusUnauthorized, badCredentials)
		return
	}
	if u.Status != "active" {
		respond.Error(w, http.StatusForbidden, "This account is disabled.")
		return
	}

	h.Limiter.ResetEmail(in.Email)
	h.Audit.LoginSuccess(ctx, r, u.ID, in.Email)
	h.issue(w, r, u, http.StatusOK, "Login successful.")
}

// HandleRegister serves POST /public/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "register: bad body", err, formutil.Message(err))
		return
	}
	in.FullName = normalize.Name(in.FullName)
	in.Email = normalize.Email(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, http.StatusBadRequest, res.First())
		return
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		respond.Error(w, http.StatusBadRequest, capitalize(err.Error()))
		return
	}
	if ok, reason := h.Limiter.Check(r, in.Email); !ok {
		respond.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "register: hash failed", err, "Unable to register right now.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{FullName: in.FullName, Email: in.Email, PasswordHash: hash})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		uierrors.Conflict(w, "An account with this email already exists.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "register: create user failed", err, "Unable to register right now.")
		return
	}
	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()))
	h.Audit.UserRegistered(ctx, r, u.ID, u.Email)
	h.issue(w, r, &u, http.StatusCreated, "Registration successful.")
}

// ServeMe serves GET /private/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "me")
	defer cancel()

	u, err := h.Users.GetByID(ctx, res.UserID)
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.Unauthorized(w)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "me: user lookup failed", err, "")
		return
	}
	su, _ := auth.CurrentUser(r)
	respond.OK(w, meResponse{
		Claims: claimsView{UserID: su.ID, CurrentGroupID: su.GroupID, Permissions: nonNil(su.Permissions)},
		User:   authutil.ViewOf(u),
	})
}

// issue signs a token for u's current session and writes AuthResponse.
func (h *Handler) issue(w http.ResponseWriter, r *http.Request, u *models.User, status int, msg string) {
	token, _, err := h.Tokens.Issue(authutil.SessionFor(u))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "issue token failed", err, "")
		return
	}
	respond.JSON(w, status, AuthResponse{Message: msg, Token: token, User: authutil.ViewOf(u)})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
