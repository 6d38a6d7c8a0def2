package login_test

import (
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/communityhub/internal/app/features/errors"
	"github.com/dalemusser/communityhub/internal/app/features/login"
	"github.com/dalemusser/communityhub/internal/app/store/audit"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/authutil"
	"github.com/dalemusser/communityhub/internal/app/system/indexes"
	"github.com/dalemusser/communityhub/internal/app/system/ratelimit"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/communityhub/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-jwt-secret-must-be-32-chars-long"

func newTestHandler(t *testing.T, perMinute int) (*login.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	authutil.Cost = bcrypt.MinCost
	t.Cleanup(func() { authutil.Cost = bcrypt.DefaultCost })

	tokens, err := auth.NewTokenManager(testSecret, time.Hour, logger)
	if err != nil {
		t.Fatal(err)
	}
	limiter := ratelimit.NewLoginLimiter(perMinute)
	t.Cleanup(limiter.Stop)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatal(err)
	}

	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: auditlog.ModeDB})
	h := login.NewHandler(db, tokens, limiter, uierrors.NewErrorLogger(logger), auditLog, logger)
	return h, testutil.NewFixtures(t, db)
}

func TestHandleLogin_Success(t *testing.T) {
	h, fx := newTestHandler(t, 20)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "Ann Admin", "ann@example.com")
	g := fx.CreateGroup(ctx, "Hub")
	fx.AddMembership(ctx, u.ID, g.ID, models.PermAdmin)

	rec := testutil.NewRecorder()
	login.Routes(h).ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/login",
		map[string]string{"email": "ANN@example.com", "password": testutil.TestPassword}))
	rec.AssertStatus(t, http.StatusOK)

	var resp login.AuthResponse
	rec.DecodeJSON(t, &resp)
	if resp.Token == "" || resp.User.Email != "ann@example.com" {
		t.Fatalf("response = %+v", resp)
	}
	claims, err := h.Tokens.Verify(resp.Token)
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.UserID != u.ID.Hex() || claims.CurrentGroupID != g.ID.Hex() {
		t.Errorf("claims = %+v", claims)
	}
	if len(claims.Permissions) != 1 || claims.Permissions[0] != models.PermAdmin {
		t.Errorf("permissions = %v", claims.Permissions)
	}
}

func TestHandleLogin_Rejects(t *testing.T) {
	h, fx := newTestHandler(t, 20)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "Bo", "bo@example.com")

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"wrong password", map[string]string{"email": "bo@example.com", "password": "nope-nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"email": "who@example.com", "password": "whatever1"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"email": "bo@example.com"}, http.StatusBadRequest},
		{"bad email", map[string]string{"email": "bo", "password": "x"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleLogin(rec, testutil.NewJSONRequest(t, http.MethodPost, "/public/login", tt.body))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	h, _ := newTestHandler(t, 2)

	var last int
	for i := 0; i < 3; i++ {
		rec := testutil.NewRecorder()
		h.HandleLogin(rec, testutil.NewJSONRequest(t, http.MethodPost, "/public/login",
			map[string]string{"email": "x@example.com", "password": "wrong-pass"}))
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third attempt status = %d, want 429", last)
	}
}

func TestHandleRegister(t *testing.T) {
	h, _ := newTestHandler(t, 20)

	body := map[string]string{"fullName": " New  Person ", "email": "New@Example.com", "password": "long-enough"}
	rec := testutil.NewRecorder()
	h.HandleRegister(rec, testutil.NewJSONRequest(t, http.MethodPost, "/public/register", body))
	rec.AssertStatus(t, http.StatusCreated)

	var resp login.AuthResponse
	rec.DecodeJSON(t, &resp)
	if resp.User.FullName != "New Person" || resp.User.Email != "new@example.com" || resp.User.CurrentGroupID != "" {
		t.Errorf("user = %+v", resp.User)
	}

	rec = testutil.NewRecorder()
	h.HandleRegister(rec, testutil.NewJSONRequest(t, http.MethodPost, "/public/register", body))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestHandleRegister_Validation(t *testing.T) {
	h, _ := newTestHandler(t, 20)

	tests := []struct {
		name string
		body map[string]string
		msg  string
	}{
		{"no name", map[string]string{"email": "a@example.com", "password": "long-enough"}, "Full name is required."},
		{"short password", map[string]string{"fullName": "A", "email": "a@example.com", "password": "short"}, "Password must be at least 8 characters."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleRegister(rec, testutil.NewJSONRequest(t, http.MethodPost, "/public/register", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertContains(t, tt.msg)
		})
	}
}

func TestServeMe(t *testing.T) {
	h, fx := newTestHandler(t, 20)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "Cy", "cy@example.com")
	g := fx.CreateGroup(ctx, "Hub")
	fx.AddMembership(ctx, u.ID, g.ID, models.PermManageMembers)

	rec := testutil.NewRecorder()
	h.ServeMe(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/private/me",
		testutil.FromUser(u, g.ID, models.PermManageMembers)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"userId":"`+u.ID.Hex()+`"`)
	rec.AssertContains(t, models.PermManageMembers)

	rec = testutil.NewRecorder()
	h.ServeMe(rec, testutil.NewRequest(http.MethodGet, "/private/me"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleLogin_Audited(t *testing.T) {
	h, fx := newTestHandler(t, 20)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "Ann", "ann@example.com")
	attempts := []map[string]string{
		{"email": "ann@example.com", "password": "not-the-password"},
		{"email": "ghost@example.com", "password": testutil.TestPassword},
		{"email": "ann@example.com", "password": testutil.TestPassword},
	}
	for _, body := range attempts {
		rec := testutil.NewRecorder()
		login.Routes(h).ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/login", body))
	}

	store := audit.New(fx.DB())
	events, err := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, e := range events {
		got[e.EventType] = e.Success
	}
	want := map[string]bool{
		audit.EventLoginFailedWrongPassword: false,
		audit.EventLoginFailedUserNotFound:  false,
		audit.EventLoginSuccess:             true,
	}
	if len(got) != len(want) {
		t.Fatalf("events = %v", got)
	}
	for typ, ok := range want {
		if s, found := got[typ]; !found || s != ok {
			t.Errorf("%s: found %v, success %v", typ, found, s)
		}
	}

	byUser, err := store.Query(ctx, audit.QueryFilter{UserID: &u.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(byUser) != 2 {
		t.Errorf("events for user = %d, want 2", len(byUser))
	}
}
