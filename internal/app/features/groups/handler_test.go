package groups_test

import (
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/communityhub/internal/app/features/errors"
	"github.com/dalemusser/communityhub/internal/app/features/groups"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/indexes"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/communityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const testSecret = "test-jwt-secret-must-be-32-chars-long"

type mutation struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	Group   *struct {
		ID       string `json:"_id"`
		Name     string `json:"name"`
		JoinCode string `json:"joinCode"`
	} `json:"group"`
}

func newTestHandler(t *testing.T) (*groups.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	tokens, err := auth.NewTokenManager(testSecret, time.Hour, logger)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatal(err)
	}
	return groups.NewHandler(db, tokens, uierrors.NewErrorLogger(logger), nil, logger), testutil.NewFixtures(t, db)
}

func TestNewJoinCode(t *testing.T) {
	a, b := groups.NewJoinCode(), groups.NewJoinCode()
	if len(a) != groups.JoinCodeLen {
		t.Errorf("len = %d", len(a))
	}
	if a == b {
		t.Errorf("two codes collided: %q", a)
	}
	for _, r := range a {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			t.Errorf("unexpected rune %q in %q", r, a)
		}
	}
}

func TestHandleCreate(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "Ann Admin", "ann@example.com")
	req := testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{"name": "  Riverside Welfare  "})
	req = testutil.WithUser(req, testutil.TestUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email})

	rec := testutil.NewRecorder()
	groups.Routes(h).ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var resp mutation
	rec.DecodeJSON(t, &resp)
	if resp.Group == nil || resp.Group.Name != "Riverside Welfare" || len(resp.Group.JoinCode) != groups.JoinCodeLen {
		t.Fatalf("group = %+v", resp.Group)
	}
	claims, err := h.Tokens.Verify(resp.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.CurrentGroupID != resp.Group.ID {
		t.Errorf("current group = %q, want %q", claims.CurrentGroupID, resp.Group.ID)
	}
	if len(claims.Permissions) != 1 || claims.Permissions[0] != models.PermAdmin {
		t.Errorf("permissions = %v", claims.Permissions)
	}

	n, err := fx.DB().Collection("members").CountDocuments(ctx, bson.M{"user_id": u.ID, "role": "chairperson"})
	if err != nil || n != 1 {
		t.Errorf("register entries = %d, err = %v", n, err)
	}
}

func TestHandleCreate_Rejects(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name   string
		user   *testutil.TestUser
		body   any
		status int
	}{
		{"anonymous", nil, map[string]string{"name": "X"}, http.StatusUnauthorized},
		{"blank name", &testutil.TestUser{ID: "000000000000000000000001"}, map[string]string{"name": "   "}, http.StatusBadRequest},
		{"wrong type", &testutil.TestUser{ID: "000000000000000000000001"}, map[string]int{"name": 3}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/", tt.body)
			if tt.user != nil {
				req = testutil.WithUser(req, *tt.user)
			}
			rec := testutil.NewRecorder()
			groups.Routes(h).ServeHTTP(rec, req)
			rec.AssertStatus(t, tt.status)
		})
	}
}

func TestHandleJoin(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fx.CreateGroup(ctx, "Hub")
	u := fx.CreateUser(ctx, "Bo Member", "bo@example.com")
	tu := testutil.TestUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email}

	join := func(code string) *testutil.ResponseRecorder {
		req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/join", map[string]string{"joinCode": code}), tu)
		rec := testutil.NewRecorder()
		groups.Routes(h).ServeHTTP(rec, req)
		return rec
	}

	rec := join(" hub01 ")
	rec.AssertStatus(t, http.StatusOK)
	var resp mutation
	rec.DecodeJSON(t, &resp)
	if resp.Group == nil || resp.Group.JoinCode != "" {
		t.Errorf("members must not see the join code: %+v", resp.Group)
	}
	claims, err := h.Tokens.Verify(resp.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.CurrentGroupID != g.ID.Hex() || len(claims.Permissions) != 0 {
		t.Errorf("claims = %+v", claims)
	}

	join("HUB01").AssertStatus(t, http.StatusConflict)
	join("NOPE99").AssertStatus(t, http.StatusNotFound)
	join("").AssertStatus(t, http.StatusBadRequest)
}

func TestHandleSwitch(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateGroup(ctx, "Alpha")
	b := fx.CreateGroup(ctx, "Beta")
	other := fx.CreateGroup(ctx, "Other")
	u := fx.CreateUser(ctx, "Cy", "cy@example.com")
	fx.AddMembership(ctx, u.ID, a.ID, models.PermAdmin)
	fx.AddMembership(ctx, u.ID, b.ID)
	tu := testutil.FromUser(u, b.ID)

	sw := func(id string) *testutil.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(http.MethodPost, "/"+id+"/switch", tu)
		rec := testutil.NewRecorder()
		groups.Routes(h).ServeHTTP(rec, req)
		return rec
	}

	rec := sw(a.ID.Hex())
	rec.AssertStatus(t, http.StatusOK)
	var resp mutation
	rec.DecodeJSON(t, &resp)
	claims, err := h.Tokens.Verify(resp.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.CurrentGroupID != a.ID.Hex() || len(claims.Permissions) != 1 {
		t.Errorf("claims = %+v", claims)
	}
	if resp.Group == nil || resp.Group.JoinCode != a.JoinCode {
		t.Errorf("admins see the join code: %+v", resp.Group)
	}

	sw(other.ID.Hex()).AssertStatus(t, http.StatusNotFound)
	sw("not-an-id").AssertStatus(t, http.StatusBadRequest)
}

func TestServeList(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b := fx.CreateGroup(ctx, "Beta")
	a := fx.CreateGroup(ctx, "Alpha")
	u := fx.CreateUser(ctx, "Di", "di@example.com")
	fx.AddMembership(ctx, u.ID, a.ID, models.PermAdmin)
	fx.AddMembership(ctx, u.ID, b.ID)

	rec := testutil.NewRecorder()
	groups.Routes(h).ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.FromUser(u, b.ID)))
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Groups []struct {
			Name        string   `json:"name"`
			JoinCode    string   `json:"joinCode"`
			Permissions []string `json:"permissions"`
			Current     bool     `json:"current"`
		} `json:"groups"`
		CurrentGroupID string `json:"currentGroupId"`
	}
	rec.DecodeJSON(t, &resp)
	if len(resp.Groups) != 2 || resp.Groups[0].Name != "Alpha" || resp.Groups[1].Name != "Beta" {
		t.Fatalf("groups = %+v", resp.Groups)
	}
	if resp.Groups[0].JoinCode == "" || resp.Groups[1].JoinCode != "" {
		t.Errorf("join codes = %q, %q", resp.Groups[0].JoinCode, resp.Groups[1].JoinCode)
	}
	if resp.CurrentGroupID != b.ID.Hex() || !resp.Groups[1].Current || resp.Groups[0].Current {
		t.Errorf("current = %q", resp.CurrentGroupID)
	}
}

func TestHandlePermissions(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fx.CreateGroup(ctx, "Hub")
	admin := fx.CreateUser(ctx, "Ann", "ann@example.com")
	member := fx.CreateUser(ctx, "Bo", "bo@example.com")
	outsider := fx.CreateUser(ctx, "Out", "out@example.com")
	fx.AddMembership(ctx, admin.ID, g.ID, models.PermAdmin)
	fx.AddMembership(ctx, member.ID, g.ID)

	patch := func(as testutil.TestUser, body any) *testutil.ResponseRecorder {
		req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/permissions", body), as)
		rec := testutil.NewRecorder()
		groups.Routes(h).ServeHTTP(rec, req)
		return rec
	}
	asAdmin := testutil.FromUser(admin, g.ID, models.PermAdmin)

	tests := []struct {
		name   string
		as     testutil.TestUser
		body   map[string]any
		status int
	}{
		{"grant", asAdmin, map[string]any{"userId": member.ID.Hex(), "permissions": []string{"Manage_Finances"}}, http.StatusOK},
		{"non admin", testutil.FromUser(member, g.ID), map[string]any{"userId": admin.ID.Hex(), "permissions": []string{}}, http.StatusForbidden},
		{"unknown permission", asAdmin, map[string]any{"userId": member.ID.Hex(), "permissions": []string{"launch_rockets"}}, http.StatusBadRequest},
		{"bad user id", asAdmin, map[string]any{"userId": "xyz", "permissions": []string{}}, http.StatusBadRequest},
		{"self demotion", asAdmin, map[string]any{"userId": admin.ID.Hex(), "permissions": []string{}}, http.StatusBadRequest},
		{"not in group", asAdmin, map[string]any{"userId": outsider.ID.Hex(), "permissions": []string{}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch(tt.as, tt.body).AssertStatus(t, tt.status)
		})
	}

	var stored models.User
	if err := fx.DB().Collection("users").FindOne(ctx, bson.M{"_id": member.ID}).Decode(&stored); err != nil {
		t.Fatal(err)
	}
	perms, _ := stored.PermissionsIn(g.ID)
	if len(perms) != 1 || perms[0] != models.PermManageFinances {
		t.Errorf("stored permissions = %v", perms)
	}
}
