package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testID returns a valid ObjectID hex string for tests.
func testID() string {
	return primitive.NewObjectID().Hex()
}

func TestUserCtx_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	_, uid, gid, ok := authz.UserCtx(req)
	if ok || !uid.IsZero() || !gid.IsZero() {
		t.Error("expected no user")
	}
}

func TestUserCtx_MalformedID(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "not-an-id"})
	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected malformed user ID to fail closed")
	}
}

func TestUserCtx_WithGroup(t *testing.T) {
	uid, gid := testID(), testID()
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: uid, Name: "Jane", GroupID: gid})

	name, u, g, ok := authz.UserCtx(req)
	if !ok || name != "Jane" || u.Hex() != uid || g.Hex() != gid {
		t.Errorf("UserCtx = %q %s %s %v", name, u.Hex(), g.Hex(), ok)
	}
}

func TestGroupScope(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: testID(), Name: "Jane", Email: "jane@example.com"})
	if _, _, ok := authz.GroupScope(req); ok {
		t.Error("expected no scope without a current group")
	}

	gid := testID()
	req = auth.WithTestUser(httptest.NewRequest("GET", "/test", nil),
		&auth.SessionUser{ID: testID(), Name: "Jane", Email: "jane@example.com", GroupID: gid})
	g, author, ok := authz.GroupScope(req)
	if !ok || g.Hex() != gid || author.FullName != "Jane" || author.Email != "jane@example.com" {
		t.Errorf("GroupScope = %s %+v %v", g.Hex(), author, ok)
	}
}

func TestCan(t *testing.T) {
	tests := []struct {
		name  string
		perms []string
		check func(*testing.T, bool, bool, bool)
	}{
		{"admin", []string{"admin"}, func(t *testing.T, admin, members, finances bool) {
			if !admin || !members || !finances {
				t.Error("admin should hold every permission")
			}
		}},
		{"treasurer", []string{"manage_finances"}, func(t *testing.T, admin, members, finances bool) {
			if admin || members || !finances {
				t.Errorf("got admin=%v members=%v finances=%v", admin, members, finances)
			}
		}},
		{"plain member", nil, func(t *testing.T, admin, members, finances bool) {
			if admin || members || finances {
				t.Error("plain member should hold nothing")
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req = auth.WithTestUser(req, &auth.SessionUser{ID: testID(), GroupID: testID(), Permissions: tt.perms})
			tt.check(t, authz.IsAdmin(req), authz.CanManageMembers(req), authz.CanManageFinances(req))
		})
	}
}
