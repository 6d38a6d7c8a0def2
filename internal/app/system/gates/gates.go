// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization, writing the JSON error
// envelope when checks fail.
//
// # Two-Tier Authorization Pattern
//
//  1. Route-Level Middleware (auth.RequireSignedIn, auth.RequireGroup,
//     auth.RequirePermission)
//     Applied in routes.go files when a whole router shares one rule, as
//     reminders/routes.go does for manage_finances.
//
//  2. Handler-Level Gates (this package)
//     Used when the permission depends on the resource being handled (the
//     generic record handler serves every kind) or when the handler needs the
//     caller's IDs anyway. Gates return the user context they checked.
//
// # Usage Pattern
//
//	res := gates.RequirePermission(w, r, kind.Permission, "")
//	if !res.OK {
//	    return // Gate already wrote the response
//	}
package gates

import (
	"net/http"

	uierrors "github.com/dalemusser/communityhub/internal/app/features/errors"
	"github.com/dalemusser/communityhub/internal/app/system/authz"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Name    string
	UserID  primitive.ObjectID
	GroupID primitive.ObjectID // zero when the user has no current group
	Author  models.Author
	OK      bool
}

// RequireAuth ensures a user is authenticated.
// If not authenticated, it writes 401 and returns OK=false.
func RequireAuth(w http.ResponseWriter, r *http.Request) Result {
	name, uid, gid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Unauthorized(w)
		return Result{OK: false}
	}
	return Result{Name: name, UserID: uid, GroupID: gid, OK: true}
}

// RequireGroup ensures the user is authenticated and has a current group.
func RequireGroup(w http.ResponseWriter, r *http.Request) Result {
	res := RequireAuth(w, r)
	if !res.OK {
		return res
	}
	gid, author, ok := authz.GroupScope(r)
	if !ok {
		uierrors.Forbidden(w, "Join or select a group first.")
		return Result{OK: false}
	}
	res.GroupID = gid
	res.Author = author
	return res
}

// RequirePermission ensures the user has a current group and holds perm in
// it (admin implies every permission). An empty forbiddenMsg uses the
// default message.
func RequirePermission(w http.ResponseWriter, r *http.Request, perm, forbiddenMsg string) Result {
	res := RequireGroup(w, r)
	if !res.OK {
		return res
	}
	if !authz.Can(r, perm) {
		uierrors.Forbidden(w, forbiddenMsg)
		return Result{OK: false}
	}
	return res
}

// RequireAdmin ensures the user administers their current group.
func RequireAdmin(w http.ResponseWriter, r *http.Request) Result {
	return RequirePermission(w, r, models.PermAdmin, "Only group admins can do that.")
}
