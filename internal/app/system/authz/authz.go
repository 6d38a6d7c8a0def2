// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's name, Mongo ObjectID, current group ObjectID,
// and a found flag. If no user is present in context or the user ID is
// malformed, it returns "", NilObjectID, NilObjectID, false. This ensures
// callers can trust that ok=true means a valid, authenticated user with a
// valid ObjectID. groupID is NilObjectID when the user has no current group.
func UserCtx(r *http.Request) (name string, userID, groupID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", primitive.NilObjectID, primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in token - fail closed.
		return "", primitive.NilObjectID, primitive.NilObjectID, false
	}
	groupID, err = primitive.ObjectIDFromHex(user.GroupID)
	if err != nil {
		groupID = primitive.NilObjectID
	}
	return user.Name, userID, groupID, true
}

// GroupScope returns the current group and author stamp for group-scoped
// writes. ok is false when there is no user or no current group.
func GroupScope(r *http.Request) (groupID primitive.ObjectID, author models.Author, ok bool) {
	name, uid, gid, signed := UserCtx(r)
	if !signed || gid.IsZero() {
		return primitive.NilObjectID, models.Author{}, false
	}
	u, _ := auth.CurrentUser(r)
	return gid, models.Author{ID: uid, FullName: name, Email: u.Email}, true
}

// Can reports whether the current request's user holds perm (admin implies
// every permission).
func Can(r *http.Request, perm string) bool {
	user, ok := auth.CurrentUser(r)
	return ok && user.Can(perm)
}

// IsAdmin reports whether the current request's user administers the
// current group.
func IsAdmin(r *http.Request) bool {
	return Can(r, models.PermAdmin)
}

// CanManageMembers reports whether the user may edit the member register.
func CanManageMembers(r *http.Request) bool {
	return Can(r, models.PermManageMembers)
}

// CanManageFinances reports whether the user may edit payments and expenses.
func CanManageFinances(r *http.Request) bool {
	return Can(r, models.PermManageFinances)
}
