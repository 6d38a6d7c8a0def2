// internal/app/system/authutil/authutil.go
package authutil

import (
	"errors"
	"unicode/utf8"

	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the shortest password accepted at registration.
const MinPasswordLen = 8

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

// Cost is the bcrypt cost used by HashPassword. Tests lower it.
var Cost = bcrypt.DefaultCost

// ValidatePassword checks length limits only.
func ValidatePassword(pw string) error {
	if utf8.RuneCountInString(pw) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	if len(pw) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// SessionFor builds the token subject for u: their current group and the
// permissions they hold there. A user with no current group gets neither.
func SessionFor(u *models.User) auth.SessionUser {
	s := auth.SessionUser{
		ID:          u.ID.Hex(),
		Name:        u.FullName,
		Email:       u.Email,
		Permissions: []string{},
	}
	if u.CurrentGroupID == nil {
		return s
	}
	if perms, ok := u.PermissionsIn(*u.CurrentGroupID); ok {
		s.GroupID = u.CurrentGroupID.Hex()
		s.Permissions = append(s.Permissions, perms...)
	}
	return s
}

// UserView is the public shape of the signed-in user.
type UserView struct {
	ID             string   `json:"_id"`
	FullName       string   `json:"fullName"`
	Email          string   `json:"email"`
	CurrentGroupID string   `json:"currentGroupId"`
	Permissions    []string `json:"permissions"`
	GroupIDs       []string `json:"groupIds"`
}

func ViewOf(u *models.User) UserView {
	s := SessionFor(u)
	v := UserView{
		ID:             s.ID,
		FullName:       u.FullName,
		Email:          u.Email,
		CurrentGroupID: s.GroupID,
		Permissions:    s.Permissions,
		GroupIDs:       hexes(u.GroupIDs),
	}
	return v
}

func hexes(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}
