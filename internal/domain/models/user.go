// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that can sign in. A user belongs to any number of
// groups; permissions are held per group in Memberships.
//
// NOTE:
//   - GroupIDs mirrors Memberships[].GroupID so group-scoped listings can
//     filter with a plain equality match on the array.
type User struct {
	ID           primitive.ObjectID `bson:"_id" json:"_id"`
	FullName     string             `bson:"full_name" json:"fullName"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Status       string             `bson:"status" json:"status"` // active | disabled

	GroupIDs       []primitive.ObjectID `bson:"group_ids" json:"-"`
	Memberships    []Membership         `bson:"memberships" json:"-"`
	CurrentGroupID *primitive.ObjectID  `bson:"current_group_id,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Membership binds a user to a group with a set of permission strings.
type Membership struct {
	GroupID     primitive.ObjectID `bson:"group_id" json:"groupId"`
	Permissions []string           `bson:"permissions" json:"permissions"`
	JoinedAt    time.Time          `bson:"joined_at" json:"joinedAt"`
}

// PermissionsIn returns the user's permissions in the group and whether the
// user belongs to it at all.
func (u *User) PermissionsIn(groupID primitive.ObjectID) ([]string, bool) {
	for _, m := range u.Memberships {
		if m.GroupID == groupID {
			return m.Permissions, true
		}
	}
	return nil, false
}
