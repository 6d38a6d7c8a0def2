// internal/domain/models/member.go
package models

import (
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member roles inside a group's register.
var MemberRoles = []string{"member", "chairperson", "secretary", "treasurer"}

// Member is an entry in a group's membership register. A member may or may
// not have a user account (UserID is set once they register and join).
type Member struct {
	FullName   string              `bson:"full_name" json:"fullName" validate:"required,max=200"`
	FullNameCI string              `bson:"full_name_ci" json:"-"`
	Email      string              `bson:"email" json:"email" validate:"omitempty,email"`
	Phone      string              `bson:"phone" json:"phone" validate:"max=40"`
	Role       string              `bson:"role" json:"role" validate:"required,oneof=member chairperson secretary treasurer"`
	Status     string              `bson:"status" json:"status" validate:"required,oneof=active inactive"`
	JoinedAt   time.Time           `bson:"joined_at" json:"joinedAt"`
	UserID     *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`

	Meta `bson:",inline"`
}

func (m *Member) Normalize() {
	m.FullName = strings.TrimSpace(m.FullName)
	m.FullNameCI = text.Fold(m.FullName)
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	m.Phone = strings.TrimSpace(m.Phone)
	if m.Role == "" {
		m.Role = "member"
	}
	if m.Status == "" {
		m.Status = "active"
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
}

func (m *Member) Label() string { return m.FullName }
