// internal/domain/models/record.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Author is the creator stamp copied onto every record at creation time.
// It is denormalized so listings never need a users lookup.
type Author struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	FullName string             `bson:"full_name" json:"fullName"`
	Email    string             `bson:"email" json:"email"`
}

// Meta holds the bookkeeping fields shared by every group-scoped record.
// It is embedded last in each record so that domain fields come first when
// the record is serialized (CSV column order follows JSON key order).
type Meta struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"-"`
	CreatedBy Author             `bson:"created_by" json:"createdBy"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Base exposes the embedded Meta so generic code can stamp it.
func (m *Meta) Base() *Meta { return m }

// Record is implemented by every document the generic record store writes.
type Record interface {
	Base() *Meta
	// Normalize trims input and refreshes derived (case-folded) fields.
	Normalize()
	// Label is the short human title used for cards and log lines.
	Label() string
}

// Bodied is implemented by records carrying user-authored rich text that
// must be sanitized before it is stored.
type Bodied interface {
	BodyText() *string
}
