// internal/domain/models/announcement.go
package models

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Announcement is a notice published to every member of a group.
type Announcement struct {
	Title     string `bson:"title" json:"title" validate:"required,max=200"`
	TitleCI   string `bson:"title_ci" json:"-"`
	Content   string `bson:"content" json:"content" validate:"required"`
	Published bool   `bson:"published" json:"published"`

	Meta `bson:",inline"`
}

func (a *Announcement) Normalize() {
	a.Title = strings.TrimSpace(a.Title)
	a.TitleCI = text.Fold(a.Title)
	a.Content = strings.TrimSpace(a.Content)
}

func (a *Announcement) Label() string     { return a.Title }
func (a *Announcement) BodyText() *string { return &a.Content }
