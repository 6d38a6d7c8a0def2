// internal/domain/models/documents.go
package models

import (
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
)

// Constitution is a versioned governing document of a group.
type Constitution struct {
	Title     string `bson:"title" json:"title" validate:"required,max=200"`
	TitleCI   string `bson:"title_ci" json:"-"`
	Version   string `bson:"version" json:"version" validate:"max=40"`
	Content   string `bson:"content" json:"content" validate:"required"`
	Published bool   `bson:"published" json:"published"`

	Meta `bson:",inline"`
}

func (c *Constitution) Normalize() {
	c.Title = strings.TrimSpace(c.Title)
	c.TitleCI = text.Fold(c.Title)
	c.Version = strings.TrimSpace(c.Version)
	c.Content = strings.TrimSpace(c.Content)
}

func (c *Constitution) Label() string     { return c.Title }
func (c *Constitution) BodyText() *string { return &c.Content }

// Minutes records what happened at one meeting.
type Minutes struct {
	Title       string    `bson:"title" json:"title" validate:"required,max=200"`
	TitleCI     string    `bson:"title_ci" json:"-"`
	MeetingDate time.Time `bson:"meeting_date" json:"meetingDate" validate:"required"`
	Location    string    `bson:"location" json:"location" validate:"max=200"`
	Content     string    `bson:"content" json:"content" validate:"required"`
	Published   bool      `bson:"published" json:"published"`

	Meta `bson:",inline"`
}

func (m *Minutes) Normalize() {
	m.Title = strings.TrimSpace(m.Title)
	m.TitleCI = text.Fold(m.Title)
	m.Location = strings.TrimSpace(m.Location)
	m.Content = strings.TrimSpace(m.Content)
}

func (m *Minutes) Label() string     { return m.Title }
func (m *Minutes) BodyText() *string { return &m.Content }
