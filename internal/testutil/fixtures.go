package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the password of every fixture user.
const TestPassword = "correct horse battery"

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create test %s: %v", coll, err)
	}
}

func (f *Fixtures) meta(groupID primitive.ObjectID, age time.Duration) models.Meta {
	now := time.Now().UTC().Add(-age).Truncate(time.Millisecond)
	return models.Meta{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		CreatedBy: models.Author{ID: primitive.NewObjectID(), FullName: "Fixture Author", Email: "author@test.com"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateUser creates an active user whose password is TestPassword.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Status:       "active",
		GroupIDs:     []primitive.ObjectID{},
		Memberships:  []models.Membership{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", user)
	return user
}

// CreateGroup creates a group with a fixed join code derived from its name.
func (f *Fixtures) CreateGroup(ctx context.Context, name string) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test group description",
		JoinCode:    strings.ToUpper(strings.ReplaceAll(name, " ", "")) + "01",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "groups", group)
	return group
}

// AddMembership puts the user in the group with perms and makes it current.
func (f *Fixtures) AddMembership(ctx context.Context, userID, groupID primitive.ObjectID, perms ...string) {
	f.t.Helper()

	if perms == nil {
		perms = []string{}
	}
	_, err := f.db.Collection("users").UpdateByID(ctx, userID, bson.M{
		"$addToSet": bson.M{"group_ids": groupID},
		"$push": bson.M{"memberships": models.Membership{
			GroupID: groupID, Permissions: perms, JoinedAt: time.Now().UTC(),
		}},
		"$set": bson.M{"current_group_id": groupID},
	})
	if err != nil {
		f.t.Fatalf("failed to add membership: %v", err)
	}
}

// CreateAnnouncement creates a published announcement created age ago.
func (f *Fixtures) CreateAnnouncement(ctx context.Context, groupID primitive.ObjectID, title string, age time.Duration) models.Announcement {
	f.t.Helper()

	a := models.Announcement{Title: title, Content: "Body of " + title, Published: true, Meta: f.meta(groupID, age)}
	a.Normalize()
	f.insert(ctx, "announcements", a)
	return a
}

// CreateMember creates an active register entry.
func (f *Fixtures) CreateMember(ctx context.Context, groupID primitive.ObjectID, fullName, email string) models.Member {
	f.t.Helper()

	m := models.Member{FullName: fullName, Email: email, Meta: f.meta(groupID, 0)}
	m.Normalize()
	f.insert(ctx, "members", m)
	return m
}

// CreatePayment creates a published dues account of amount due in dueIn.
func (f *Fixtures) CreatePayment(ctx context.Context, groupID primitive.ObjectID, title, amount string, dueIn time.Duration) models.Payment {
	f.t.Helper()

	due := time.Now().UTC().Add(dueIn).Truncate(time.Millisecond)
	p := models.Payment{
		Title:     title,
		Type:      "dues",
		Amount:    decimal.RequireFromString(amount),
		DueDate:   &due,
		Published: true,
		Meta:      f.meta(groupID, 0),
	}
	p.Normalize()
	f.insert(ctx, "payments", p)
	return p
}

// CreateExpense creates an operational expense.
func (f *Fixtures) CreateExpense(ctx context.Context, groupID primitive.ObjectID, title, amount string) models.Expense {
	f.t.Helper()

	e := models.Expense{
		Title:       title,
		Category:    "operational",
		Amount:      decimal.RequireFromString(amount),
		ExpenseDate: time.Now().UTC().Truncate(time.Millisecond),
		Meta:        f.meta(groupID, 0),
	}
	e.Normalize()
	f.insert(ctx, "expenses", e)
	return e
}
