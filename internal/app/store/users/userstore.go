package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/normalize"
	"github.com/dalemusser/communityhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	ErrAlreadyMember  = errors.New("user already belongs to this group")
	ErrNotMember      = errors.New("user does not belong to this group")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// NamesByID maps each found ID to the user's full name. Missing IDs are
// left out.
func (s *Store) NamesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"full_name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID       primitive.ObjectID `bson:"_id"`
		FullName string             `bson:"full_name"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.FullName
	}
	return names, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// Create inserts a new user after normalizing fields. The caller supplies
// the password hash; the user starts with no groups.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	if u.Status == "" {
		u.Status = "active"
	}
	u.GroupIDs = []primitive.ObjectID{}
	u.Memberships = []models.Membership{}
	u.CurrentGroupID = nil

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// AddMembership joins the user to the group with perms and makes it the
// current group. Joining twice returns ErrAlreadyMember.
func (s *Store) AddMembership(ctx context.Context, userID, groupID primitive.ObjectID, perms []string) error {
	perms = normalize.Permissions(perms)
	if perms == nil {
		perms = []string{}
	}
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "group_ids": bson.M{"$ne": groupID}},
		bson.M{
			"$push": bson.M{
				"group_ids":   groupID,
				"memberships": models.Membership{GroupID: groupID, Permissions: perms, JoinedAt: now},
			},
			"$set": bson.M{"current_group_id": groupID, "updated_at": now},
		})
	if err != nil {
		return fmt.Errorf("add membership: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, userID); err != nil {
			return err
		}
		return ErrAlreadyMember
	}
	return nil
}

// SetCurrentGroup switches the user's active group.
func (s *Store) SetCurrentGroup(ctx context.Context, userID, groupID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "group_ids": groupID},
		bson.M{"$set": bson.M{"current_group_id": groupID, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("switch group: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotMember
	}
	return nil
}

// SetPermissions replaces the user's permissions in one group.
func (s *Store) SetPermissions(ctx context.Context, userID, groupID primitive.ObjectID, perms []string) error {
	perms = normalize.Permissions(perms)
	if perms == nil {
		perms = []string{}
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "memberships.group_id": groupID},
		bson.M{"$set": bson.M{"memberships.$.permissions": perms, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotMember
	}
	return nil
}
