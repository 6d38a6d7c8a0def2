// internal/app/store/records/recordstore.go
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/paging"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/communityhub/internal/domain/resource"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	ErrConflict  = errors.New("record changed concurrently")
)

// SortField orders every listing, newest first.
const SortField = "created_at"

// Store reads and writes one resource kind's collection, always scoped to a
// group. T is the decoded document type.
type Store[T any] struct {
	c    *mongo.Collection
	kind resource.Kind
}

func New[T any](db *mongo.Database, kind resource.Kind) *Store[T] {
	return &Store[T]{c: db.Collection(kind.Collection), kind: kind}
}

// Kind returns the resource kind the store serves.
func (s *Store[T]) Kind() resource.Kind { return s.kind }

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T
	Total      int64
	TotalPages int
}

func (s *Store[T]) scope(groupID primitive.ObjectID, extra bson.M) bson.M {
	f := bson.M{}
	for k, v := range extra {
		f[k] = v
	}
	f[s.kind.GroupField] = groupID
	return f
}

// List returns one page of the group's records matching filter (nil for
// all), newest first. Items is never nil.
func (s *Store[T]) List(ctx context.Context, groupID primitive.ObjectID, filter bson.M, page, size int) (Page[T], error) {
	q := s.scope(groupID, filter)

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return Page[T]{}, fmt.Errorf("count %s: %w", s.kind.Collection, err)
	}

	find := options.Find()
	paging.ApplyToFind(find, SortField, page, size)
	cur, err := s.c.Find(ctx, q, find)
	if err != nil {
		return Page[T]{}, fmt.Errorf("find %s: %w", s.kind.Collection, err)
	}
	defer cur.Close(ctx)

	items := []T{}
	if err := cur.All(ctx, &items); err != nil {
		return Page[T]{}, fmt.Errorf("decode %s: %w", s.kind.Collection, err)
	}
	return Page[T]{Items: items, Total: total, TotalPages: paging.TotalPages(total, size)}, nil
}

// Get loads one record of the group.
func (s *Store[T]) Get(ctx context.Context, groupID, id primitive.ObjectID) (T, error) {
	var out T
	err := s.c.FindOne(ctx, s.scope(groupID, bson.M{"_id": id})).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, ErrNotFound
	}
	if err != nil {
		return out, fmt.Errorf("get %s: %w", s.kind.Collection, err)
	}
	return out, nil
}

// Create stamps rec with a new ID, the group, the author and timestamps,
// normalizes it and inserts it.
func (s *Store[T]) Create(ctx context.Context, groupID primitive.ObjectID, author models.Author, rec models.Record) error {
	now := time.Now().UTC()
	m := rec.Base()
	m.ID = primitive.NewObjectID()
	m.GroupID = groupID
	m.CreatedBy = author
	m.CreatedAt = now
	m.UpdatedAt = now
	rec.Normalize()

	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert %s: %w", s.kind.Collection, err)
	}
	return nil
}

// Replace writes rec over the stored record with the same ID in the same
// group. ID, group, author and creation time are never changed by callers;
// they come from the stored document.
func (s *Store[T]) Replace(ctx context.Context, rec models.Record) error {
	return s.replace(ctx, rec, bson.M{})
}

// ReplaceUnchanged is Replace for a read-modify-write: it only writes when
// the stored record's updated_at still equals prev, and returns ErrConflict
// when someone else saved in between.
func (s *Store[T]) ReplaceUnchanged(ctx context.Context, rec models.Record, prev time.Time) error {
	m := rec.Base()
	id, groupID := m.ID, m.GroupID
	err := s.replace(ctx, rec, bson.M{"updated_at": prev})
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	n, err := s.c.CountDocuments(ctx, s.scope(groupID, bson.M{"_id": id}))
	if err != nil {
		return fmt.Errorf("check %s: %w", s.kind.Collection, err)
	}
	if n > 0 {
		return ErrConflict
	}
	return ErrNotFound
}

func (s *Store[T]) replace(ctx context.Context, rec models.Record, extra bson.M) error {
	m := rec.Base()
	extra["_id"] = m.ID
	m.UpdatedAt = time.Now().UTC()
	rec.Normalize()

	res, err := s.c.ReplaceOne(ctx, s.scope(m.GroupID, extra), rec)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("replace %s: %w", s.kind.Collection, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one record of the group.
func (s *Store[T]) Delete(ctx context.Context, groupID, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, s.scope(groupID, bson.M{"_id": id}))
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.kind.Collection, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Failure is one ID a bulk delete could not remove.
type Failure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkReport is the outcome of a best-effort bulk delete.
type BulkReport struct {
	Deleted []string  `json:"deleted"`
	Failed  []Failure `json:"failed"`
}

// BulkDelete removes every listed record of the group it can. IDs that are
// malformed, missing or outside the group are reported, not fatal. Only a
// database failure returns an error.
func (s *Store[T]) BulkDelete(ctx context.Context, groupID primitive.ObjectID, ids []string) (BulkReport, error) {
	rep := BulkReport{Deleted: []string{}, Failed: []Failure{}}

	seen := map[string]bool{}
	var oids []primitive.ObjectID
	for _, raw := range ids {
		if seen[raw] {
			continue
		}
		seen[raw] = true
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			rep.Failed = append(rep.Failed, Failure{ID: raw, Reason: "invalid id"})
			continue
		}
		oids = append(oids, oid)
	}
	if len(oids) == 0 {
		return rep, nil
	}

	q := s.scope(groupID, bson.M{"_id": bson.M{"$in": oids}})
	cur, err := s.c.Find(ctx, q, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return rep, fmt.Errorf("bulk find %s: %w", s.kind.Collection, err)
	}
	var found []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &found); err != nil {
		return rep, fmt.Errorf("bulk decode %s: %w", s.kind.Collection, err)
	}
	exists := make(map[primitive.ObjectID]bool, len(found))
	for _, f := range found {
		exists[f.ID] = true
	}

	var present []primitive.ObjectID
	for _, oid := range oids {
		if exists[oid] {
			present = append(present, oid)
		} else {
			rep.Failed = append(rep.Failed, Failure{ID: oid.Hex(), Reason: "not found"})
		}
	}
	if len(present) == 0 {
		return rep, nil
	}
	if _, err := s.c.DeleteMany(ctx, s.scope(groupID, bson.M{"_id": bson.M{"$in": present}})); err != nil {
		return rep, fmt.Errorf("bulk delete %s: %w", s.kind.Collection, err)
	}
	for _, oid := range present {
		rep.Deleted = append(rep.Deleted, oid.Hex())
	}
	return rep, nil
}
