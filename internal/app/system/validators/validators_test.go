package validators_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/validators"
	"github.com/dalemusser/communityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) (context.Context, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return ctx, db
}

func dec(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestEnsureAll_Idempotent(t *testing.T) {
	ctx, db := setup(t)
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	ctx, db := setup(t)
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatal(err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "groups", "members", "announcements", "constitutions", "minutes", "payments", "expenses"} {
		if !have[want] {
			t.Errorf("collection %q not created", want)
		}
	}
}

func TestValidators(t *testing.T) {
	ctx, db := setup(t)
	gid := primitive.NewObjectID()
	now := time.Now().UTC()

	tests := []struct {
		name    string
		coll    string
		doc     bson.M
		wantErr bool
	}{
		{"user missing fields", "users", bson.M{"email": "a@b.co"}, true},
		{"user valid", "users", bson.M{
			"full_name": "Ann", "full_name_ci": "ann", "email": "ann@example.com",
			"password_hash": "x", "status": "active",
		}, false},
		{"user bad permission", "users", bson.M{
			"full_name": "Bo", "full_name_ci": "bo", "email": "bo@example.com",
			"password_hash": "x", "status": "active",
			"memberships": bson.A{bson.M{"group_id": gid, "permissions": bson.A{"root"}}},
		}, true},
		{"group valid", "groups", bson.M{"name": "Hub", "name_ci": "hub", "join_code": "ABC123"}, false},
		{"group blank name", "groups", bson.M{"name": "  ", "name_ci": "", "join_code": "X"}, true},
		{"member bad role", "members", bson.M{
			"group_id": gid, "created_at": now, "full_name": "C", "full_name_ci": "c",
			"role": "king", "status": "active",
		}, true},
		{"announcement valid", "announcements", bson.M{
			"group_id": gid, "created_at": now, "title": "Hi", "title_ci": "hi", "content": "x",
		}, false},
		{"announcement without group", "announcements", bson.M{
			"created_at": now, "title": "Hi", "title_ci": "hi", "content": "x",
		}, true},
		{"payment valid", "payments", bson.M{
			"group_id": gid, "created_at": now, "title": "June", "title_ci": "june",
			"type": "dues", "amount": dec(t, "25.00"),
		}, false},
		{"payment double amount", "payments", bson.M{
			"group_id": gid, "created_at": now, "title": "June", "title_ci": "june",
			"type": "dues", "amount": 25.0,
		}, true},
		{"expense bad category", "expenses", bson.M{
			"group_id": gid, "created_at": now, "title": "Chairs", "title_ci": "chairs",
			"category": "party", "amount": dec(t, "3"), "expense_date": now,
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("insert err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
