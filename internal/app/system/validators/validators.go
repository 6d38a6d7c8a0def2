// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/communityhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Accounts and tenants
	ensure("users", usersSchema())
	ensure("groups", groupsSchema())

	// Group-scoped records
	ensure("members", membersSchema())
	ensure("announcements", bodiedSchema())
	ensure("constitutions", bodiedSchema())
	ensure("minutes", minutesSchema())
	ensure("payments", paymentsSchema())
	ensure("expenses", expensesSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enum(values []string) bson.M {
	a := bson.A{}
	for _, v := range values {
		a = append(a, v)
	}
	return bson.M{"enum": a}
}

// scoped merges the bookkeeping fields every group record carries into props.
func scoped(required bson.A, props bson.M) bson.M {
	props["group_id"] = bson.M{"bsonType": "objectId"}
	props["created_by"] = bson.M{
		"bsonType": "object",
		"properties": bson.M{
			"_id":       bson.M{"bsonType": "objectId"},
			"full_name": bson.M{"bsonType": "string"},
		},
	}
	props["created_at"] = bson.M{"bsonType": "date"}
	props["updated_at"] = bson.M{"bsonType": "date"}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   append(bson.A{"group_id", "created_at"}, required...),
			"properties": props,
		},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "password_hash", "status"},
			"properties": bson.M{
				"full_name":     nonBlank,
				"full_name_ci":  nonBlank,
				"email":         nonBlank,
				"password_hash": nonBlank,
				"status":        bson.M{"enum": bson.A{"active", "disabled"}},
				"group_ids":     bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"memberships": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"group_id", "permissions"},
						"properties": bson.M{
							"group_id":    bson.M{"bsonType": "objectId"},
							"permissions": bson.M{"bsonType": "array", "items": enum(models.Permissions)},
						},
					},
				},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "join_code"},
			"properties": bson.M{
				"name":        nonBlank,
				"name_ci":     nonBlank,
				"description": bson.M{"bsonType": "string"},
				"join_code":   nonBlank,
			},
		},
	}
}

func membersSchema() bson.M {
	return scoped(bson.A{"full_name", "role", "status"}, bson.M{
		"full_name":    nonBlank,
		"full_name_ci": nonBlank,
		"email":        bson.M{"bsonType": "string"},
		"role":         enum(models.MemberRoles),
		"status":       bson.M{"enum": bson.A{"active", "inactive"}},
	})
}

// bodiedSchema covers announcements and constitutions.
func bodiedSchema() bson.M {
	return scoped(bson.A{"title", "title_ci", "content"}, bson.M{
		"title":     nonBlank,
		"title_ci":  nonBlank,
		"content":   bson.M{"bsonType": "string"},
		"published": bson.M{"bsonType": "bool"},
	})
}

func minutesSchema() bson.M {
	return scoped(bson.A{"title", "title_ci", "meeting_date", "content"}, bson.M{
		"title":        nonBlank,
		"title_ci":     nonBlank,
		"meeting_date": bson.M{"bsonType": "date"},
		"location":     bson.M{"bsonType": "string"},
		"content":      bson.M{"bsonType": "string"},
		"published":    bson.M{"bsonType": "bool"},
	})
}

func paymentsSchema() bson.M {
	return scoped(bson.A{"title", "title_ci", "type", "amount"}, bson.M{
		"title":             nonBlank,
		"title_ci":          nonBlank,
		"type":              enum(models.PaymentTypes),
		"amount":            bson.M{"bsonType": "decimal"},
		"total_amount_paid": bson.M{"bsonType": "decimal"},
		"due_date":          bson.M{"bsonType": "date"},
		"published":         bson.M{"bsonType": "bool"},
		"members": bson.M{
			"bsonType": "array",
			"items": bson.M{
				"bsonType": "object",
				"required": bson.A{"member_id", "amount_paid"},
				"properties": bson.M{
					"member_id":   bson.M{"bsonType": "objectId"},
					"amount_paid": bson.M{"bsonType": "decimal"},
					"paid_at":     bson.M{"bsonType": "date"},
				},
			},
		},
	})
}

func expensesSchema() bson.M {
	return scoped(bson.A{"title", "title_ci", "category", "amount", "expense_date"}, bson.M{
		"title":        nonBlank,
		"title_ci":     nonBlank,
		"category":     enum(models.ExpenseCategories),
		"amount":       bson.M{"bsonType": "decimal"},
		"expense_date": bson.M{"bsonType": "date"},
	})
}
