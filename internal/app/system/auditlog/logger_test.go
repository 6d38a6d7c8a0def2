package auditlog_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/communityhub/internal/app/store/audit"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "a@example.com")
	logger.RecordDeleted(ctx, req, "members", primitive.NewObjectID())
	logger.BulkDeleted(ctx, req, "members", 1, 0)
}

func TestValidMode(t *testing.T) {
	for _, m := range []string{"all", "db", "log", "off"} {
		if !auditlog.ValidMode(m) {
			t.Errorf("ValidMode(%q) = false", m)
		}
	}
	for _, m := range []string{"", "ALL", "file"} {
		if auditlog.ValidMode(m) {
			t.Errorf("ValidMode(%q) = true", m)
		}
	}
}

func TestLogger_LogModeWritesZapOnly(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	// the store is never touched in log mode
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.ModeLog})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := httptest.NewRequest("POST", "/public/login", nil)
	req.RemoteAddr = "203.0.113.9:5000"
	logger.LoginFailed(ctx, req, audit.EventLoginFailedWrongPassword, primitive.NewObjectID(), "a@example.com", "wrong password")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn for a failure", e.Level)
	}
	fields := e.ContextMap()
	if fields["event_type"] != audit.EventLoginFailedWrongPassword || fields["ip"] != "203.0.113.9" {
		t.Errorf("fields = %v", fields)
	}
	if fields["detail_email"] != "a@example.com" || fields["failure_reason"] != "wrong password" {
		t.Errorf("fields = %v", fields)
	}
}

func TestLogger_Modes(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		wantDB  int
		wantZap int
	}{
		{"off", auditlog.ModeOff, 0, 0},
		{"db", auditlog.ModeDB, 1, 0},
		{"log", auditlog.ModeLog, 0, 1},
		{"all", auditlog.ModeAll, 1, 1},
		{"empty means all", "", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zapcore.InfoLevel)
			logger := auditlog.New(store, zap.New(core), auditlog.Config{Admin: tt.mode})
			ctx, cancel := testutil.TestContext()
			defer cancel()

			groupID := primitive.NewObjectID()
			logger.GroupCreated(ctx, httptest.NewRequest("POST", "/", nil), primitive.NewObjectID(), groupID, "Hub")

			n, err := store.Count(ctx, audit.QueryFilter{GroupID: &groupID})
			if err != nil {
				t.Fatal(err)
			}
			if int(n) != tt.wantDB {
				t.Errorf("stored = %d, want %d", n, tt.wantDB)
			}
			if got := logs.Len(); got != tt.wantZap {
				t.Errorf("zap entries = %d, want %d", got, tt.wantZap)
			}
		})
	}
}

func TestLogger_RecordEventCarriesActorAndGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Records: auditlog.ModeDB})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actor := primitive.NewObjectID()
	groupID := primitive.NewObjectID()
	req := auth.WithTestUser(httptest.NewRequest("DELETE", "/", nil), &auth.SessionUser{
		ID:      actor.Hex(),
		Name:    "Sec",
		GroupID: groupID.Hex(),
	})
	recordID := primitive.NewObjectID()
	logger.RecordDeleted(ctx, req, "minutes", recordID)
	logger.BulkDeleted(ctx, req, "minutes", 2, 1)

	events, err := store.Query(ctx, audit.QueryFilter{GroupID: &groupID})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	for _, e := range events {
		if e.ActorID == nil || *e.ActorID != actor {
			t.Errorf("%s: actor = %v", e.EventType, e.ActorID)
		}
		switch e.EventType {
		case audit.EventRecordDeleted:
			if !e.Success || e.Details["record_id"] != recordID.Hex() || e.Details["kind"] != "minutes" {
				t.Errorf("delete event = %+v", e)
			}
		case audit.EventRecordsBulkDeleted:
			if e.Success || e.Details["deleted"] != "2" || e.Details["failed"] != "1" {
				t.Errorf("bulk event = %+v", e)
			}
		default:
			t.Errorf("unexpected event %q", e.EventType)
		}
	}
}

func TestLogger_LoginFailedFeedsFailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := httptest.NewRequest("POST", "/public/login", nil)
	logger.LoginFailed(ctx, req, audit.EventLoginFailedUserNotFound, primitive.NilObjectID, "ghost@example.com", "user not found")
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "a@example.com")

	failed, err := store.GetFailedLogins(ctx, time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 || failed[0].UserID != nil {
		t.Errorf("failed = %+v", failed)
	}
}
