package auditlog_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/communityhub/internal/app/features/auditlog"
	uierrors "github.com/dalemusser/communityhub/internal/app/features/errors"
	"github.com/dalemusser/communityhub/internal/app/store/audit"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/communityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type listBody struct {
	Events []struct {
		EventType  string            `json:"eventType"`
		ActorName  string            `json:"actorName"`
		TargetName string            `json:"targetName"`
		Success    bool              `json:"success"`
		Details    map[string]string `json:"details"`
	} `json:"events"`
	TotalPages int   `json:"totalPages"`
	Total      int64 `json:"total"`
}

func setup(t *testing.T) (*auditlog.Handler, *audit.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return auditlog.NewHandler(db, uierrors.NewErrorLogger(logger), logger), audit.New(db), testutil.NewFixtures(t, db)
}

func serve(h *auditlog.Handler, target string, user testutil.TestUser) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, target, user))
	return rec
}

func TestServeList_Gate(t *testing.T) {
	h, _, _ := setup(t)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)

	serve(h, "/", testutil.MemberUser(primitive.NewObjectID())).AssertStatus(t, http.StatusForbidden)
}

func TestServeList_ScopedToGroupWithNames(t *testing.T) {
	h, store, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := fx.CreateGroup(ctx, "Hub")
	admin := fx.CreateUser(ctx, "Ada Admin", "ada@example.com")
	target := fx.CreateUser(ctx, "Tom Target", "tom@example.com")
	other := primitive.NewObjectID()

	base := time.Now().UTC().Add(-time.Hour)
	events := []audit.Event{
		{Timestamp: base, GroupID: &group.ID, Category: audit.CategoryAdmin, EventType: audit.EventPermissionsChanged,
			ActorID: &admin.ID, UserID: &target.ID, Success: true},
		{Timestamp: base.Add(time.Minute), GroupID: &group.ID, Category: audit.CategoryRecords, EventType: audit.EventRecordDeleted,
			ActorID: &admin.ID, Success: true, Details: map[string]string{"kind": "members"}},
		{Timestamp: base, GroupID: &other, Category: audit.CategoryRecords, EventType: audit.EventRecordDeleted, Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	user := testutil.FromUser(admin, group.ID, models.PermAdmin)

	var all listBody
	rec := serve(h, "/", user)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &all)
	if all.Total != 2 || len(all.Events) != 2 || all.TotalPages != 1 {
		t.Fatalf("got %d events (total %d, pages %d)", len(all.Events), all.Total, all.TotalPages)
	}
	if all.Events[0].EventType != audit.EventRecordDeleted {
		t.Errorf("newest first: got %q", all.Events[0].EventType)
	}
	perm := all.Events[1]
	if perm.ActorName != "Ada Admin" || perm.TargetName != "Tom Target" {
		t.Errorf("names = %q / %q", perm.ActorName, perm.TargetName)
	}

	var filtered listBody
	rec = serve(h, "/?category=records", user)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &filtered)
	if len(filtered.Events) != 1 || filtered.Events[0].Details["kind"] != "members" {
		t.Errorf("filtered = %+v", filtered.Events)
	}

	var byUser listBody
	serve(h, "/?userId="+target.ID.Hex(), user).DecodeJSON(t, &byUser)
	if len(byUser.Events) != 1 || byUser.Events[0].EventType != audit.EventPermissionsChanged {
		t.Errorf("by user = %+v", byUser.Events)
	}
}

func TestServeList_BadFilters(t *testing.T) {
	h, _, _ := setup(t)
	admin := testutil.AdminUser(primitive.NewObjectID())

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"unknown category", "?category=billing", "Unknown category."},
		{"event outside category", "?category=auth&eventType=record_deleted", "Unknown event type."},
		{"bad user id", "?userId=nope", "Invalid user ID."},
		{"bad date", "?from=June", "From must be a date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, "/"+tt.query, admin)
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertContains(t, tt.want)
		})
	}
}

func TestServeList_EmptyIsArray(t *testing.T) {
	h, _, _ := setup(t)
	rec := serve(h, "/?from=2024-01-01&to=2024-01-31", testutil.AdminUser(primitive.NewObjectID()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"events":[]`)
}
