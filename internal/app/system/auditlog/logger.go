// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/communityhub/internal/app/store/audit"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for one category of events.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration, one mode per category.
type Config struct {
	Auth    string // sign-in and registration
	Admin   string // groups, permissions, reminders
	Records string // record mutations and payments
}

// Logger records audit events to MongoDB (via audit.Store) and to
// structured logs (via zap). A nil *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// ValidMode reports whether m is a known destination.
func ValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.GroupID != nil {
		fields = append(fields, zap.String("group_id", event.GroupID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) mode(category string) string {
	var m string
	switch category {
	case audit.CategoryAuth:
		m = l.config.Auth
	case audit.CategoryAdmin:
		m = l.config.Admin
	case audit.CategoryRecords:
		m = l.config.Records
	}
	if m == "" {
		return ModeAll
	}
	return m
}

// Log records an audit event according to its category's mode. A failed
// insert is logged, never returned: auditing must not fail the request.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	m := l.mode(event.Category)
	if m == ModeOff {
		return
	}
	if m == ModeAll || m == ModeLog {
		l.logToZap(event)
	}
	if m == ModeAll || m == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// fromRequest starts an event with the request's client and, when signed
// in, the acting user and current group.
func fromRequest(r *http.Request, category, eventType string) audit.Event {
	e := audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
	if u, ok := auth.CurrentUser(r); ok {
		e.ActorID = oid(u.ID)
		e.GroupID = oid(u.GroupID)
	}
	return e
}

func oid(hex string) *primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &id
}

func ptr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

// --- Authentication Events ---

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginSuccess)
	e.UserID = ptr(userID)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailed logs a refused sign-in. userID is zero when no account
// matched.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType string, userID primitive.ObjectID, email, reason string) {
	e := fromRequest(r, audit.CategoryAuth, eventType)
	e.UserID = ptr(userID)
	e.Success = false
	e.FailureReason = reason
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// UserRegistered logs a new account.
func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventUserRegistered)
	e.UserID = ptr(userID)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// --- Admin Events ---

// groupEvent belongs to the group acted on, not the caller's previous
// group.
func (l *Logger) groupEvent(ctx context.Context, r *http.Request, eventType string, userID, groupID primitive.ObjectID, groupName string) {
	e := fromRequest(r, audit.CategoryAdmin, eventType)
	e.UserID = ptr(userID)
	e.GroupID = ptr(groupID)
	e.Details = map[string]string{"group_name": groupName}
	l.Log(ctx, e)
}

// GroupCreated logs a new group; its creator is the first admin.
func (l *Logger) GroupCreated(ctx context.Context, r *http.Request, userID, groupID primitive.ObjectID, groupName string) {
	l.groupEvent(ctx, r, audit.EventGroupCreated, userID, groupID, groupName)
}

// GroupJoined logs a user joining with a join code.
func (l *Logger) GroupJoined(ctx context.Context, r *http.Request, userID, groupID primitive.ObjectID, groupName string) {
	l.groupEvent(ctx, r, audit.EventGroupJoined, userID, groupID, groupName)
}

// GroupSwitched logs a change of current group.
func (l *Logger) GroupSwitched(ctx context.Context, r *http.Request, userID, groupID primitive.ObjectID, groupName string) {
	l.groupEvent(ctx, r, audit.EventGroupSwitched, userID, groupID, groupName)
}

// PermissionsChanged logs an administrator replacing a member's
// permissions.
func (l *Logger) PermissionsChanged(ctx context.Context, r *http.Request, targetUserID primitive.ObjectID, perms []string) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventPermissionsChanged)
	e.UserID = ptr(targetUserID)
	e.Details = map[string]string{"permissions": strings.Join(perms, ",")}
	l.Log(ctx, e)
}

// RemindersSent logs a manual dues reminder run.
func (l *Logger) RemindersSent(ctx context.Context, r *http.Request, payments, sent, failed int) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventRemindersSent)
	e.Success = failed == 0
	e.Details = map[string]string{
		"payments": strconv.Itoa(payments),
		"sent":     strconv.Itoa(sent),
		"failed":   strconv.Itoa(failed),
	}
	l.Log(ctx, e)
}

// --- Record Events ---

func (l *Logger) recordEvent(ctx context.Context, r *http.Request, eventType, kind string, recordID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryRecords, eventType)
	e.Details = map[string]string{"kind": kind, "record_id": recordID.Hex()}
	l.Log(ctx, e)
}

// RecordCreated logs a new record of kind.
func (l *Logger) RecordCreated(ctx context.Context, r *http.Request, kind string, recordID primitive.ObjectID) {
	l.recordEvent(ctx, r, audit.EventRecordCreated, kind, recordID)
}

// RecordUpdated logs an edit of one record of kind.
func (l *Logger) RecordUpdated(ctx context.Context, r *http.Request, kind string, recordID primitive.ObjectID) {
	l.recordEvent(ctx, r, audit.EventRecordUpdated, kind, recordID)
}

// RecordDeleted logs the removal of one record of kind.
func (l *Logger) RecordDeleted(ctx context.Context, r *http.Request, kind string, recordID primitive.ObjectID) {
	l.recordEvent(ctx, r, audit.EventRecordDeleted, kind, recordID)
}

// BulkDeleted logs a bulk delete. It counts as failed when any ID was not
// deleted.
func (l *Logger) BulkDeleted(ctx context.Context, r *http.Request, kind string, deleted, failed int) {
	e := fromRequest(r, audit.CategoryRecords, audit.EventRecordsBulkDeleted)
	e.Success = failed == 0
	e.Details = map[string]string{
		"kind":    kind,
		"deleted": strconv.Itoa(deleted),
		"failed":  strconv.Itoa(failed),
	}
	l.Log(ctx, e)
}

// PaymentRecorded logs a member payment against a payment account.
func (l *Logger) PaymentRecorded(ctx context.Context, r *http.Request, accountID, memberID primitive.ObjectID, amount string) {
	e := fromRequest(r, audit.CategoryRecords, audit.EventPaymentRecorded)
	e.Details = map[string]string{
		"payment_id": accountID.Hex(),
		"member_id":  memberID.Hex(),
		"amount":     amount,
	}
	l.Log(ctx, e)
}
