// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/communityhub/internal/app/store/audit"
)

// listItem is one event with its user IDs resolved to names. An ID whose
// user no longer exists is shown as the hex ID.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"eventType"`
	ActorName     string            `json:"actorName,omitempty"`
	TargetName    string            `json:"targetName,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Events     []listItem `json:"events"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
	Total      int64      `json:"total"`
	Categories []string   `json:"categories"`
	EventTypes []string   `json:"eventTypes"`
}

var categories = []string{audit.CategoryAuth, audit.CategoryAdmin, audit.CategoryRecords}

// eventTypesForCategory returns the event types of category, or all of
// them for "". An unknown category has none.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedRateLimit,
		audit.EventUserRegistered,
	}
	adminEvents := []string{
		audit.EventGroupCreated,
		audit.EventGroupJoined,
		audit.EventGroupSwitched,
		audit.EventPermissionsChanged,
		audit.EventRemindersSent,
	}
	recordEvents := []string{
		audit.EventRecordCreated,
		audit.EventRecordUpdated,
		audit.EventRecordDeleted,
		audit.EventRecordsBulkDeleted,
		audit.EventPaymentRecorded,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case audit.CategoryRecords:
		return recordEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents)+len(recordEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		return append(all, recordEvents...)
	default:
		return nil
	}
}
