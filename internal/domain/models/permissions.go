// internal/domain/models/permissions.go
package models

// Permission strings carried in the token's permissions claim.
// PermAdmin implies every other permission.
const (
	PermAdmin               = "admin"
	PermManageMembers       = "manage_members"
	PermManageAnnouncements = "manage_announcements"
	PermManageDocuments     = "manage_documents"
	PermManageFinances      = "manage_finances"
)

// Permissions is the canonical list, used to validate grants.
var Permissions = []string{
	PermAdmin,
	PermManageMembers,
	PermManageAnnouncements,
	PermManageDocuments,
	PermManageFinances,
}

// IsPermission reports whether p is a known permission string.
func IsPermission(p string) bool {
	for _, k := range Permissions {
		if k == p {
			return true
		}
	}
	return false
}
