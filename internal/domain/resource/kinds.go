// internal/domain/resource/kinds.go
package resource

import (
	"github.com/dalemusser/communityhub/internal/app/system/filters"
	"github.com/dalemusser/communityhub/internal/domain/models"
)

// Kind describes one paginated, filterable, exportable resource. Both the
// server routes and the client list controller are built from it, so a new
// resource is one more entry in All rather than new handlers.
type Kind struct {
	Name       string // registry key, e.g. "announcements"
	Path       string // URL segment under /private
	Plural     string // listing envelope key
	Singular   string // single-record envelope key
	Collection string // Mongo collection
	GroupField string // column holding the owning group (or groups)

	// Permission required to create, edit and delete. Empty means the kind
	// is read-only through the generic endpoints.
	Permission string

	TitleKey string // JSON key shown as the card title
	DateKey  string // JSON key shown as the card subtitle

	Filters filters.Schema
}

// ReadOnly reports whether generic mutations are disabled for the kind.
func (k Kind) ReadOnly() bool { return k.Permission == "" }

// ListPath is the default listing endpoint.
func (k Kind) ListPath() string { return "/private/" + k.Path }

// SearchPath is the filtered listing endpoint.
func (k Kind) SearchPath() string { return "/private/search-" + k.Path }

// ItemPath addresses one record.
func (k Kind) ItemPath(id string) string { return "/private/" + k.Path + "/" + id }

// BulkDeletePath accepts {ids: [...]}.
func (k Kind) BulkDeletePath() string { return "/private/" + k.Path + "/bulk-delete" }

// ExportPath streams the filtered page as CSV.
func (k Kind) ExportPath() string { return "/private/" + k.Path + "/export.csv" }

var (
	Announcements = Kind{
		Name: "announcements", Path: "announcements", Plural: "announcements", Singular: "announcement",
		Collection: "announcements", GroupField: "group_id",
		Permission: models.PermManageAnnouncements,
		TitleKey:   "title", DateKey: "createdAt",
		Filters: filters.Schema{
			{Key: "title", Label: "Title", Kind: filters.Text, Column: "title_ci", Op: filters.Contains},
			{Key: "content", Label: "Content", Kind: filters.Text, Column: "content", Op: filters.Contains},
			{Key: "date", Label: "Date", Kind: filters.Date, Column: "created_at", Op: filters.OnDay},
			{Key: "published", Label: "Published", Kind: filters.Bool, Column: "published", Op: filters.Eq},
			{Key: "createdBy", Label: "Created by", Kind: filters.Text, Column: "created_by.full_name", Op: filters.Contains},
		},
	}

	Constitutions = Kind{
		Name: "constitutions", Path: "constitutions", Plural: "constitutions", Singular: "constitution",
		Collection: "constitutions", GroupField: "group_id",
		Permission: models.PermManageDocuments,
		TitleKey:   "title", DateKey: "createdAt",
		Filters: filters.Schema{
			{Key: "title", Label: "Title", Kind: filters.Text, Column: "title_ci", Op: filters.Contains},
			{Key: "content", Label: "Content", Kind: filters.Text, Column: "content", Op: filters.Contains},
			{Key: "version", Label: "Version", Kind: filters.Text, Column: "version", Op: filters.Contains},
			{Key: "published", Label: "Published", Kind: filters.Bool, Column: "published", Op: filters.Eq},
			{Key: "dateFrom", Label: "From", Kind: filters.Date, Column: "created_at", Op: filters.Gte},
			{Key: "dateTo", Label: "To", Kind: filters.Date, Column: "created_at", Op: filters.Lte},
		},
	}

	Minutes = Kind{
		Name: "minutes", Path: "minutes", Plural: "minutes", Singular: "minutes",
		Collection: "minutes", GroupField: "group_id",
		Permission: models.PermManageDocuments,
		TitleKey:   "title", DateKey: "meetingDate",
		Filters: filters.Schema{
			{Key: "title", Label: "Title", Kind: filters.Text, Column: "title_ci", Op: filters.Contains},
			{Key: "content", Label: "Content", Kind: filters.Text, Column: "content", Op: filters.Contains},
			{Key: "location", Label: "Location", Kind: filters.Text, Column: "location", Op: filters.Contains},
			{Key: "date", Label: "Meeting date", Kind: filters.Date, Column: "meeting_date", Op: filters.OnDay},
			{Key: "dateFrom", Label: "From", Kind: filters.Date, Column: "meeting_date", Op: filters.Gte},
			{Key: "dateTo", Label: "To", Kind: filters.Date, Column: "meeting_date", Op: filters.Lte},
			{Key: "createdBy", Label: "Created by", Kind: filters.Text, Column: "created_by.full_name", Op: filters.Contains},
		},
	}

	Payments = Kind{
		Name: "payments", Path: "payments", Plural: "payments", Singular: "payment",
		Collection: "payments", GroupField: "group_id",
		Permission: models.PermManageFinances,
		TitleKey:   "title", DateKey: "dueDate",
		Filters: filters.Schema{
			{Key: "title", Label: "Title", Kind: filters.Text, Column: "title_ci", Op: filters.Contains},
			{Key: "type", Label: "Type", Kind: filters.Enum, Column: "type", Op: filters.In, Options: models.PaymentTypes},
			{Key: "minAmount", Label: "Min amount", Kind: filters.Number, Column: "amount", Op: filters.Gte},
			{Key: "maxAmount", Label: "Max amount", Kind: filters.Number, Column: "amount", Op: filters.Lte},
			{Key: "dueDate", Label: "Due date", Kind: filters.Date, Column: "due_date", Op: filters.OnDay},
			{Key: "published", Label: "Published", Kind: filters.Bool, Column: "published", Op: filters.Eq},
		},
	}

	Expenses = Kind{
		Name: "expenses", Path: "expenses", Plural: "expenses", Singular: "expense",
		Collection: "expenses", GroupField: "group_id",
		Permission: models.PermManageFinances,
		TitleKey:   "title", DateKey: "expenseDate",
		Filters: filters.Schema{
			{Key: "title", Label: "Title", Kind: filters.Text, Column: "title_ci", Op: filters.Contains},
			{Key: "category", Label: "Category", Kind: filters.Enum, Column: "category", Op: filters.In, Options: models.ExpenseCategories},
			{Key: "minAmount", Label: "Min amount", Kind: filters.Number, Column: "amount", Op: filters.Gte},
			{Key: "maxAmount", Label: "Max amount", Kind: filters.Number, Column: "amount", Op: filters.Lte},
			{Key: "dateFrom", Label: "From", Kind: filters.Date, Column: "expense_date", Op: filters.Gte},
			{Key: "dateTo", Label: "To", Kind: filters.Date, Column: "expense_date", Op: filters.Lte},
			{Key: "createdBy", Label: "Created by", Kind: filters.Text, Column: "created_by.full_name", Op: filters.Contains},
		},
	}

	Members = Kind{
		Name: "members", Path: "members", Plural: "members", Singular: "member",
		Collection: "members", GroupField: "group_id",
		Permission: models.PermManageMembers,
		TitleKey:   "fullName", DateKey: "joinedAt",
		Filters: filters.Schema{
			{Key: "fullName", Label: "Name", Kind: filters.Text, Column: "full_name_ci", Op: filters.Contains},
			{Key: "email", Label: "Email", Kind: filters.Text, Column: "email", Op: filters.Contains},
			{Key: "role", Label: "Role", Kind: filters.Enum, Column: "role", Op: filters.In, Options: models.MemberRoles},
			{Key: "status", Label: "Status", Kind: filters.Enum, Column: "status", Op: filters.In, Options: []string{"active", "inactive"}},
		},
	}

	Users = Kind{
		Name: "users", Path: "users", Plural: "users", Singular: "user",
		Collection: "users", GroupField: "group_ids",
		TitleKey: "fullName", DateKey: "createdAt",
		Filters: filters.Schema{
			{Key: "fullName", Label: "Name", Kind: filters.Text, Column: "full_name_ci", Op: filters.Contains},
			{Key: "email", Label: "Email", Kind: filters.Text, Column: "email", Op: filters.Contains},
			{Key: "status", Label: "Status", Kind: filters.Enum, Column: "status", Op: filters.In, Options: []string{"active", "disabled"}},
		},
	}
)

// All lists every kind in menu order.
var All = []Kind{Announcements, Constitutions, Minutes, Payments, Expenses, Members, Users}

// ByName finds a kind by its registry name.
func ByName(name string) (Kind, bool) {
	for _, k := range All {
		if k.Name == name {
			return k, true
		}
	}
	return Kind{}, false
}

// Names returns the registry names in menu order.
func Names() []string {
	out := make([]string, len(All))
	for i, k := range All {
		out[i] = k.Name
	}
	return out
}
