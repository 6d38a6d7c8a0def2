// internal/app/system/limits/limits.go
package limits

// Request size limits. These keep a single request from exhausting memory.
const (
	// MaxJSONBody caps every JSON request body.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxBulkIDs caps the ids array of one bulk delete.
	MaxBulkIDs = 500

	// MaxExportRows caps one CSV export page.
	MaxExportRows = 1000
)
