// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of records per listing page.
// The server overrides it from config with SetPageSize.
const PageSize = 10

// MaxPageSize caps configured page sizes.
const MaxPageSize = 100

var size = PageSize

// SetPageSize changes the listing page size. Out-of-range values are
// clamped to [1, MaxPageSize]. Call once at startup.
func SetPageSize(n int) {
	switch {
	case n < 1:
		size = PageSize
	case n > MaxPageSize:
		size = MaxPageSize
	default:
		size = n
	}
}

// Size returns the configured page size.
func Size() int { return size }

// ParsePage extracts the 1-based "page" query parameter. Missing or
// invalid values mean page 1.
func ParsePage(r *http.Request) int {
	s := query.Get(r, "page")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// TotalPages is ceil(count / pageSize). Zero documents means zero pages.
func TotalPages(count int64, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return int((count + int64(pageSize) - 1) / int64(pageSize))
}

// Skip is the number of documents before page.
func Skip(page, pageSize int) int64 {
	if page < 1 {
		page = 1
	}
	return int64(page-1) * int64(pageSize)
}

// ApplyToFind sorts newest first on sortField (ties broken by _id) and
// selects one page.
func ApplyToFind(find *options.FindOptions, sortField string, page, pageSize int) {
	find.SetSort(bson.D{
		{Key: sortField, Value: -1},
		{Key: "_id", Value: -1},
	}).SetSkip(Skip(page, pageSize)).SetLimit(int64(pageSize))
}
