// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims and lowercases an address for storage and lookup.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, collapses inner runs of whitespace and keeps
// its case.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Permissions lowercases each entry and drops blanks and repeats, keeping
// first-seen order.
func Permissions(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// JoinCode trims and uppercases a group join code.
func JoinCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
