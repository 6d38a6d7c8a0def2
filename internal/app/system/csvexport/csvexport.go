// internal/app/system/csvexport/csvexport.go
package csvexport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/dalemusser/communityhub/internal/domain/record"
)

// DateTimeLayout is how recognised date values are written.
const DateTimeLayout = "2006-01-02 15:04:05"

// IDKey is never exported.
const IDKey = "_id"

// MembersKey holds the nested per-member rows of an account.
const MembersKey = "members"

// headerOverrides wins over the generic camelCase rule.
var headerOverrides = map[string]string{
	"createdAt":       "Created At",
	"updatedAt":       "Updated At",
	"dueDate":         "Due Date",
	"createdBy":       "Created By",
	"totalAmountPaid": "Total Amount Paid",
	"fullName":        "Full Name",
	"amountPaid":      "Amount Paid",
	"paidAt":          "Paid At",
	"meetingDate":     "Meeting Date",
	"expenseDate":     "Expense Date",
	"joinedAt":        "Joined At",
	"memberId":        "Member ID",
	"userId":          "User ID",
}

// Humanize turns a JSON key into a column header: "dueDate" → "Due Date".
func Humanize(key string) string {
	if h, ok := headerOverrides[key]; ok {
		return h
	}
	var b strings.Builder
	runes := []rune(strings.TrimLeft(key, "_"))
	for i, r := range runes {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
			continue
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
			continue
		case unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) && runes[i-1] != '_' && runes[i-1] != '-':
			b.WriteRune(' ')
		}
		if i > 0 && (runes[i-1] == '_' || runes[i-1] == '-') {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isDateKey reports whether a key names a date: contains "date" or ends
// in "at" (case-insensitive).
func isDateKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "date") || strings.HasSuffix(k, "at")
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts the ISO-8601 shapes the API emits.
func ParseTime(s string) (time.Time, bool) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Quote wraps s in double quotes, doubling any inside.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FormatValue renders one cell. Dates (by key and value) become
// YYYY-MM-DD HH:mm:ss in UTC; strings are always quoted; objects flatten to
// fullName, then email, then JSON.
func FormatValue(key string, v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		if isDateKey(key) {
			if t, ok := ParseTime(x); ok {
				return t.UTC().Format(DateTimeLayout)
			}
		}
		return Quote(x)
	case time.Time:
		return x.UTC().Format(DateTimeLayout)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case map[string]any:
		if s, ok := x["fullName"].(string); ok && s != "" {
			return Quote(s)
		}
		if s, ok := x["email"].(string); ok && s != "" {
			return Quote(s)
		}
		return quoteJSON(x)
	case record.Record:
		if s := x.String("fullName"); s != "" {
			return Quote(s)
		}
		if s := x.String("email"); s != "" {
			return Quote(s)
		}
		return quoteJSON(x)
	case fmt.Stringer:
		return Quote(x.String())
	default:
		return quoteJSON(x)
	}
}

func quoteJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return Quote(fmt.Sprint(v))
	}
	return Quote(string(b))
}

// Columns returns the exported keys: every key of every record in order of
// first appearance, minus _id and the skip list.
func Columns(records []record.Record, skip ...string) []string {
	drop := map[string]bool{IDKey: true}
	for _, s := range skip {
		drop[s] = true
	}
	seen := map[string]bool{}
	var cols []string
	for _, r := range records {
		for _, k := range r.Keys() {
			if drop[k] || seen[k] {
				continue
			}
			seen[k] = true
			cols = append(cols, k)
		}
	}
	return cols
}

// WriteTable writes a flat table: one header line of humanized keys, then
// one line per record.
func WriteTable(w io.Writer, records []record.Record) error {
	return writeTable(w, records, Columns(records))
}

func writeTable(w io.Writer, records []record.Record, cols []string) error {
	bw := bufio.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = Humanize(c)
	}
	if _, err := bw.WriteString(strings.Join(header, ",") + "\n"); err != nil {
		return err
	}
	cells := make([]string, len(cols))
	for _, r := range records {
		for i, c := range cols {
			v, _ := r.Get(c)
			cells[i] = FormatValue(c, v)
		}
		if _, err := bw.WriteString(strings.Join(cells, ",") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteAccount writes two stacked sections: a Field,Value block describing
// the account, a blank line, then the member table taken from its nested
// "members" array.
func WriteAccount(w io.Writer, account record.Record) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("Field,Value\n"); err != nil {
		return err
	}
	for _, k := range account.Keys() {
		if k == IDKey || k == MembersKey {
			continue
		}
		v, _ := account.Get(k)
		if _, err := bw.WriteString(Humanize(k) + "," + FormatValue(k, v) + "\n"); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	members := nestedMembers(account)
	cols := Columns(members)
	if len(cols) == 0 {
		cols = []string{"fullName", "email", "amountPaid", "paidAt"}
	}
	return writeTable(w, members, cols)
}

func nestedMembers(account record.Record) []record.Record {
	v, ok := account.Get(MembersKey)
	if !ok {
		return nil
	}
	switch m := v.(type) {
	case []record.Record:
		return m
	case []any:
		out := make([]record.Record, 0, len(m))
		for _, it := range m {
			if r, err := record.FromValue(it); err == nil {
				out = append(out, r)
			}
		}
		return out
	}
	return nil
}

// Filename builds "<base>-YYYYMMDD-HHMMSS.csv".
func Filename(base string, now time.Time) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "export"
	}
	return fmt.Sprintf("%s-%s.csv", base, now.UTC().Format("20060102-150405"))
}
