// internal/app/system/filters/filters.go
package filters

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FieldKind is the input type of a filter field.
type FieldKind int

const (
	Text FieldKind = iota
	Enum
	Date
	Number
	Bool
)

func (k FieldKind) String() string {
	switch k {
	case Text:
		return "text"
	case Enum:
		return "enum"
	case Date:
		return "date"
	case Number:
		return "number"
	case Bool:
		return "bool"
	}
	return "unknown"
}

// Op says how a field's value is compared against its column.
type Op string

const (
	Contains Op = "contains" // case-insensitive substring
	In       Op = "in"       // any of the enum values
	Eq       Op = "eq"
	Gte      Op = "gte"
	Lte      Op = "lte"
	OnDay    Op = "day" // same calendar day (UTC)
)

// DateLayout is the wire format of Date fields.
const DateLayout = "2006-01-02"

// Field is one input of a filter form. Ranges are two fields sharing a
// Column, one with Gte and one with Lte.
type Field struct {
	Key     string // query-string name
	Label   string
	Kind    FieldKind
	Column  string // storage column the server compares against
	Op      Op
	Options []string // allowed values for Enum fields
}

// Schema is the fixed set of filter fields of one resource kind.
type Schema []Field

// Field looks a field up by its query-string key.
func (s Schema) Field(key string) (Field, bool) {
	for _, f := range s {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Keys returns the field keys in schema order.
func (s Schema) Keys() []string {
	out := make([]string, 0, len(s))
	for _, f := range s {
		out = append(out, f.Key)
	}
	return out
}

// Params maps a field key to its value(s). Enum fields may hold several
// values; every other kind holds at most one. An empty string is a valid
// "cleared" value and is never serialized.
type Params map[string][]string

// Get returns the first value of key, or "".
func (p Params) Get(key string) string {
	if v := p[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Values returns all values of key.
func (p Params) Values(key string) []string {
	return p[key]
}

// Set replaces the value of key.
func (p Params) Set(key, value string) {
	p[key] = []string{value}
}

// Toggle adds value to key's set if absent and removes it if present.
// Toggling the same value twice leaves p as it was.
func (p Params) Toggle(key, value string) {
	cur := p[key]
	for i, v := range cur {
		if v == value {
			next := append(append([]string{}, cur[:i]...), cur[i+1:]...)
			if len(next) == 0 {
				delete(p, key)
				return
			}
			p[key] = next
			return
		}
	}
	p[key] = append(append([]string{}, cur...), value)
}

// Has reports whether value is among key's values.
func (p Params) Has(key, value string) bool {
	for _, v := range p[key] {
		if v == value {
			return true
		}
	}
	return false
}

// ClearDate resets a date field to the empty string (not absent).
func (p Params) ClearDate(key string) {
	p[key] = []string{""}
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Active returns a copy holding only non-empty values, dropping keys that
// end up with none.
func (p Params) Active() Params {
	out := Params{}
	for k, vs := range p {
		for _, v := range vs {
			if strings.TrimSpace(v) != "" {
				out[k] = append(out[k], v)
			}
		}
	}
	return out
}

// IsEmpty reports whether no field holds a non-empty value.
func (p Params) IsEmpty() bool {
	return len(p.Active()) == 0
}

// Values builds query values from p: only schema keys, only non-empty
// values, enum values in the order they were toggled on.
func (s Schema) Values(p Params) url.Values {
	q := url.Values{}
	for _, f := range s {
		for _, v := range p[f.Key] {
			if strings.TrimSpace(v) == "" {
				continue
			}
			q.Add(f.Key, v)
		}
	}
	return q
}

// Encode serializes p to a query string (keys sorted).
func (s Schema) Encode(p Params) string {
	return s.Values(p).Encode()
}

// FromValues keeps the schema keys of q and drops empty values.
func (s Schema) FromValues(q url.Values) Params {
	p := Params{}
	for _, f := range s {
		for _, v := range q[f.Key] {
			if strings.TrimSpace(v) == "" {
				continue
			}
			p[f.Key] = append(p[f.Key], v)
		}
	}
	return p
}

// Decode parses a query string produced by Encode.
func (s Schema) Decode(raw string) (Params, error) {
	q, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, fmt.Errorf("decode filters: %w", err)
	}
	return s.FromValues(q), nil
}

// ErrInvalid wraps every validation failure from Validate.
var ErrInvalid = errors.New("invalid filter")

// Validate checks each value against its field kind. Ranges are not
// cross-checked: min greater than max simply matches nothing.
func (s Schema) Validate(p Params) error {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		f, ok := s.Field(key)
		if !ok {
			continue
		}
		vals := p.Active()[key]
		if f.Kind != Enum && len(vals) > 1 {
			return fmt.Errorf("%w: %s takes a single value", ErrInvalid, key)
		}
		for _, v := range vals {
			if err := f.check(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f Field) check(v string) error {
	switch f.Kind {
	case Date:
		if _, err := time.Parse(DateLayout, v); err != nil {
			return fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalid, f.Key)
		}
	case Number:
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("%w: %s must be a number", ErrInvalid, f.Key)
		}
	case Bool:
		if v != "true" && v != "false" {
			return fmt.Errorf("%w: %s must be true or false", ErrInvalid, f.Key)
		}
	case Enum:
		// stored values are lower case; the query lowercases too
		if len(f.Options) == 0 {
			return nil
		}
		for _, o := range f.Options {
			if strings.EqualFold(o, strings.TrimSpace(v)) {
				return nil
			}
		}
		return fmt.Errorf("%w: %s has no option %q", ErrInvalid, f.Key, v)
	}
	return nil
}
