// internal/domain/record/record.go
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Record is a JSON object that remembers the order its keys arrived in.
// Exports lay columns out in that order, so a plain map is not enough.
type Record struct {
	keys   []string
	values map[string]any
}

// New builds a record from alternating key/value pairs.
func New(kv ...any) Record {
	r := Record{values: map[string]any{}}
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		r.Set(k, kv[i+1])
	}
	return r
}

// Keys returns the keys in arrival order.
func (r Record) Keys() []string { return r.keys }

// Len is the number of keys.
func (r Record) Len() int { return len(r.keys) }

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// String returns the value under key when it is a string.
func (r Record) String(key string) string {
	s, _ := r.values[key].(string)
	return s
}

// ID returns the record's "_id".
func (r Record) ID() string { return r.String("_id") }

// Set stores value under key, appending the key if it is new.
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = map[string]any{}
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// UnmarshalJSON reads a JSON object keeping key order. Nested values decode
// the usual way (map[string]any, []any, float64, string, bool, nil); a
// nested array of objects becomes []Record so member tables keep their
// column order too.
func (r *Record) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("record: expected JSON object")
	}
	*r = Record{values: map[string]any{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: unexpected key token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		v, err := decodeValue(raw)
		if err != nil {
			return fmt.Errorf("record: %s: %w", key, err)
		}
		r.Set(key, v)
	}
	_, err = dec.Token()
	return err
}

// MarshalJSON writes keys in their stored order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		allObjects := len(items) > 0
		for _, it := range items {
			it = bytes.TrimSpace(it)
			if len(it) == 0 || it[0] != '{' {
				allObjects = false
				break
			}
		}
		if allObjects {
			out := make([]Record, len(items))
			for i, it := range items {
				if err := out[i].UnmarshalJSON(it); err != nil {
					return nil, err
				}
			}
			return out, nil
		}
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// FromValue converts any JSON-marshalable value (typically a model struct)
// into a Record, keeping the struct's field order.
func FromValue(v any) (Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Record{}, err
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// FromSlice converts each element with FromValue.
func FromSlice[T any](items []T) ([]Record, error) {
	out := make([]Record, 0, len(items))
	for i := range items {
		r, err := FromValue(items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
