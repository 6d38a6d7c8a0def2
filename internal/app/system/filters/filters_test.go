package filters

import (
	"errors"
	"reflect"
	"testing"
)

func testSchema() Schema {
	return Schema{
		{Key: "title", Kind: Text, Column: "title_ci", Op: Contains},
		{Key: "type", Kind: Enum, Column: "type", Op: In, Options: []string{"dues", "levy", "fine"}},
		{Key: "dueDate", Kind: Date, Column: "due_date", Op: OnDay},
		{Key: "minAmount", Kind: Number, Column: "amount", Op: Gte},
		{Key: "maxAmount", Kind: Number, Column: "amount", Op: Lte},
		{Key: "published", Kind: Bool, Column: "published", Op: Eq},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := testSchema()

	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{
			name: "empty",
			in:   Params{},
			want: Params{},
		},
		{
			name: "single text",
			in:   Params{"title": {"Annual dues"}},
			want: Params{"title": {"Annual dues"}},
		},
		{
			name: "enum set keeps order",
			in:   Params{"type": {"levy", "dues"}},
			want: Params{"type": {"levy", "dues"}},
		},
		{
			name: "cleared date dropped",
			in:   Params{"dueDate": {""}, "title": {"x"}},
			want: Params{"title": {"x"}},
		},
		{
			name: "special characters",
			in:   Params{"title": {`a&b=c "quoted" 100%`}, "published": {"true"}},
			want: Params{"title": {`a&b=c "quoted" 100%`}, "published": {"true"}},
		},
		{
			name: "unknown key ignored",
			in:   Params{"bogus": {"1"}, "minAmount": {"10"}, "maxAmount": {"5"}},
			want: Params{"minAmount": {"10"}, "maxAmount": {"5"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := s.Encode(tt.in)
			got, err := s.Decode(raw)
			if err != nil {
				t.Fatalf("Decode(%q): %v", raw, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("round trip of %v = %v, want %v (raw %q)", tt.in, got, tt.want, raw)
			}
			for k, vs := range got {
				seen := map[string]int{}
				for _, v := range vs {
					seen[v]++
					if seen[v] > 1 {
						t.Errorf("%s=%s appears more than once", k, v)
					}
				}
			}
		})
	}
}

func TestEncode_SortedAndSkipsEmpty(t *testing.T) {
	s := testSchema()
	p := Params{"title": {"x"}, "maxAmount": {"9"}, "dueDate": {""}}
	if got, want := s.Encode(p), "maxAmount=9&title=x"; got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestToggle_Idempotent(t *testing.T) {
	tests := []struct {
		name  string
		start Params
		value string
	}{
		{"from empty", Params{}, "dues"},
		{"with other values", Params{"type": {"levy"}}, "fine"},
		{"value already present", Params{"type": {"dues", "levy"}}, "dues"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.start.Clone()
			p.Toggle("type", tt.value)
			p.Toggle("type", tt.value)
			if !reflect.DeepEqual(asSets(p), asSets(tt.start)) {
				t.Errorf("after double toggle got %v, want %v", p, tt.start)
			}
		})
	}
}

// asSets compares enum values without regard to order.
func asSets(p Params) map[string]map[string]bool {
	out := map[string]map[string]bool{}
	for k, vs := range p.Active() {
		out[k] = map[string]bool{}
		for _, v := range vs {
			out[k][v] = true
		}
	}
	return out
}

func TestToggle_AddsAndRemoves(t *testing.T) {
	p := Params{}
	p.Toggle("type", "dues")
	if !p.Has("type", "dues") {
		t.Fatal("expected dues after first toggle")
	}
	p.Toggle("type", "dues")
	if p.Has("type", "dues") {
		t.Fatal("expected dues removed after second toggle")
	}
	if _, ok := p["type"]; ok {
		t.Error("expected key dropped when its set becomes empty")
	}
}

func TestClearDate_SetsEmptyString(t *testing.T) {
	p := Params{"dueDate": {"2024-01-01"}}
	p.ClearDate("dueDate")
	v, ok := p["dueDate"]
	if !ok {
		t.Fatal("expected dueDate key to remain")
	}
	if len(v) != 1 || v[0] != "" {
		t.Errorf("dueDate = %v, want [\"\"]", v)
	}
	if !p.IsEmpty() {
		t.Error("cleared params should be empty")
	}
}

func TestValidate(t *testing.T) {
	s := testSchema()

	tests := []struct {
		name    string
		p       Params
		wantErr bool
	}{
		{"ok", Params{"title": {"x"}, "dueDate": {"2024-02-29"}, "minAmount": {"1.5"}, "published": {"false"}}, false},
		{"min above max allowed", Params{"minAmount": {"100"}, "maxAmount": {"1"}}, false},
		{"cleared date ok", Params{"dueDate": {""}}, false},
		{"bad date", Params{"dueDate": {"01/02/2024"}}, true},
		{"bad number", Params{"minAmount": {"ten"}}, true},
		{"bad bool", Params{"published": {"yes"}}, true},
		{"unknown option", Params{"type": {"gift"}}, true},
		{"option case ignored", Params{"type": {"Dues", "LEVY"}}, false},
		{"two texts", Params{"title": {"a", "b"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
