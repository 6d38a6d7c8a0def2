package record

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestUnmarshal_KeepsKeyOrder(t *testing.T) {
	var r Record
	in := `{"zeta":1,"alpha":"a","_id":"x1","mid":{"fullName":"Jane"}}`
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"zeta", "alpha", "_id", "mid"}
	if !reflect.DeepEqual(r.Keys(), want) {
		t.Errorf("keys = %v, want %v", r.Keys(), want)
	}
	if r.ID() != "x1" {
		t.Errorf("ID = %q, want x1", r.ID())
	}
	if n, _ := r.Get("zeta"); n != json.Number("1") {
		t.Errorf("zeta = %#v, want json.Number(1)", n)
	}
	if m, ok := r.Get("mid"); !ok {
		t.Error("mid missing")
	} else if mm, ok := m.(map[string]any); !ok || mm["fullName"] != "Jane" {
		t.Errorf("mid = %#v", m)
	}
}

func TestUnmarshal_NestedObjectArray(t *testing.T) {
	var r Record
	in := `{"title":"Dues","members":[{"fullName":"A","amountPaid":5},{"fullName":"B","amountPaid":7}],"tags":["x","y"]}`
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	v, _ := r.Get("members")
	members, ok := v.([]Record)
	if !ok {
		t.Fatalf("members = %T, want []Record", v)
	}
	if len(members) != 2 || members[1].String("fullName") != "B" {
		t.Errorf("members = %+v", members)
	}
	if got := members[0].Keys(); !reflect.DeepEqual(got, []string{"fullName", "amountPaid"}) {
		t.Errorf("member keys = %v", got)
	}
	tags, _ := r.Get("tags")
	if _, ok := tags.([]any); !ok {
		t.Errorf("tags = %T, want []any", tags)
	}
}

func TestUnmarshal_RejectsNonObject(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`[1,2]`), &r); err == nil {
		t.Error("expected error for array input")
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	r := New("b", "two", "a", 1, "c", true)
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(out), `{"b":"two","a":1,"c":true}`; got != want {
		t.Errorf("marshal = %s, want %s", got, want)
	}
}

func TestFromValue_StructOrder(t *testing.T) {
	type row struct {
		FullName string `json:"fullName"`
		Amount   int    `json:"amount"`
		ID       string `json:"_id"`
	}
	r, err := FromValue(row{FullName: "Jane", Amount: 3, ID: "1"})
	if err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	if !reflect.DeepEqual(r.Keys(), []string{"fullName", "amount", "_id"}) {
		t.Errorf("keys = %v", r.Keys())
	}

	rs, err := FromSlice([]row{{FullName: "A"}, {FullName: "B"}})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if len(rs) != 2 || rs[1].String("fullName") != "B" {
		t.Errorf("FromSlice = %+v", rs)
	}
}
