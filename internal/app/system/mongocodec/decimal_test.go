package mongocodec

import (
	"testing"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type amountDoc struct {
	Amount decimal.Decimal `bson:"amount"`
}

func TestDecimal_RoundTripsAsDecimal128(t *testing.T) {
	reg := Registry()
	in := amountDoc{Amount: decimal.RequireFromString("1234.56")}

	raw, err := bson.MarshalWithRegistry(reg, in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if typ := bson.Raw(raw).Lookup("amount").Type; typ != bson.TypeDecimal128 {
		t.Errorf("stored type = %v, want Decimal128", typ)
	}

	var out amountDoc
	if err := bson.UnmarshalWithRegistry(reg, raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Amount.Equal(in.Amount) {
		t.Errorf("amount = %s, want %s", out.Amount, in.Amount)
	}
}

func TestDecimal_DecodesOtherNumericTypes(t *testing.T) {
	reg := Registry()
	tests := []struct {
		name string
		val  any
		want string
	}{
		{"double", 12.5, "12.5"},
		{"int32", int32(7), "7"},
		{"int64", int64(5000), "5000"},
		{"string", "0.10", "0.1"},
		{"null", nil, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(bson.M{"amount": tt.val})
			if err != nil {
				t.Fatal(err)
			}
			var out amountDoc
			if err := bson.UnmarshalWithRegistry(reg, raw, &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !out.Amount.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("amount = %s, want %s", out.Amount, tt.want)
			}
		})
	}
}

func TestDecimal128Helper(t *testing.T) {
	d, err := Decimal128(decimal.NewFromInt(42))
	if err != nil {
		t.Fatal(err)
	}
	want, _ := primitive.ParseDecimal128("42")
	if d != want {
		t.Errorf("got %v, want %v", d, want)
	}
}
