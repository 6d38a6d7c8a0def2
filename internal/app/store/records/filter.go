// internal/app/store/records/filter.go
package recordstore

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/filters"
	"github.com/dalemusser/communityhub/internal/app/system/mongocodec"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Filter turns validated search params into a Mongo filter. Fields sharing
// a column (ranges) merge into one operator document. Unknown keys are
// ignored; malformed values return filters.ErrInvalid.
func Filter(schema filters.Schema, p filters.Params) (bson.M, error) {
	if err := schema.Validate(p); err != nil {
		return nil, err
	}
	out := bson.M{}
	active := p.Active()

	for _, f := range schema {
		vals := active[f.Key]
		if len(vals) == 0 {
			continue
		}
		cond, err := condition(f, vals)
		if err != nil {
			return nil, err
		}
		merge(out, f.Column, cond)
	}
	return out, nil
}

// merge adds cond to column, combining operator documents so that a
// min/max pair becomes {$gte: a, $lte: b}.
func merge(out bson.M, column string, cond any) {
	prev, ok := out[column].(bson.M)
	next, isOps := cond.(bson.M)
	if ok && isOps {
		for k, v := range next {
			prev[k] = v
		}
		return
	}
	out[column] = cond
}

func condition(f filters.Field, vals []string) (any, error) {
	v := strings.TrimSpace(vals[0])

	switch f.Kind {
	case filters.Text:
		term := v
		if strings.HasSuffix(f.Column, "_ci") {
			term = text.Fold(term)
		}
		return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}, nil

	case filters.Enum:
		in := bson.A{}
		for _, e := range vals {
			in = append(in, strings.ToLower(strings.TrimSpace(e)))
		}
		return bson.M{"$in": in}, nil

	case filters.Bool:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", filters.ErrInvalid, f.Key)
		}
		return b, nil

	case filters.Number:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", filters.ErrInvalid, f.Key)
		}
		d128, err := mongocodec.Decimal128(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %s out of range", filters.ErrInvalid, f.Key)
		}
		return bson.M{"$" + string(opOr(f.Op, filters.Eq)): d128}, nil

	case filters.Date:
		day, err := time.ParseInLocation(filters.DateLayout, v, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", filters.ErrInvalid, f.Key)
		}
		next := day.AddDate(0, 0, 1)
		switch f.Op {
		case filters.Gte:
			return bson.M{"$gte": day}, nil
		case filters.Lte:
			// inclusive of the whole end day
			return bson.M{"$lt": next}, nil
		default:
			return bson.M{"$gte": day, "$lt": next}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has unknown kind", filters.ErrInvalid, f.Key)
}

func opOr(op, def filters.Op) filters.Op {
	switch op {
	case filters.Gte, filters.Lte, filters.Eq:
		return op
	}
	return def
}
