package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// Record is an ordered field -> scalar mapping that belongs to a Schema.
// Values are stored in schema column order: string for Text and Date,
// int64 for Number, float64 for Money.
type Record struct {
	schema *Schema
	values []any
}

// Dataset is the ordered record sequence for one hierarchy key. It is replaced
// wholesale on reload and never mutated in place.
type Dataset []Record

func (r Record) Schema() *Schema {
	return r.schema
}

// Value returns the typed value of a field. It panics on a field that is not part
// of the schema since that can only be a programming error.
func (r Record) Value(field string) any {
	idx := r.index(field)
	return r.values[idx]
}

// At returns the typed value at a column position.
func (r Record) At(i int) any {
	return r.values[i]
}

// ID returns the display form of the schema's identifier field.
func (r Record) ID() string {
	if r.schema == nil {
		return ""
	}
	return r.String(r.schema.IDField)
}

// String returns the display form of a field. Money is rendered with two decimals.
func (r Record) String(field string) string {
	idx := r.index(field)
	return FormatValue(r.schema.Fields[idx].Kind, r.values[idx])
}

// Strings returns the display form of every field in column order.
func (r Record) Strings() []string {
	out := make([]string, len(r.values))
	for i, v := range r.values {
		out[i] = FormatValue(r.schema.Fields[i].Kind, v)
	}
	return out
}

// Map returns a copy of the record keyed by field name.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, f := range r.schema.Fields {
		m[f.Name] = r.values[i]
	}
	return m
}

// MarshalJSON keeps the schema field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.schema.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r Record) index(field string) int {
	if r.schema == nil {
		panic("record: zero Record has no schema")
	}
	idx := r.schema.IndexOf(field)
	if idx < 0 {
		panic(fmt.Sprintf("record: %s has no field %q", r.schema.Name, field))
	}
	return idx
}

// FormatValue renders a typed value the way it is displayed and matched.
func FormatValue(kind Kind, v any) string {
	switch kind {
	case Number:
		if n, ok := v.(int64); ok {
			return strconv.FormatInt(n, 10)
		}
	case Money:
		if f, ok := v.(float64); ok {
			return formatMoney(f)
		}
	case Text, Date:
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fmt.Sprint(v)
}

var errWrongType = errors.New("unexpected value type")

func coerce(kind Kind, v any) (any, error) {
	switch kind {
	case Text, Date:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: want string, got %T", errWrongType, v)
		}
		return s, nil
	case Number:
		return toInt(v)
	case Money:
		return toFloat(v)
	default:
		return nil, fmt.Errorf("unsupported kind %s", kind)
	}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", errWrongType, n.String())
		}
		return floatToInt(f)
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return floatToInt(n)
	default:
		return 0, fmt.Errorf("%w: want number, got %T", errWrongType, v)
	}
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %v is not an integer", errWrongType, f)
	}
	if f >= 1<<63 || f < -(1<<63) {
		return 0, fmt.Errorf("%w: %v overflows int64", errWrongType, f)
	}
	return int64(f), nil
}

// formatMoney renders f with two decimals, rounding exact ties away from zero.
// The float is expanded to its exact decimal value first so that values such
// as 1.005, which sit just below the tie, still round down.
func formatMoney(f float64) string {
	if f == 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'f', 2, 64)
	}
	frac, exp := math.Frexp(f)
	mant := big.NewInt(int64(frac * (1 << 53)))
	exp -= 53
	if exp >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(exp)), 0).StringFixed(2)
	}
	// mant * 2^exp == mant * 5^-exp * 10^exp
	pow := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(-exp)), nil)
	return decimal.NewFromBigInt(mant.Mul(mant, pow), int32(exp)).StringFixed(2)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", errWrongType, n.String())
		}
		return f, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: want number, got %T", errWrongType, v)
	}
}
