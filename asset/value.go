package asset

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/constraints"
)

// Kind identifies which scalar a Value holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
	KindUUID
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindUUID:
		return "uuid"
	default:
		return "invalid"
	}
}

// Value is a property value. The zero Value is invalid and is never
// produced by the constructors below.
type Value struct {
	kind Kind
	s    string
	n    int64
	f    float64
	b    bool
	t    time.Time
	u    uuid.UUID
}

func String(s string) Value {
	return Value{kind: KindString, s: s}
}

func Int[T constraints.Signed](v T) Value {
	return Value{kind: KindInt, n: int64(v)}
}

// Uint fails for values above math.MaxInt64, which an Int cannot hold.
func Uint[T constraints.Unsigned](v T) (Value, error) {
	if uint64(v) > math.MaxInt64 {
		return Value{}, fmt.Errorf("%d overflows int64", uint64(v))
	}
	return Value{kind: KindInt, n: int64(v)}, nil
}

func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Time keeps the offset of t; the monotonic clock reading is dropped.
func Time(t time.Time) Value {
	return Value{kind: KindTime, t: t.Round(0)}
}

func UUID(u uuid.UUID) Value {
	return Value{kind: KindUUID, u: u}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) Int() (int64, bool) {
	return v.n, v.kind == KindInt
}

func (v Value) Float() (float64, bool) {
	return v.f, v.kind == KindFloat
}

func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) Time() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

func (v Value) UUID() (uuid.UUID, bool) {
	return v.u, v.kind == KindUUID
}

// Interface returns the underlying Go value: string, int64, float64, bool,
// time.Time or uuid.UUID. Returns nil for the zero Value.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.n
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	case KindUUID:
		return v.u
	default:
		return nil
	}
}

// Equal reports whether both values have the same kind and content.
// Times are compared as instants.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.n == o.n
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	case KindUUID:
		return v.u == o.u
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.n, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	case KindUUID:
		return v.u.String()
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}
