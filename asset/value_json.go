package asset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// MarshalJSON writes the value as its natural JSON scalar. Times are
// RFC 3339 strings and UUIDs their canonical string form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindInt:
		return []byte(strconv.FormatInt(v.n, 10)), nil
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	case KindUUID:
		return json.Marshal(v.u.String())
	default:
		return nil, fmt.Errorf("marshal invalid property value")
	}
}

// UnmarshalJSON accepts any JSON scalar except null. Integral numbers
// become KindInt, other numbers KindFloat. Strings are never sniffed for
// timestamps or UUIDs.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case string:
		*v = String(x)
	case bool:
		*v = Bool(x)
	case json.Number:
		if n, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			*v = Int(n)
			return nil
		}
		f, err := x.Float64()
		if err != nil {
			return fmt.Errorf("property number %q: %w", x, err)
		}
		*v = Float(f)
	case nil:
		return fmt.Errorf("property value must not be null")
	default:
		return fmt.Errorf("property value must be a scalar, got %T", raw)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindInvalid:
		return nil, fmt.Errorf("marshal invalid property value")
	case KindUUID:
		return v.u.String(), nil
	case KindTime:
		return v.t.Format(time.RFC3339Nano), nil
	default:
		return v.Interface(), nil
	}
}
