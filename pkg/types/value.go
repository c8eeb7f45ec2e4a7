package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies which primitive a Value holds.
type Kind string

// Supported kinds. The zero Kind marks an unsupported value.
const (
	KindInvalid   Kind = ""
	KindBool      Kind = "bool"
	KindInt       Kind = "int"
	KindLong      Kind = "long"
	KindFloat     Kind = "float"
	KindString    Kind = "string"
	KindStringSet Kind = "string_set"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindBool, KindInt, KindLong, KindFloat, KindString, KindStringSet}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindBool, KindInt, KindLong, KindFloat, KindString, KindStringSet:
		return true
	}
	return false
}

// ParseKind converts a kind name to a Kind. Returns ErrUnsupportedKind for
// anything outside Kinds.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if !k.Valid() {
		return KindInvalid, fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
	}
	return k, nil
}

// Value is an immutable tagged union over the supported kinds. The zero
// Value is unsupported and is rejected by every write path.
type Value struct {
	kind Kind
	b    bool
	n    int64
	f    float32
	s    string
	set  []string
}

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns a 32-bit integer Value.
func Int(n int32) Value { return Value{kind: KindInt, n: int64(n)} }

// Long returns a 64-bit integer Value. Timestamps are stored as Long
// milliseconds since the epoch.
func Long(n int64) Value { return Value{kind: KindLong, n: n} }

// Float returns a floating point Value.
func Float(f float32) Value { return Value{kind: KindFloat, f: f} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// StringSet returns a set Value. Order is not significant: members are
// de-duplicated and kept sorted.
func StringSet(members ...string) Value {
	set := slices.Clone(members)
	slices.Sort(set)
	set = slices.Compact(set)
	if set == nil {
		set = []string{}
	}
	return Value{kind: KindStringSet, set: set}
}

// Kind returns the kind tag.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a supported kind.
func (v Value) IsValid() bool { return v.kind.Valid() }

// AsBool returns the payload and whether v is a bool. The As accessors
// report false for any other kind.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the payload and whether v is a 32-bit integer.
func (v Value) AsInt() (int32, bool) { return int32(v.n), v.kind == KindInt }

// AsLong returns the payload and whether v is a 64-bit integer.
func (v Value) AsLong() (int64, bool) { return v.n, v.kind == KindLong }

// AsFloat returns the payload and whether v is a float.
func (v Value) AsFloat() (float32, bool) { return v.f, v.kind == KindFloat }

// AsString returns the payload and whether v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsStringSet returns a copy of the set members in sorted order.
func (v Value) AsStringSet() ([]string, bool) {
	if v.kind != KindStringSet {
		return nil, false
	}
	return slices.Clone(v.set), true
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt, KindLong:
		return v.n == o.n
	case KindFloat:
		return v.f == o.f || (v.f != v.f && o.f != o.f)
	case KindString:
		return v.s == o.s
	case KindStringSet:
		return slices.Equal(v.set, o.set)
	}
	return true
}

// String renders the payload for display. Sets are comma separated.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt, KindLong:
		return strconv.FormatInt(v.n, 10)
	case KindFloat:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case KindString:
		return v.s
	case KindStringSet:
		return strings.Join(v.set, ",")
	}
	return "<unsupported>"
}

// ParseValue converts text to a Value of the given kind. Sets are comma
// separated; surrounding whitespace of members is trimmed.
func ParseValue(kind Kind, text string) (Value, error) {
	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("parsing bool %q: %w", text, err)
		}
		return Bool(b), nil
	case KindInt:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("parsing int %q: %w", text, err)
		}
		return Int(int32(n)), nil
	case KindLong:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parsing long %q: %w", text, err)
		}
		return Long(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return Value{}, fmt.Errorf("parsing float %q: %w", text, err)
		}
		return Float(float32(f)), nil
	case KindString:
		return String(text), nil
	case KindStringSet:
		if strings.TrimSpace(text) == "" {
			return StringSet(), nil
		}
		parts := strings.Split(text, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return StringSet(parts...), nil
	}
	return Value{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
}

// MarshalPayload encodes the bare payload (no kind tag) as JSON. Floats
// that JSON numbers cannot carry are written as the strings "NaN", "+Inf"
// and "-Inf".
func (v Value) MarshalPayload() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindInt, KindLong:
		return json.Marshal(v.n)
	case KindFloat:
		return marshalFloat(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindStringSet:
		return json.Marshal(v.set)
	}
	return nil, ErrUnsupportedKind
}

// UnmarshalPayload decodes a bare JSON payload stored under a known kind.
func UnmarshalPayload(kind Kind, data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Value{}, fmt.Errorf("empty %s payload", kind)
	}
	switch kind {
	case KindBool:
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case KindInt:
		var n int32
		if err := json.Unmarshal(data, &n); err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case KindLong:
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return Value{}, err
		}
		return Long(n), nil
	case KindFloat:
		f, err := unmarshalFloat(data)
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case KindString:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Value{}, err
		}
		return String(s), nil
	case KindStringSet:
		var set []string
		if err := json.Unmarshal(data, &set); err != nil {
			return Value{}, err
		}
		return StringSet(set...), nil
	}
	return Value{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
}

func marshalFloat(f float32) ([]byte, error) {
	switch x := float64(f); {
	case math.IsNaN(x):
		return []byte(`"NaN"`), nil
	case math.IsInf(x, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(x, -1):
		return []byte(`"-Inf"`), nil
	}
	return []byte(strconv.FormatFloat(float64(f), 'g', -1, 32)), nil
}

// unmarshalFloat accepts a JSON number or one of the quoted non-finite
// spellings written by marshalFloat.
func unmarshalFloat(data []byte) (float32, error) {
	text := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(s, 32)
		if err != nil || !(math.IsNaN(f) || math.IsInf(f, 0)) {
			return 0, fmt.Errorf("invalid float payload %s", data)
		}
		return float32(f), nil
	}
	f, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid float payload %s: %w", data, err)
	}
	return float32(f), nil
}

type taggedValue struct {
	Kind  Kind            `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON emits {"kind":...,"value":...}. Unsupported values encode as
// null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsValid() {
		return []byte("null"), nil
	}
	payload, err := v.MarshalPayload()
	if err != nil {
		return nil, err
	}
	return json.Marshal(taggedValue{Kind: v.kind, Value: payload})
}

// UnmarshalJSON accepts the tagged form written by MarshalJSON as well as
// bare JSON scalars and string arrays produced by other tools. Input that
// maps to no supported kind leaves an unsupported Value rather than failing,
// so one bad entry does not reject a whole document.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var tv taggedValue
		if err := json.Unmarshal(data, &tv); err != nil {
			*v = Value{}
			return nil
		}
		parsed, err := UnmarshalPayload(tv.Kind, tv.Value)
		if err != nil {
			*v = Value{}
			return nil
		}
		*v = parsed
		return nil
	}
	*v = inferValue(data)
	return nil
}

// inferValue maps a bare JSON value to the narrowest fitting kind.
func inferValue(data []byte) Value {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}
	}
	switch x := raw.(type) {
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			if n >= math.MinInt32 && n <= math.MaxInt32 {
				return Int(int32(n))
			}
			return Long(n)
		}
		if f, err := x.Float64(); err == nil {
			return Float(float32(f))
		}
	case []any:
		members := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return Value{}
			}
			members = append(members, s)
		}
		return StringSet(members...)
	}
	return Value{}
}
