// Package canon provides canonical JSON serialization and content
// hashing for simulation state.
//
// Every checksum in the system (decision pre-state checksums, replay
// verification, sync payload identity) is computed over the canonical
// form produced here. Two structurally equal values always serialize to
// the same bytes, so checksums are stable across processes, restarts,
// and replays.
//
// Canonical form rules:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping (< > & are written as-is)
//  3. Strings NFC normalized
//  4. No floats — monetary values are integer paise, rates are integer
//     basis points; a float anywhere in state is a bug, not a value to
//     serialize
package canon

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Value is a sealed interface over the types canonical JSON admits.
// Only Null, String, Int, Bool, Array, and Object implement it.
// There is deliberately no Float variant.
type Value interface {
	canonValue()
}

// Null is an explicit JSON null.
type Null struct{}

func (Null) canonValue() {}

// String is a JSON string value.
type String string

func (String) canonValue() {}

// Int is a JSON integer value. Always int64, never float64.
type Int int64

func (Int) canonValue() {}

// Bool is a JSON boolean value.
type Bool bool

func (Bool) canonValue() {}

// Array is an ordered list of values.
type Array []Value

func (Array) canonValue() {}

// Object maps string keys to values. Iteration order is never relied
// on; Marshal sorts keys.
type Object map[string]Value

func (Object) canonValue() {}

// Marshal produces canonical JSON for v.
//
// Accepts Value implementations plus plain string, int, int64, bool,
// []any and map[string]any for convenience. Floats and nil are
// rejected with an error.
func Marshal(v any) ([]byte, error) {
	return marshal(v)
}

// MustMarshal is Marshal but panics on error. For values whose shape
// is fixed at compile time.
func MustMarshal(v any) []byte {
	b, err := marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func marshal(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("nil is forbidden in canonical JSON")
	case Null:
		return []byte("null"), nil
	case String:
		return marshalString(string(val))
	case Int:
		return fmt.Appendf(nil, "%d", int64(val)), nil
	case Bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case Array:
		return marshalArray(val)
	case Object:
		return marshalObject(val)
	case string:
		return marshalString(val)
	case int:
		return fmt.Appendf(nil, "%d", val), nil
	case int64:
		return fmt.Appendf(nil, "%d", val), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			cv, err := toValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = cv
		}
		return marshalArray(arr)
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			cv, err := toValue(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = cv
		}
		return marshalObject(obj)
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func toValue(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			cv, err := toValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = cv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			cv, err := toValue(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = cv
		}
		return obj, nil
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden: %v", val)
	case nil:
		return nil, fmt.Errorf("nil is forbidden")
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func marshalArray(arr Array) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshal(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalObject(obj Object) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalString(k)
		if err != nil {
			return nil, fmt.Errorf("object key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshal(obj[k])
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// compareUTF16 orders strings by their UTF-16 code unit sequences, as
// RFC 8785 requires for object keys.
func compareUTF16(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	return slices.Compare(ua, ub)
}

// marshalString writes an NFC-normalized JSON string with minimal
// escaping: only quote, backslash, and control characters are escaped.
func marshalString(s string) ([]byte, error) {
	s = norm.NFC.String(s)

	var buf strings.Builder
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
	return []byte(buf.String()), nil
}
