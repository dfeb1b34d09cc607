package shape

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

func as[T any](v any, err error) (T, error) {
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

type boolVisitor struct{}

func (boolVisitor) Expecting() string              { return "a boolean" }
func (boolVisitor) VisitBool(v bool) (any, error) { return v, nil }

// Bool decodes a boolean.
func Bool(d Deserializer) (bool, error) {
	return as[bool](d.DeserializeBool(boolVisitor{}))
}

// intVisitor decodes any integer that fits in a signed integer of the
// given width.
type intVisitor struct {
	name string
	min  int64
	max  int64
}

func (iv intVisitor) Expecting() string { return iv.name }

func (iv intVisitor) VisitI64(v int64) (any, error) {
	if v < iv.min || v > iv.max {
		return nil, InvalidValueError{Unexpected: Unexpected{Kind: UnexpectedSigned, Signed: v}, Expected: iv.name}
	}
	return v, nil
}

func (iv intVisitor) VisitU64(v uint64) (any, error) {
	if v > uint64(iv.max) {
		return nil, InvalidValueError{Unexpected: Unexpected{Kind: UnexpectedUnsigned, Unsigned: v}, Expected: iv.name}
	}
	return int64(v), nil
}

var (
	i8Visitor  = intVisitor{name: "i8", min: math.MinInt8, max: math.MaxInt8}
	i16Visitor = intVisitor{name: "i16", min: math.MinInt16, max: math.MaxInt16}
	i32Visitor = intVisitor{name: "i32", min: math.MinInt32, max: math.MaxInt32}
	i64Visitor = intVisitor{name: "i64", min: math.MinInt64, max: math.MaxInt64}
)

func Int64(d Deserializer) (int64, error) {
	return as[int64](d.DeserializeI64(i64Visitor))
}

func Int32(d Deserializer) (int32, error) {
	v, err := as[int64](d.DeserializeI32(i32Visitor))
	return int32(v), err
}

func Int16(d Deserializer) (int16, error) {
	v, err := as[int64](d.DeserializeI16(i16Visitor))
	return int16(v), err
}

func Int8(d Deserializer) (int8, error) {
	v, err := as[int64](d.DeserializeI8(i8Visitor))
	return int8(v), err
}

func Int(d Deserializer) (int, error) {
	iv := intVisitor{name: "int", min: math.MinInt, max: math.MaxInt}
	v, err := as[int64](d.DeserializeI64(iv))
	return int(v), err
}

// uintVisitor decodes any non-negative integer up to max.
type uintVisitor struct {
	name string
	max  uint64
}

func (uv uintVisitor) Expecting() string { return uv.name }

func (uv uintVisitor) VisitU64(v uint64) (any, error) {
	if v > uv.max {
		return nil, InvalidValueError{Unexpected: Unexpected{Kind: UnexpectedUnsigned, Unsigned: v}, Expected: uv.name}
	}
	return v, nil
}

func (uv uintVisitor) VisitI64(v int64) (any, error) {
	if v < 0 || uint64(v) > uv.max {
		return nil, InvalidValueError{Unexpected: Unexpected{Kind: UnexpectedSigned, Signed: v}, Expected: uv.name}
	}
	return uint64(v), nil
}

var (
	u8Visitor  = uintVisitor{name: "u8", max: math.MaxUint8}
	u16Visitor = uintVisitor{name: "u16", max: math.MaxUint16}
	u32Visitor = uintVisitor{name: "u32", max: math.MaxUint32}
	u64Visitor = uintVisitor{name: "u64", max: math.MaxUint64}
)

func Uint64(d Deserializer) (uint64, error) {
	return as[uint64](d.DeserializeU64(u64Visitor))
}

func Uint32(d Deserializer) (uint32, error) {
	v, err := as[uint64](d.DeserializeU32(u32Visitor))
	return uint32(v), err
}

func Uint16(d Deserializer) (uint16, error) {
	v, err := as[uint64](d.DeserializeU16(u16Visitor))
	return uint16(v), err
}

func Uint8(d Deserializer) (uint8, error) {
	v, err := as[uint64](d.DeserializeU8(u8Visitor))
	return uint8(v), err
}

type floatVisitor struct {
	name string
}

func (fv floatVisitor) Expecting() string                { return fv.name }
func (fv floatVisitor) VisitF64(v float64) (any, error) { return v, nil }
func (fv floatVisitor) VisitI64(v int64) (any, error)   { return float64(v), nil }
func (fv floatVisitor) VisitU64(v uint64) (any, error)  { return float64(v), nil }

func Float64(d Deserializer) (float64, error) {
	return as[float64](d.DeserializeF64(floatVisitor{name: "f64"}))
}

func Float32(d Deserializer) (float32, error) {
	v, err := as[float64](d.DeserializeF32(floatVisitor{name: "f32"}))
	return float32(v), err
}

type charVisitor struct{}

func (charVisitor) Expecting() string              { return "a character" }
func (charVisitor) VisitChar(v rune) (any, error) { return v, nil }

func (charVisitor) VisitStr(v string) (any, error) {
	r, n := utf8.DecodeRuneInString(v)
	if n == 0 || n != len(v) {
		return nil, InvalidValueError{Unexpected: Unexpected{Kind: UnexpectedStr, Str: strings.Clone(v)}, Expected: "a character"}
	}
	return r, nil
}

// Char decodes a single character, accepting a one-rune string.
func Char(d Deserializer) (rune, error) {
	return as[rune](d.DeserializeChar(charVisitor{}))
}

// stringVisitor copies transient and borrowed input so the result never
// aliases the source.
type stringVisitor struct{}

func (stringVisitor) Expecting() string                 { return "a string" }
func (stringVisitor) VisitStr(v string) (any, error)    { return strings.Clone(v), nil }
func (stringVisitor) VisitString(v string) (any, error) { return v, nil }

func (stringVisitor) VisitBytes(v []byte) (any, error) {
	if !utf8.Valid(v) {
		return nil, InvalidValueError{Unexpected: Unexpected{Kind: UnexpectedBytes, Bytes: bytes.Clone(v)}, Expected: "a string"}
	}
	return string(v), nil
}

// String decodes a string. Byte input is accepted when it is valid UTF-8.
func String(d Deserializer) (string, error) {
	return as[string](d.DeserializeString(stringVisitor{}))
}

type bytesVisitor struct{}

func (bytesVisitor) Expecting() string                 { return "a byte array" }
func (bytesVisitor) VisitBytes(v []byte) (any, error)  { return bytes.Clone(v), nil }
func (bytesVisitor) VisitByteBuf(v []byte) (any, error) { return v, nil }
func (bytesVisitor) VisitStr(v string) (any, error)    { return []byte(v), nil }

func (bytesVisitor) VisitSeq(seq SeqAccess) (any, error) {
	out := make([]byte, 0, Cautious(seq.SizeHint()))
	for {
		b, ok, err := seq.NextElement(SeedFunc(func(d Deserializer) (any, error) {
			return Uint8(d)
		}))
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, b.(uint8))
	}
}

// Bytes decodes a byte slice. Strings and sequences of small integers are
// accepted as well.
func Bytes(d Deserializer) ([]byte, error) {
	return as[[]byte](d.DeserializeByteBuf(bytesVisitor{}))
}

// Unit decodes a unit value (null in most formats).
func Unit(d Deserializer) error {
	_, err := d.DeserializeUnit(unitVisitor{})
	return err
}

// Ignore skips one value.
func Ignore(d Deserializer) error {
	_, err := d.DeserializeIgnoredAny(IgnoredAny{})
	return err
}

type optionVisitor[T any] struct {
	elem func(Deserializer) (T, error)
}

func (optionVisitor[T]) Expecting() string { return "option" }

func (optionVisitor[T]) VisitNone() (any, error) { return (*T)(nil), nil }
func (optionVisitor[T]) VisitUnit() (any, error) { return (*T)(nil), nil }

func (ov optionVisitor[T]) VisitSome(d Deserializer) (any, error) {
	v, err := ov.elem(d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// VisitUntaggedOption treats a failed element decode as absent.
func (ov optionVisitor[T]) VisitUntaggedOption(d Deserializer) (any, error) {
	v, err := ov.elem(d)
	if err != nil {
		return (*T)(nil), nil
	}
	return &v, nil
}

// Option decodes an optional value with elem. An absent value is nil.
func Option[T any](d Deserializer, elem func(Deserializer) (T, error)) (*T, error) {
	return as[*T](d.DeserializeOption(optionVisitor[T]{elem: elem}))
}

type sliceVisitor[T any] struct {
	elem func(Deserializer) (T, error)
}

func (sliceVisitor[T]) Expecting() string { return "a sequence" }

func (sv sliceVisitor[T]) VisitSeq(seq SeqAccess) (any, error) {
	out := make([]T, 0, Cautious(seq.SizeHint()))
	seed := SeedFunc(func(d Deserializer) (any, error) {
		return sv.elem(d)
	})
	for {
		v, ok, err := seq.NextElement(seed)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v.(T))
	}
}

// Slice decodes a sequence, each element with elem.
func Slice[T any](d Deserializer, elem func(Deserializer) (T, error)) ([]T, error) {
	return as[[]T](d.DeserializeSeq(sliceVisitor[T]{elem: elem}))
}

type mapVisitor[T any] struct {
	elem func(Deserializer) (T, error)
}

func (mapVisitor[T]) Expecting() string { return "a map" }

func (mv mapVisitor[T]) VisitMap(m MapAccess) (any, error) {
	out := make(map[string]T, Cautious(m.SizeHint()))
	keySeed := SeedFunc(func(d Deserializer) (any, error) {
		return String(d)
	})
	valueSeed := SeedFunc(func(d Deserializer) (any, error) {
		return mv.elem(d)
	})
	for {
		k, ok, err := m.NextKey(keySeed)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		v, err := m.NextValue(valueSeed)
		if err != nil {
			return nil, err
		}
		out[k.(string)] = v.(T)
	}
}

// Map decodes a map with string keys, each value with elem. A repeated key
// keeps its last value.
func Map[T any](d Deserializer, elem func(Deserializer) (T, error)) (map[string]T, error) {
	return as[map[string]T](d.DeserializeMap(mapVisitor[T]{elem: elem}))
}

// valueVisitor builds a plain Go tree: nil, bool, int64, uint64, float64,
// string, []byte, []any and map[string]any.
type valueVisitor struct{}

var valueSeed Seed = SeedFunc(func(d Deserializer) (any, error) {
	return d.DeserializeAny(valueVisitor{})
})

func (valueVisitor) Expecting() string                   { return "any value" }
func (valueVisitor) VisitBool(v bool) (any, error)       { return v, nil }
func (valueVisitor) VisitI64(v int64) (any, error)       { return v, nil }
func (valueVisitor) VisitU64(v uint64) (any, error)      { return v, nil }
func (valueVisitor) VisitF64(v float64) (any, error)     { return v, nil }
func (valueVisitor) VisitStr(v string) (any, error)      { return strings.Clone(v), nil }
func (valueVisitor) VisitString(v string) (any, error)   { return v, nil }
func (valueVisitor) VisitBytes(v []byte) (any, error)    { return bytes.Clone(v), nil }
func (valueVisitor) VisitByteBuf(v []byte) (any, error)  { return v, nil }
func (valueVisitor) VisitNone() (any, error)             { return nil, nil }
func (valueVisitor) VisitUnit() (any, error)             { return nil, nil }
func (valueVisitor) VisitSome(d Deserializer) (any, error) {
	return d.DeserializeAny(valueVisitor{})
}

func (valueVisitor) VisitNewtypeStruct(d Deserializer) (any, error) {
	return d.DeserializeAny(valueVisitor{})
}

func (valueVisitor) VisitSeq(seq SeqAccess) (any, error) {
	out := make([]any, 0, Cautious(seq.SizeHint()))
	for {
		v, ok, err := seq.NextElement(valueSeed)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// VisitMap formats non-string keys with fmt so they can index the result.
func (valueVisitor) VisitMap(m MapAccess) (any, error) {
	out := make(map[string]any, Cautious(m.SizeHint()))
	for {
		k, ok, err := m.NextKey(valueSeed)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		v, err := m.NextValue(valueSeed)
		if err != nil {
			return nil, err
		}
		key, isStr := k.(string)
		if !isStr {
			key = fmt.Sprint(k)
		}
		out[key] = v
	}
}

// Value decodes any value into a plain Go tree.
func Value(d Deserializer) (any, error) {
	return d.DeserializeAny(valueVisitor{})
}
