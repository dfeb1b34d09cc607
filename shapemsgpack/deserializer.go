// Package shapemsgpack reads MessagePack through the shape protocol.
package shapemsgpack

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dhoelle/shape"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

const DefaultMaxDepth = 128

type Options struct {
	// MaxDepth bounds the nesting of arrays and maps. If unset, defaults to
	// DefaultMaxDepth.
	MaxDepth int
}

func (o *Options) maxDepth() int {
	if o == nil || o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Deserializer reads one MessagePack value. Integers keep the width they
// were encoded with, strings and binaries are delivered owned, and
// extension values are delivered as their raw payload bytes.
type Deserializer struct {
	shape.ForwardToAny

	dec      *msgpack.Decoder
	depth    int
	maxDepth int
}

func NewDeserializer(r io.Reader, opts *Options) *Deserializer {
	d := &Deserializer{dec: msgpack.NewDecoder(r), maxDepth: opts.maxDepth()}
	d.ForwardToAny = shape.ForwardToAny{AnyDeserializer: d}
	return d
}

// Unmarshal decodes a single MessagePack value from data with decode.
func Unmarshal[T any](data []byte, decode func(shape.Deserializer) (T, error), opts *Options) (T, error) {
	r := bytes.NewReader(data)
	v, err := decode(NewDeserializer(r, opts))
	if err != nil {
		var zero T
		return zero, err
	}
	if r.Len() > 0 {
		var zero T
		return zero, fmt.Errorf("unexpected %d bytes after top-level value", r.Len())
	}
	return v, nil
}

func (d *Deserializer) Mode() shape.Mode { return shape.Compact }

func (d *Deserializer) DeserializeAny(v shape.Visitor) (any, error) {
	c, err := d.dec.PeekCode()
	if err != nil {
		return nil, err
	}
	switch {
	case c == msgpcode.Nil:
		if err := d.dec.DecodeNil(); err != nil {
			return nil, err
		}
		return shape.VisitUnit(v)
	case c == msgpcode.False || c == msgpcode.True:
		b, err := d.dec.DecodeBool()
		if err != nil {
			return nil, err
		}
		return shape.VisitBool(v, b)
	case c <= msgpcode.PosFixedNumHigh || c == msgpcode.Uint8:
		n, err := d.dec.DecodeUint64()
		if err != nil {
			return nil, err
		}
		return shape.VisitU8(v, uint8(n))
	case c >= msgpcode.NegFixedNumLow || c == msgpcode.Int8:
		n, err := d.dec.DecodeInt64()
		if err != nil {
			return nil, err
		}
		return shape.VisitI8(v, int8(n))
	case c == msgpcode.Uint16 || c == msgpcode.Uint32 || c == msgpcode.Uint64:
		return d.deserializeUint(c, v)
	case c == msgpcode.Int16 || c == msgpcode.Int32 || c == msgpcode.Int64:
		return d.deserializeInt(c, v)
	case c == msgpcode.Float:
		f, err := d.dec.DecodeFloat32()
		if err != nil {
			return nil, err
		}
		return shape.VisitF32(v, f)
	case c == msgpcode.Double:
		f, err := d.dec.DecodeFloat64()
		if err != nil {
			return nil, err
		}
		return shape.VisitF64(v, f)
	case msgpcode.IsString(c):
		s, err := d.dec.DecodeString()
		if err != nil {
			return nil, err
		}
		return shape.VisitString(v, s)
	case msgpcode.IsBin(c):
		b, err := d.dec.DecodeBytes()
		if err != nil {
			return nil, err
		}
		return shape.VisitByteBuf(v, b)
	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		return d.deserializeArray(v)
	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		return d.deserializeMap(v)
	case msgpcode.IsExt(c):
		_, n, err := d.dec.DecodeExtHeader()
		if err != nil {
			return nil, err
		}
		b := make([]byte, n)
		if err := d.dec.ReadFull(b); err != nil {
			return nil, err
		}
		return shape.VisitByteBuf(v, b)
	}
	return nil, fmt.Errorf("msgpack: invalid code %x", c)
}

func (d *Deserializer) deserializeUint(c byte, v shape.Visitor) (any, error) {
	n, err := d.dec.DecodeUint64()
	if err != nil {
		return nil, err
	}
	switch c {
	case msgpcode.Uint16:
		return shape.VisitU16(v, uint16(n))
	case msgpcode.Uint32:
		return shape.VisitU32(v, uint32(n))
	}
	return shape.VisitU64(v, n)
}

func (d *Deserializer) deserializeInt(c byte, v shape.Visitor) (any, error) {
	n, err := d.dec.DecodeInt64()
	if err != nil {
		return nil, err
	}
	switch c {
	case msgpcode.Int16:
		return shape.VisitI16(v, int16(n))
	case msgpcode.Int32:
		return shape.VisitI32(v, int32(n))
	}
	return shape.VisitI64(v, n)
}

func (d *Deserializer) enter() error {
	if d.depth >= d.maxDepth {
		return shape.ErrDepthLimit
	}
	d.depth++
	return nil
}

func (d *Deserializer) leave() { d.depth-- }

func (d *Deserializer) deserializeArray(v shape.Visitor) (any, error) {
	n, err := d.dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()
	seq := &arrayAccess{d: d, remaining: n}
	out, err := shape.VisitSeq(v, seq)
	if err != nil {
		return nil, err
	}
	if seq.remaining > 0 {
		return nil, shape.InvalidLengthError{Len: n, Expected: "fewer elements in array"}
	}
	return out, nil
}

func (d *Deserializer) deserializeMap(v shape.Visitor) (any, error) {
	n, err := d.dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()
	m := &mapAccess{d: d, remaining: n}
	out, err := shape.VisitMap(v, m)
	if err != nil {
		return nil, err
	}
	if m.remaining > 0 {
		return nil, shape.InvalidLengthError{Len: n, Expected: "fewer elements in map"}
	}
	return out, nil
}

func (d *Deserializer) DeserializeOption(v shape.Visitor) (any, error) {
	c, err := d.dec.PeekCode()
	if err != nil {
		return nil, err
	}
	if c == msgpcode.Nil {
		if err := d.dec.DecodeNil(); err != nil {
			return nil, err
		}
		return shape.VisitNone(v)
	}
	return shape.VisitSome(v, d)
}

func (d *Deserializer) DeserializeNewtypeStruct(_ string, v shape.Visitor) (any, error) {
	return shape.VisitNewtypeStruct(v, d)
}

func (d *Deserializer) DeserializeIgnoredAny(v shape.Visitor) (any, error) {
	if err := d.dec.Skip(); err != nil {
		return nil, err
	}
	return shape.VisitUnit(v)
}

// DeserializeEnum accepts a string naming a unit variant, or a map with a
// single entry from the variant name to its payload.
func (d *Deserializer) DeserializeEnum(_ string, _ []string, v shape.Visitor) (any, error) {
	c, err := d.dec.PeekCode()
	if err != nil {
		return nil, err
	}
	if msgpcode.IsString(c) {
		name, err := d.dec.DecodeString()
		if err != nil {
			return nil, err
		}
		return shape.VisitEnum(v, &enumAccess{d: d, variant: name})
	}
	if !msgpcode.IsFixedMap(c) && c != msgpcode.Map16 && c != msgpcode.Map32 {
		return nil, shape.InvalidTypeError{
			Unexpected: shape.Unexpected{Other: fmt.Sprintf("msgpack code %x", c)},
			Expected:   "string or map",
		}
	}
	n, err := d.dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	if n != 1 {
		return nil, shape.InvalidValueError{
			Unexpected: shape.Unexpected{Kind: shape.UnexpectedMap},
			Expected:   "map with a single key",
		}
	}
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()
	name, err := d.dec.DecodeString()
	if err != nil {
		return nil, err
	}
	return shape.VisitEnum(v, &enumAccess{d: d, variant: name, payload: true})
}

type arrayAccess struct {
	d         *Deserializer
	remaining int
}

func (a *arrayAccess) NextElement(seed shape.Seed) (any, bool, error) {
	if a.remaining <= 0 {
		return nil, false, nil
	}
	a.remaining--
	v, err := seed.DeserializeSeed(a.d)
	return v, true, err
}

func (a *arrayAccess) SizeHint() (int, bool) {
	n := max(a.remaining, 0)
	return shape.HintFromBounds(n, n, true)
}

type mapAccess struct {
	d           *Deserializer
	remaining   int
	expectValue bool
}

func (m *mapAccess) NextKey(seed shape.Seed) (any, bool, error) {
	if m.remaining <= 0 {
		return nil, false, nil
	}
	m.remaining--
	m.expectValue = true
	k, err := seed.DeserializeSeed(m.d)
	return k, true, err
}

func (m *mapAccess) NextValue(seed shape.Seed) (any, error) {
	if !m.expectValue {
		return nil, shape.Errorf("value is missing")
	}
	m.expectValue = false
	return seed.DeserializeSeed(m.d)
}

func (m *mapAccess) SizeHint() (int, bool) {
	n := max(m.remaining, 0)
	return shape.HintFromBounds(n, n, true)
}

type enumAccess struct {
	d       *Deserializer
	variant string
	payload bool
}

func (e *enumAccess) Variant(seed shape.Seed) (any, shape.VariantAccess, error) {
	v, err := seed.DeserializeSeed(shape.NewStrDeserializer(e.variant, shape.Compact))
	if err != nil {
		return nil, nil, err
	}
	return v, e, nil
}

func (e *enumAccess) UnitVariant() error {
	if !e.payload {
		return nil
	}
	return shape.Unit(e.d)
}

func (e *enumAccess) NewtypeVariant(seed shape.Seed) (any, error) {
	if !e.payload {
		return nil, unitVariantError("newtype variant")
	}
	return seed.DeserializeSeed(e.d)
}

func (e *enumAccess) TupleVariant(_ int, v shape.Visitor) (any, error) {
	if !e.payload {
		return nil, unitVariantError("tuple variant")
	}
	return e.d.DeserializeSeq(v)
}

func (e *enumAccess) StructVariant(fields []string, v shape.Visitor) (any, error) {
	if !e.payload {
		return nil, unitVariantError("struct variant")
	}
	return e.d.DeserializeStruct("", fields, v)
}

func unitVariantError(expected string) error {
	return shape.InvalidTypeError{
		Unexpected: shape.Unexpected{Kind: shape.UnexpectedUnitVariant},
		Expected:   expected,
	}
}
