// Package shapecbor reads CBOR (RFC 8949) through the shape protocol.
//
// With Options.ZeroCopy set, definite-length text and byte strings are
// delivered as borrowed values that alias the input slice. A Content
// captured this way keeps the input alive and must not outlive changes to
// it.
package shapecbor

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
	"unsafe"

	"github.com/dhoelle/shape"
	"github.com/fxamacker/cbor/v2"
)

const DefaultMaxDepth = 128

type Options struct {
	// ZeroCopy delivers definite-length strings and byte strings as
	// borrowed slices of the input.
	ZeroCopy bool

	// MaxDepth bounds the nesting of arrays, maps and tags. If unset,
	// defaults to DefaultMaxDepth.
	MaxDepth int
}

func (o *Options) zeroCopy() bool { return o != nil && o.ZeroCopy }

func (o *Options) maxDepth() int {
	if o == nil || o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

var decMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		IndefLength: cbor.IndefLengthAllowed,
		UTF8:        cbor.UTF8RejectInvalid,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

const (
	majorUnsigned byte = iota
	majorNegative
	majorBytes
	majorText
	majorArray
	majorMap
	majorTag
	majorSimple
)

const (
	infoIndefinite byte = 31
	breakByte      byte = 0xff
)

// Deserializer reads one CBOR data item from a byte slice.
type Deserializer struct {
	shape.ForwardToAny

	data     []byte
	zeroCopy bool
	depth    int
	maxDepth int
}

func NewDeserializer(data []byte, opts *Options) *Deserializer {
	d := &Deserializer{data: data, zeroCopy: opts.zeroCopy(), maxDepth: opts.maxDepth()}
	d.ForwardToAny = shape.ForwardToAny{AnyDeserializer: d}
	return d
}

// Unmarshal decodes the single CBOR data item in data with decode.
func Unmarshal[T any](data []byte, decode func(shape.Deserializer) (T, error), opts *Options) (T, error) {
	d := NewDeserializer(data, opts)
	v, err := decode(d)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(d.data) > 0 {
		var zero T
		return zero, fmt.Errorf("unexpected %d bytes after top-level data item", len(d.data))
	}
	return v, nil
}

func (d *Deserializer) Mode() shape.Mode { return shape.Compact }

// head is the initial byte and argument of a data item.
type head struct {
	major byte
	info  byte
	arg   uint64
	size  int
}

func (h head) indefinite() bool { return h.info == infoIndefinite }

func (d *Deserializer) peekHead() (head, error) {
	if len(d.data) == 0 {
		return head{}, io.ErrUnexpectedEOF
	}
	b := d.data[0]
	h := head{major: b >> 5, info: b & 0x1f, size: 1}
	switch {
	case h.info < 24:
		h.arg = uint64(h.info)
	case h.info == 24:
		h.size = 2
	case h.info == 25:
		h.size = 3
	case h.info == 26:
		h.size = 5
	case h.info == 27:
		h.size = 9
	case h.info == infoIndefinite && h.major >= majorBytes && h.major <= majorMap:
	case h.info == infoIndefinite && h.major == majorSimple:
		return head{}, fmt.Errorf("cbor: unexpected break")
	default:
		return head{}, fmt.Errorf("cbor: invalid additional information %d", h.info)
	}
	if len(d.data) < h.size {
		return head{}, io.ErrUnexpectedEOF
	}
	switch h.size {
	case 2:
		h.arg = uint64(d.data[1])
	case 3:
		h.arg = uint64(binary.BigEndian.Uint16(d.data[1:]))
	case 5:
		h.arg = uint64(binary.BigEndian.Uint32(d.data[1:]))
	case 9:
		h.arg = binary.BigEndian.Uint64(d.data[1:])
	}
	return h, nil
}

// decodeFirst decodes the next data item into ptr.
func (d *Deserializer) decodeFirst(ptr any) error {
	rest, err := decMode.UnmarshalFirst(d.data, ptr)
	if err != nil {
		return err
	}
	d.data = rest
	return nil
}

func (d *Deserializer) DeserializeAny(v shape.Visitor) (any, error) {
	h, err := d.peekHead()
	if err != nil {
		return nil, err
	}
	switch h.major {
	case majorUnsigned:
		d.data = d.data[h.size:]
		switch h.size {
		case 1, 2:
			return shape.VisitU8(v, uint8(h.arg))
		case 3:
			return shape.VisitU16(v, uint16(h.arg))
		case 5:
			return shape.VisitU32(v, uint32(h.arg))
		}
		return shape.VisitU64(v, h.arg)
	case majorNegative:
		var n int64
		if err := d.decodeFirst(&n); err != nil {
			return nil, err
		}
		switch h.size {
		case 1:
			return shape.VisitI8(v, int8(n))
		case 2:
			return shape.VisitI16(v, int16(n))
		case 3:
			return shape.VisitI32(v, int32(n))
		}
		return shape.VisitI64(v, n)
	case majorBytes:
		if h.indefinite() || !d.zeroCopy {
			var b []byte
			if err := d.decodeFirst(&b); err != nil {
				return nil, err
			}
			return shape.VisitByteBuf(v, b)
		}
		b, err := d.definite(h)
		if err != nil {
			return nil, err
		}
		return shape.VisitBorrowedBytes(v, b)
	case majorText:
		if h.indefinite() || !d.zeroCopy {
			var s string
			if err := d.decodeFirst(&s); err != nil {
				return nil, err
			}
			return shape.VisitString(v, s)
		}
		b, err := d.definite(h)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			return nil, fmt.Errorf("cbor: invalid UTF-8 in text string")
		}
		return shape.VisitBorrowedStr(v, unsafe.String(unsafe.SliceData(b), len(b)))
	case majorArray:
		return d.deserializeArray(h, v)
	case majorMap:
		return d.deserializeMap(h, v)
	case majorTag:
		// Tags annotate the item that follows; the item is decoded as is.
		if err := d.enter(); err != nil {
			return nil, err
		}
		defer d.leave()
		d.data = d.data[h.size:]
		return d.DeserializeAny(v)
	}
	return d.deserializeSimple(h, v)
}

// definite slices out the payload of a definite-length string.
func (d *Deserializer) definite(h head) ([]byte, error) {
	end := uint64(h.size) + h.arg
	if end < h.arg || end > uint64(len(d.data)) {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.data[h.size:end:end]
	d.data = d.data[end:]
	return b, nil
}

func (d *Deserializer) deserializeSimple(h head, v shape.Visitor) (any, error) {
	switch h.info {
	case 20, 21:
		d.data = d.data[h.size:]
		return shape.VisitBool(v, h.info == 21)
	case 22, 23: // null, undefined
		d.data = d.data[h.size:]
		return shape.VisitUnit(v)
	case 25, 26:
		var f float32
		if err := d.decodeFirst(&f); err != nil {
			return nil, err
		}
		return shape.VisitF32(v, f)
	case 27:
		var f float64
		if err := d.decodeFirst(&f); err != nil {
			return nil, err
		}
		return shape.VisitF64(v, f)
	}
	return nil, fmt.Errorf("cbor: unsupported simple value %d", h.arg)
}

func (d *Deserializer) enter() error {
	if d.depth >= d.maxDepth {
		return shape.ErrDepthLimit
	}
	d.depth++
	return nil
}

func (d *Deserializer) leave() { d.depth-- }

// atBreak consumes the break byte ending an indefinite-length container.
func (d *Deserializer) atBreak() bool {
	if len(d.data) > 0 && d.data[0] == breakByte {
		d.data = d.data[1:]
		return true
	}
	return false
}

func (d *Deserializer) deserializeArray(h head, v shape.Visitor) (any, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()
	d.data = d.data[h.size:]
	seq := &arrayAccess{items{d: d, indefinite: h.indefinite(), remaining: h.arg}}
	out, err := shape.VisitSeq(v, seq)
	if err != nil {
		return nil, err
	}
	if err := seq.finish("array"); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Deserializer) deserializeMap(h head, v shape.Visitor) (any, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()
	d.data = d.data[h.size:]
	m := &mapAccess{items: items{d: d, indefinite: h.indefinite(), remaining: h.arg}}
	out, err := shape.VisitMap(v, m)
	if err != nil {
		return nil, err
	}
	if err := m.finish("map"); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Deserializer) isNull() bool {
	return len(d.data) > 0 && (d.data[0] == 0xf6 || d.data[0] == 0xf7)
}

func (d *Deserializer) DeserializeOption(v shape.Visitor) (any, error) {
	if d.isNull() {
		d.data = d.data[1:]
		return shape.VisitNone(v)
	}
	return shape.VisitSome(v, d)
}

func (d *Deserializer) DeserializeNewtypeStruct(_ string, v shape.Visitor) (any, error) {
	return shape.VisitNewtypeStruct(v, d)
}

func (d *Deserializer) DeserializeIgnoredAny(v shape.Visitor) (any, error) {
	var raw cbor.RawMessage
	if err := d.decodeFirst(&raw); err != nil {
		return nil, err
	}
	return shape.VisitUnit(v)
}

// DeserializeEnum accepts a text string naming a unit variant, or a map
// with a single entry from the variant name to its payload.
func (d *Deserializer) DeserializeEnum(_ string, _ []string, v shape.Visitor) (any, error) {
	h, err := d.peekHead()
	if err != nil {
		return nil, err
	}
	switch h.major {
	case majorText:
		var name string
		if err := d.decodeFirst(&name); err != nil {
			return nil, err
		}
		return shape.VisitEnum(v, &enumAccess{d: d, variant: name})
	case majorMap:
		if h.indefinite() || h.arg != 1 {
			return nil, shape.InvalidValueError{
				Unexpected: shape.Unexpected{Kind: shape.UnexpectedMap},
				Expected:   "map with a single key",
			}
		}
		if err := d.enter(); err != nil {
			return nil, err
		}
		defer d.leave()
		d.data = d.data[h.size:]
		var name string
		if err := d.decodeFirst(&name); err != nil {
			return nil, err
		}
		return shape.VisitEnum(v, &enumAccess{d: d, variant: name, payload: true})
	}
	return nil, shape.InvalidTypeError{
		Unexpected: shape.Unexpected{Other: fmt.Sprintf("CBOR major type %d", h.major)},
		Expected:   "string or map",
	}
}

// items tracks the position within an array or map.
type items struct {
	d          *Deserializer
	indefinite bool
	remaining  uint64
	count      int
	done       bool
}

// next reports whether another item follows, consuming the break of an
// indefinite-length container.
func (it *items) next() bool {
	if it.done {
		return false
	}
	if it.indefinite {
		if it.d.atBreak() {
			it.done = true
			return false
		}
	} else {
		if it.remaining == 0 {
			it.done = true
			return false
		}
		it.remaining--
	}
	it.count++
	return true
}

// finish fails if the visitor left items unread.
func (it *items) finish(what string) error {
	if it.done || !it.next() {
		return nil
	}
	total := it.count
	if !it.indefinite {
		total += int(it.remaining)
	}
	return shape.InvalidLengthError{Len: total, Expected: fmt.Sprintf("%d elements in %s", it.count-1, what)}
}

// SizeHint is unknown for indefinite-length items and for counts too large
// to be plausible.
func (it *items) SizeHint() (int, bool) {
	if it.remaining > uint64(shape.MaxPreallocate) {
		return 0, false
	}
	n := int(it.remaining)
	return shape.HintFromBounds(n, n, !it.indefinite)
}

type arrayAccess struct {
	items
}

func (a *arrayAccess) NextElement(seed shape.Seed) (any, bool, error) {
	if !a.next() {
		return nil, false, nil
	}
	v, err := seed.DeserializeSeed(a.d)
	return v, true, err
}

type mapAccess struct {
	items
	expectValue bool
}

func (m *mapAccess) NextKey(seed shape.Seed) (any, bool, error) {
	if !m.next() {
		return nil, false, nil
	}
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
