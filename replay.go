package shape

import "fmt"

var errContentConsumed = CustomError{Msg: "buffered content already consumed"}

// replay answers requests from a buffered Content. An owning replay moves
// the tree out on first use and hands owned strings and bytes to the
// visitor; a borrowing replay leaves the tree intact and hands out
// transient views.
type replay struct {
	content *Content
	mode    Mode
	owned   bool
	used    bool
}

// ContentDeserializer replays a buffered [Content] once, transferring
// ownership of its strings, byte slices and children to the visitor.
type ContentDeserializer struct {
	replay
}

// NewContentDeserializer returns a Deserializer that replays c. It may be
// used for a single request; later requests fail.
func NewContentDeserializer(c Content) *ContentDeserializer {
	return &ContentDeserializer{replay{content: &c, mode: c.Mode, owned: true}}
}

func (r *replay) take() (*Content, error) {
	if !r.owned {
		return r.content, nil
	}
	if r.used {
		return nil, errContentConsumed
	}
	r.used = true
	c := r.content
	r.content = nil
	return c, nil
}

// sub returns a Deserializer for a child of the replayed tree. Owning
// replays have already detached c from its parent.
func (r *replay) sub(c *Content) Deserializer {
	if r.owned {
		return &ContentDeserializer{replay{content: c, mode: c.Mode, owned: true}}
	}
	return NewContentRefDeserializer(c)
}

func (r *replay) Mode() Mode { return r.mode }

func (r *replay) visitString(c *Content, v Visitor) (any, error) {
	switch c.Kind {
	case ContentString:
		if r.owned {
			return VisitString(v, c.Str)
		}
		return VisitStr(v, c.Str)
	case ContentStr:
		return VisitBorrowedStr(v, c.Str)
	case ContentByteBuf:
		if r.owned {
			return VisitByteBuf(v, c.Bytes)
		}
		return VisitBytes(v, c.Bytes)
	case ContentBytes:
		return VisitBorrowedBytes(v, c.Bytes)
	}
	return nil, invalidType(c.Unexpected(), v)
}

func (r *replay) visitInteger(c *Content, v Visitor) (any, error) {
	switch c.Kind {
	case ContentU8:
		return VisitU8(v, uint8(c.Uint))
	case ContentU16:
		return VisitU16(v, uint16(c.Uint))
	case ContentU32:
		return VisitU32(v, uint32(c.Uint))
	case ContentU64:
		return VisitU64(v, c.Uint)
	case ContentI8:
		return VisitI8(v, int8(c.Int))
	case ContentI16:
		return VisitI16(v, int16(c.Int))
	case ContentI32:
		return VisitI32(v, int32(c.Int))
	case ContentI64:
		return VisitI64(v, c.Int)
	}
	return nil, invalidType(c.Unexpected(), v)
}

// visitFloat serves an f32 request, and an f64 request when wide is set.
// An f64 request does not accept F32 content.
func (r *replay) visitFloat(c *Content, v Visitor, wide bool) (any, error) {
	switch c.Kind {
	case ContentF32:
		if wide {
			break
		}
		return VisitF32(v, float32(c.Float))
	case ContentF64:
		return VisitF64(v, c.Float)
	case ContentU64:
		return VisitU64(v, c.Uint)
	case ContentI64:
		return VisitI64(v, c.Int)
	}
	return nil, invalidType(c.Unexpected(), v)
}

func (r *replay) visitAny(c *Content, v Visitor) (any, error) {
	switch c.Kind {
	case ContentBool:
		return VisitBool(v, c.Bool)
	case ContentU8, ContentU16, ContentU32, ContentU64,
		ContentI8, ContentI16, ContentI32, ContentI64:
		return r.visitInteger(c, v)
	case ContentF32, ContentF64:
		return r.visitFloat(c, v, false)
	case ContentChar:
		return VisitChar(v, c.Char)
	case ContentString, ContentStr, ContentByteBuf, ContentBytes:
		return r.visitString(c, v)
	case ContentUnit:
		return VisitUnit(v)
	case ContentNone:
		return VisitNone(v)
	case ContentSome:
		return VisitSome(v, r.sub(c.Inner))
	case ContentNewtype:
		return VisitNewtypeStruct(v, r.sub(c.Inner))
	case ContentSeq:
		return r.visitSeq(c.Seq, v)
	case ContentMap:
		return r.visitMap(c.Map, v)
	}
	return nil, invalidType(c.Unexpected(), v)
}

// visitSeq replays elems and fails if the visitor left any unconsumed.
func (r *replay) visitSeq(elems []Content, v Visitor) (any, error) {
	seq := &contentSeqAccess{replay: r, elems: elems}
	out, err := VisitSeq(v, seq)
	if err != nil {
		return nil, err
	}
	if rem := len(seq.elems) - seq.pos; rem > 0 {
		return nil, InvalidLengthError{Len: seq.pos + rem, Expected: expectedIn(seq.pos, "sequence")}
	}
	return out, nil
}

func (r *replay) visitMap(pairs []Pair, v Visitor) (any, error) {
	m := &contentMapAccess{replay: r, pairs: pairs}
	out, err := VisitMap(v, m)
	if err != nil {
		return nil, err
	}
	if rem := len(m.pairs) - m.pos; rem > 0 {
		return nil, InvalidLengthError{Len: m.pos + rem, Expected: expectedIn(m.pos, "map")}
	}
	return out, nil
}

// visitSeqAny replays elems for a tuple or struct variant: an empty
// sequence is a unit, leftovers are an error.
func (r *replay) visitSeqAny(elems []Content, v Visitor) (any, error) {
	if len(elems) == 0 {
		return VisitUnit(v)
	}
	seq := &contentSeqAccess{replay: r, elems: elems}
	out, err := VisitSeq(v, seq)
	if err != nil {
		return nil, err
	}
	if seq.pos < len(seq.elems) {
		return nil, InvalidLengthError{Len: len(seq.elems), Expected: "fewer elements in array"}
	}
	return out, nil
}

func expectedIn(n int, what string) string {
	if n == 1 {
		return "1 element in " + what
	}
	return fmt.Sprintf("%d elements in %s", n, what)
}

func (r *replay) DeserializeAny(v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	return r.visitAny(c, v)
}

func (r *replay) DeserializeBool(v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	if c.Kind == ContentBool {
		return VisitBool(v, c.Bool)
	}
	return nil, invalidType(c.Unexpected(), v)
}

func (r *replay) deserializeInteger(v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	return r.visitInteger(c, v)
}

func (r *replay) DeserializeI8(v Visitor) (any, error)  { return r.deserializeInteger(v) }
func (r *replay) DeserializeI16(v Visitor) (any, error) { return r.deserializeInteger(v) }
func (r *replay) DeserializeI32(v Visitor) (any, error) { return r.deserializeInteger(v) }
func (r *replay) DeserializeI64(v Visitor) (any, error) { return r.deserializeInteger(v) }
func (r *replay) DeserializeU8(v Visitor) (any, error)  { return r.deserializeInteger(v) }
func (r *replay) DeserializeU16(v Visitor) (any, error) { return r.deserializeInteger(v) }
func (r *replay) DeserializeU32(v Visitor) (any, error) { return r.deserializeInteger(v) }
func (r *replay) DeserializeU64(v Visitor) (any, error) { return r.deserializeInteger(v) }

func (r *replay) deserializeFloat(v Visitor, wide bool) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	return r.visitFloat(c, v, wide)
}

func (r *replay) DeserializeF32(v Visitor) (any, error) { return r.deserializeFloat(v, false) }
func (r *replay) DeserializeF64(v Visitor) (any, error) { return r.deserializeFloat(v, true) }

func (r *replay) DeserializeChar(v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	switch c.Kind {
	case ContentChar:
		return VisitChar(v, c.Char)
	case ContentString, ContentStr:
		return r.visitString(c, v)
	}
	return nil, invalidType(c.Unexpected(), v)
}

func (r *replay) deserializeString(v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	return r.visitString(c, v)
}

func (r *replay) DeserializeStr(v Visitor) (any, error)        { return r.deserializeString(v) }
func (r *replay) DeserializeString(v Visitor) (any, error)     { return r.deserializeString(v) }
func (r *replay) DeserializeIdentifier(v Visitor) (any, error) { return r.deserializeString(v) }

func (r *replay) deserializeBytes(v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	if c.Kind == ContentSeq {
		return r.visitSeq(c.Seq, v)
	}
	return r.visitString(c, v)
}

func (r *replay) DeserializeBytes(v Visitor) (any, error)   { return r.deserializeBytes(v) }
func (r *replay) DeserializeByteBuf(v Visitor) (any, error) { return r.deserializeBytes(v) }

// DeserializeOption treats a buffered unit as absent for formats with no
// distinct null, and any other value as present.
func (r *replay) DeserializeOption(v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	switch c.Kind {
	case ContentNone:
		return VisitNone(v)
	case ContentSome:
		return VisitSome(v, r.sub(c.Inner))
	case ContentUnit:
		return VisitUnit(v)
	}
	return VisitSome(v, r.sub(c))
}

func (r *replay) DeserializeUnit(v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	if c.Kind == ContentUnit {
		return VisitUnit(v)
	}
	return nil, invalidType(c.Unexpected(), v)
}

// DeserializeUnitStruct also accepts an empty map, which is how unit
// structs look when they went through an internally tagged enum.
func (r *replay) DeserializeUnitStruct(_ string, v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	if c.Kind == ContentMap && len(c.Map) == 0 {
		return VisitUnit(v)
	}
	return r.visitAny(c, v)
}

func (r *replay) DeserializeNewtypeStruct(_ string, v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	if c.Kind == ContentNewtype {
		return VisitNewtypeStruct(v, r.sub(c.Inner))
	}
	return VisitNewtypeStruct(v, r.sub(c))
}

func (r *replay) DeserializeSeq(v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	if c.Kind == ContentSeq {
		return r.visitSeq(c.Seq, v)
	}
	return nil, invalidType(c.Unexpected(), v)
}

func (r *replay) DeserializeTuple(_ int, v Visitor) (any, error) {
	return r.DeserializeSeq(v)
}

func (r *replay) DeserializeTupleStruct(_ string, _ int, v Visitor) (any, error) {
	return r.DeserializeSeq(v)
}

func (r *replay) DeserializeMap(v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	if c.Kind == ContentMap {
		return r.visitMap(c.Map, v)
	}
	return nil, invalidType(c.Unexpected(), v)
}

func (r *replay) DeserializeStruct(_ string, _ []string, v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	switch c.Kind {
	case ContentSeq:
		return r.visitSeq(c.Seq, v)
	case ContentMap:
		return r.visitMap(c.Map, v)
	}
	return nil, invalidType(c.Unexpected(), v)
}

// DeserializeEnum accepts a map with exactly one entry (variant name to
// payload) or a bare string naming a unit variant.
func (r *replay) DeserializeEnum(_ string, _ []string, v Visitor) (any, error) {
	c, err := r.take()
	if err != nil {
		return nil, err
	}
	switch c.Kind {
	case ContentMap:
		if len(c.Map) != 1 {
			return nil, InvalidValueError{
				Unexpected: Unexpected{Kind: UnexpectedMap},
				Expected:   "map with a single key",
			}
		}
		return VisitEnum(v, &contentEnumAccess{replay: r, variant: &c.Map[0].Key, value: &c.Map[0].Value})
	case ContentString, ContentStr:
		return VisitEnum(v, &contentEnumAccess{replay: r, variant: c})
	}
	return nil, InvalidTypeError{Unexpected: c.Unexpected(), Expected: "string or map"}
}

func (r *replay) DeserializeIgnoredAny(v Visitor) (any, error) {
	if _, err := r.take(); err != nil {
		return nil, err
	}
	return VisitUnit(v)
}

type contentSeqAccess struct {
	replay *replay
	elems  []Content
	pos    int
}

func (s *contentSeqAccess) NextElement(seed Seed) (any, bool, error) {
	if s.pos >= len(s.elems) {
		return nil, false, nil
	}
	el := s.replay.detach(&s.elems[s.pos])
	s.pos++
	v, err := seed.DeserializeSeed(s.replay.sub(el))
	return v, true, err
}

func (s *contentSeqAccess) SizeHint() (int, bool) {
	n := len(s.elems) - s.pos
	return HintFromBounds(n, n, true)
}

// detach moves c out of its parent when the replay owns the tree, so the
// parent no longer keeps the child alive.
func (r *replay) detach(c *Content) *Content {
	if !r.owned {
		return c
	}
	moved := *c
	*c = Content{}
	return &moved
}

type contentMapAccess struct {
	replay  *replay
	pairs   []Pair
	pos     int
	pending *Content
}

func (m *contentMapAccess) NextKey(seed Seed) (any, bool, error) {
	if m.pos >= len(m.pairs) {
		return nil, false, nil
	}
	p := &m.pairs[m.pos]
	m.pos++
	m.pending = m.replay.detach(&p.Value)
	k, err := seed.DeserializeSeed(m.replay.sub(m.replay.detach(&p.Key)))
	return k, true, err
}

func (m *contentMapAccess) NextValue(seed Seed) (any, error) {
	if m.pending == nil {
		return nil, CustomError{Msg: "value is missing"}
	}
	v := m.pending
	m.pending = nil
	return seed.DeserializeSeed(m.replay.sub(v))
}

func (m *contentMapAccess) SizeHint() (int, bool) {
	n := len(m.pairs) - m.pos
	return HintFromBounds(n, n, true)
}

type contentEnumAccess struct {
	replay  *replay
	variant *Content
	value   *Content
}

func (e *contentEnumAccess) Variant(seed Seed) (any, VariantAccess, error) {
	v, err := seed.DeserializeSeed(e.replay.sub(e.variant))
	if err != nil {
		return nil, nil, err
	}
	return v, &contentVariantAccess{replay: e.replay, value: e.value}, nil
}

type contentVariantAccess struct {
	replay *replay
	value  *Content
}

func (va *contentVariantAccess) UnitVariant() error {
	if va.value == nil {
		return nil
	}
	_, err := va.replay.sub(va.value).DeserializeUnit(unitVisitor{})
	return err
}

func (va *contentVariantAccess) NewtypeVariant(seed Seed) (any, error) {
	if va.value == nil {
		return nil, InvalidTypeError{Unexpected: Unexpected{Kind: UnexpectedUnitVariant}, Expected: "newtype variant"}
	}
	return seed.DeserializeSeed(va.replay.sub(va.value))
}

func (va *contentVariantAccess) TupleVariant(_ int, v Visitor) (any, error) {
	if va.value == nil {
		return nil, InvalidTypeError{Unexpected: Unexpected{Kind: UnexpectedUnitVariant}, Expected: "tuple variant"}
	}
	if va.value.Kind != ContentSeq {
		return nil, InvalidTypeError{Unexpected: va.value.Unexpected(), Expected: "tuple variant"}
	}
	return va.replay.visitSeqAny(va.value.Seq, v)
}

func (va *contentVariantAccess) StructVariant(_ []string, v Visitor) (any, error) {
	if va.value == nil {
		return nil, InvalidTypeError{Unexpected: Unexpected{Kind: UnexpectedUnitVariant}, Expected: "struct variant"}
	}
	switch va.value.Kind {
	case ContentMap:
		return va.replay.visitMap(va.value.Map, v)
	case ContentSeq:
		return va.replay.visitSeqAny(va.value.Seq, v)
	}
	return nil, InvalidTypeError{Unexpected: va.value.Unexpected(), Expected: "struct variant"}
}
