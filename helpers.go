package shape

import "fmt"

type missingFieldSource struct {
	field string
	mode  Mode
}

func (m missingFieldSource) Mode() Mode { return m.mode }

func (m missingFieldSource) DeserializeAny(Visitor) (any, error) {
	return nil, MissingFieldError{Field: m.field}
}

type missingFieldDeserializer struct {
	ForwardToAny
}

func (missingFieldDeserializer) DeserializeOption(v Visitor) (any, error) {
	return VisitNone(v)
}

// NewMissingFieldDeserializer returns the Deserializer a record decodes an
// absent field from. Option requests see an absent value; every other
// request fails with a MissingFieldError naming field.
func NewMissingFieldDeserializer(field string, mode Mode) Deserializer {
	return missingFieldDeserializer{ForwardToAny{missingFieldSource{field: field, mode: mode}}}
}

type strSource struct {
	value string
	mode  Mode
}

func (s strSource) Mode() Mode { return s.mode }

func (s strSource) DeserializeAny(v Visitor) (any, error) {
	return VisitStr(v, s.value)
}

// NewStrDeserializer returns a Deserializer that answers any request with
// the transient string s. It serves as a key or identifier source.
func NewStrDeserializer(s string, mode Mode) Deserializer {
	return ForwardToAny{strSource{value: s, mode: mode}}
}

type bytesSource struct {
	value []byte
	mode  Mode
}

func (s bytesSource) Mode() Mode { return s.mode }

func (s bytesSource) DeserializeAny(v Visitor) (any, error) {
	return VisitBytes(v, s.value)
}

// NewBytesDeserializer is the byte-slice counterpart of NewStrDeserializer.
func NewBytesDeserializer(b []byte, mode Mode) Deserializer {
	return ForwardToAny{bytesSource{value: b, mode: mode}}
}

type seqAccessSource struct {
	seq  SeqAccess
	mode Mode
}

func (s seqAccessSource) Mode() Mode { return s.mode }

func (s seqAccessSource) DeserializeAny(v Visitor) (any, error) {
	return VisitSeq(v, s.seq)
}

// NewSeqAccessDeserializer presents the rest of a sequence as a value.
func NewSeqAccessDeserializer(seq SeqAccess, mode Mode) Deserializer {
	return ForwardToAny{seqAccessSource{seq: seq, mode: mode}}
}

type mapAccessSource struct {
	m    MapAccess
	mode Mode
}

func (s mapAccessSource) Mode() Mode { return s.mode }

func (s mapAccessSource) DeserializeAny(v Visitor) (any, error) {
	return VisitMap(v, s.m)
}

// NewMapAccessDeserializer presents the rest of a map as a value.
func NewMapAccessDeserializer(m MapAccess, mode Mode) Deserializer {
	return ForwardToAny{mapAccessSource{m: m, mode: mode}}
}

type unitSource struct {
	mode Mode
}

func (u unitSource) Mode() Mode { return u.mode }

func (u unitSource) DeserializeAny(v Visitor) (any, error) {
	return VisitUnit(v)
}

// NewUnitDeserializer returns a Deserializer that answers every request
// with unit.
func NewUnitDeserializer(mode Mode) Deserializer {
	return ForwardToAny{unitSource{mode: mode}}
}

type unitVisitor struct{}

func (unitVisitor) Expecting() string       { return "unit" }
func (unitVisitor) VisitUnit() (any, error) { return nil, nil }

// InternallyTaggedUnitVisitor accepts the payload left over after the tag
// of an internally tagged unit variant: a map or a sequence, contents
// skipped.
type InternallyTaggedUnitVisitor struct {
	TypeName    string
	VariantName string
}

func (u InternallyTaggedUnitVisitor) Expecting() string {
	return fmt.Sprintf("unit variant %s::%s", u.TypeName, u.VariantName)
}

func (InternallyTaggedUnitVisitor) VisitSeq(seq SeqAccess) (any, error) {
	return IgnoredAny{}.VisitSeq(seq)
}

func (InternallyTaggedUnitVisitor) VisitMap(m MapAccess) (any, error) {
	return IgnoredAny{}.VisitMap(m)
}

// UntaggedUnitVisitor accepts only unit, for unit variants of untagged
// enums.
type UntaggedUnitVisitor struct {
	TypeName    string
	VariantName string
}

func (u UntaggedUnitVisitor) Expecting() string {
	return fmt.Sprintf("unit variant %s::%s", u.TypeName, u.VariantName)
}

func (UntaggedUnitVisitor) VisitUnit() (any, error) { return nil, nil }

// IgnoredAny is a Visitor that accepts and discards any value, walking
// containers so the source stays positioned correctly.
type IgnoredAny struct{}

// ignoreSeed skips one value.
var ignoreSeed Seed = SeedFunc(func(d Deserializer) (any, error) {
	return d.DeserializeIgnoredAny(IgnoredAny{})
})

func (IgnoredAny) Expecting() string                  { return "anything at all" }
func (IgnoredAny) VisitBool(bool) (any, error)        { return nil, nil }
func (IgnoredAny) VisitI64(int64) (any, error)        { return nil, nil }
func (IgnoredAny) VisitU64(uint64) (any, error)       { return nil, nil }
func (IgnoredAny) VisitF64(float64) (any, error)      { return nil, nil }
func (IgnoredAny) VisitStr(string) (any, error)       { return nil, nil }
func (IgnoredAny) VisitBytes([]byte) (any, error)     { return nil, nil }
func (IgnoredAny) VisitNone() (any, error)            { return nil, nil }
func (IgnoredAny) VisitUnit() (any, error)            { return nil, nil }
func (i IgnoredAny) VisitSome(d Deserializer) (any, error) {
	return d.DeserializeIgnoredAny(i)
}

func (i IgnoredAny) VisitNewtypeStruct(d Deserializer) (any, error) {
	return d.DeserializeIgnoredAny(i)
}

func (IgnoredAny) VisitSeq(seq SeqAccess) (any, error) {
	for {
		_, ok, err := seq.NextElement(ignoreSeed)
		if err != nil || !ok {
			return nil, err
		}
	}
}

func (IgnoredAny) VisitMap(m MapAccess) (any, error) {
	for {
		_, ok, err := m.NextKey(ignoreSeed)
		if err != nil || !ok {
			return nil, err
		}
		if _, err := m.NextValue(ignoreSeed); err != nil {
			return nil, err
		}
	}
}

func (IgnoredAny) VisitEnum(e EnumAccess) (any, error) {
	_, va, err := e.Variant(ignoreSeed)
	if err != nil {
		return nil, err
	}
	return va.NewtypeVariant(ignoreSeed)
}
