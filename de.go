package shape

// Mode reports whether a source's format is meant for people (JSON, YAML)
// or machines (msgpack, CBOR). Receivers may pick a representation based
// on it.
type Mode uint8

const (
	HumanReadable Mode = iota
	Compact
)

func (m Mode) IsHumanReadable() bool {
	return m == HumanReadable
}

func (m Mode) String() string {
	if m == Compact {
		return "compact"
	}
	return "human-readable"
}

// Deserializer is a source of one value. Each method is a request for a
// particular shape; the source answers by calling exactly one method of
// the visitor (through the Visit helpers in this package) or by returning
// an error.
//
// Sources that cannot tell shapes apart without a hint, and self-describing
// sources that would rather not, can embed [ForwardToAny] to route every
// request through DeserializeAny.
type Deserializer interface {
	Mode() Mode

	DeserializeAny(v Visitor) (any, error)
	DeserializeBool(v Visitor) (any, error)
	DeserializeI8(v Visitor) (any, error)
	DeserializeI16(v Visitor) (any, error)
	DeserializeI32(v Visitor) (any, error)
	DeserializeI64(v Visitor) (any, error)
	DeserializeU8(v Visitor) (any, error)
	DeserializeU16(v Visitor) (any, error)
	DeserializeU32(v Visitor) (any, error)
	DeserializeU64(v Visitor) (any, error)
	DeserializeF32(v Visitor) (any, error)
	DeserializeF64(v Visitor) (any, error)
	DeserializeChar(v Visitor) (any, error)
	DeserializeStr(v Visitor) (any, error)
	DeserializeString(v Visitor) (any, error)
	DeserializeBytes(v Visitor) (any, error)
	DeserializeByteBuf(v Visitor) (any, error)
	DeserializeOption(v Visitor) (any, error)
	DeserializeUnit(v Visitor) (any, error)
	DeserializeUnitStruct(name string, v Visitor) (any, error)
	DeserializeNewtypeStruct(name string, v Visitor) (any, error)
	DeserializeSeq(v Visitor) (any, error)
	DeserializeTuple(n int, v Visitor) (any, error)
	DeserializeTupleStruct(name string, n int, v Visitor) (any, error)
	DeserializeMap(v Visitor) (any, error)
	DeserializeStruct(name string, fields []string, v Visitor) (any, error)
	DeserializeEnum(name string, variants []string, v Visitor) (any, error)
	DeserializeIdentifier(v Visitor) (any, error)
	DeserializeIgnoredAny(v Visitor) (any, error)
}

// AnyDeserializer is the part of a [Deserializer] that [ForwardToAny]
// builds on.
type AnyDeserializer interface {
	Mode() Mode
	DeserializeAny(v Visitor) (any, error)
}

// ForwardToAny implements every request of [Deserializer] by calling
// DeserializeAny. Embed it and override the requests that need a
// shape-specific answer.
type ForwardToAny struct {
	AnyDeserializer
}

func (f ForwardToAny) DeserializeBool(v Visitor) (any, error)    { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeI8(v Visitor) (any, error)      { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeI16(v Visitor) (any, error)     { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeI32(v Visitor) (any, error)     { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeI64(v Visitor) (any, error)     { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeU8(v Visitor) (any, error)      { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeU16(v Visitor) (any, error)     { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeU32(v Visitor) (any, error)     { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeU64(v Visitor) (any, error)     { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeF32(v Visitor) (any, error)     { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeF64(v Visitor) (any, error)     { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeChar(v Visitor) (any, error)    { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeStr(v Visitor) (any, error)     { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeString(v Visitor) (any, error)  { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeBytes(v Visitor) (any, error)   { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeByteBuf(v Visitor) (any, error) { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeOption(v Visitor) (any, error)  { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeUnit(v Visitor) (any, error)    { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeSeq(v Visitor) (any, error)     { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeMap(v Visitor) (any, error)     { return f.DeserializeAny(v) }

func (f ForwardToAny) DeserializeIdentifier(v Visitor) (any, error) { return f.DeserializeAny(v) }
func (f ForwardToAny) DeserializeIgnoredAny(v Visitor) (any, error) { return f.DeserializeAny(v) }

func (f ForwardToAny) DeserializeUnitStruct(_ string, v Visitor) (any, error) {
	return f.DeserializeAny(v)
}

func (f ForwardToAny) DeserializeNewtypeStruct(_ string, v Visitor) (any, error) {
	return f.DeserializeAny(v)
}

func (f ForwardToAny) DeserializeTuple(_ int, v Visitor) (any, error) {
	return f.DeserializeAny(v)
}

func (f ForwardToAny) DeserializeTupleStruct(_ string, _ int, v Visitor) (any, error) {
	return f.DeserializeAny(v)
}

func (f ForwardToAny) DeserializeStruct(_ string, _ []string, v Visitor) (any, error) {
	return f.DeserializeAny(v)
}

func (f ForwardToAny) DeserializeEnum(_ string, _ []string, v Visitor) (any, error) {
	return f.DeserializeAny(v)
}

// Seed decodes one value from a Deserializer. Sequence and map accessors
// take seeds so callers can carry state (a tag name, a field table) into
// the nested decode.
type Seed interface {
	DeserializeSeed(d Deserializer) (any, error)
}

// SeedFunc adapts a function to a Seed.
type SeedFunc func(d Deserializer) (any, error)

func (f SeedFunc) DeserializeSeed(d Deserializer) (any, error) {
	return f(d)
}

// AnySeed is a Seed that requests any shape from its Deserializer.
type AnySeed struct {
	Visitor Visitor
}

func (s AnySeed) DeserializeSeed(d Deserializer) (any, error) {
	return d.DeserializeAny(s.Visitor)
}

// SeqAccess hands out the elements of a sequence one at a time.
type SeqAccess interface {
	// NextElement decodes the next element with seed. It reports false
	// once the sequence is exhausted.
	NextElement(seed Seed) (any, bool, error)
	// SizeHint reports the number of remaining elements, if known.
	SizeHint() (int, bool)
}

// MapAccess hands out the entries of a map. Every key returned by NextKey
// must be followed by exactly one call to NextValue.
type MapAccess interface {
	NextKey(seed Seed) (any, bool, error)
	NextValue(seed Seed) (any, error)
	SizeHint() (int, bool)
}

// EnumAccess identifies the variant of an enum value.
type EnumAccess interface {
	Variant(seed Seed) (any, VariantAccess, error)
}

// VariantAccess decodes the payload of the variant returned by
// [EnumAccess.Variant].
type VariantAccess interface {
	UnitVariant() error
	NewtypeVariant(seed Seed) (any, error)
	TupleVariant(n int, v Visitor) (any, error)
	StructVariant(fields []string, v Visitor) (any, error)
}
