package shape

// Visitor receives one value from a [Deserializer]. A Visitor declares the
// shapes it accepts by implementing the matching optional interfaces below
// (BoolVisitor, StrVisitor, MapVisitor, ...). Expecting describes what the
// visitor wanted and is used in error messages, e.g. "a string".
//
// Sources deliver values through the package-level Visit functions, which
// fall back to a wider shape when the visitor lacks the narrow one:
// signed integers widen to i64, unsigned to u64, f32 to f64, chars become
// strings, and borrowed or owned strings and bytes are delivered as
// transient ones. A shape with no fallback is an [InvalidTypeError].
type Visitor interface {
	Expecting() string
}

type (
	BoolVisitor interface{ VisitBool(v bool) (any, error) }
	I8Visitor   interface{ VisitI8(v int8) (any, error) }
	I16Visitor  interface{ VisitI16(v int16) (any, error) }
	I32Visitor  interface{ VisitI32(v int32) (any, error) }
	I64Visitor  interface{ VisitI64(v int64) (any, error) }
	U8Visitor   interface{ VisitU8(v uint8) (any, error) }
	U16Visitor  interface{ VisitU16(v uint16) (any, error) }
	U32Visitor  interface{ VisitU32(v uint32) (any, error) }
	U64Visitor  interface{ VisitU64(v uint64) (any, error) }
	F32Visitor  interface{ VisitF32(v float32) (any, error) }
	F64Visitor  interface{ VisitF64(v float64) (any, error) }
	CharVisitor interface{ VisitChar(v rune) (any, error) }
)

// StrVisitor receives a transient string. The receiver must copy it to
// keep it.
type StrVisitor interface {
	VisitStr(v string) (any, error)
}

// BorrowedStrVisitor receives a string aliasing the source's input, valid
// as long as that input.
type BorrowedStrVisitor interface {
	VisitBorrowedStr(v string) (any, error)
}

// StringVisitor receives a string the receiver may keep.
type StringVisitor interface {
	VisitString(v string) (any, error)
}

// BytesVisitor receives a transient byte slice. The receiver must copy it
// to keep it.
type BytesVisitor interface {
	VisitBytes(v []byte) (any, error)
}

// BorrowedBytesVisitor receives bytes aliasing the source's input.
type BorrowedBytesVisitor interface {
	VisitBorrowedBytes(v []byte) (any, error)
}

// ByteBufVisitor receives a byte slice the receiver may keep.
type ByteBufVisitor interface {
	VisitByteBuf(v []byte) (any, error)
}

type (
	NoneVisitor    interface{ VisitNone() (any, error) }
	SomeVisitor    interface{ VisitSome(d Deserializer) (any, error) }
	UnitVisitor    interface{ VisitUnit() (any, error) }
	NewtypeVisitor interface{ VisitNewtypeStruct(d Deserializer) (any, error) }
	SeqVisitor     interface{ VisitSeq(seq SeqAccess) (any, error) }
	MapVisitor     interface{ VisitMap(m MapAccess) (any, error) }
	EnumVisitor    interface{ VisitEnum(e EnumAccess) (any, error) }
)

// UntaggedOptionVisitor is implemented by option receivers that can decode
// their element directly from flattened input. An error from the element
// decode should produce an absent value rather than fail.
type UntaggedOptionVisitor interface {
	VisitUntaggedOption(d Deserializer) (any, error)
}

func VisitBool(v Visitor, x bool) (any, error) {
	if bv, ok := v.(BoolVisitor); ok {
		return bv.VisitBool(x)
	}
	return nil, invalidType(Unexpected{Kind: UnexpectedBool, Bool: x}, v)
}

func VisitI8(v Visitor, x int8) (any, error) {
	if iv, ok := v.(I8Visitor); ok {
		return iv.VisitI8(x)
	}
	return VisitI64(v, int64(x))
}

func VisitI16(v Visitor, x int16) (any, error) {
	if iv, ok := v.(I16Visitor); ok {
		return iv.VisitI16(x)
	}
	return VisitI64(v, int64(x))
}

func VisitI32(v Visitor, x int32) (any, error) {
	if iv, ok := v.(I32Visitor); ok {
		return iv.VisitI32(x)
	}
	return VisitI64(v, int64(x))
}

func VisitI64(v Visitor, x int64) (any, error) {
	if iv, ok := v.(I64Visitor); ok {
		return iv.VisitI64(x)
	}
	return nil, invalidType(Unexpected{Kind: UnexpectedSigned, Signed: x}, v)
}

func VisitU8(v Visitor, x uint8) (any, error) {
	if uv, ok := v.(U8Visitor); ok {
		return uv.VisitU8(x)
	}
	return VisitU64(v, uint64(x))
}

func VisitU16(v Visitor, x uint16) (any, error) {
	if uv, ok := v.(U16Visitor); ok {
		return uv.VisitU16(x)
	}
	return VisitU64(v, uint64(x))
}

func VisitU32(v Visitor, x uint32) (any, error) {
	if uv, ok := v.(U32Visitor); ok {
		return uv.VisitU32(x)
	}
	return VisitU64(v, uint64(x))
}

func VisitU64(v Visitor, x uint64) (any, error) {
	if uv, ok := v.(U64Visitor); ok {
		return uv.VisitU64(x)
	}
	return nil, invalidType(Unexpected{Kind: UnexpectedUnsigned, Unsigned: x}, v)
}

func VisitF32(v Visitor, x float32) (any, error) {
	if fv, ok := v.(F32Visitor); ok {
		return fv.VisitF32(x)
	}
	return VisitF64(v, float64(x))
}

func VisitF64(v Visitor, x float64) (any, error) {
	if fv, ok := v.(F64Visitor); ok {
		return fv.VisitF64(x)
	}
	return nil, invalidType(Unexpected{Kind: UnexpectedFloat, Float: x}, v)
}

// VisitChar falls back to the rune's UTF-8 encoding as a transient string.
func VisitChar(v Visitor, x rune) (any, error) {
	if cv, ok := v.(CharVisitor); ok {
		return cv.VisitChar(x)
	}
	return VisitStr(v, string(x))
}

func VisitStr(v Visitor, x string) (any, error) {
	if sv, ok := v.(StrVisitor); ok {
		return sv.VisitStr(x)
	}
	return nil, invalidType(Unexpected{Kind: UnexpectedStr, Str: x}, v)
}

func VisitBorrowedStr(v Visitor, x string) (any, error) {
	if sv, ok := v.(BorrowedStrVisitor); ok {
		return sv.VisitBorrowedStr(x)
	}
	return VisitStr(v, x)
}

func VisitString(v Visitor, x string) (any, error) {
	if sv, ok := v.(StringVisitor); ok {
		return sv.VisitString(x)
	}
	return VisitStr(v, x)
}

func VisitBytes(v Visitor, x []byte) (any, error) {
	if bv, ok := v.(BytesVisitor); ok {
		return bv.VisitBytes(x)
	}
	return nil, invalidType(Unexpected{Kind: UnexpectedBytes, Bytes: x}, v)
}

func VisitBorrowedBytes(v Visitor, x []byte) (any, error) {
	if bv, ok := v.(BorrowedBytesVisitor); ok {
		return bv.VisitBorrowedBytes(x)
	}
	return VisitBytes(v, x)
}

func VisitByteBuf(v Visitor, x []byte) (any, error) {
	if bv, ok := v.(ByteBufVisitor); ok {
		return bv.VisitByteBuf(x)
	}
	return VisitBytes(v, x)
}

func VisitNone(v Visitor) (any, error) {
	if nv, ok := v.(NoneVisitor); ok {
		return nv.VisitNone()
	}
	return nil, invalidType(Unexpected{Kind: UnexpectedOption}, v)
}

func VisitSome(v Visitor, d Deserializer) (any, error) {
	if sv, ok := v.(SomeVisitor); ok {
		return sv.VisitSome(d)
	}
	return nil, invalidType(Unexpected{Kind: UnexpectedOption}, v)
}

func VisitUnit(v Visitor) (any, error) {
	if uv, ok := v.(UnitVisitor); ok {
		return uv.VisitUnit()
	}
	return nil, invalidType(Unexpected{Kind: UnexpectedUnit}, v)
}

func VisitNewtypeStruct(v Visitor, d Deserializer) (any, error) {
	if nv, ok := v.(NewtypeVisitor); ok {
		return nv.VisitNewtypeStruct(d)
	}
	return nil, invalidType(Unexpected{Kind: UnexpectedNewtypeStruct}, v)
}

func VisitSeq(v Visitor, seq SeqAccess) (any, error) {
	if sv, ok := v.(SeqVisitor); ok {
		return sv.VisitSeq(seq)
	}
	return nil, invalidType(Unexpected{Kind: UnexpectedSeq}, v)
}

func VisitMap(v Visitor, m MapAccess) (any, error) {
	if mv, ok := v.(MapVisitor); ok {
		return mv.VisitMap(m)
	}
	return nil, invalidType(Unexpected{Kind: UnexpectedMap}, v)
}

func VisitEnum(v Visitor, e EnumAccess) (any, error) {
	if ev, ok := v.(EnumVisitor); ok {
		return ev.VisitEnum(e)
	}
	return nil, invalidType(Unexpected{Kind: UnexpectedEnum}, v)
}
