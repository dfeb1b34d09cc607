package shape

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// ContentKind identifies the case held by a [Content].
type ContentKind uint8

const (
	ContentInvalid ContentKind = iota
	ContentBool
	ContentU8
	ContentU16
	ContentU32
	ContentU64
	ContentI8
	ContentI16
	ContentI32
	ContentI64
	ContentF32
	ContentF64
	ContentChar
	// ContentString is an owned string.
	ContentString
	// ContentStr is a string borrowed from the source's input.
	ContentStr
	// ContentByteBuf is an owned byte slice.
	ContentByteBuf
	// ContentBytes is a byte slice borrowed from the source's input.
	ContentBytes
	ContentNone
	ContentSome
	ContentUnit
	ContentNewtype
	ContentSeq
	ContentMap
)

var contentKindNames = [...]string{
	ContentInvalid: "invalid",
	ContentBool:    "bool",
	ContentU8:      "u8",
	ContentU16:     "u16",
	ContentU32:     "u32",
	ContentU64:     "u64",
	ContentI8:      "i8",
	ContentI16:     "i16",
	ContentI32:     "i32",
	ContentI64:     "i64",
	ContentF32:     "f32",
	ContentF64:     "f64",
	ContentChar:    "char",
	ContentString:  "string",
	ContentStr:     "str",
	ContentByteBuf: "bytebuf",
	ContentBytes:   "bytes",
	ContentNone:    "none",
	ContentSome:    "some",
	ContentUnit:    "unit",
	ContentNewtype: "newtype",
	ContentSeq:     "seq",
	ContentMap:     "map",
}

func (k ContentKind) String() string {
	if int(k) < len(contentKindNames) {
		return contentKindNames[k]
	}
	return "invalid"
}

// Content is a buffered, format-independent copy of one decoded value. It
// is built by [CaptureContent] and replayed by [NewContentDeserializer] or
// [NewContentRefDeserializer] so the same input can be examined more than
// once, e.g. to find a tag or to try several candidate shapes.
//
// Only the fields that belong to Kind are set: Uint for unsigned cases,
// Int for signed cases, Float for both float cases, Str for String and
// Str, Bytes for ByteBuf and Bytes, Inner for Some and Newtype, Seq and
// Map for the container cases. Map keeps its entries in input order,
// duplicates included.
type Content struct {
	Kind  ContentKind
	Mode  Mode
	Bool  bool
	Uint  uint64
	Int   int64
	Float float64
	Char  rune
	Str   string
	Bytes []byte
	Inner *Content
	Seq   []Content
	Map   []Pair
}

// Pair is one map entry of a [Content].
type Pair struct {
	Key   Content
	Value Content
}

// AsStr returns the text held by a string or byte case. Byte cases count
// only when they are valid UTF-8.
func (c *Content) AsStr() (string, bool) {
	switch c.Kind {
	case ContentString, ContentStr:
		return c.Str, true
	case ContentByteBuf, ContentBytes:
		if utf8.Valid(c.Bytes) {
			return string(c.Bytes), true
		}
	}
	return "", false
}

// Unexpected describes c for error messages.
func (c *Content) Unexpected() Unexpected {
	switch c.Kind {
	case ContentBool:
		return Unexpected{Kind: UnexpectedBool, Bool: c.Bool}
	case ContentU8, ContentU16, ContentU32, ContentU64:
		return Unexpected{Kind: UnexpectedUnsigned, Unsigned: c.Uint}
	case ContentI8, ContentI16, ContentI32, ContentI64:
		return Unexpected{Kind: UnexpectedSigned, Signed: c.Int}
	case ContentF32, ContentF64:
		return Unexpected{Kind: UnexpectedFloat, Float: c.Float}
	case ContentChar:
		return Unexpected{Kind: UnexpectedChar, Char: c.Char}
	case ContentString, ContentStr:
		return Unexpected{Kind: UnexpectedStr, Str: c.Str}
	case ContentByteBuf, ContentBytes:
		return Unexpected{Kind: UnexpectedBytes, Bytes: c.Bytes}
	case ContentNone, ContentSome:
		return Unexpected{Kind: UnexpectedOption}
	case ContentUnit:
		return Unexpected{Kind: UnexpectedUnit}
	case ContentNewtype:
		return Unexpected{Kind: UnexpectedNewtypeStruct}
	case ContentSeq:
		return Unexpected{Kind: UnexpectedSeq}
	case ContentMap:
		return Unexpected{Kind: UnexpectedMap}
	}
	return Unexpected{Other: "empty content"}
}

// CaptureContent reads one value of any shape from d into a Content.
// Transient strings and bytes are copied; borrowed ones keep aliasing the
// source's input.
func CaptureContent(d Deserializer) (Content, error) {
	v, err := d.DeserializeAny(contentVisitor{mode: d.Mode()})
	if err != nil {
		return Content{}, err
	}
	return v.(Content), nil
}

// ContentSeed is a Seed that captures a [Content].
var ContentSeed Seed = SeedFunc(func(d Deserializer) (any, error) {
	return CaptureContent(d)
})

type contentVisitor struct {
	mode Mode
}

func (cv contentVisitor) Expecting() string { return "any value" }

func (cv contentVisitor) scalar(c Content) (any, error) {
	c.Mode = cv.mode
	return c, nil
}

func (cv contentVisitor) VisitBool(v bool) (any, error) {
	return cv.scalar(Content{Kind: ContentBool, Bool: v})
}

func (cv contentVisitor) VisitI8(v int8) (any, error) {
	return cv.scalar(Content{Kind: ContentI8, Int: int64(v)})
}

func (cv contentVisitor) VisitI16(v int16) (any, error) {
	return cv.scalar(Content{Kind: ContentI16, Int: int64(v)})
}

func (cv contentVisitor) VisitI32(v int32) (any, error) {
	return cv.scalar(Content{Kind: ContentI32, Int: int64(v)})
}

func (cv contentVisitor) VisitI64(v int64) (any, error) {
	return cv.scalar(Content{Kind: ContentI64, Int: v})
}

func (cv contentVisitor) VisitU8(v uint8) (any, error) {
	return cv.scalar(Content{Kind: ContentU8, Uint: uint64(v)})
}

func (cv contentVisitor) VisitU16(v uint16) (any, error) {
	return cv.scalar(Content{Kind: ContentU16, Uint: uint64(v)})
}

func (cv contentVisitor) VisitU32(v uint32) (any, error) {
	return cv.scalar(Content{Kind: ContentU32, Uint: uint64(v)})
}

func (cv contentVisitor) VisitU64(v uint64) (any, error) {
	return cv.scalar(Content{Kind: ContentU64, Uint: v})
}

func (cv contentVisitor) VisitF32(v float32) (any, error) {
	return cv.scalar(Content{Kind: ContentF32, Float: float64(v)})
}

func (cv contentVisitor) VisitF64(v float64) (any, error) {
	return cv.scalar(Content{Kind: ContentF64, Float: v})
}

func (cv contentVisitor) VisitChar(v rune) (any, error) {
	return cv.scalar(Content{Kind: ContentChar, Char: v})
}

func (cv contentVisitor) VisitStr(v string) (any, error) {
	return cv.scalar(Content{Kind: ContentString, Str: strings.Clone(v)})
}

func (cv contentVisitor) VisitBorrowedStr(v string) (any, error) {
	return cv.scalar(Content{Kind: ContentStr, Str: v})
}

func (cv contentVisitor) VisitString(v string) (any, error) {
	return cv.scalar(Content{Kind: ContentString, Str: v})
}

func (cv contentVisitor) VisitBytes(v []byte) (any, error) {
	return cv.scalar(Content{Kind: ContentByteBuf, Bytes: bytes.Clone(v)})
}

func (cv contentVisitor) VisitBorrowedBytes(v []byte) (any, error) {
	return cv.scalar(Content{Kind: ContentBytes, Bytes: v})
}

func (cv contentVisitor) VisitByteBuf(v []byte) (any, error) {
	return cv.scalar(Content{Kind: ContentByteBuf, Bytes: v})
}

func (cv contentVisitor) VisitUnit() (any, error) {
	return cv.scalar(Content{Kind: ContentUnit})
}

func (cv contentVisitor) VisitNone() (any, error) {
	return cv.scalar(Content{Kind: ContentNone})
}

func (cv contentVisitor) VisitSome(d Deserializer) (any, error) {
	inner, err := CaptureContent(d)
	if err != nil {
		return nil, err
	}
	return cv.scalar(Content{Kind: ContentSome, Inner: &inner})
}

func (cv contentVisitor) VisitNewtypeStruct(d Deserializer) (any, error) {
	inner, err := CaptureContent(d)
	if err != nil {
		return nil, err
	}
	return cv.scalar(Content{Kind: ContentNewtype, Inner: &inner})
}

func (cv contentVisitor) VisitSeq(seq SeqAccess) (any, error) {
	elems := make([]Content, 0, Cautious(seq.SizeHint()))
	for {
		v, ok, err := seq.NextElement(ContentSeed)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		elems = append(elems, v.(Content))
	}
	return cv.scalar(Content{Kind: ContentSeq, Seq: elems})
}

func (cv contentVisitor) VisitMap(m MapAccess) (any, error) {
	pairs := make([]Pair, 0, Cautious(m.SizeHint()))
	for {
		k, ok, err := m.NextKey(ContentSeed)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		v, err := m.NextValue(ContentSeed)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Key: k.(Content), Value: v.(Content)})
	}
	return cv.scalar(Content{Kind: ContentMap, Map: pairs})
}

func (cv contentVisitor) VisitEnum(EnumAccess) (any, error) {
	return nil, CustomError{Msg: "untagged and internally tagged enums do not support enum input"}
}
