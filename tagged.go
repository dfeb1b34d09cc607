package shape

import "fmt"

// TaggedContent is an internally tagged value split into its decoded tag
// and the remaining input.
type TaggedContent struct {
	Tag     any
	Content Content
}

// DeserializeTaggedContent reads a value whose variant is named by one of
// its own fields. The tag is decoded with the tag seed; every other entry
// is buffered, in order, as a map Content for the chosen variant to
// decode. A sequence input carries the tag as its first element and the
// remaining elements become a sequence Content.
func DeserializeTaggedContent(d Deserializer, tagName string, tag Seed) (TaggedContent, error) {
	v, err := d.DeserializeAny(taggedContentVisitor{tagName: tagName, tag: tag, mode: d.Mode()})
	if err != nil {
		return TaggedContent{}, err
	}
	return v.(TaggedContent), nil
}

type taggedContentVisitor struct {
	tagName string
	tag     Seed
	mode    Mode
}

func (tv taggedContentVisitor) Expecting() string { return "internally tagged enum" }

func (tv taggedContentVisitor) VisitSeq(seq SeqAccess) (any, error) {
	tag, ok, err := seq.NextElement(tv.tag)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, MissingFieldError{Field: tv.tagName}
	}
	rest, err := CaptureContent(NewSeqAccessDeserializer(seq, tv.mode))
	if err != nil {
		return nil, err
	}
	return TaggedContent{Tag: tag, Content: rest}, nil
}

func (tv taggedContentVisitor) VisitMap(m MapAccess) (any, error) {
	var (
		tag   any
		found bool
	)
	pairs := make([]Pair, 0, Cautious(m.SizeHint()))
	keySeed := tagOrContentSeed{name: tv.tagName}
	for {
		k, ok, err := m.NextKey(keySeed)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		key := k.(tagOrContent)
		if key.isTag {
			if found {
				return nil, DuplicateFieldError{Field: tv.tagName}
			}
			if tag, err = m.NextValue(tv.tag); err != nil {
				return nil, err
			}
			found = true
			continue
		}
		v, err := m.NextValue(ContentSeed)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Key: key.content, Value: v.(Content)})
	}
	if !found {
		return nil, MissingFieldError{Field: tv.tagName}
	}
	return TaggedContent{Tag: tag, Content: Content{Kind: ContentMap, Mode: tv.mode, Map: pairs}}, nil
}

// tagOrContent is a map key that is either the tag field or some other
// key, captured as content.
type tagOrContent struct {
	isTag   bool
	content Content
}

type tagOrContentSeed struct {
	name string
}

func (s tagOrContentSeed) DeserializeSeed(d Deserializer) (any, error) {
	return d.DeserializeAny(tagOrContentVisitor{name: s.name, inner: contentVisitor{mode: d.Mode()}})
}

// tagOrContentVisitor matches string and byte keys against the tag name
// and captures everything else.
type tagOrContentVisitor struct {
	name  string
	inner contentVisitor
}

func (t tagOrContentVisitor) Expecting() string {
	return fmt.Sprintf("a type tag `%s` or any other value", t.name)
}

func (t tagOrContentVisitor) wrap(v any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return tagOrContent{content: v.(Content)}, nil
}

func (t tagOrContentVisitor) VisitStr(v string) (any, error) {
	if v == t.name {
		return tagOrContent{isTag: true}, nil
	}
	return t.wrap(t.inner.VisitStr(v))
}

func (t tagOrContentVisitor) VisitBorrowedStr(v string) (any, error) {
	if v == t.name {
		return tagOrContent{isTag: true}, nil
	}
	return t.wrap(t.inner.VisitBorrowedStr(v))
}

func (t tagOrContentVisitor) VisitString(v string) (any, error) {
	if v == t.name {
		return tagOrContent{isTag: true}, nil
	}
	return t.wrap(t.inner.VisitString(v))
}

func (t tagOrContentVisitor) VisitBytes(v []byte) (any, error) {
	if string(v) == t.name {
		return tagOrContent{isTag: true}, nil
	}
	return t.wrap(t.inner.VisitBytes(v))
}

func (t tagOrContentVisitor) VisitBorrowedBytes(v []byte) (any, error) {
	if string(v) == t.name {
		return tagOrContent{isTag: true}, nil
	}
	return t.wrap(t.inner.VisitBorrowedBytes(v))
}

func (t tagOrContentVisitor) VisitByteBuf(v []byte) (any, error) {
	if string(v) == t.name {
		return tagOrContent{isTag: true}, nil
	}
	return t.wrap(t.inner.VisitByteBuf(v))
}

func (t tagOrContentVisitor) VisitBool(v bool) (any, error)  { return t.wrap(t.inner.VisitBool(v)) }
func (t tagOrContentVisitor) VisitI8(v int8) (any, error)    { return t.wrap(t.inner.VisitI8(v)) }
func (t tagOrContentVisitor) VisitI16(v int16) (any, error)  { return t.wrap(t.inner.VisitI16(v)) }
func (t tagOrContentVisitor) VisitI32(v int32) (any, error)  { return t.wrap(t.inner.VisitI32(v)) }
func (t tagOrContentVisitor) VisitI64(v int64) (any, error)  { return t.wrap(t.inner.VisitI64(v)) }
func (t tagOrContentVisitor) VisitU8(v uint8) (any, error)   { return t.wrap(t.inner.VisitU8(v)) }
func (t tagOrContentVisitor) VisitU16(v uint16) (any, error) { return t.wrap(t.inner.VisitU16(v)) }
func (t tagOrContentVisitor) VisitU32(v uint32) (any, error) { return t.wrap(t.inner.VisitU32(v)) }
func (t tagOrContentVisitor) VisitU64(v uint64) (any, error) { return t.wrap(t.inner.VisitU64(v)) }
func (t tagOrContentVisitor) VisitF32(v float32) (any, error) {
	return t.wrap(t.inner.VisitF32(v))
}
func (t tagOrContentVisitor) VisitF64(v float64) (any, error) {
	return t.wrap(t.inner.VisitF64(v))
}
func (t tagOrContentVisitor) VisitChar(v rune) (any, error) { return t.wrap(t.inner.VisitChar(v)) }
func (t tagOrContentVisitor) VisitUnit() (any, error)       { return t.wrap(t.inner.VisitUnit()) }
func (t tagOrContentVisitor) VisitNone() (any, error)       { return t.wrap(t.inner.VisitNone()) }

func (t tagOrContentVisitor) VisitSome(d Deserializer) (any, error) {
	return t.wrap(t.inner.VisitSome(d))
}

func (t tagOrContentVisitor) VisitNewtypeStruct(d Deserializer) (any, error) {
	return t.wrap(t.inner.VisitNewtypeStruct(d))
}

func (t tagOrContentVisitor) VisitSeq(seq SeqAccess) (any, error) {
	return t.wrap(t.inner.VisitSeq(seq))
}

func (t tagOrContentVisitor) VisitMap(m MapAccess) (any, error) {
	return t.wrap(t.inner.VisitMap(m))
}

func (t tagOrContentVisitor) VisitEnum(e EnumAccess) (any, error) {
	return t.wrap(t.inner.VisitEnum(e))
}

// Field classifies a key of an adjacently tagged value.
type Field uint8

const (
	FieldTag Field = iota
	FieldContent
	FieldOther
)

func (f Field) String() string {
	switch f {
	case FieldTag:
		return "tag"
	case FieldContent:
		return "content"
	}
	return "other"
}

// TagOrContentFieldSeed classifies a key as the tag key or the content key
// and rejects every other key with an InvalidValueError.
type TagOrContentFieldSeed struct {
	Tag     string
	Content string
}

func (s TagOrContentFieldSeed) DeserializeSeed(d Deserializer) (any, error) {
	return d.DeserializeStr(fieldVisitor{tag: s.Tag, content: s.Content})
}

// TagContentOtherFieldSeed classifies a key as the tag key, the content
// key, or [FieldOther].
type TagContentOtherFieldSeed struct {
	Tag     string
	Content string
}

func (s TagContentOtherFieldSeed) DeserializeSeed(d Deserializer) (any, error) {
	return d.DeserializeStr(fieldVisitor{tag: s.Tag, content: s.Content, allowOther: true})
}

type fieldVisitor struct {
	tag, content string
	allowOther   bool
}

func (f fieldVisitor) Expecting() string {
	if f.allowOther {
		return fmt.Sprintf("%q, %q, or other ignored fields", f.tag, f.content)
	}
	return fmt.Sprintf("%q or %q", f.tag, f.content)
}

func (f fieldVisitor) classify(key string) (Field, bool) {
	switch {
	case key == f.tag:
		return FieldTag, true
	case key == f.content:
		return FieldContent, true
	case f.allowOther:
		return FieldOther, true
	}
	return 0, false
}

func (f fieldVisitor) VisitStr(v string) (any, error) {
	if field, ok := f.classify(v); ok {
		return field, nil
	}
	return nil, InvalidValueError{Unexpected: Unexpected{Kind: UnexpectedStr, Str: v}, Expected: f.Expecting()}
}
