package shape

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	// The default key holding the variant name of internally and
	// adjacently tagged unions
	defaultTagKey = "_type"

	// The default key holding the payload of adjacently tagged unions
	defaultContentKey = "_value"
)

// Representation selects how a [Union] finds its variant in the input.
type Representation uint8

const (
	// External unions are a map with a single entry from the variant name
	// to the payload, or a bare variant name for unit variants:
	//
	//	{"circle": {"radius": 1}}
	//	"point"
	External Representation = iota

	// Internal unions keep the variant name among the payload's own
	// fields:
	//
	//	{"_type": "circle", "radius": 1}
	Internal

	// Adjacent unions keep the variant name and the payload side by side:
	//
	//	{"_type": "circle", "_value": {"radius": 1}}
	Adjacent

	// Untagged unions carry no variant name. Each variant is tried in
	// order against a buffered copy of the input and the first that
	// decodes wins.
	Untagged
)

func (r Representation) String() string {
	switch r {
	case External:
		return "external"
	case Internal:
		return "internal"
	case Adjacent:
		return "adjacent"
	case Untagged:
		return "untagged"
	}
	return fmt.Sprintf("Representation(%d)", uint8(r))
}

type Config struct {
	Representation Representation

	// TagKey is the key holding the variant name of Internal and Adjacent
	// unions. If unset, defaults to "_type".
	TagKey string

	// ContentKey is the key holding the payload of Adjacent unions. If
	// unset, defaults to "_value".
	ContentKey string

	// By default, Adjacent unions skip keys other than TagKey and
	// ContentKey. If DenyUnknownFields is set, such keys are an error.
	DenyUnknownFields bool
}

// Variant is one alternative of a [Union].
type Variant[T any] struct {
	Name string

	// Unit marks variants without a payload. Their Decode is called with a
	// Deserializer that yields unit.
	Unit bool

	// Decode builds the union's value from the variant's payload.
	Decode func(d Deserializer) (T, error)
}

// Union decodes a value that is one of several variants, each decoding to
// a T (typically an interface type).
type Union[T any] struct {
	name     string
	variants []Variant[T]
	names    []string
	cfg      Config
}

// NewUnion creates a [Union] over variants. Decoding behavior can be
// customized by providing a non-nil [Config].
func NewUnion[T any](name string, variants []Variant[T], cfg *Config) *Union[T] {
	if cfg == nil {
		cfg = &Config{}
	}
	u := &Union[T]{name: name, variants: variants, cfg: *cfg}
	if u.cfg.TagKey == "" {
		u.cfg.TagKey = defaultTagKey
	}
	if u.cfg.ContentKey == "" {
		u.cfg.ContentKey = defaultContentKey
	}
	u.names = make([]string, len(variants))
	for i, v := range variants {
		u.names[i] = v.Name
	}
	return u
}

// Deserialize decodes one value of the union from d.
func (u *Union[T]) Deserialize(d Deserializer) (T, error) {
	var zero T
	var (
		v   any
		err error
	)
	switch u.cfg.Representation {
	case External:
		v, err = d.DeserializeEnum(u.name, u.names, externalVisitor[T]{u: u, mode: d.Mode()})
	case Internal:
		return u.deserializeInternal(d)
	case Adjacent:
		v, err = d.DeserializeStruct(u.name, []string{u.cfg.TagKey, u.cfg.ContentKey}, adjacentVisitor[T]{u: u, mode: d.Mode()})
	case Untagged:
		return u.deserializeUntagged(d)
	default:
		return zero, fmt.Errorf("unsupported union representation %s", u.cfg.Representation)
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Seed adapts the union to the accessors' Seed parameter.
func (u *Union[T]) Seed() Seed {
	return SeedFunc(func(d Deserializer) (any, error) {
		return u.Deserialize(d)
	})
}

func (u *Union[T]) decodeUnit(i int, mode Mode) (T, error) {
	return u.variants[i].Decode(NewUnitDeserializer(mode))
}

func (u *Union[T]) decodePayload(i int, d Deserializer) (T, error) {
	v, err := u.variants[i].Decode(d)
	if err != nil {
		return v, fmt.Errorf("failed to decode variant %s: %w", u.variants[i].Name, err)
	}
	return v, nil
}

// variantSeed resolves a variant name, or its index, to the index of the
// variant.
func (u *Union[T]) variantSeed() Seed {
	return SeedFunc(func(d Deserializer) (any, error) {
		return d.DeserializeIdentifier(variantVisitor{names: u.names})
	})
}

type variantVisitor struct {
	names []string
}

func (vv variantVisitor) Expecting() string { return "variant identifier" }

func (vv variantVisitor) VisitStr(v string) (any, error) {
	for i, n := range vv.names {
		if n == v {
			return i, nil
		}
	}
	return nil, UnknownVariantError{Variant: v, Expected: vv.names}
}

func (vv variantVisitor) VisitBytes(v []byte) (any, error) {
	if !utf8.Valid(v) {
		return nil, InvalidValueError{Unexpected: Unexpected{Kind: UnexpectedBytes}, Expected: vv.Expecting()}
	}
	return vv.VisitStr(string(v))
}

func (vv variantVisitor) VisitU64(v uint64) (any, error) {
	if v >= uint64(len(vv.names)) {
		return nil, InvalidValueError{
			Unexpected: Unexpected{Kind: UnexpectedUnsigned, Unsigned: v},
			Expected:   fmt.Sprintf("variant index 0 <= i < %d", len(vv.names)),
		}
	}
	return int(v), nil
}

type externalVisitor[T any] struct {
	u    *Union[T]
	mode Mode
}

func (ev externalVisitor[T]) Expecting() string {
	return fmt.Sprintf("enum %s", ev.u.name)
}

func (ev externalVisitor[T]) VisitEnum(e EnumAccess) (any, error) {
	idx, va, err := e.Variant(ev.u.variantSeed())
	if err != nil {
		return nil, err
	}
	i := idx.(int)
	if ev.u.variants[i].Unit {
		if err := va.UnitVariant(); err != nil {
			return nil, err
		}
		return ev.u.decodeUnit(i, ev.mode)
	}
	return va.NewtypeVariant(SeedFunc(func(d Deserializer) (any, error) {
		return ev.u.decodePayload(i, d)
	}))
}

func (u *Union[T]) deserializeInternal(d Deserializer) (T, error) {
	var zero T
	tc, err := DeserializeTaggedContent(d, u.cfg.TagKey, u.variantSeed())
	if err != nil {
		return zero, err
	}
	i := tc.Tag.(int)
	rest := NewContentDeserializer(tc.Content)
	if u.variants[i].Unit {
		uv := InternallyTaggedUnitVisitor{TypeName: u.name, VariantName: u.variants[i].Name}
		if _, err := rest.DeserializeAny(uv); err != nil {
			return zero, err
		}
		return u.decodeUnit(i, d.Mode())
	}
	return u.decodePayload(i, rest)
}

type adjacentVisitor[T any] struct {
	u    *Union[T]
	mode Mode
}

func (av adjacentVisitor[T]) Expecting() string {
	return fmt.Sprintf("adjacently tagged enum %s", av.u.name)
}

// decodeContent decodes the payload of variant i from d, which holds the
// value of the content key.
func (av adjacentVisitor[T]) decodeContent(i int, d Deserializer) (T, error) {
	if av.u.variants[i].Unit {
		var zero T
		if err := Unit(d); err != nil {
			return zero, err
		}
		return av.u.decodeUnit(i, d.Mode())
	}
	return av.u.decodePayload(i, d)
}

func (av adjacentVisitor[T]) VisitMap(m MapAccess) (any, error) {
	u := av.u
	var keySeed Seed = TagContentOtherFieldSeed{Tag: u.cfg.TagKey, Content: u.cfg.ContentKey}
	if u.cfg.DenyUnknownFields {
		keySeed = TagOrContentFieldSeed{Tag: u.cfg.TagKey, Content: u.cfg.ContentKey}
	}

	// The content may come before the tag. In that case it is buffered
	// and decoded once the tag is known; otherwise it is decoded in place.
	var (
		variant  = -1
		buffered *Content
		value    any
		decoded  bool
	)
	for {
		k, ok, err := m.NextKey(keySeed)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		switch k.(Field) {
		case FieldTag:
			if variant >= 0 {
				return nil, DuplicateFieldError{Field: u.cfg.TagKey}
			}
			idx, err := m.NextValue(u.variantSeed())
			if err != nil {
				return nil, err
			}
			variant = idx.(int)
		case FieldContent:
			if buffered != nil || decoded {
				return nil, DuplicateFieldError{Field: u.cfg.ContentKey}
			}
			if variant >= 0 {
				i := variant
				if value, err = m.NextValue(SeedFunc(func(d Deserializer) (any, error) {
					return av.decodeContent(i, d)
				})); err != nil {
					return nil, err
				}
				decoded = true
				continue
			}
			c, err := m.NextValue(ContentSeed)
			if err != nil {
				return nil, err
			}
			cc := c.(Content)
			buffered = &cc
		default:
			if _, err := m.NextValue(ignoreSeed); err != nil {
				return nil, err
			}
		}
	}

	switch {
	case variant < 0:
		return nil, MissingFieldError{Field: u.cfg.TagKey}
	case decoded:
		return value, nil
	case buffered != nil:
		return av.decodeContent(variant, NewContentDeserializer(*buffered))
	case u.variants[variant].Unit:
		return u.decodeUnit(variant, av.mode)
	}
	return nil, MissingFieldError{Field: u.cfg.ContentKey}
}

// VisitSeq accepts the positional form [tag, content].
func (av adjacentVisitor[T]) VisitSeq(seq SeqAccess) (any, error) {
	u := av.u
	idx, ok, err := seq.NextElement(u.variantSeed())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, InvalidLengthError{Len: 0, Expected: "tuple with 2 elements"}
	}
	i := idx.(int)
	v, ok, err := seq.NextElement(SeedFunc(func(d Deserializer) (any, error) {
		return av.decodeContent(i, d)
	}))
	if err != nil {
		return nil, err
	}
	if !ok {
		if u.variants[i].Unit {
			return u.decodeUnit(i, av.mode)
		}
		return nil, InvalidLengthError{Len: 1, Expected: "tuple with 2 elements"}
	}
	return v, nil
}

// deserializeUntagged tries each variant in turn:
//
//  1. Capture the input once as a Content
//  2. Replay it by reference into the next variant, leaving the Content
//     intact for the variants after it
//  3. Return the first variant that decodes without error
func (u *Union[T]) deserializeUntagged(d Deserializer) (T, error) {
	var zero T
	c, err := CaptureContent(d)
	if err != nil {
		return zero, err
	}
	var errs []error
	for i, v := range u.variants {
		ref := NewContentRefDeserializer(&c)
		if v.Unit {
			uv := UntaggedUnitVisitor{TypeName: u.name, VariantName: v.Name}
			if _, err := ref.DeserializeAny(uv); err != nil {
				errs = append(errs, err)
				continue
			}
			return u.decodeUnit(i, c.Mode)
		}
		out, err := u.decodePayload(i, ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return out, nil
	}
	return zero, UntaggedError{Union: u.name, Attempts: errs}
}

// UntaggedError is returned when no variant of an untagged [Union] accepts
// the input. Attempts holds the error of each variant, in order.
type UntaggedError struct {
	Union    string
	Attempts []error
}

func (e UntaggedError) Error() string {
	return fmt.Sprintf("data did not match any variant of untagged enum %s", e.Union)
}

func (e UntaggedError) Unwrap() error {
	return errors.Join(e.Attempts...)
}
