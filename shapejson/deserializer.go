package shapejson

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dhoelle/shape"
	"github.com/go-json-experiment/json/jsontext"
)

// DefaultMaxDepth is the nesting limit used when Options.MaxDepth is zero.
const DefaultMaxDepth = 128

// Options configures a Deserializer. A nil *Options means defaults.
type Options struct {
	// AllowComments accepts JSONC input: comments and trailing commas are
	// stripped before decoding. Only honored by [Unmarshal].
	AllowComments bool

	// MaxDepth bounds the nesting of arrays and objects. If unset, defaults
	// to DefaultMaxDepth.
	MaxDepth int
}

func (o *Options) maxDepth() int {
	if o == nil || o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Deserializer reads one JSON value from a [jsontext.Decoder].
//
// Strings are delivered as owned strings. Numbers are delivered as u64
// when they are non-negative integers, i64 when they are negative
// integers, and f64 otherwise; integers too large for 64 bits fall back to
// f64. null is unit, or absent for option requests.
type Deserializer struct {
	shape.ForwardToAny

	dec      *jsontext.Decoder
	depth    int
	maxDepth int
}

// NewDeserializer returns a Deserializer reading from dec.
func NewDeserializer(dec *jsontext.Decoder, opts *Options) *Deserializer {
	d := &Deserializer{dec: dec, maxDepth: opts.maxDepth()}
	d.ForwardToAny = shape.ForwardToAny{AnyDeserializer: d}
	return d
}

func (d *Deserializer) Mode() shape.Mode { return shape.HumanReadable }

func (d *Deserializer) DeserializeAny(v shape.Visitor) (any, error) {
	switch d.dec.PeekKind() {
	case '[':
		return d.deserializeArray(v)
	case '{':
		return d.deserializeObject(v)
	}
	tok, err := d.dec.ReadToken()
	if err != nil {
		return nil, err
	}
	switch tok.Kind() {
	case 'n':
		return shape.VisitUnit(v)
	case 't', 'f':
		return shape.VisitBool(v, tok.Bool())
	case '"':
		return shape.VisitString(v, tok.String())
	case '0':
		return visitNumber(v, tok.String())
	}
	return nil, fmt.Errorf("unexpected JSON token %s", tok.Kind())
}

func visitNumber(v shape.Visitor, raw string) (any, error) {
	if !strings.ContainsAny(raw, ".eE") {
		if strings.HasPrefix(raw, "-") {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return shape.VisitI64(v, n)
			}
		} else if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			return shape.VisitU64(v, n)
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse number %s: %w", raw, err)
	}
	return shape.VisitF64(v, f)
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
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()
	if _, err := d.dec.ReadToken(); err != nil {
		return nil, err
	}
	out, err := shape.VisitSeq(v, arrayAccess{d})
	if err != nil {
		return nil, err
	}
	if d.dec.PeekKind() != ']' {
		return nil, shape.Errorf("trailing elements in array")
	}
	if _, err := d.dec.ReadToken(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Deserializer) deserializeObject(v shape.Visitor) (any, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()
	if _, err := d.dec.ReadToken(); err != nil {
		return nil, err
	}
	out, err := shape.VisitMap(v, &objectAccess{d: d})
	if err != nil {
		return nil, err
	}
	if d.dec.PeekKind() != '}' {
		return nil, shape.Errorf("trailing members in object")
	}
	if _, err := d.dec.ReadToken(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Deserializer) DeserializeOption(v shape.Visitor) (any, error) {
	if d.dec.PeekKind() == 'n' {
		if _, err := d.dec.ReadToken(); err != nil {
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
	if err := d.dec.SkipValue(); err != nil {
		return nil, err
	}
	return shape.VisitUnit(v)
}

// DeserializeEnum accepts a string naming a unit variant, or an object
// with a single member from the variant name to its payload.
func (d *Deserializer) DeserializeEnum(_ string, _ []string, v shape.Visitor) (any, error) {
	switch d.dec.PeekKind() {
	case '"':
		tok, err := d.dec.ReadToken()
		if err != nil {
			return nil, err
		}
		return shape.VisitEnum(v, &enumAccess{d: d, variant: tok.String()})
	case '{':
		if err := d.enter(); err != nil {
			return nil, err
		}
		defer d.leave()
		if _, err := d.dec.ReadToken(); err != nil {
			return nil, err
		}
		if d.dec.PeekKind() != '"' {
			return nil, shape.InvalidValueError{
				Unexpected: shape.Unexpected{Kind: shape.UnexpectedMap},
				Expected:   "map with a single key",
			}
		}
		tok, err := d.dec.ReadToken()
		if err != nil {
			return nil, err
		}
		out, err := shape.VisitEnum(v, &enumAccess{d: d, variant: tok.String(), payload: true})
		if err != nil {
			return nil, err
		}
		if d.dec.PeekKind() != '}' {
			return nil, shape.InvalidValueError{
				Unexpected: shape.Unexpected{Kind: shape.UnexpectedMap},
				Expected:   "map with a single key",
			}
		}
		if _, err := d.dec.ReadToken(); err != nil {
			return nil, err
		}
		return out, nil
	}
	u, err := d.peekUnexpected()
	if err != nil {
		return nil, err
	}
	return nil, shape.InvalidTypeError{Unexpected: u, Expected: "string or map"}
}

// peekUnexpected describes the next value for an error message. It
// consumes the value.
func (d *Deserializer) peekUnexpected() (shape.Unexpected, error) {
	val, err := d.dec.ReadValue()
	if err != nil {
		return shape.Unexpected{}, err
	}
	switch val.Kind() {
	case 'n':
		return shape.Unexpected{Kind: shape.UnexpectedUnit}, nil
	case 't', 'f':
		return shape.Unexpected{Kind: shape.UnexpectedBool, Bool: val.Kind() == 't'}, nil
	case '[':
		return shape.Unexpected{Kind: shape.UnexpectedSeq}, nil
	case '{':
		return shape.Unexpected{Kind: shape.UnexpectedMap}, nil
	case '"':
		b, err := jsontext.AppendUnquote(nil, val)
		if err != nil {
			return shape.Unexpected{}, err
		}
		return shape.Unexpected{Kind: shape.UnexpectedStr, Str: string(b)}, nil
	}
	f, err := strconv.ParseFloat(string(val), 64)
	if err != nil {
		return shape.Unexpected{Other: string(val)}, nil
	}
	return shape.Unexpected{Kind: shape.UnexpectedFloat, Float: f}, nil
}

type arrayAccess struct {
	d *Deserializer
}

func (a arrayAccess) NextElement(seed shape.Seed) (any, bool, error) {
	if a.d.dec.PeekKind() == ']' {
		return nil, false, nil
	}
	v, err := seed.DeserializeSeed(a.d)
	return v, true, err
}

func (a arrayAccess) SizeHint() (int, bool) { return 0, false }

type objectAccess struct {
	d           *Deserializer
	expectValue bool
}

func (o *objectAccess) NextKey(seed shape.Seed) (any, bool, error) {
	if o.d.dec.PeekKind() == '}' {
		return nil, false, nil
	}
	o.expectValue = true
	k, err := seed.DeserializeSeed(o.d)
	return k, true, err
}

func (o *objectAccess) NextValue(seed shape.Seed) (any, error) {
	if !o.expectValue {
		return nil, shape.Errorf("value is missing")
	}
	o.expectValue = false
	return seed.DeserializeSeed(o.d)
}

func (o *objectAccess) SizeHint() (int, bool) { return 0, false }

type enumAccess struct {
	d       *Deserializer
	variant string
	payload bool
}

func (e *enumAccess) Variant(seed shape.Seed) (any, shape.VariantAccess, error) {
	v, err := seed.DeserializeSeed(shape.NewStrDeserializer(e.variant, shape.HumanReadable))
	if err != nil {
		return nil, nil, err
	}
	return v, variantAccess(*e), nil
}

type variantAccess enumAccess

func (va variantAccess) UnitVariant() error {
	if !va.payload {
		return nil
	}
	return shape.Unit(va.d)
}

func (va variantAccess) NewtypeVariant(seed shape.Seed) (any, error) {
	if !va.payload {
		return nil, shape.InvalidTypeError{
			Unexpected: shape.Unexpected{Kind: shape.UnexpectedUnitVariant},
			Expected:   "newtype variant",
		}
	}
	return seed.DeserializeSeed(va.d)
}

func (va variantAccess) TupleVariant(_ int, v shape.Visitor) (any, error) {
	if !va.payload {
		return nil, shape.InvalidTypeError{
			Unexpected: shape.Unexpected{Kind: shape.UnexpectedUnitVariant},
			Expected:   "tuple variant",
		}
	}
	return va.d.DeserializeSeq(v)
}

func (va variantAccess) StructVariant(fields []string, v shape.Visitor) (any, error) {
	if !va.payload {
		return nil, shape.InvalidTypeError{
			Unexpected: shape.Unexpected{Kind: shape.UnexpectedUnitVariant},
			Expected:   "struct variant",
		}
	}
	return va.d.DeserializeStruct("", fields, v)
}
