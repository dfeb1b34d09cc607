// Package shapeyaml reads YAML documents through the shape protocol.
//
// Scalars are resolved with the YAML core schema: plain null, booleans,
// integers and floats decode as such, !!binary as bytes, and everything
// else as a string. Aliases are followed. A custom tag on a node names an
// enum variant, so
//
//	!circle {radius: 2}
//
// decodes like the externally tagged {circle: {radius: 2}}.
package shapeyaml

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dhoelle/shape"
	"gopkg.in/yaml.v3"
)

const DefaultMaxDepth = 128

// ErrExcessiveAliasing is returned when alias expansion makes up too large
// a share of the decoded nodes, as yaml.v3 does for its own decoding.
var ErrExcessiveAliasing = errors.New("yaml: document contains excessive aliasing")

type Options struct {
	// MaxDepth bounds the nesting of sequences, mappings and aliases. If
	// unset, defaults to DefaultMaxDepth.
	MaxDepth int
}

func (o *Options) maxDepth() int {
	if o == nil || o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// budget counts the nodes decoded from one document, and how many of them
// were reached through an alias.
type budget struct {
	decoded int
	aliased int
}

func allowedAliasRatio(decoded int) float64 {
	const low, high = 400000, 4000000
	switch {
	case decoded <= low:
		return 0.99
	case decoded >= high:
		return 0.10
	}
	return 0.99 - 0.89*(float64(decoded-low)/float64(high-low))
}

func (b *budget) count(aliased bool) error {
	b.decoded++
	if aliased {
		b.aliased++
	}
	if b.aliased > 100 && b.decoded > 1000 && float64(b.aliased)/float64(b.decoded) > allowedAliasRatio(b.decoded) {
		return ErrExcessiveAliasing
	}
	return nil
}

// Deserializer reads the value of one YAML node.
type Deserializer struct {
	shape.ForwardToAny

	node     *yaml.Node
	depth    int
	maxDepth int

	budget *budget
	// aliased is set once node is known to be reached through an alias.
	aliased bool
	counted bool
}

func NewDeserializer(node *yaml.Node, opts *Options) *Deserializer {
	return newDeserializer(node, 0, opts.maxDepth(), &budget{}, false)
}

func newDeserializer(node *yaml.Node, depth, maxDepth int, b *budget, aliased bool) *Deserializer {
	d := &Deserializer{node: node, depth: depth, maxDepth: maxDepth, budget: b, aliased: aliased}
	d.ForwardToAny = shape.ForwardToAny{AnyDeserializer: d}
	return d
}

// Unmarshal decodes the first document in data with decode.
func Unmarshal[T any](data []byte, decode func(shape.Deserializer) (T, error), opts *Options) (T, error) {
	var zero T
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return zero, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if doc.Kind == 0 {
		// empty input
		doc = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}
	}
	return decode(NewDeserializer(&doc, opts))
}

func (d *Deserializer) Mode() shape.Mode { return shape.HumanReadable }

// resolve skips document wrappers and follows aliases. The first call
// counts the node against the document's alias budget.
func (d *Deserializer) resolve() (*yaml.Node, error) {
	n := d.node
	for hops := 0; ; hops++ {
		if hops >= d.maxDepth {
			return nil, shape.ErrDepthLimit
		}
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}, nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			if n.Alias == nil {
				return nil, fmt.Errorf("yaml: unresolved alias at line %d", n.Line)
			}
			d.aliased = true
			n = n.Alias
		default:
			if !d.counted {
				d.counted = true
				if err := d.budget.count(d.aliased); err != nil {
					return nil, err
				}
			}
			return n, nil
		}
	}
}

func (d *Deserializer) child(n *yaml.Node) *Deserializer {
	return newDeserializer(n, d.depth+1, d.maxDepth, d.budget, d.aliased)
}

func (d *Deserializer) DeserializeAny(v shape.Visitor) (any, error) {
	n, err := d.resolve()
	if err != nil {
		return nil, err
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return d.visitScalar(n, v)
	case yaml.SequenceNode:
		if d.depth >= d.maxDepth {
			return nil, shape.ErrDepthLimit
		}
		seq := &seqAccess{d: d, nodes: n.Content}
		out, err := shape.VisitSeq(v, seq)
		if err != nil {
			return nil, err
		}
		if rem := len(seq.nodes) - seq.pos; rem > 0 {
			return nil, shape.InvalidLengthError{Len: len(seq.nodes), Expected: fmt.Sprintf("%d elements in sequence", seq.pos)}
		}
		return out, nil
	case yaml.MappingNode:
		if d.depth >= d.maxDepth {
			return nil, shape.ErrDepthLimit
		}
		m := &mapAccess{d: d, nodes: n.Content}
		out, err := shape.VisitMap(v, m)
		if err != nil {
			return nil, err
		}
		if m.pos < len(m.nodes) {
			return nil, shape.InvalidLengthError{Len: len(m.nodes) / 2, Expected: fmt.Sprintf("%d elements in map", m.pos/2)}
		}
		return out, nil
	}
	return nil, fmt.Errorf("yaml: unexpected node kind %d at line %d", n.Kind, n.Line)
}

func (d *Deserializer) visitScalar(n *yaml.Node, v shape.Visitor) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return shape.VisitUnit(v)
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return shape.VisitBool(v, b)
	case "!!int":
		if strings.HasPrefix(n.Value, "-") {
			var i int64
			if err := n.Decode(&i); err != nil {
				return nil, err
			}
			return shape.VisitI64(v, i)
		}
		var u uint64
		if err := n.Decode(&u); err != nil {
			return nil, err
		}
		return shape.VisitU64(v, u)
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return shape.VisitF64(v, f)
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return nil, fmt.Errorf("yaml: invalid !!binary at line %d: %w", n.Line, err)
		}
		return shape.VisitByteBuf(v, b)
	}
	return shape.VisitString(v, n.Value)
}

func (d *Deserializer) DeserializeOption(v shape.Visitor) (any, error) {
	n, err := d.resolve()
	if err != nil {
		return nil, err
	}
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
		return shape.VisitNone(v)
	}
	return shape.VisitSome(v, d)
}

func (d *Deserializer) DeserializeNewtypeStruct(_ string, v shape.Visitor) (any, error) {
	return shape.VisitNewtypeStruct(v, d)
}

func (d *Deserializer) DeserializeIgnoredAny(v shape.Visitor) (any, error) {
	return shape.VisitUnit(v)
}

// DeserializeEnum accepts a string naming a unit variant, a mapping with a
// single entry from the variant name to its payload, or a node carrying a
// custom tag that names the variant.
func (d *Deserializer) DeserializeEnum(_ string, _ []string, v shape.Visitor) (any, error) {
	n, err := d.resolve()
	if err != nil {
		return nil, err
	}
	if tag := n.Tag; strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!") {
		payload := *n
		payload.Tag = ""
		payload.Style &^= yaml.TaggedStyle
		return shape.VisitEnum(v, &enumAccess{d: d, variant: tag[1:], payload: &payload})
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() == "!!str" {
			return shape.VisitEnum(v, &enumAccess{d: d, variant: n.Value})
		}
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return nil, shape.InvalidValueError{
				Unexpected: shape.Unexpected{Kind: shape.UnexpectedMap},
				Expected:   "map with a single key",
			}
		}
		return shape.VisitEnum(v, &enumAccess{d: d, variant: n.Content[0].Value, payload: n.Content[1]})
	}
	return nil, shape.InvalidTypeError{Unexpected: describe(n), Expected: "string or map"}
}

func describe(n *yaml.Node) shape.Unexpected {
	switch n.Kind {
	case yaml.SequenceNode:
		return shape.Unexpected{Kind: shape.UnexpectedSeq}
	case yaml.MappingNode:
		return shape.Unexpected{Kind: shape.UnexpectedMap}
	}
	if n.ShortTag() == "!!null" {
		return shape.Unexpected{Kind: shape.UnexpectedUnit}
	}
	return shape.Unexpected{Other: fmt.Sprintf("%s `%s`", n.ShortTag(), n.Value)}
}

type seqAccess struct {
	d     *Deserializer
	nodes []*yaml.Node
	pos   int
}

func (s *seqAccess) NextElement(seed shape.Seed) (any, bool, error) {
	if s.pos >= len(s.nodes) {
		return nil, false, nil
	}
	n := s.nodes[s.pos]
	s.pos++
	v, err := seed.DeserializeSeed(s.d.child(n))
	return v, true, err
}

func (s *seqAccess) SizeHint() (int, bool) { return len(s.nodes) - s.pos, true }

// mapAccess walks a mapping node's Content, which alternates keys and
// values.
type mapAccess struct {
	d     *Deserializer
	nodes []*yaml.Node
	pos   int
}

func (m *mapAccess) NextKey(seed shape.Seed) (any, bool, error) {
	if m.pos+1 >= len(m.nodes) {
		return nil, false, nil
	}
	k := m.nodes[m.pos]
	m.pos++
	v, err := seed.DeserializeSeed(m.d.child(k))
	return v, true, err
}

func (m *mapAccess) NextValue(seed shape.Seed) (any, error) {
	if m.pos%2 == 0 || m.pos >= len(m.nodes) {
		return nil, shape.Errorf("value is missing")
	}
	n := m.nodes[m.pos]
	m.pos++
	return seed.DeserializeSeed(m.d.child(n))
}

func (m *mapAccess) SizeHint() (int, bool) { return (len(m.nodes) - m.pos) / 2, true }

type enumAccess struct {
	d       *Deserializer
	variant string
	payload *yaml.Node
}

func (e *enumAccess) Variant(seed shape.Seed) (any, shape.VariantAccess, error) {
	v, err := seed.DeserializeSeed(shape.NewStrDeserializer(e.variant, shape.HumanReadable))
	if err != nil {
		return nil, nil, err
	}
	return v, e, nil
}

func (e *enumAccess) UnitVariant() error {
	if e.payload == nil {
		return nil
	}
	return shape.Unit(e.d.child(e.payload))
}

func (e *enumAccess) NewtypeVariant(seed shape.Seed) (any, error) {
	if e.payload == nil {
		return nil, unitVariantError("newtype variant")
	}
	return seed.DeserializeSeed(e.d.child(e.payload))
}

func (e *enumAccess) TupleVariant(_ int, v shape.Visitor) (any, error) {
	if e.payload == nil {
		return nil, unitVariantError("tuple variant")
	}
	return e.d.child(e.payload).DeserializeSeq(v)
}

func (e *enumAccess) StructVariant(fields []string, v shape.Visitor) (any, error) {
	if e.payload == nil {
		return nil, unitVariantError("struct variant")
	}
	return e.d.child(e.payload).DeserializeStruct("", fields, v)
}

func unitVariantError(expected string) error {
	return shape.InvalidTypeError{
		Unexpected: shape.Unexpected{Kind: shape.UnexpectedUnitVariant},
		Expected:   expected,
	}
}
