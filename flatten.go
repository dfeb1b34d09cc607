package shape

import "slices"

// FlatSlots holds the map entries of a record that none of its own fields
// claimed. Flattened members read from the slots in turn; a member that
// takes an entry sets its slot to nil so later members no longer see it.
type FlatSlots []*Pair

// Remaining returns the entries no flattened member has taken.
func (s FlatSlots) Remaining() []*Pair {
	var out []*Pair
	for _, p := range s {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// FlatMapDeserializer presents FlatSlots to a flattened member. Map
// requests see every remaining entry without taking it, struct requests
// take the entries naming one of their fields, and enum requests take the
// first entry naming a variant. Other shapes cannot be flattened.
type FlatMapDeserializer struct {
	slots FlatSlots
	mode  Mode
}

func NewFlatMapDeserializer(slots FlatSlots, mode Mode) *FlatMapDeserializer {
	return &FlatMapDeserializer{slots: slots, mode: mode}
}

var errFlatten = CustomError{Msg: "can only flatten structs and maps"}

func (f *FlatMapDeserializer) Mode() Mode { return f.mode }

// DeserializeAny serves internally tagged enums, which look for their tag
// among the entries before replaying them.
func (f *FlatMapDeserializer) DeserializeAny(v Visitor) (any, error) {
	return VisitMap(v, &flatMapAccess{slots: f.slots})
}

func (f *FlatMapDeserializer) DeserializeEnum(name string, variants []string, v Visitor) (any, error) {
	for i, p := range f.slots {
		if p == nil {
			continue
		}
		key, ok := p.Key.AsStr()
		if !ok || !slices.Contains(variants, key) {
			continue
		}
		f.slots[i] = nil
		return VisitEnum(v, &contentEnumAccess{
			replay:  &replay{owned: true, mode: f.mode},
			variant: &p.Key,
			value:   &p.Value,
		})
	}
	return nil, Errorf("no variant of enum %s found in flattened data", name)
}

func (f *FlatMapDeserializer) DeserializeMap(v Visitor) (any, error) {
	return VisitMap(v, &flatMapAccess{slots: f.slots})
}

func (f *FlatMapDeserializer) DeserializeStruct(_ string, fields []string, v Visitor) (any, error) {
	return VisitMap(v, &flatStructAccess{slots: f.slots, fields: fields})
}

func (f *FlatMapDeserializer) DeserializeNewtypeStruct(_ string, v Visitor) (any, error) {
	return VisitNewtypeStruct(v, f)
}

func (f *FlatMapDeserializer) DeserializeOption(v Visitor) (any, error) {
	if ov, ok := v.(UntaggedOptionVisitor); ok {
		return ov.VisitUntaggedOption(f)
	}
	return nil, errFlatten
}

func (f *FlatMapDeserializer) DeserializeBool(Visitor) (any, error)       { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeI8(Visitor) (any, error)         { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeI16(Visitor) (any, error)        { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeI32(Visitor) (any, error)        { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeI64(Visitor) (any, error)        { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeU8(Visitor) (any, error)         { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeU16(Visitor) (any, error)        { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeU32(Visitor) (any, error)        { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeU64(Visitor) (any, error)        { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeF32(Visitor) (any, error)        { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeF64(Visitor) (any, error)        { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeChar(Visitor) (any, error)       { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeStr(Visitor) (any, error)        { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeString(Visitor) (any, error)     { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeBytes(Visitor) (any, error)      { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeByteBuf(Visitor) (any, error)    { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeSeq(Visitor) (any, error)        { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeIdentifier(Visitor) (any, error) { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeUnit(Visitor) (any, error)       { return nil, errFlatten }
func (f *FlatMapDeserializer) DeserializeIgnoredAny(Visitor) (any, error) { return nil, errFlatten }

func (f *FlatMapDeserializer) DeserializeUnitStruct(string, Visitor) (any, error) {
	return nil, errFlatten
}

func (f *FlatMapDeserializer) DeserializeTuple(int, Visitor) (any, error) {
	return nil, errFlatten
}

func (f *FlatMapDeserializer) DeserializeTupleStruct(string, int, Visitor) (any, error) {
	return nil, errFlatten
}

// flatMapAccess lends every remaining entry without taking it. Flattened
// maps read through it, and so do internally tagged enums, which buffer
// the entries again while looking for their tag.
type flatMapAccess struct {
	slots   FlatSlots
	pos     int
	pending *Content
}

func (a *flatMapAccess) NextKey(seed Seed) (any, bool, error) {
	for a.pos < len(a.slots) {
		p := a.slots[a.pos]
		a.pos++
		if p == nil {
			continue
		}
		a.pending = &p.Value
		k, err := seed.DeserializeSeed(NewContentRefDeserializer(&p.Key))
		return k, true, err
	}
	return nil, false, nil
}

func (a *flatMapAccess) NextValue(seed Seed) (any, error) {
	v := a.pending
	if v == nil {
		panic("shape: value is missing")
	}
	a.pending = nil
	return seed.DeserializeSeed(NewContentRefDeserializer(v))
}

func (a *flatMapAccess) SizeHint() (int, bool) { return 0, false }

// flatStructAccess takes the entries whose key names one of fields. An
// empty field list takes every entry.
type flatStructAccess struct {
	slots   FlatSlots
	fields  []string
	pos     int
	pending *Content
}

func (a *flatStructAccess) wants(p *Pair) bool {
	if len(a.fields) == 0 {
		return true
	}
	key, ok := p.Key.AsStr()
	return ok && slices.Contains(a.fields, key)
}

func (a *flatStructAccess) NextKey(seed Seed) (any, bool, error) {
	for a.pos < len(a.slots) {
		i := a.pos
		a.pos++
		p := a.slots[i]
		if p == nil || !a.wants(p) {
			continue
		}
		a.slots[i] = nil
		a.pending = &p.Value
		k, err := seed.DeserializeSeed(NewContentDeserializer(p.Key))
		return k, true, err
	}
	return nil, false, nil
}

func (a *flatStructAccess) NextValue(seed Seed) (any, error) {
	v := a.pending
	if v == nil {
		panic("shape: value is missing")
	}
	a.pending = nil
	return seed.DeserializeSeed(NewContentDeserializer(*v))
}

func (a *flatStructAccess) SizeHint() (int, bool) { return 0, false }
