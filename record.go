package shape

import "fmt"

// FieldDecoder decodes one named field of a [Record].
type FieldDecoder struct {
	Name string
	// Decode stores the field's value. When the field is absent from the
	// input it is called with a Deserializer that yields absent for option
	// requests and a MissingFieldError otherwise.
	Decode func(d Deserializer) error
	// Default skips the Decode call for an absent field.
	Default bool
}

// Record decodes a struct-like value from a map of named fields or a
// sequence of positional ones.
//
// Entries that match none of Fields are handed to the Flatten members, in
// order, through a [FlatMapDeserializer]. Without flatten members they are
// skipped, or rejected when DenyUnknownFields is set.
type Record struct {
	Name              string
	Fields            []FieldDecoder
	Flatten           []func(d Deserializer) error
	DenyUnknownFields bool
}

func (r *Record) fieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

func (r *Record) index(name string) int {
	for i, f := range r.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Deserialize decodes d into the record's fields.
func (r *Record) Deserialize(d Deserializer) error {
	v := recordVisitor{record: r, names: r.fieldNames(), mode: d.Mode()}
	var err error
	if len(r.Flatten) > 0 {
		// Flattened members may claim any key, so the field list would
		// mislead sources that decode structs by position.
		_, err = d.DeserializeMap(v)
	} else {
		_, err = d.DeserializeStruct(r.Name, v.names, v)
	}
	return err
}

type recordVisitor struct {
	record *Record
	names  []string
	mode   Mode
}

func (rv recordVisitor) Expecting() string {
	return fmt.Sprintf("struct %s", rv.record.Name)
}

func fieldSeed(f FieldDecoder) Seed {
	return SeedFunc(func(d Deserializer) (any, error) {
		return nil, f.Decode(d)
	})
}

var identifierSeed Seed = SeedFunc(func(d Deserializer) (any, error) {
	return d.DeserializeIdentifier(stringVisitor{})
})

func (rv recordVisitor) VisitMap(m MapAccess) (any, error) {
	r := rv.record
	flatten := len(r.Flatten) > 0
	seen := make([]bool, len(r.Fields))
	var slots FlatSlots
	for {
		var (
			name   string
			keyRaw Content
		)
		if flatten {
			k, ok, err := m.NextKey(ContentSeed)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			keyRaw = k.(Content)
			name, _ = keyRaw.AsStr()
		} else {
			k, ok, err := m.NextKey(identifierSeed)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			name = k.(string)
		}

		i := r.index(name)
		switch {
		case i >= 0:
			if seen[i] {
				return nil, DuplicateFieldError{Field: name}
			}
			seen[i] = true
			if _, err := m.NextValue(fieldSeed(r.Fields[i])); err != nil {
				return nil, fmt.Errorf("failed to decode field %s: %w", name, err)
			}
		case flatten:
			v, err := m.NextValue(ContentSeed)
			if err != nil {
				return nil, err
			}
			slots = append(slots, &Pair{Key: keyRaw, Value: v.(Content)})
		case r.DenyUnknownFields:
			return nil, UnknownFieldError{Field: name, Expected: rv.names}
		default:
			if _, err := m.NextValue(ignoreSeed); err != nil {
				return nil, err
			}
		}
	}

	for i, f := range r.Fields {
		if seen[i] || f.Default {
			continue
		}
		if err := f.Decode(NewMissingFieldDeserializer(f.Name, rv.mode)); err != nil {
			return nil, err
		}
	}

	for _, fl := range r.Flatten {
		if err := fl(NewFlatMapDeserializer(slots, rv.mode)); err != nil {
			return nil, err
		}
	}
	if r.DenyUnknownFields {
		if rest := slots.Remaining(); len(rest) > 0 {
			name, ok := rest[0].Key.AsStr()
			if !ok {
				name = rest[0].Key.Unexpected().String()
			}
			return nil, UnknownFieldError{Field: name, Expected: rv.names}
		}
	}
	return nil, nil
}

// VisitSeq decodes the fields by position. Trailing fields marked Default
// may be omitted.
func (rv recordVisitor) VisitSeq(seq SeqAccess) (any, error) {
	r := rv.record
	for i, f := range r.Fields {
		_, ok, err := seq.NextElement(fieldSeed(f))
		if err != nil {
			return nil, fmt.Errorf("failed to decode field %s: %w", f.Name, err)
		}
		if ok {
			continue
		}
		for _, rest := range r.Fields[i:] {
			if !rest.Default {
				return nil, InvalidLengthError{
					Len:      i,
					Expected: fmt.Sprintf("struct %s with %d elements", r.Name, len(r.Fields)),
				}
			}
		}
		break
	}
	return nil, nil
}
