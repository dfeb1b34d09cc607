package shape_test

import (
	"testing"

	"github.com/dhoelle/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name     string
	Age      uint8
	Nickname *string
	Tags     []string
}

func personRecord(p *person) *shape.Record {
	return &shape.Record{Name: "Person", Fields: []shape.FieldDecoder{
		{Name: "name", Decode: func(d shape.Deserializer) (err error) {
			p.Name, err = shape.String(d)
			return err
		}},
		{Name: "age", Decode: func(d shape.Deserializer) (err error) {
			p.Age, err = shape.Uint8(d)
			return err
		}},
		{Name: "nickname", Decode: func(d shape.Deserializer) (err error) {
			p.Nickname, err = shape.Option(d, shape.String)
			return err
		}},
		{Name: "tags", Default: true, Decode: func(d shape.Deserializer) (err error) {
			p.Tags, err = shape.Slice(d, shape.String)
			return err
		}},
	}}
}

func decodePerson(d shape.Deserializer) (person, error) {
	var p person
	err := personRecord(&p).Deserialize(d)
	return p, err
}

func Test_Record(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    person
		wantErr string
	}{
		{
			name: "all fields",
			doc:  `{"name":"ann","age":30,"nickname":"a","tags":["x"]}`,
			want: person{Name: "ann", Age: 30, Nickname: ptr("a"), Tags: []string{"x"}},
		},
		{
			name: "any order, absent option and default",
			doc:  `{"age":30,"name":"ann"}`,
			want: person{Name: "ann", Age: 30},
		},
		{
			name: "null option",
			doc:  `{"name":"ann","age":30,"nickname":null}`,
			want: person{Name: "ann", Age: 30},
		},
		{
			name: "unknown fields are skipped",
			doc:  `{"name":"ann","extra":{"deep":[1]},"age":1}`,
			want: person{Name: "ann", Age: 1},
		},
		{
			name: "positional",
			doc:  `["ann",30,null]`,
			want: person{Name: "ann", Age: 30},
		},
		{
			name: "positional with default",
			doc:  `["ann",30,"a",["x","y"]]`,
			want: person{Name: "ann", Age: 30, Nickname: ptr("a"), Tags: []string{"x", "y"}},
		},
		{
			name:    "missing field",
			doc:     `{"name":"ann"}`,
			wantErr: "missing field `age`",
		},
		{
			name:    "duplicate field",
			doc:     `{"name":"ann","age":1,"name":"bob"}`,
			wantErr: "duplicate field `name`",
		},
		{
			name:    "invalid field",
			doc:     `{"name":"ann","age":300}`,
			wantErr: "failed to decode field age: invalid value: integer `300`, expected u8",
		},
		{
			name:    "short sequence",
			doc:     `["ann"]`,
			wantErr: "invalid length 1, expected struct Person with 4 elements",
		},
		{
			name:    "not a record",
			doc:     `"ann"`,
			wantErr: `invalid type: string "ann", expected struct Person`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeJSON(tt.doc, decodePerson)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_RecordDenyUnknownFields(t *testing.T) {
	_, err := decodeJSON(`{"name":"ann","age":1,"extra":true}`, func(d shape.Deserializer) (person, error) {
		var p person
		rec := personRecord(&p)
		rec.DenyUnknownFields = true
		err := rec.Deserialize(d)
		return p, err
	})
	var unknown shape.UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	assert.EqualError(t, err, "unknown field `extra`, expected one of `name`, `age`, `nickname`, `tags`")
}

func Test_RecordFromReplay(t *testing.T) {
	for _, mode := range replayModes {
		t.Run(mode.name, func(t *testing.T) {
			got, err := decodePerson(replayOf(t, `{"tags":["t"],"age":7,"name":"kim"}`, mode.owned))
			require.NoError(t, err)
			assert.Equal(t, person{Name: "kim", Age: 7, Tags: []string{"t"}}, got)
		})
	}
}

func Test_RecordFlatten(t *testing.T) {
	var (
		name  string
		extra map[string]any
	)
	rec := &shape.Record{
		Name: "Labeled",
		Fields: []shape.FieldDecoder{{Name: "name", Decode: func(d shape.Deserializer) (err error) {
			name, err = shape.String(d)
			return err
		}}},
		Flatten: []func(shape.Deserializer) error{func(d shape.Deserializer) (err error) {
			extra, err = shape.Map(d, shape.Value)
			return err
		}},
	}
	_, err := decodeJSON(`{"x":1,"name":"a","y":[true]}`, func(d shape.Deserializer) (any, error) {
		return nil, rec.Deserialize(d)
	})
	require.NoError(t, err)
	assert.Equal(t, "a", name)
	assert.Equal(t, map[string]any{"x": uint64(1), "y": []any{true}}, extra)
}

func Test_RecordFlattenLeftovers(t *testing.T) {
	decode := func(deny bool) (uint64, error) {
		var x uint64
		inner := &shape.Record{Name: "Inner", Fields: []shape.FieldDecoder{{Name: "x", Decode: func(d shape.Deserializer) (err error) {
			x, err = shape.Uint64(d)
			return err
		}}}}
		outer := &shape.Record{
			Name:              "Outer",
			Fields:            []shape.FieldDecoder{{Name: "name", Decode: func(d shape.Deserializer) error { return shape.Ignore(d) }}},
			Flatten:           []func(shape.Deserializer) error{inner.Deserialize},
			DenyUnknownFields: deny,
		}
		return decodeJSON(`{"name":"a","x":1,"y":2}`, func(d shape.Deserializer) (uint64, error) {
			err := outer.Deserialize(d)
			return x, err
		})
	}

	x, err := decode(false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), x)

	_, err = decode(true)
	assert.EqualError(t, err, "unknown field `y`, expected `name`")
}

func Test_RecordFlattenUnion(t *testing.T) {
	u := shape.NewUnion("Shape", shapeVariants(), &shape.Config{Representation: shape.Internal, TagKey: "kind"})
	var (
		label string
		s     Shape
	)
	rec := &shape.Record{
		Name: "Figure",
		Fields: []shape.FieldDecoder{{Name: "label", Decode: func(d shape.Deserializer) (err error) {
			label, err = shape.String(d)
			return err
		}}},
		Flatten: []func(shape.Deserializer) error{func(d shape.Deserializer) (err error) {
			s, err = u.Deserialize(d)
			return err
		}},
	}
	_, err := decodeJSON(`{"kind":"circle","label":"c1","radius":2}`, func(d shape.Deserializer) (any, error) {
		return nil, rec.Deserialize(d)
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", label)
	assert.Equal(t, Circle{Radius: 2}, s)
}
