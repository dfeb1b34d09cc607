package shape_test

import (
	"testing"

	"github.com/dhoelle/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stringSeed = shape.SeedFunc(func(d shape.Deserializer) (any, error) {
	return shape.String(d)
})

func taggedJSON(doc string) (shape.TaggedContent, error) {
	return decodeJSON(doc, func(d shape.Deserializer) (shape.TaggedContent, error) {
		return shape.DeserializeTaggedContent(d, "type", stringSeed)
	})
}

func Test_TaggedContentMap(t *testing.T) {
	tc, err := taggedJSON(`{"radius":2,"type":"circle","label":"a"}`)
	require.NoError(t, err)
	assert.Equal(t, "circle", tc.Tag)

	require.Equal(t, shape.ContentMap, tc.Content.Kind)
	require.Len(t, tc.Content.Map, 2)
	assert.Equal(t, "radius", tc.Content.Map[0].Key.Str)
	assert.Equal(t, "label", tc.Content.Map[1].Key.Str)

	rest, err := shape.Value(shape.NewContentDeserializer(tc.Content))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"radius": uint64(2), "label": "a"}, rest)
}

func Test_TaggedContentErrors(t *testing.T) {
	tests := []struct {
		doc     string
		wantErr string
	}{
		{doc: `{"radius":2}`, wantErr: "missing field `type`"},
		{doc: `{"type":"a","type":"b"}`, wantErr: "duplicate field `type`"},
		{doc: `[]`, wantErr: "missing field `type`"},
		{doc: `{"type":1}`, wantErr: "invalid type: integer `1`, expected a string"},
		{doc: `"circle"`, wantErr: `invalid type: string "circle", expected internally tagged enum`},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			_, err := taggedJSON(tt.doc)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func Test_TaggedContentSeq(t *testing.T) {
	tc, err := taggedJSON(`["circle",2,"a"]`)
	require.NoError(t, err)
	assert.Equal(t, "circle", tc.Tag)
	require.Equal(t, shape.ContentSeq, tc.Content.Kind)

	rest, err := shape.Value(shape.NewContentRefDeserializer(&tc.Content))
	require.NoError(t, err)
	assert.Equal(t, []any{uint64(2), "a"}, rest)
}

func Test_TaggedContentByteKey(t *testing.T) {
	c := shape.Content{Kind: shape.ContentMap, Map: []shape.Pair{
		{
			Key:   shape.Content{Kind: shape.ContentByteBuf, Bytes: []byte("type")},
			Value: shape.Content{Kind: shape.ContentString, Str: "circle"},
		},
		{
			Key:   shape.Content{Kind: shape.ContentU8, Uint: 1},
			Value: shape.Content{Kind: shape.ContentBool, Bool: true},
		},
	}}
	tc, err := shape.DeserializeTaggedContent(shape.NewContentRefDeserializer(&c), "type", stringSeed)
	require.NoError(t, err)
	assert.Equal(t, "circle", tc.Tag)
	require.Len(t, tc.Content.Map, 1)
	assert.Equal(t, shape.ContentU8, tc.Content.Map[0].Key.Kind, "non-string keys are kept as content")
}

func Test_FieldSeeds(t *testing.T) {
	classify := func(seed shape.Seed, key string) (any, error) {
		return seed.DeserializeSeed(shape.NewStrDeserializer(key, shape.HumanReadable))
	}
	strict := shape.TagOrContentFieldSeed{Tag: "t", Content: "c"}
	lenient := shape.TagContentOtherFieldSeed{Tag: "t", Content: "c"}

	got, err := classify(strict, "t")
	require.NoError(t, err)
	assert.Equal(t, shape.FieldTag, got)

	got, err = classify(strict, "c")
	require.NoError(t, err)
	assert.Equal(t, shape.FieldContent, got)

	_, err = classify(strict, "z")
	var valueErr shape.InvalidValueError
	require.ErrorAs(t, err, &valueErr)
	assert.EqualError(t, err, `invalid value: string "z", expected "t" or "c"`)

	got, err = classify(lenient, "z")
	require.NoError(t, err)
	assert.Equal(t, shape.FieldOther, got)

	_, err = strict.DeserializeSeed(shape.NewUnitDeserializer(shape.HumanReadable))
	assert.EqualError(t, err, `invalid type: unit value, expected "t" or "c"`)

	_, err = lenient.DeserializeSeed(shape.NewUnitDeserializer(shape.HumanReadable))
	assert.EqualError(t, err, `invalid type: unit value, expected "t", "c", or other ignored fields`)
}

func Test_FieldString(t *testing.T) {
	assert.Equal(t, "tag", shape.FieldTag.String())
	assert.Equal(t, "content", shape.FieldContent.String())
	assert.Equal(t, "other", shape.FieldOther.String())
}
