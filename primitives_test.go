package shape_test

import (
	"testing"

	"github.com/dhoelle/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Integers(t *testing.T) {
	i8, err := decodeJSON(`-128`, shape.Int8)
	require.NoError(t, err)
	assert.Equal(t, int8(-128), i8)

	_, err = decodeJSON(`-129`, shape.Int8)
	assert.EqualError(t, err, "invalid value: integer `-129`, expected i8")

	_, err = decodeJSON(`128`, shape.Int8)
	assert.EqualError(t, err, "invalid value: integer `128`, expected i8")

	i32, err := decodeJSON(`70000`, shape.Int32)
	require.NoError(t, err)
	assert.Equal(t, int32(70000), i32)

	n, err := decodeJSON(`5`, shape.Int)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	u8, err := decodeJSON(`255`, shape.Uint8)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), u8)

	_, err = decodeJSON(`-1`, shape.Uint8)
	assert.EqualError(t, err, "invalid value: integer `-1`, expected u8")

	_, err = decodeJSON(`65536`, shape.Uint16)
	assert.EqualError(t, err, "invalid value: integer `65536`, expected u16")

	_, err = decodeJSON(`1.5`, shape.Int64)
	assert.EqualError(t, err, "invalid type: floating point `1.5`, expected i64")
}

func Test_Floats(t *testing.T) {
	f, err := decodeJSON(`2`, shape.Float64)
	require.NoError(t, err)
	assert.Equal(t, 2.0, f)

	f, err = decodeJSON(`-3`, shape.Float64)
	require.NoError(t, err)
	assert.Equal(t, -3.0, f)

	f32, err := decodeJSON(`0.25`, shape.Float32)
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), f32)

	_, err = decodeJSON(`true`, shape.Float64)
	assert.EqualError(t, err, "invalid type: boolean `true`, expected f64")
}

func Test_BoolAndUnit(t *testing.T) {
	b, err := decodeJSON(`true`, shape.Bool)
	require.NoError(t, err)
	assert.True(t, b)

	_, err = decodeJSON(`"true"`, shape.Bool)
	assert.EqualError(t, err, `invalid type: string "true", expected a boolean`)

	_, err = decodeJSON(`null`, func(d shape.Deserializer) (any, error) { return nil, shape.Unit(d) })
	require.NoError(t, err)

	_, err = decodeJSON(`1`, func(d shape.Deserializer) (any, error) { return nil, shape.Unit(d) })
	assert.EqualError(t, err, "invalid type: integer `1`, expected unit")
}

func Test_Text(t *testing.T) {
	s, err := decodeJSON(`"hi"`, shape.String)
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	_, err = decodeJSON(`1`, shape.String)
	assert.EqualError(t, err, "invalid type: integer `1`, expected a string")

	r, err := decodeJSON(`"é"`, shape.Char)
	require.NoError(t, err)
	assert.Equal(t, 'é', r)

	_, err = decodeJSON(`"ab"`, shape.Char)
	assert.EqualError(t, err, `invalid value: string "ab", expected a character`)

	_, err = decodeJSON(`""`, shape.Char)
	assert.EqualError(t, err, `invalid value: string "", expected a character`)
}

func Test_Bytes(t *testing.T) {
	b, err := decodeJSON(`"abc"`, shape.Bytes)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), b)

	b, err = decodeJSON(`[1,2,255]`, shape.Bytes)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 255}, b)

	_, err = decodeJSON(`[256]`, shape.Bytes)
	assert.EqualError(t, err, "invalid value: integer `256`, expected u8")

	c := shape.Content{Kind: shape.ContentBytes, Bytes: []byte("raw")}
	b, err = shape.Bytes(shape.NewContentRefDeserializer(&c))
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), b)
	b[0] = 'x'
	assert.Equal(t, []byte("raw"), c.Bytes, "borrowed bytes are copied")
}

func Test_OptionSliceMap(t *testing.T) {
	none, err := decodeJSON(`null`, func(d shape.Deserializer) (*uint64, error) {
		return shape.Option(d, shape.Uint64)
	})
	require.NoError(t, err)
	assert.Nil(t, none)

	some, err := decodeJSON(`5`, func(d shape.Deserializer) (*uint64, error) {
		return shape.Option(d, shape.Uint64)
	})
	require.NoError(t, err)
	require.NotNil(t, some)
	assert.Equal(t, uint64(5), *some)

	list, err := decodeJSON(`["a","b"]`, func(d shape.Deserializer) ([]string, error) {
		return shape.Slice(d, shape.String)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list)

	_, err = decodeJSON(`{"a":1}`, func(d shape.Deserializer) ([]string, error) {
		return shape.Slice(d, shape.String)
	})
	assert.EqualError(t, err, "invalid type: map, expected a sequence")

	m, err := decodeJSON(`{"a":1,"b":2,"a":3}`, func(d shape.Deserializer) (map[string]int, error) {
		return shape.Map(d, shape.Int)
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 3, "b": 2}, m, "a repeated key keeps its last value")
}

func Test_Value(t *testing.T) {
	v, err := decodeJSON(`{"a":[1,-1,1.5,"s",true,null],"b":{}}`, shape.Value)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": []any{uint64(1), int64(-1), 1.5, "s", true, nil},
		"b": map[string]any{},
	}, v)

	c := shape.Content{Kind: shape.ContentMap, Map: []shape.Pair{
		{Key: shape.Content{Kind: shape.ContentU8, Uint: 1}, Value: shape.Content{Kind: shape.ContentBool, Bool: true}},
	}}
	v, err = shape.Value(shape.NewContentRefDeserializer(&c))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"1": true}, v, "non-string keys are formatted")
}

func Test_Ignore(t *testing.T) {
	skipped, err := decodeJSON(`[{"a":[1,{"b":null}]},2]`, func(d shape.Deserializer) ([]int, error) {
		return shape.Slice(d, func(d shape.Deserializer) (int, error) {
			return 0, shape.Ignore(d)
		})
	})
	require.NoError(t, err)
	assert.Len(t, skipped, 2)
}
