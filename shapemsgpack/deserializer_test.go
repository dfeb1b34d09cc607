package shapemsgpack_test

import (
	"testing"

	"github.com/dhoelle/shape"
	"github.com/dhoelle/shape/shapemsgpack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := msgpack.Marshal(v)
	require.NoError(t, err)
	return b
}

func Test_CaptureKeepsWidths(t *testing.T) {
	data := marshal(t, []any{
		uint8(7),
		int16(-300),
		uint32(70000),
		int64(-1),
		float32(1.5),
		2.5,
		"s",
		[]byte{1},
		nil,
		true,
	})

	c, err := shapemsgpack.Unmarshal(data, shape.CaptureContent, nil)
	require.NoError(t, err)
	assert.Equal(t, shape.Compact, c.Mode)

	want := []shape.ContentKind{
		shape.ContentU8,
		shape.ContentI16,
		shape.ContentU32,
		shape.ContentI64,
		shape.ContentF32,
		shape.ContentF64,
		shape.ContentString,
		shape.ContentByteBuf,
		shape.ContentUnit,
		shape.ContentBool,
	}
	require.Len(t, c.Seq, len(want))
	for i, k := range want {
		assert.Equal(t, k, c.Seq[i].Kind, "element %d", i)
	}
	assert.Equal(t, int64(-300), c.Seq[1].Int)
	assert.Equal(t, uint64(70000), c.Seq[2].Uint)
}

// sizeHint reports the hint a sequence gave before it was read.
type sizeHint struct{}

func (sizeHint) Expecting() string { return "a sequence" }

func (sizeHint) VisitSeq(seq shape.SeqAccess) (any, error) {
	n, known := seq.SizeHint()
	for {
		_, ok, err := seq.NextElement(shape.SeedFunc(func(d shape.Deserializer) (any, error) {
			return nil, shape.Ignore(d)
		}))
		if err != nil {
			return nil, err
		}
		if !ok {
			return []any{n, known}, nil
		}
	}
}

func Test_SizeHint(t *testing.T) {
	got, err := shapemsgpack.Unmarshal(marshal(t, []any{1, "two"}), func(d shape.Deserializer) (any, error) {
		return d.DeserializeSeq(sizeHint{})
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{2, true}, got)
}

func Test_Value(t *testing.T) {
	data := marshal(t, map[string]any{"list": []any{uint8(1), "two", nil}})
	got, err := shapemsgpack.Unmarshal(data, shape.Value, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"list": []any{uint64(1), "two", nil}}, got)
}

type tally struct {
	Label string
	Count uint16
}

func decodeTally(d shape.Deserializer) (tally, error) {
	var tl tally
	rec := &shape.Record{Name: "Tally", Fields: []shape.FieldDecoder{
		{Name: "label", Decode: func(d shape.Deserializer) (err error) {
			tl.Label, err = shape.String(d)
			return err
		}},
		{Name: "count", Decode: func(d shape.Deserializer) (err error) {
			tl.Count, err = shape.Uint16(d)
			return err
		}},
	}}
	err := rec.Deserialize(d)
	return tl, err
}

func Test_Record(t *testing.T) {
	got, err := shapemsgpack.Unmarshal(marshal(t, map[string]any{"label": "a", "count": uint16(3)}), decodeTally, nil)
	require.NoError(t, err)
	assert.Equal(t, tally{Label: "a", Count: 3}, got)

	got, err = shapemsgpack.Unmarshal(marshal(t, []any{"b", uint8(4)}), decodeTally, nil)
	require.NoError(t, err)
	assert.Equal(t, tally{Label: "b", Count: 4}, got)

	_, err = shapemsgpack.Unmarshal(marshal(t, []any{"b", uint8(4), true}), decodeTally, nil)
	assert.EqualError(t, err, "invalid length 3, expected fewer elements in array")
}

func talliesOrLabels(r shape.Representation) *shape.Union[any] {
	return shape.NewUnion("Entry", []shape.Variant[any]{
		{Name: "tally", Decode: func(d shape.Deserializer) (any, error) { return decodeTally(d) }},
		{Name: "label", Decode: func(d shape.Deserializer) (any, error) { return shape.String(d) }},
		{Name: "empty", Unit: true, Decode: func(d shape.Deserializer) (any, error) { return nil, shape.Unit(d) }},
	}, &shape.Config{Representation: r})
}

func Test_ExternalUnion(t *testing.T) {
	u := talliesOrLabels(shape.External)

	got, err := shapemsgpack.Unmarshal(marshal(t, map[string]any{"label": "x"}), u.Deserialize, nil)
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	got, err = shapemsgpack.Unmarshal(marshal(t, map[string]any{"tally": []any{"y", uint8(1)}}), u.Deserialize, nil)
	require.NoError(t, err)
	assert.Equal(t, tally{Label: "y", Count: 1}, got)

	got, err = shapemsgpack.Unmarshal(marshal(t, "empty"), u.Deserialize, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = shapemsgpack.Unmarshal(marshal(t, map[string]any{"a": 1, "b": 2}), u.Deserialize, nil)
	assert.EqualError(t, err, "invalid value: map, expected map with a single key")

	_, err = shapemsgpack.Unmarshal(marshal(t, true), u.Deserialize, nil)
	assert.EqualError(t, err, "invalid type: msgpack code c3, expected string or map")
}

func Test_UntaggedUnionReplaysWidths(t *testing.T) {
	u := talliesOrLabels(shape.Untagged)

	got, err := shapemsgpack.Unmarshal(marshal(t, []any{"z", uint16(500)}), u.Deserialize, nil)
	require.NoError(t, err)
	assert.Equal(t, tally{Label: "z", Count: 500}, got)

	_, err = shapemsgpack.Unmarshal(marshal(t, []any{"z", uint32(70000)}), u.Deserialize, nil)
	var untagged shape.UntaggedError
	require.ErrorAs(t, err, &untagged)
	assert.ErrorContains(t, untagged.Attempts[0], "invalid value: integer `70000`, expected u16")
}

func Test_InternalUnion(t *testing.T) {
	u := talliesOrLabels(shape.Internal)
	got, err := shapemsgpack.Unmarshal(
		marshal(t, map[string]any{"_type": "tally", "label": "q", "count": uint8(9)}), u.Deserialize, nil)
	require.NoError(t, err)
	assert.Equal(t, tally{Label: "q", Count: 9}, got)
}

func Test_TrailingData(t *testing.T) {
	data := append(marshal(t, uint8(1)), 0xc0)
	_, err := shapemsgpack.Unmarshal(data, shape.Uint8, nil)
	assert.EqualError(t, err, "unexpected 1 bytes after top-level value")
}

func Test_MaxDepth(t *testing.T) {
	data := marshal(t, []any{[]any{[]any{}}})

	_, err := shapemsgpack.Unmarshal(data, shape.Value, &shapemsgpack.Options{MaxDepth: 2})
	require.ErrorIs(t, err, shape.ErrDepthLimit)

	_, err = shapemsgpack.Unmarshal(data, shape.Value, &shapemsgpack.Options{MaxDepth: 3})
	require.NoError(t, err)
}
