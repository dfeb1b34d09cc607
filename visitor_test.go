package shape_test

import (
	"testing"

	"github.com/dhoelle/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wideVisitor only accepts the widest shape of each family.
type wideVisitor struct{}

func (wideVisitor) Expecting() string                 { return "a wide value" }
func (wideVisitor) VisitI64(v int64) (any, error)     { return v, nil }
func (wideVisitor) VisitF64(v float64) (any, error)   { return v, nil }
func (wideVisitor) VisitStr(v string) (any, error)    { return "str:" + v, nil }
func (wideVisitor) VisitBytes(v []byte) (any, error)  { return "bytes:" + string(v), nil }

func Test_VisitFallbacks(t *testing.T) {
	v := wideVisitor{}
	tests := []struct {
		name string
		call func() (any, error)
		want any
	}{
		{name: "i8", call: func() (any, error) { return shape.VisitI8(v, -3) }, want: int64(-3)},
		{name: "i16", call: func() (any, error) { return shape.VisitI16(v, 300) }, want: int64(300)},
		{name: "i32", call: func() (any, error) { return shape.VisitI32(v, -70000) }, want: int64(-70000)},
		{name: "f32", call: func() (any, error) { return shape.VisitF32(v, 1.5) }, want: float64(1.5)},
		{name: "char", call: func() (any, error) { return shape.VisitChar(v, 'é') }, want: "str:é"},
		{name: "borrowed str", call: func() (any, error) { return shape.VisitBorrowedStr(v, "a") }, want: "str:a"},
		{name: "string", call: func() (any, error) { return shape.VisitString(v, "b") }, want: "str:b"},
		{name: "borrowed bytes", call: func() (any, error) { return shape.VisitBorrowedBytes(v, []byte("c")) }, want: "bytes:c"},
		{name: "byte buf", call: func() (any, error) { return shape.VisitByteBuf(v, []byte("d")) }, want: "bytes:d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_VisitWithoutFallback(t *testing.T) {
	v := wideVisitor{}
	tests := []struct {
		name string
		call func() (any, error)
		want string
	}{
		{name: "u8", call: func() (any, error) { return shape.VisitU8(v, 7) }, want: "invalid type: integer `7`, expected a wide value"},
		{name: "bool", call: func() (any, error) { return shape.VisitBool(v, true) }, want: "invalid type: boolean `true`, expected a wide value"},
		{name: "unit", call: func() (any, error) { return shape.VisitUnit(v) }, want: "invalid type: unit value, expected a wide value"},
		{name: "none", call: func() (any, error) { return shape.VisitNone(v) }, want: "invalid type: Option value, expected a wide value"},
		{name: "seq", call: func() (any, error) { return shape.VisitSeq(v, nil) }, want: "invalid type: sequence, expected a wide value"},
		{name: "map", call: func() (any, error) { return shape.VisitMap(v, nil) }, want: "invalid type: map, expected a wide value"},
		{name: "enum", call: func() (any, error) { return shape.VisitEnum(v, nil) }, want: "invalid type: enum, expected a wide value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.call()
			var typeErr shape.InvalidTypeError
			require.ErrorAs(t, err, &typeErr)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func Test_ForwardToAny(t *testing.T) {
	calls := 0
	src := newSource(shape.Compact, func(v shape.Visitor) (any, error) {
		calls++
		return shape.VisitU64(v, 42)
	})

	n, err := shape.Uint16(src)
	require.NoError(t, err)
	assert.Equal(t, uint16(42), n)

	f, err := shape.Float32(src)
	require.NoError(t, err)
	assert.Equal(t, float32(42), f)

	_, err = src.DeserializeEnum("E", nil, wideVisitor{})
	require.Error(t, err)

	assert.Equal(t, 3, calls)
	assert.Equal(t, shape.Compact, src.Mode())
	assert.False(t, src.Mode().IsHumanReadable())
	assert.Equal(t, "compact", src.Mode().String())
}
