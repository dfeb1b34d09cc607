package shape_test

import (
	"fmt"
	"testing"

	"github.com/dhoelle/shape"
	"github.com/dhoelle/shape/shapejson"
	"github.com/stretchr/testify/require"
)

// capture buffers a JSON document.
func capture(t *testing.T, doc string) shape.Content {
	t.Helper()
	c, err := shapejson.Unmarshal([]byte(doc), shape.CaptureContent, nil)
	require.NoError(t, err)
	return c
}

// decodeJSON runs decode over a JSON document.
func decodeJSON[T any](doc string, decode func(shape.Deserializer) (T, error)) (T, error) {
	return shapejson.Unmarshal([]byte(doc), decode, nil)
}

// source answers every request by calling visit.
type source struct {
	shape.ForwardToAny
	mode  shape.Mode
	visit func(v shape.Visitor) (any, error)
}

func newSource(mode shape.Mode, visit func(v shape.Visitor) (any, error)) *source {
	s := &source{mode: mode, visit: visit}
	s.ForwardToAny = shape.ForwardToAny{AnyDeserializer: s}
	return s
}

func (s *source) Mode() shape.Mode                             { return s.mode }
func (s *source) DeserializeAny(v shape.Visitor) (any, error) { return s.visit(v) }

// recorder names the visit method a source called.
type recorder struct{}

func (recorder) Expecting() string { return "anything recordable" }

func (recorder) VisitBool(v bool) (any, error)     { return fmt.Sprintf("VisitBool(%t)", v), nil }
func (recorder) VisitI8(v int8) (any, error)       { return fmt.Sprintf("VisitI8(%d)", v), nil }
func (recorder) VisitI16(v int16) (any, error)     { return fmt.Sprintf("VisitI16(%d)", v), nil }
func (recorder) VisitI32(v int32) (any, error)     { return fmt.Sprintf("VisitI32(%d)", v), nil }
func (recorder) VisitI64(v int64) (any, error)     { return fmt.Sprintf("VisitI64(%d)", v), nil }
func (recorder) VisitU8(v uint8) (any, error)      { return fmt.Sprintf("VisitU8(%d)", v), nil }
func (recorder) VisitU16(v uint16) (any, error)    { return fmt.Sprintf("VisitU16(%d)", v), nil }
func (recorder) VisitU32(v uint32) (any, error)    { return fmt.Sprintf("VisitU32(%d)", v), nil }
func (recorder) VisitU64(v uint64) (any, error)    { return fmt.Sprintf("VisitU64(%d)", v), nil }
func (recorder) VisitF32(v float32) (any, error)   { return fmt.Sprintf("VisitF32(%g)", v), nil }
func (recorder) VisitF64(v float64) (any, error)   { return fmt.Sprintf("VisitF64(%g)", v), nil }
func (recorder) VisitChar(v rune) (any, error)     { return fmt.Sprintf("VisitChar(%q)", v), nil }
func (recorder) VisitStr(v string) (any, error)    { return fmt.Sprintf("VisitStr(%q)", v), nil }
func (recorder) VisitString(v string) (any, error) { return fmt.Sprintf("VisitString(%q)", v), nil }
func (recorder) VisitBytes(v []byte) (any, error)  { return fmt.Sprintf("VisitBytes(%q)", v), nil }
func (recorder) VisitByteBuf(v []byte) (any, error) {
	return fmt.Sprintf("VisitByteBuf(%q)", v), nil
}
func (recorder) VisitBorrowedStr(v string) (any, error) {
	return fmt.Sprintf("VisitBorrowedStr(%q)", v), nil
}
func (recorder) VisitBorrowedBytes(v []byte) (any, error) {
	return fmt.Sprintf("VisitBorrowedBytes(%q)", v), nil
}
func (recorder) VisitNone() (any, error) { return "VisitNone", nil }
func (recorder) VisitUnit() (any, error) { return "VisitUnit", nil }
func (recorder) VisitSome(shape.Deserializer) (any, error) {
	return "VisitSome", nil
}
func (recorder) VisitNewtypeStruct(shape.Deserializer) (any, error) {
	return "VisitNewtypeStruct", nil
}

// scalar builds a human-readable leaf Content.
func scalar(c shape.Content) *shape.Content {
	c.Mode = shape.HumanReadable
	return &c
}
