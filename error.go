package shape

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrDepthLimit is returned by format deserializers when the input nests
// deeper than their configured limit.
var ErrDepthLimit = errors.New("shape: nesting depth limit exceeded")

// UnexpectedKind classifies the value a source found when a receiver
// rejected it.
type UnexpectedKind uint8

const (
	UnexpectedOther UnexpectedKind = iota
	UnexpectedBool
	UnexpectedUnsigned
	UnexpectedSigned
	UnexpectedFloat
	UnexpectedChar
	UnexpectedStr
	UnexpectedBytes
	UnexpectedUnit
	UnexpectedOption
	UnexpectedNewtypeStruct
	UnexpectedSeq
	UnexpectedMap
	UnexpectedEnum
	UnexpectedUnitVariant
	UnexpectedNewtypeVariant
	UnexpectedTupleVariant
	UnexpectedStructVariant
)

// Unexpected describes the offending value in an InvalidTypeError or
// InvalidValueError. Only the field matching Kind is meaningful.
type Unexpected struct {
	Kind     UnexpectedKind
	Bool     bool
	Unsigned uint64
	Signed   int64
	Float    float64
	Char     rune
	Str      string
	Bytes    []byte
	// Other names the value when Kind is UnexpectedOther.
	Other string
}

func (u Unexpected) String() string {
	switch u.Kind {
	case UnexpectedBool:
		return fmt.Sprintf("boolean `%t`", u.Bool)
	case UnexpectedUnsigned:
		return fmt.Sprintf("integer `%d`", u.Unsigned)
	case UnexpectedSigned:
		return fmt.Sprintf("integer `%d`", u.Signed)
	case UnexpectedFloat:
		return fmt.Sprintf("floating point `%s`", strconv.FormatFloat(u.Float, 'g', -1, 64))
	case UnexpectedChar:
		return fmt.Sprintf("character `%c`", u.Char)
	case UnexpectedStr:
		return fmt.Sprintf("string %q", u.Str)
	case UnexpectedBytes:
		return "byte array"
	case UnexpectedUnit:
		return "unit value"
	case UnexpectedOption:
		return "Option value"
	case UnexpectedNewtypeStruct:
		return "newtype struct"
	case UnexpectedSeq:
		return "sequence"
	case UnexpectedMap:
		return "map"
	case UnexpectedEnum:
		return "enum"
	case UnexpectedUnitVariant:
		return "unit variant"
	case UnexpectedNewtypeVariant:
		return "newtype variant"
	case UnexpectedTupleVariant:
		return "tuple variant"
	case UnexpectedStructVariant:
		return "struct variant"
	}
	if u.Other == "" {
		return "unknown value"
	}
	return u.Other
}

// InvalidTypeError is returned when the input holds a value of the wrong
// shape for the receiver, e.g. a string where an integer was expected.
type InvalidTypeError struct {
	Unexpected Unexpected
	Expected   string
}

func (e InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid type: %s, expected %s", e.Unexpected, e.Expected)
}

// InvalidValueError is returned when the input has the right shape but an
// unacceptable value, e.g. an integer out of range.
type InvalidValueError struct {
	Unexpected Unexpected
	Expected   string
}

func (e InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value: %s, expected %s", e.Unexpected, e.Expected)
}

// InvalidLengthError reports a sequence or map with the wrong number of
// elements.
type InvalidLengthError struct {
	Len      int
	Expected string
}

func (e InvalidLengthError) Error() string {
	return fmt.Sprintf("invalid length %d, expected %s", e.Len, e.Expected)
}

type MissingFieldError struct {
	Field string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("missing field `%s`", e.Field)
}

type DuplicateFieldError struct {
	Field string
}

func (e DuplicateFieldError) Error() string {
	return fmt.Sprintf("duplicate field `%s`", e.Field)
}

// UnknownFieldError is returned by records that deny unknown fields.
type UnknownFieldError struct {
	Field    string
	Expected []string
}

func (e UnknownFieldError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("unknown field `%s`, there are no fields", e.Field)
	}
	return fmt.Sprintf("unknown field `%s`, %s", e.Field, oneOf(e.Expected))
}

// UnknownVariantError is returned by [Union] when it encounters a
// discriminator which is not one of its variant names.
type UnknownVariantError struct {
	Variant  string
	Expected []string
}

func (e UnknownVariantError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("unknown variant `%s`, there are no variants", e.Variant)
	}
	return fmt.Sprintf("unknown variant `%s`, %s", e.Variant, oneOf(e.Expected))
}

// CustomError carries a free-form message.
type CustomError struct {
	Msg string
}

func (e CustomError) Error() string {
	return e.Msg
}

// Errorf formats a CustomError.
func Errorf(format string, args ...any) error {
	return CustomError{Msg: fmt.Sprintf(format, args...)}
}

func oneOf(names []string) string {
	switch len(names) {
	case 1:
		return fmt.Sprintf("expected `%s`", names[0])
	case 2:
		return fmt.Sprintf("expected `%s` or `%s`", names[0], names[1])
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}
	return "expected one of " + strings.Join(quoted, ", ")
}

func invalidType(u Unexpected, v Visitor) error {
	return InvalidTypeError{Unexpected: u, Expected: v.Expecting()}
}
