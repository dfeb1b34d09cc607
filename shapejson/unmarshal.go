package shapejson

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dhoelle/shape"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/tidwall/jsonc"
)

// Unmarshal decodes a single JSON document with decode, e.g.
// [shape.CaptureContent], [shape.Value] or a Union's Deserialize method.
// Data after the first value is an error. Duplicate object member names
// are passed through; records and tagged unions report them.
func Unmarshal[T any](data []byte, decode func(shape.Deserializer) (T, error), opts *Options) (T, error) {
	var zero T
	if opts != nil && opts.AllowComments {
		data = jsonc.ToJSON(data)
	}
	dec := jsontext.NewDecoder(bytes.NewReader(data), jsontext.AllowDuplicateNames(true))
	v, err := decode(NewDeserializer(dec, opts))
	if err != nil {
		return zero, err
	}
	end := dec.InputOffset()
	switch _, err := dec.ReadToken(); {
	case err == io.EOF:
		return v, nil
	case err != nil:
		return zero, fmt.Errorf("unexpected data after top-level value at offset %d: %w", end, err)
	}
	return zero, fmt.Errorf("unexpected data after top-level value at offset %d", end)
}

// UnmarshalFunc creates a [json.Unmarshalers] which will intercept
// unmarshaling behavior for values of type T.
//
// Wherever [json.Unmarshal] would decode a T, the JSON value is read
// through a shape Deserializer and handed to decode instead. This lets
// interface-typed fields be decoded by a [shape.Union]:
//
//	shapes := shape.NewUnion("Shape", variants, nil)
//	err := json.Unmarshal(b, &drawing,
//	  json.WithUnmarshalers(shapejson.UnmarshalFunc(shapes.Deserialize, nil)))
func UnmarshalFunc[T any](decode func(shape.Deserializer) (T, error), opts *Options) *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, ptr *T) error {
		v, err := decode(NewDeserializer(dec, opts))
		if err != nil {
			return fmt.Errorf("failed to decode %T: %w", ptr, err)
		}
		*ptr = v
		return nil
	})
}

// JSONOptions returns [json.Options] that decode values of type T with
// decode.
func JSONOptions[T any](decode func(shape.Deserializer) (T, error), opts *Options) json.Options {
	return json.WithUnmarshalers(UnmarshalFunc(decode, opts))
}
