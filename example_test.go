package shape_test

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhoelle/shape"
	"github.com/dhoelle/shape/shapejson"
	"github.com/go-json-experiment/json"
)

//
// Some examples that implement the fmt.Stringer interface
//

type LiteralStringer string

func (s LiteralStringer) String() string { return string(s) }

type JoinStringer struct {
	A         fmt.Stringer
	B         fmt.Stringer
	Separator string
}

func (s JoinStringer) String() string {
	return fmt.Sprintf("%s%s%s", s.A.String(), s.Separator, s.B.String())
}

type ExclamationPointsStringer int

func (s ExclamationPointsStringer) String() string {
	return strings.Repeat("!", int(s))
}

//
// An example that implements the error interface
//

// https://developer.mozilla.org/en-US/docs/Web/HTTP/Status/418
type TeapotError struct {
	ShowCode bool
}

func (e TeapotError) Error() string {
	if e.ShowCode {
		return "418 I'm a teapot"
	}
	return "I'm a teapot"
}

// An example struct with interface fields.
// We'll unmarshal this from JSON in the Example function, below.
type StringerAndError struct {
	Stringer fmt.Stringer `json:"stringer,omitempty"`
	Error    error        `json:"error,omitempty"`
}

// stringerUnion decodes the fmt.Stringer implementations above. JoinStringer
// holds stringers itself, so its fields decode through the same union.
func stringerUnion(cfg *shape.Config) *shape.Union[fmt.Stringer] {
	var u *shape.Union[fmt.Stringer]
	stringerField := func(name string, dst *fmt.Stringer) shape.FieldDecoder {
		return shape.FieldDecoder{Name: name, Decode: func(d shape.Deserializer) (err error) {
			*dst, err = u.Deserialize(d)
			return err
		}}
	}
	u = shape.NewUnion("Stringer", []shape.Variant[fmt.Stringer]{
		{Name: "literal", Decode: func(d shape.Deserializer) (fmt.Stringer, error) {
			s, err := shape.String(d)
			if err != nil {
				return nil, err
			}
			return LiteralStringer(s), nil
		}},
		{Name: "join", Decode: func(d shape.Deserializer) (fmt.Stringer, error) {
			var j JoinStringer
			rec := &shape.Record{Name: "JoinStringer", Fields: []shape.FieldDecoder{
				stringerField("a", &j.A),
				stringerField("b", &j.B),
				{Name: "separator", Default: true, Decode: func(d shape.Deserializer) (err error) {
					j.Separator, err = shape.String(d)
					return err
				}},
			}}
			if err := rec.Deserialize(d); err != nil {
				return nil, err
			}
			return j, nil
		}},
		{Name: "exclamation", Decode: func(d shape.Deserializer) (fmt.Stringer, error) {
			n, err := shape.Int(d)
			if err != nil {
				return nil, err
			}
			return ExclamationPointsStringer(n), nil
		}},
	}, cfg)
	return u
}

func errorUnion(cfg *shape.Config) *shape.Union[error] {
	return shape.NewUnion("error", []shape.Variant[error]{
		{Name: "no_progress", Unit: true, Decode: func(d shape.Deserializer) (error, error) {
			return io.ErrNoProgress, shape.Unit(d)
		}},
		{Name: "teapot", Decode: func(d shape.Deserializer) (error, error) {
			var e TeapotError
			rec := &shape.Record{Name: "TeapotError", Fields: []shape.FieldDecoder{
				{Name: "show_code", Default: true, Decode: func(d shape.Deserializer) (err error) {
					e.ShowCode, err = shape.Bool(d)
					return err
				}},
			}}
			if err := rec.Deserialize(d); err != nil {
				return nil, err
			}
			return e, nil
		}},
	}, cfg)
}

func Example() {
	in := []byte(`{
	  "stringer": {
	    "_type": "join",
	    "_value": {
	      "a": {
	        "_type": "join",
	        "_value": {
	          "a": {"_type": "literal", "_value": "Hello"},
	          "b": {"_type": "literal", "_value": "world"},
	          "separator": " "
	        }
	      },
	      "b": {"_type": "exclamation", "_value": 2}
	    }
	  },
	  "error": {"_type": "teapot", "_value": {"show_code": true}}
	}`)

	// Adjacently tagged unions for the fmt.Stringer and
	// error interfaces, respectively
	cfg := &shape.Config{Representation: shape.Adjacent}
	stringers := stringerUnion(cfg)
	errs := errorUnion(cfg)

	// Use shapejson.UnmarshalFunc to create json.Unmarshalers
	// that intercept the unmarshaling behavior for errors
	// and fmt.Stringers, then combine them
	unmarshalers := json.JoinUnmarshalers(
		shapejson.UnmarshalFunc(errs.Deserialize, nil),
		shapejson.UnmarshalFunc(stringers.Deserialize, nil),
	)

	// Unmarshal our JSON into a new, empty StringerAndError
	out := StringerAndError{}
	if err := json.Unmarshal(in, &out, json.WithUnmarshalers(unmarshalers)); err != nil {
		panic("failed to unmarshal: " + err.Error())
	}

	fmt.Printf("Output from unmarshaled Go values:\n")
	fmt.Printf("  error: %s\n", out.Error.Error())
	fmt.Printf("  string: %s\n", out.Stringer.String())

	// Output:
	// Output from unmarshaled Go values:
	//   error: 418 I'm a teapot
	//   string: Hello world!!
}

func ExampleRepresentation() {
	docs := []struct {
		representation shape.Representation
		teapot         string
		noProgress     string
	}{
		{shape.External, `{"teapot": {"show_code": true}}`, `"no_progress"`},
		{shape.Internal, `{"_type": "teapot", "show_code": true}`, `{"_type": "no_progress"}`},
		{shape.Adjacent, `{"_type": "teapot", "_value": {"show_code": true}}`, `{"_type": "no_progress"}`},
		{shape.Untagged, `{"show_code": true}`, `null`},
	}
	for _, doc := range docs {
		errs := errorUnion(&shape.Config{Representation: doc.representation})
		teapot, err := shapejson.Unmarshal([]byte(doc.teapot), errs.Deserialize, nil)
		if err != nil {
			panic(err)
		}
		noProgress, err := shapejson.Unmarshal([]byte(doc.noProgress), errs.Deserialize, nil)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%-8s %q, %q\n", doc.representation, teapot, noProgress)
	}
	// Output:
	// external "418 I'm a teapot", "multiple Read calls return no data or error"
	// internal "418 I'm a teapot", "multiple Read calls return no data or error"
	// adjacent "418 I'm a teapot", "multiple Read calls return no data or error"
	// untagged "418 I'm a teapot", "multiple Read calls return no data or error"
}
