package shape_test

import (
	"crypto"
	"fmt"
	"net"
	"net/url"

	"github.com/dhoelle/shape"
	"github.com/dhoelle/shape/shapejson"
)

func Example_simple() {
	// Implementations of fmt.Stringer that our program will
	// unmarshal, keyed by a variant name
	stringers := shape.NewUnion("Stringer", []shape.Variant[fmt.Stringer]{
		{Name: "crypto.Hash", Decode: func(d shape.Deserializer) (fmt.Stringer, error) {
			h, err := shape.Uint64(d)
			return crypto.Hash(h), err
		}},
		{Name: "net.IP", Decode: func(d shape.Deserializer) (fmt.Stringer, error) {
			s, err := shape.String(d)
			return net.ParseIP(s), err
		}},
		{Name: "url.URL", Decode: func(d shape.Deserializer) (fmt.Stringer, error) {
			s, err := shape.String(d)
			if err != nil {
				return nil, err
			}
			return url.Parse(s)
		}},
	}, &shape.Config{Representation: shape.Adjacent})

	b := []byte(`{"_type": "crypto.Hash", "_value": 5}`)
	s, _ := shapejson.Unmarshal(b, stringers.Deserialize, nil)
	fmt.Printf("unmarshaled type = %T\n", s)
	fmt.Printf("string output = %s\n", s.String())
	// Output:
	// unmarshaled type = crypto.Hash
	// string output = SHA-256
}
