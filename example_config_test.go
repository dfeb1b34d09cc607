package shape_test

import (
	"fmt"

	"github.com/dhoelle/shape"
	"github.com/dhoelle/shape/shapejson"
)

func ExampleConfig() {
	cfg := &shape.Config{
		Representation: shape.Adjacent,
		TagKey:         "$type",
		ContentKey:     "$value",
	}
	stringers := stringerUnion(cfg)

	in := []byte(`{
	  "$value": {
	    "a": {"$type": "literal", "$value": "Hello"},
	    "b": {"$type": "literal", "$value": "world"},
	    "separator": ", "
	  },
	  "$type": "join",
	  "$comment": "keys besides $type and $value are skipped"
	}`)

	s, err := shapejson.Unmarshal(in, stringers.Deserialize, nil)
	if err != nil {
		panic("failed to unmarshal: " + err.Error())
	}
	fmt.Println(s)

	// With DenyUnknownFields, the same input is rejected
	cfg.DenyUnknownFields = true
	_, err = shapejson.Unmarshal(in, stringerUnion(cfg).Deserialize, nil)
	fmt.Println(err)

	// Output:
	// Hello, world
	// invalid value: string "$comment", expected "$type" or "$value"
}
