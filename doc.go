// SPDX-FileCopyrightText: © 2024 Donald Hoelle. All rights reserved.
// SPDX-License-Identifier: MIT
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package [shape] is a format-independent decoding protocol: input formats
// implement [Deserializer], decode logic implements [Visitor], and neither
// needs to know about the other.
//
// A decoder asks a Deserializer for the shape it wants (a string, a map, an
// enum, ...). The Deserializer answers by calling the matching method of
// the Visitor, or, when it holds something else, by reporting an
// [InvalidTypeError]:
//
//	n, err := shape.Uint16(d) // d is any Deserializer
//	// with input "hello":
//	// invalid type: string "hello", expected u16
//
// Some decoders cannot know what to ask for until they have seen part of
// the input. A union whose variant is named by one of its own fields has to
// find that field first, and an untagged union has to try its variants one
// by one. [CaptureContent] buffers a value of any shape into a [Content],
// and [NewContentDeserializer] and [NewContentRefDeserializer] replay it
// through the same protocol, so the rest of the decode logic cannot tell a
// replay from fresh input:
//
//	c, _ := shape.CaptureContent(d)
//	for _, try := range candidates {
//	  if v, err := try(shape.NewContentRefDeserializer(&c)); err == nil {
//	    return v, nil
//	  }
//	}
//
// [Union] and [Record] are table-driven decoders built on these pieces:
//
//	shapes := shape.NewUnion("Shape", []shape.Variant[Shape]{
//	  {Name: "circle", Decode: decodeCircle},
//	  {Name: "square", Decode: decodeSquare},
//	}, &shape.Config{Representation: shape.Internal})
//
//	// {"_type": "circle", "radius": 2}
//	s, err := shapes.Deserialize(d)
//
// Format adapters live in the subpackages shapejson, shapemsgpack,
// shapecbor and shapeyaml.
package shape
