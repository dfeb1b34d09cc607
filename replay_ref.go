package shape

// ContentRefDeserializer replays a buffered [Content] without consuming
// it. Owned strings and byte slices reach the visitor as transient values;
// the tree can be replayed again afterwards.
type ContentRefDeserializer struct {
	replay
}

// NewContentRefDeserializer returns a Deserializer over c. The caller keeps
// ownership of c and must not modify it while the Deserializer is in use.
func NewContentRefDeserializer(c *Content) *ContentRefDeserializer {
	return &ContentRefDeserializer{replay{content: c, mode: c.Mode}}
}
