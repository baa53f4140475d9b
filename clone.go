package keyarc

// Clone deep-copies a value by encoding it and decoding it back through a
// fresh Decoder that adopts the Encoder's state directly, skipping byte
// serialization. Semantics are identical to a serialize/deserialize round
// trip; shared instances inside value stay shared in the copy. Returns the
// zero value if decoding fails.
func Clone[T any](value T) T {
	enc := NewEncoder()
	enc.Encode(value, "")
	dec := &Decoder{coder: enc.coder, memo: make(map[objIndex]any)}
	v, err := Decode[T](dec, "")
	if err != nil {
		var zero T
		return zero
	}
	return v
}
