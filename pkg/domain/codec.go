package domain

import (
	"encoding/json"
	"fmt"
)

// Codec converts an opaque item to and from its canonical storable form.
//
// The canonical form is the identity the shared store keys on: it must be
// deterministic (the same item always encodes to the same string),
// reversible, and collision-free. The pool never inspects item contents
// beyond this form.
type Codec[T any] interface {
	// Encode returns the canonical form of the item.
	Encode(item T) (string, error)

	// Decode reconstructs an item from its canonical form.
	Decode(member string) (T, error)
}

// StringCodec is the identity codec for pools whose items are already
// store-native strings (tokens, endpoint addresses, worker IDs).
type StringCodec struct{}

func (StringCodec) Encode(item string) (string, error) { return item, nil }

func (StringCodec) Decode(member string) (string, error) { return member, nil }

// JSONCodec encodes items as compact JSON. Suitable for struct items as
// long as their JSON form is deterministic (no maps with more than one key,
// no floating-point noise).
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(item T) (string, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotEncodable, err)
	}
	return string(data), nil
}

func (JSONCodec[T]) Decode(member string) (T, error) {
	var item T
	if err := json.Unmarshal([]byte(member), &item); err != nil {
		return item, fmt.Errorf("failed to decode member %q: %w", member, err)
	}
	return item, nil
}
