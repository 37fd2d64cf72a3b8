package domain

import "errors"

// ErrNoItemAvailable is returned by Choose when no pool member is currently
// eligible (every score is in the future, or the pool is empty). It is an
// expected, recoverable condition, not a store failure.
var ErrNoItemAvailable = errors.New("no item available")

// ErrNotEncodable is returned when a codec cannot produce a canonical form
// for an item. This is a usage error and fails fast before anything is
// written to the store.
var ErrNotEncodable = errors.New("item not encodable")
