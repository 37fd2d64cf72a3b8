/*
Package domain contains the core domain models for the Paddock pool.

It defines the fundamental concepts of the lease protocol: the canonical
form an item takes inside the shared store, the codec that produces it, and
the sentinel errors callers are expected to test for. This package is kept
pure and free of external dependencies like I/O or persistence, following
Hexagonal Architecture principles.

# Key Entities

  - Codec: Converts an opaque item to/from its canonical storable form.
  - Member: A pool entry paired with the instant it next becomes available.
  - ErrNoItemAvailable: The expected "pool exhausted" condition of Choose.
*/
package domain
