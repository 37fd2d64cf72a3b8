package domain

import "time"

// Member is a single pool entry as seen by inspection operations.
type Member struct {
	// Element is the canonical form of the item.
	Element string

	// AvailableAt is the instant the item next becomes eligible for
	// selection. A time at or before now means the item is free; a future
	// time means it is leased or deliberately deferred.
	AvailableAt time.Time
}

// Available reports whether the member is eligible for selection at the
// given instant.
func (m Member) Available(now time.Time) bool {
	return !m.AvailableAt.After(now)
}
