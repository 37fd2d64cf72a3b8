/*
Package paddock manages a shared pool of reusable, interchangeable items (API tokens, credentials, worker slots, proxy endpoints) across many concurrent, possibly distributed clients.

At most one client at a time is granted temporary use of any given item; an
unreturned item becomes available again automatically once its lease lapses.
Clients never coordinate with one another — all coordination is mediated by a
shared Redis sorted set, so any number of processes can operate on the same
pool concurrently.

# Concept

The pool is a single sorted set: each member is the canonical form of an item,
and its score is the unix timestamp at which that item next becomes available.
Choosing an item does not remove it; it pushes the score into the future by the
lease duration. Returning an item (Replace) resets the score to now, or to an
explicit future instant to impose a cooldown. Choice always takes the member
with the smallest eligible score, which spreads load across the pool with a
least-recently-available bias.

# Key Features

  - Atomic choose-and-lock: a server-side script guarantees no two callers
    ever receive the same item while its lease is live.
  - Automatic expiry: leases are enforced purely by the timestamp check, so a
    crashed holder cannot wedge the pool.
  - Safe rotation: Reset builds the new membership off to the side and swaps
    it in atomically, optionally carrying lease state over for surviving
    members.
  - Opaque items: a Codec converts items to and from their storable form; the
    pool never inspects item contents.

# Usage

	package main

	import (
		"context"
		"errors"
		"log"
		"time"

		"github.com/aretw0/paddock"
		"github.com/aretw0/paddock/pkg/domain"
	)

	func main() {
		pool, err := paddock.New("tokens", 30*time.Second, domain.StringCodec{},
			paddock.WithAddr("localhost:6379", "", 0),
		)
		if err != nil {
			log.Fatal(err)
		}
		defer pool.Close()

		ctx := context.Background()
		if _, err := pool.Reset(ctx, []string{"token-a", "token-b"}); err != nil {
			log.Fatal(err)
		}

		token, err := pool.Choose(ctx)
		if errors.Is(err, domain.ErrNoItemAvailable) {
			log.Println("pool exhausted, try again later")
			return
		}
		if err != nil {
			log.Fatal(err)
		}

		// ... use the token ...

		if err := pool.Replace(ctx, token); err != nil {
			log.Fatal(err)
		}
	}
*/
package paddock
