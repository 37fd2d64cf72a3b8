package paddock_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aretw0/paddock"
	"github.com/aretw0/paddock/pkg/domain"
)

// Example demonstrates the basic checkout/return cycle against a local
// Redis instance.
func Example() {
	pool, err := paddock.New("example:tokens", 30*time.Second, domain.StringCodec{},
		paddock.WithAddr("localhost:6379", "", 0),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	ctx := context.Background()

	// Seed the pool; Reset swaps the whole membership in atomically.
	if _, err := pool.Reset(ctx, []string{"token-a", "token-b", "token-c"}); err != nil {
		log.Fatal(err)
	}

	token, err := pool.Choose(ctx)
	if errors.Is(err, domain.ErrNoItemAvailable) {
		fmt.Println("everything is leased right now")
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	// ... use the token against the upstream API ...

	// Return it; or use ReplaceUntil to bench a rate-limited token.
	if err := pool.Replace(ctx, token); err != nil {
		log.Fatal(err)
	}
}

// ExamplePool_ReplaceUntil benches an item for a cooldown window, e.g.
// after the upstream rate-limited it.
func ExamplePool_ReplaceUntil() {
	pool, err := paddock.New("example:tokens", 30*time.Second, domain.StringCodec{})
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	ctx := context.Background()
	token, err := pool.Choose(ctx)
	if err != nil {
		log.Fatal(err)
	}

	// Upstream said 429: keep the token out of rotation for five minutes.
	if err := pool.ReplaceUntil(ctx, token, time.Now().Add(5*time.Minute)); err != nil {
		log.Fatal(err)
	}
}
