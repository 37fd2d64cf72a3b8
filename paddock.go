package paddock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	redisAdapter "github.com/aretw0/paddock/pkg/adapters/redis"
	"github.com/aretw0/paddock/pkg/domain"
	"github.com/aretw0/paddock/pkg/ports"
	"github.com/cenkalti/backoff/v5"
	backend "github.com/redis/go-redis/v9"
)

// Pool is the high-level entry point for the Paddock library.
// It wraps a PoolStore and a Codec, translating between opaque items and
// the canonical members the store keys on.
type Pool[T any] struct {
	store  ports.PoolStore
	codec  domain.Codec[T]
	lease  time.Duration
	logger *slog.Logger

	// ownsStore is set when the Pool created the store itself, in which
	// case Close tears it down.
	ownsStore bool
}

type config struct {
	address  string
	password string
	db       int
	client   *backend.Client
	store    ports.PoolStore
	logger   *slog.Logger
}

// Option defines a functional option for configuring a Pool.
type Option func(*config)

// WithAddr sets the Redis connection parameters for the default store.
func WithAddr(address, password string, db int) Option {
	return func(c *config) {
		c.address = address
		c.password = password
		c.db = db
	}
}

// WithClient injects an existing Redis client. The caller keeps ownership
// of the client; Close will not touch it.
func WithClient(client *backend.Client) Option {
	return func(c *config) {
		c.client = client
	}
}

// WithStore injects a custom PoolStore, bypassing Redis entirely.
func WithStore(store ports.PoolStore) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithLogger sets a custom structured logger for the pool.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New initializes a Pool.
//
// poolKey names the shared structure that holds the membership: every Pool
// constructed with the same key (in any process) operates on the same pool.
// lease is how long a chosen item stays unavailable unless returned early.
// By default the pool connects to Redis on localhost; use WithAddr,
// WithClient, or WithStore to point it elsewhere.
func New[T any](poolKey string, lease time.Duration, codec domain.Codec[T], opts ...Option) (*Pool[T], error) {
	if poolKey == "" {
		return nil, fmt.Errorf("poolKey is required")
	}
	if codec == nil {
		return nil, fmt.Errorf("codec is required")
	}

	cfg := config{address: "localhost:6379"}
	for _, opt := range opts {
		opt(&cfg)
	}

	pool := &Pool[T]{
		codec:  codec,
		lease:  lease,
		logger: cfg.logger,
	}

	switch {
	case cfg.store != nil:
		pool.store = cfg.store
	case cfg.client != nil:
		pool.store = redisAdapter.NewFromClient(cfg.client, poolKey)
	default:
		pool.store = redisAdapter.New(cfg.address, cfg.password, cfg.db, poolKey)
		pool.ownsStore = true
	}

	// Ensure logger is initialized so call sites never guard against nil.
	if pool.logger == nil {
		pool.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	pool.logger = pool.logger.With("pool", poolKey)

	return pool, nil
}

// Choose picks an item from the pool, leasing it for the configured
// duration. The item remains a pool member but cannot be chosen again until
// the lease lapses or the item is returned with Replace.
//
// Returns an error wrapping domain.ErrNoItemAvailable when every member is
// currently leased or the pool is empty; that condition is expected and
// recoverable, unlike a store failure.
func (p *Pool[T]) Choose(ctx context.Context) (T, error) {
	var zero T

	member, err := p.store.Choose(ctx, p.lease)
	if err != nil {
		return zero, err
	}

	item, err := p.codec.Decode(member)
	if err != nil {
		return zero, err
	}

	p.logger.Debug("item chosen", "member", member, "lease", p.lease)
	return item, nil
}

// ChooseWait is Choose with retry-with-backoff layered on top, for callers
// that prefer waiting out an exhausted pool over handling the condition
// themselves. Only domain.ErrNoItemAvailable is retried; store failures
// surface immediately. It returns when an item is obtained or the context
// is done.
func (p *Pool[T]) ChooseWait(ctx context.Context) (T, error) {
	var zero T

	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = 100 * time.Millisecond
	boff.MaxInterval = 5 * time.Second

	for {
		item, err := p.Choose(ctx)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, domain.ErrNoItemAvailable) {
			return zero, err
		}

		wait := boff.NextBackOff()
		p.logger.Debug("pool exhausted, backing off", "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// Replace returns an item to the pool, making it immediately available.
// Replacing an item that is not currently a member re-admits it: the pool
// is implicitly open-membership, which also allows pre-warming a pool from
// outside the Add path.
func (p *Pool[T]) Replace(ctx context.Context, item T) error {
	return p.ReplaceUntil(ctx, item, time.Time{})
}

// ReplaceUntil returns an item with deferred availability: the item cannot
// be chosen before lockTill. Useful to blacklist an item for a cooldown
// window (e.g. a rate-limited token). A zero lockTill is equivalent to
// Replace.
func (p *Pool[T]) ReplaceUntil(ctx context.Context, item T, lockTill time.Time) error {
	member, err := p.codec.Encode(item)
	if err != nil {
		return err
	}
	return p.store.Replace(ctx, member, lockTill)
}

// Add inserts a new item into the pool, immediately available. Returns true
// if the item was newly added, false if it already existed — in which case
// its current availability (including an in-flight lease) is untouched.
func (p *Pool[T]) Add(ctx context.Context, item T) (bool, error) {
	member, err := p.codec.Encode(item)
	if err != nil {
		return false, err
	}
	return p.store.Add(ctx, member)
}

// Remove deletes an item from the pool. Returns true if it was a member.
// Removing a mid-lease item silently invalidates the lease; the holder may
// still Replace it afterward, which re-admits it.
func (p *Pool[T]) Remove(ctx context.Context, item T) (bool, error) {
	member, err := p.codec.Encode(item)
	if err != nil {
		return false, err
	}
	return p.store.Remove(ctx, member)
}

// ResetOption configures a Reset call.
type ResetOption func(*resetConfig)

type resetConfig struct {
	batchSize      int
	preserveScores bool
}

// WithBatchSize bounds how many members are staged per write during a
// rotation. Defaults to the store's default (500 for Redis).
func WithBatchSize(n int) ResetOption {
	return func(c *resetConfig) {
		c.batchSize = n
	}
}

// PreserveScores carries the current availability instant over for every
// item present in both the old and new membership, so rotating the pool
// does not forget in-flight leases on surviving items.
func PreserveScores() ResetOption {
	return func(c *resetConfig) {
		c.preserveScores = true
	}
}

// Reset replaces the entire pool membership with exactly the (deduplicated)
// given items, all immediately available unless PreserveScores carries an
// existing instant over. The previous membership stays fully usable until
// the swap completes in a single atomic step. Returns the new membership
// size. An empty items slice legally produces an empty pool.
func (p *Pool[T]) Reset(ctx context.Context, items []T, opts ...ResetOption) (int64, error) {
	cfg := resetConfig{batchSize: redisAdapter.DefaultBatchSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	members := make([]string, 0, len(items))
	for _, item := range items {
		member, err := p.codec.Encode(item)
		if err != nil {
			return 0, err
		}
		members = append(members, member)
	}

	count, err := p.store.Reset(ctx, members, cfg.batchSize, cfg.preserveScores)
	if err != nil {
		return 0, err
	}

	p.logger.Info("pool membership rotated", "size", count, "preserve_scores", cfg.preserveScores)
	return count, nil
}

// Members returns every pool entry with its availability instant, ordered
// by availability ascending. Members are reported in canonical form.
func (p *Pool[T]) Members(ctx context.Context) ([]domain.Member, error) {
	return p.store.Members(ctx)
}

// Len returns the current pool membership size, leased members included.
func (p *Pool[T]) Len(ctx context.Context) (int64, error) {
	return p.store.Len(ctx)
}

// Store returns the underlying PoolStore used by the pool.
func (p *Pool[T]) Store() ports.PoolStore {
	return p.store
}

// Close releases the store's resources if the Pool created them itself.
// Pools built on an injected client or store leave teardown to the caller.
func (p *Pool[T]) Close() error {
	if !p.ownsStore {
		return nil
	}
	if closer, ok := p.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
