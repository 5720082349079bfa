package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mcoot/pokerstats/internal/model"
	"github.com/mcoot/pokerstats/internal/storage"
)

// IdentityStore is the subset of storage the resolver writes through
type IdentityStore interface {
	GetAlias(ctx context.Context, username string, platform model.Platform) (*model.Alias, error)
	InsertAlias(ctx context.Context, alias *model.Alias) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByUsername(ctx context.Context, username string) (*model.Player, error)
	InsertPlayer(ctx context.Context, player *model.Player) error
}

// StatsStore is the subset of storage the upserter writes through
type StatsStore interface {
	HasStats(ctx context.Context, playerID model.PlayerID) (bool, error)
	InsertStats(ctx context.Context, stats *model.Stats) error
}

// boundedStore gives every store call its own deadline. A call that runs
// past it fails with model.ErrStoreTimeout; cancellation of the caller's
// context is passed through unchanged.
type boundedStore struct {
	store   storage.Storage
	timeout time.Duration
}

var (
	_ IdentityStore = (*boundedStore)(nil)
	_ StatsStore    = (*boundedStore)(nil)
)

func newBoundedStore(store storage.Storage, timeout time.Duration) *boundedStore {
	return &boundedStore{store: store, timeout: timeout}
}

func bounded[T any](ctx context.Context, timeout time.Duration, op string, call func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return call(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := call(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		var zero T
		return zero, fmt.Errorf("%w: %s after %s", model.ErrStoreTimeout, op, timeout)
	}
	return v, err
}

func (b *boundedStore) GetAlias(ctx context.Context, username string, platform model.Platform) (*model.Alias, error) {
	return bounded(ctx, b.timeout, "get alias", func(ctx context.Context) (*model.Alias, error) {
		return b.store.GetAlias(ctx, username, platform)
	})
}

func (b *boundedStore) InsertAlias(ctx context.Context, alias *model.Alias) error {
	_, err := bounded(ctx, b.timeout, "insert alias", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.store.InsertAlias(ctx, alias)
	})
	return err
}

func (b *boundedStore) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return bounded(ctx, b.timeout, "get player", func(ctx context.Context) (*model.Player, error) {
		return b.store.GetPlayer(ctx, id)
	})
}

func (b *boundedStore) GetPlayerByUsername(ctx context.Context, username string) (*model.Player, error) {
	return bounded(ctx, b.timeout, "get player by username", func(ctx context.Context) (*model.Player, error) {
		return b.store.GetPlayerByUsername(ctx, username)
	})
}

func (b *boundedStore) InsertPlayer(ctx context.Context, player *model.Player) error {
	_, err := bounded(ctx, b.timeout, "insert player", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.store.InsertPlayer(ctx, player)
	})
	return err
}

func (b *boundedStore) HasStats(ctx context.Context, playerID model.PlayerID) (bool, error) {
	return bounded(ctx, b.timeout, "check statistics", func(ctx context.Context) (bool, error) {
		return b.store.HasStats(ctx, playerID)
	})
}

func (b *boundedStore) InsertStats(ctx context.Context, stats *model.Stats) error {
	_, err := bounded(ctx, b.timeout, "insert statistics", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.store.InsertStats(ctx, stats)
	})
	return err
}
