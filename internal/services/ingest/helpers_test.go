package ingest

import (
	"context"
	"sync/atomic"

	"github.com/mcoot/pokerstats/internal/model"
	"github.com/mcoot/pokerstats/internal/storage/memory"
)

// hookedStore wraps the memory store so tests can inject latency and faults
type hookedStore struct {
	*memory.Storage

	beforeGetAlias     func(ctx context.Context, username string) error
	beforeInsertPlayer func(ctx context.Context, player *model.Player) error
	beforeInsertStats  func(ctx context.Context, stats *model.Stats) error
	afterInsertStats   func(stats *model.Stats)

	getAliasCalls     atomic.Int32
	insertPlayerCalls atomic.Int32
}

func newHookedStore() *hookedStore {
	return &hookedStore{Storage: memory.New()}
}

func (h *hookedStore) GetAlias(ctx context.Context, username string, platform model.Platform) (*model.Alias, error) {
	h.getAliasCalls.Add(1)
	if h.beforeGetAlias != nil {
		if err := h.beforeGetAlias(ctx, username); err != nil {
			return nil, err
		}
	}
	return h.Storage.GetAlias(ctx, username, platform)
}

func (h *hookedStore) InsertPlayer(ctx context.Context, player *model.Player) error {
	h.insertPlayerCalls.Add(1)
	if h.beforeInsertPlayer != nil {
		if err := h.beforeInsertPlayer(ctx, player); err != nil {
			return err
		}
	}
	return h.Storage.InsertPlayer(ctx, player)
}

func (h *hookedStore) InsertStats(ctx context.Context, stats *model.Stats) error {
	if h.beforeInsertStats != nil {
		if err := h.beforeInsertStats(ctx, stats); err != nil {
			return err
		}
	}
	if err := h.Storage.InsertStats(ctx, stats); err != nil {
		return err
	}
	if h.afterInsertStats != nil {
		h.afterInsertStats(stats)
	}
	return nil
}

// blockUntilDone simulates a store call that never answers
func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
