package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mcoot/pokerstats/internal/dependencies/clock"
	"github.com/mcoot/pokerstats/internal/dependencies/ids"
	"github.com/mcoot/pokerstats/internal/model"
)

// Resolver maps (username, platform) pairs to canonical players, creating
// players and aliases on first sight. Duplicate identities are prevented by
// the store's unique keys: a losing insert re-reads the winner.
type Resolver struct {
	store IdentityStore
	clock clock.Clock
	ids   ids.Generator
}

// NewResolver creates a new Resolver
func NewResolver(store IdentityStore, clock clock.Clock, ids ids.Generator) *Resolver {
	return &Resolver{
		store: store,
		clock: clock,
		ids:   ids,
	}
}

// Resolve returns the player bound to (username, platform), creating the
// player and alias if needed. Safe to call repeatedly and concurrently.
func (r *Resolver) Resolve(ctx context.Context, username string, platform model.Platform) (model.PlayerID, error) {
	alias, err := r.store.GetAlias(ctx, username, platform)
	if err == nil {
		return alias.PlayerID, nil
	}
	if !errors.Is(err, model.ErrAliasNotFound) {
		return "", err
	}

	playerID, err := r.findOrCreatePlayer(ctx, username)
	if err != nil {
		return "", err
	}
	return r.bind(ctx, username, platform, playerID)
}

// findOrCreatePlayer reuses a player whose primary username matches exactly
func (r *Resolver) findOrCreatePlayer(ctx context.Context, username string) (model.PlayerID, error) {
	existing, err := r.store.GetPlayerByUsername(ctx, username)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return "", err
	}

	now := r.clock.Now()
	player := &model.Player{
		ID:        model.PlayerID(r.ids.NewID()),
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = r.store.InsertPlayer(ctx, player)
	switch {
	case err == nil:
		return player.ID, nil
	case errors.Is(err, model.ErrPlayerExists):
		winner, err := r.store.GetPlayerByUsername(ctx, username)
		if err != nil {
			return "", err
		}
		return winner.ID, nil
	case isTransient(ctx, err):
		return "", err
	default:
		return "", fmt.Errorf("%w: player %q: %v", model.ErrIdentityCreateFailed, username, err)
	}
}

// bind creates the alias. If another writer bound the pair first, the
// existing binding wins.
func (r *Resolver) bind(ctx context.Context, username string, platform model.Platform, playerID model.PlayerID) (model.PlayerID, error) {
	alias := &model.Alias{
		ID:        r.ids.NewID(),
		PlayerID:  playerID,
		Username:  username,
		Platform:  platform,
		CreatedAt: r.clock.Now(),
	}

	err := r.store.InsertAlias(ctx, alias)
	switch {
	case err == nil:
		return playerID, nil
	case errors.Is(err, model.ErrAliasExists):
		existing, err := r.store.GetAlias(ctx, username, platform)
		if err != nil {
			return "", err
		}
		return existing.PlayerID, nil
	case isTransient(ctx, err):
		return "", err
	default:
		return "", fmt.Errorf("%w: alias %s/%q: %v", model.ErrIdentityCreateFailed, platform, username, err)
	}
}

// Link binds (username, platform) to an existing player. Linking a pair that
// is already bound to the same player is a no-op; a pair bound elsewhere is
// never reassigned.
func (r *Resolver) Link(ctx context.Context, username string, platform model.Platform, playerID model.PlayerID) (*model.Alias, error) {
	if _, err := r.store.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}

	alias := &model.Alias{
		ID:        r.ids.NewID(),
		PlayerID:  playerID,
		Username:  username,
		Platform:  platform,
		CreatedAt: r.clock.Now(),
	}
	err := r.store.InsertAlias(ctx, alias)
	if err == nil {
		return alias, nil
	}
	if !errors.Is(err, model.ErrAliasExists) {
		return nil, err
	}

	existing, err := r.store.GetAlias(ctx, username, platform)
	if err != nil {
		return nil, err
	}
	if existing.PlayerID != playerID {
		return nil, model.ErrAliasConflict
	}
	return existing, nil
}

// Session scopes resolution to one batch. Resolved pairs are cached and
// concurrent lookups of the same pair share a single store round trip.
type Session struct {
	resolver *Resolver
	group    singleflight.Group

	mu    sync.RWMutex
	cache map[model.AliasKey]model.PlayerID
}

// NewSession starts a per-batch resolution session
func (r *Resolver) NewSession() *Session {
	return &Session{
		resolver: r,
		cache:    make(map[model.AliasKey]model.PlayerID),
	}
}

// Resolve resolves through the session cache
func (s *Session) Resolve(ctx context.Context, username string, platform model.Platform) (model.PlayerID, error) {
	key := model.AliasKey{Username: username, Platform: platform}

	s.mu.RLock()
	id, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return id, nil
	}

	v, err, _ := s.group.Do(string(platform)+"\x00"+username, func() (any, error) {
		id, err := s.resolver.Resolve(ctx, username, platform)
		if err != nil {
			return model.PlayerID(""), err
		}
		s.mu.Lock()
		s.cache[key] = id
		s.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(model.PlayerID), nil
}

// isTransient reports errors that say nothing about the write itself
func isTransient(ctx context.Context, err error) bool {
	return errors.Is(err, model.ErrStoreTimeout) || ctx.Err() != nil
}
