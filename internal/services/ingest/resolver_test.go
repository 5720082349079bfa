package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pokerstats/internal/dependencies/mocks"
	"github.com/mcoot/pokerstats/internal/model"
)

type ResolverSuite struct {
	suite.Suite
	store    *hookedStore
	clock    *mocks.MockClock
	ids      *mocks.SequentialIDs
	resolver *Resolver
	ctx      context.Context
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.store = newHookedStore()
	s.clock = mocks.NewMockClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	s.ids = mocks.NewSequentialIDs("id")
	s.resolver = NewResolver(s.store, s.clock, s.ids)
	s.ctx = context.Background()
}

func (s *ResolverSuite) TestCreatesPlayerAndAlias() {
	s.ids.Queue("player-1", "alias-1")

	id, err := s.resolver.Resolve(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), id)

	player, err := s.store.GetPlayer(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("john", player.Username)
	s.Empty(player.Summary)
	s.Equal(s.clock.Now(), player.CreatedAt)

	alias, err := s.store.GetAlias(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	s.Equal(id, alias.PlayerID)
	s.Equal("alias-1", alias.ID)
}

func (s *ResolverSuite) TestIdempotent() {
	first, err := s.resolver.Resolve(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	second, err := s.resolver.Resolve(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(int32(1), s.store.insertPlayerCalls.Load())

	aliases, err := s.store.ListAliases(s.ctx, first)
	s.Require().NoError(err)
	s.Len(aliases, 1)
}

func (s *ResolverSuite) TestCrossPlatformReuseByExactUsername() {
	first, err := s.resolver.Resolve(s.ctx, "jane", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	second, err := s.resolver.Resolve(s.ctx, "jane", model.PlatformAdda52)
	s.Require().NoError(err)
	s.Equal(first, second)

	aliases, err := s.store.ListAliases(s.ctx, first)
	s.Require().NoError(err)
	s.Len(aliases, 2)

	// Usernames match exactly, not case-insensitively
	other, err := s.resolver.Resolve(s.ctx, "Jane", model.PlatformAdda52)
	s.Require().NoError(err)
	s.NotEqual(first, other)
}

func (s *ResolverSuite) TestConcurrentResolveConverges() {
	const callers = 16
	var wg sync.WaitGroup
	results := make([]model.PlayerID, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			platform := model.PlatformPokerBaazi
			if i%2 == 1 {
				platform = model.PlatformPokerStars
			}
			results[i], errs[i] = s.resolver.Resolve(s.ctx, "racer", platform)
		}(i)
	}
	wg.Wait()

	for i := range callers {
		s.Require().NoError(errs[i])
		s.Equal(results[0], results[i])
	}
	found, err := s.store.SearchPlayers(s.ctx, "racer", 0)
	s.Require().NoError(err)
	s.Len(found, 1)

	aliases, err := s.store.ListAliases(s.ctx, results[0])
	s.Require().NoError(err)
	s.Len(aliases, 2)
}

func (s *ResolverSuite) TestLostPlayerInsertRereadsWinner() {
	// Another writer claims the username between our lookup and insert
	s.store.beforeInsertPlayer = func(ctx context.Context, player *model.Player) error {
		s.store.beforeInsertPlayer = nil
		return s.store.Storage.InsertPlayer(ctx, &model.Player{ID: "winner", Username: player.Username})
	}

	id, err := s.resolver.Resolve(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("winner"), id)

	alias, err := s.store.GetAlias(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("winner"), alias.PlayerID)
}

func (s *ResolverSuite) TestExistingAliasBindingWins() {
	s.Require().NoError(s.store.InsertPlayer(s.ctx, &model.Player{ID: "other", Username: "someone-else"}))

	// The alias appears after our lookup missed it
	s.store.beforeInsertPlayer = func(ctx context.Context, _ *model.Player) error {
		return s.store.Storage.InsertAlias(ctx, &model.Alias{
			ID: "a-other", PlayerID: "other", Username: "john", Platform: model.PlatformPokerBaazi,
		})
	}

	id, err := s.resolver.Resolve(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("other"), id)
}

func (s *ResolverSuite) TestIdentityCreateFailed() {
	s.store.beforeInsertPlayer = func(context.Context, *model.Player) error {
		return errors.New("check constraint violated")
	}

	_, err := s.resolver.Resolve(s.ctx, "john", model.PlatformPokerBaazi)
	s.ErrorIs(err, model.ErrIdentityCreateFailed)

	_, err = s.store.GetAlias(s.ctx, "john", model.PlatformPokerBaazi)
	s.ErrorIs(err, model.ErrAliasNotFound)
}

func (s *ResolverSuite) TestTimeoutIsNotIdentityCreateFailed() {
	bounded := newBoundedStore(s.store, 10*time.Millisecond)
	resolver := NewResolver(bounded, s.clock, s.ids)
	s.store.beforeInsertPlayer = func(ctx context.Context, _ *model.Player) error {
		return blockUntilDone(ctx)
	}

	_, err := resolver.Resolve(s.ctx, "john", model.PlatformPokerBaazi)
	s.ErrorIs(err, model.ErrStoreTimeout)
	s.NotErrorIs(err, model.ErrIdentityCreateFailed)
}

func (s *ResolverSuite) TestLink() {
	id, err := s.resolver.Resolve(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().NoError(err)

	alias, err := s.resolver.Link(s.ctx, "johnny_b", model.PlatformPokerStars, id)
	s.Require().NoError(err)
	s.Equal(id, alias.PlayerID)

	// Linking again to the same player is a no-op
	again, err := s.resolver.Link(s.ctx, "johnny_b", model.PlatformPokerStars, id)
	s.Require().NoError(err)
	s.Equal(alias.ID, again.ID)

	// Ingestion of the linked alias resolves to the linked player
	resolved, err := s.resolver.Resolve(s.ctx, "johnny_b", model.PlatformPokerStars)
	s.Require().NoError(err)
	s.Equal(id, resolved)
}

func (s *ResolverSuite) TestLinkNeverReassigns() {
	john, err := s.resolver.Resolve(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	jane, err := s.resolver.Resolve(s.ctx, "jane", model.PlatformPokerBaazi)
	s.Require().NoError(err)

	_, err = s.resolver.Link(s.ctx, "john", model.PlatformPokerBaazi, jane)
	s.ErrorIs(err, model.ErrAliasConflict)

	alias, err := s.store.GetAlias(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	s.Equal(john, alias.PlayerID)
}

func (s *ResolverSuite) TestLinkUnknownPlayer() {
	_, err := s.resolver.Link(s.ctx, "john", model.PlatformPokerBaazi, "missing")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ResolverSuite) TestSessionCachesResolvedPairs() {
	session := s.resolver.NewSession()

	first, err := session.Resolve(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	calls := s.store.getAliasCalls.Load()

	second, err := session.Resolve(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(calls, s.store.getAliasCalls.Load())
}

func (s *ResolverSuite) TestSessionConcurrentSameUsername() {
	session := s.resolver.NewSession()

	var wg sync.WaitGroup
	results := make([]model.PlayerID, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := session.Resolve(s.ctx, "dup", model.PlatformPokerBaazi)
			s.NoError(err)
			results[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range results {
		s.Equal(results[0], id)
	}
	s.Equal(int32(1), s.store.insertPlayerCalls.Load())
}

func (s *ResolverSuite) TestSessionDoesNotCacheFailures() {
	session := s.resolver.NewSession()
	fail := true
	s.store.beforeGetAlias = func(context.Context, string) error {
		if fail {
			return errors.New("connection reset")
		}
		return nil
	}

	_, err := session.Resolve(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().Error(err)

	fail = false
	id, err := session.Resolve(s.ctx, "john", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	s.NotEmpty(id)
}
