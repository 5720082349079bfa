package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pokerstats/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func ptr(v float64) *float64 { return &v }

// Player tests

func (s *StorageSuite) TestInsertAndGetPlayer() {
	player := &model.Player{ID: "player-1", Username: "alice", CreatedAt: time.Now()}

	s.Require().NoError(s.storage.InsertPlayer(s.ctx, player))

	byID, err := s.storage.GetPlayer(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)

	byName, err := s.storage.GetPlayerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), byName.ID)
}

func (s *StorageSuite) TestInsertPlayerDuplicateUsername() {
	s.Require().NoError(s.storage.InsertPlayer(s.ctx, &model.Player{ID: "p1", Username: "alice"}))

	err := s.storage.InsertPlayer(s.ctx, &model.Player{ID: "p2", Username: "alice"})
	s.ErrorIs(err, model.ErrPlayerExists)

	_, err = s.storage.GetPlayer(s.ctx, "p2")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestConcurrentInsertPlayerOneWinner() {
	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.storage.InsertPlayer(s.ctx, &model.Player{
				ID:       model.PlayerID(fmt.Sprintf("p%d", i)),
				Username: "racer",
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		s.ErrorIs(err, model.ErrPlayerExists)
	}
	s.Equal(1, wins)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.storage.GetPlayerByUsername(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestReturnedPlayerIsACopy() {
	s.Require().NoError(s.storage.InsertPlayer(s.ctx, &model.Player{ID: "p1", Username: "alice", Tags: []string{"nit"}}))

	got, err := s.storage.GetPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	got.Tags[0] = "maniac"

	again, err := s.storage.GetPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal([]string{"nit"}, again.Tags)
}

func (s *StorageSuite) TestSearchPlayers() {
	for i, name := range []string{"SharkBait", "sharky", "fish", "AceShark"} {
		s.Require().NoError(s.storage.InsertPlayer(s.ctx, &model.Player{
			ID:       model.PlayerID(fmt.Sprintf("p%d", i)),
			Username: name,
		}))
	}

	found, err := s.storage.SearchPlayers(s.ctx, "shark", 0)
	s.Require().NoError(err)
	s.Require().Len(found, 3)
	s.Equal("AceShark", found[0].Username)
	s.Equal("SharkBait", found[1].Username)
	s.Equal("sharky", found[2].Username)

	limited, err := s.storage.SearchPlayers(s.ctx, "shark", 2)
	s.Require().NoError(err)
	s.Len(limited, 2)
}

func (s *StorageSuite) TestUpdatePlayerProfile() {
	s.Require().NoError(s.storage.InsertPlayer(s.ctx, &model.Player{ID: "p1", Username: "alice"}))
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	updated, err := s.storage.UpdatePlayerProfile(s.ctx, "p1", model.ProfileEnrichment{
		Summary:           "loose passive",
		ExploitStrategies: "value bet thin",
		Tags:              []string{"calling-station"},
	}, now)
	s.Require().NoError(err)
	s.Equal("loose passive", updated.Summary)
	s.Equal(now, updated.UpdatedAt)
	s.Equal("alice", updated.Username)

	_, err = s.storage.UpdatePlayerProfile(s.ctx, "missing", model.ProfileEnrichment{}, now)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Alias tests

func (s *StorageSuite) TestInsertAndGetAlias() {
	alias := &model.Alias{ID: "a1", PlayerID: "p1", Username: "alice", Platform: model.PlatformPokerBaazi}
	s.Require().NoError(s.storage.InsertAlias(s.ctx, alias))

	got, err := s.storage.GetAlias(s.ctx, "alice", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), got.PlayerID)

	_, err = s.storage.GetAlias(s.ctx, "alice", model.PlatformAdda52)
	s.ErrorIs(err, model.ErrAliasNotFound)
}

func (s *StorageSuite) TestInsertAliasNeverRebinds() {
	s.Require().NoError(s.storage.InsertAlias(s.ctx, &model.Alias{ID: "a1", PlayerID: "p1", Username: "alice", Platform: model.PlatformPokerBaazi}))

	err := s.storage.InsertAlias(s.ctx, &model.Alias{ID: "a2", PlayerID: "p2", Username: "alice", Platform: model.PlatformPokerBaazi})
	s.ErrorIs(err, model.ErrAliasExists)

	got, err := s.storage.GetAlias(s.ctx, "alice", model.PlatformPokerBaazi)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), got.PlayerID)
}

func (s *StorageSuite) TestListAliases() {
	s.Require().NoError(s.storage.InsertAlias(s.ctx, &model.Alias{ID: "a1", PlayerID: "p1", Username: "alice", Platform: model.PlatformPokerStars}))
	s.Require().NoError(s.storage.InsertAlias(s.ctx, &model.Alias{ID: "a2", PlayerID: "p1", Username: "alice", Platform: model.PlatformAdda52}))
	s.Require().NoError(s.storage.InsertAlias(s.ctx, &model.Alias{ID: "a3", PlayerID: "p2", Username: "bob", Platform: model.PlatformAdda52}))

	aliases, err := s.storage.ListAliases(s.ctx, "p1")
	s.Require().NoError(err)
	s.Require().Len(aliases, 2)
	s.Equal(model.PlatformAdda52, aliases[0].Platform)
	s.Equal(model.PlatformPokerStars, aliases[1].Platform)
}

// Statistics tests

func (s *StorageSuite) TestInsertStatsOncePerPlayer() {
	first := &model.Stats{PlayerID: "p1", Fields: model.StatFields{model.StatVPIP: ptr(25)}, ImportID: "i1"}
	s.Require().NoError(s.storage.InsertStats(s.ctx, first))

	err := s.storage.InsertStats(s.ctx, &model.Stats{PlayerID: "p1", Fields: model.StatFields{model.StatVPIP: ptr(99)}, ImportID: "i2"})
	s.ErrorIs(err, model.ErrStatsExist)

	got, err := s.storage.GetStats(s.ctx, "p1")
	s.Require().NoError(err)
	s.InDelta(25, *got.Fields.Get(model.StatVPIP), 0.0001)
	s.Equal(model.ImportID("i1"), got.ImportID)
}

func (s *StorageSuite) TestHasStats() {
	has, err := s.storage.HasStats(s.ctx, "p1")
	s.Require().NoError(err)
	s.False(has)

	s.Require().NoError(s.storage.InsertStats(s.ctx, &model.Stats{PlayerID: "p1"}))

	has, err = s.storage.HasStats(s.ctx, "p1")
	s.Require().NoError(err)
	s.True(has)
}

func (s *StorageSuite) TestStatsPreserveNulls() {
	s.Require().NoError(s.storage.InsertStats(s.ctx, &model.Stats{
		PlayerID: "p1",
		Fields:   model.StatFields{model.StatVPIP: nil, model.StatPFR: ptr(0)},
	}))

	got, err := s.storage.GetStats(s.ctx, "p1")
	s.Require().NoError(err)
	s.Nil(got.Fields.Get(model.StatVPIP))
	s.Require().NotNil(got.Fields.Get(model.StatPFR))
	s.Zero(*got.Fields.Get(model.StatPFR))
}

func (s *StorageSuite) TestGetStatsNotFound() {
	_, err := s.storage.GetStats(s.ctx, "p1")
	s.ErrorIs(err, model.ErrStatsNotFound)
}

// Note tests

func (s *StorageSuite) TestUpsertNote() {
	s.Require().NoError(s.storage.UpsertNote(s.ctx, &model.Note{UserID: "u1", PlayerID: "p1", Text: "first"}))
	s.Require().NoError(s.storage.UpsertNote(s.ctx, &model.Note{UserID: "u1", PlayerID: "p1", Text: "second"}))

	note, err := s.storage.GetNote(s.ctx, "u1", "p1")
	s.Require().NoError(err)
	s.Equal("second", note.Text)

	_, err = s.storage.GetNote(s.ctx, "u2", "p1")
	s.ErrorIs(err, model.ErrNoteNotFound)
}

// Watchlist tests

func (s *StorageSuite) TestWatchlist() {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.AddWatch(s.ctx, &model.WatchEntry{UserID: "u1", PlayerID: "p2", AddedAt: t0.Add(time.Minute)}))
	s.Require().NoError(s.storage.AddWatch(s.ctx, &model.WatchEntry{UserID: "u1", PlayerID: "p1", AddedAt: t0}))
	s.Require().NoError(s.storage.AddWatch(s.ctx, &model.WatchEntry{UserID: "u2", PlayerID: "p1", AddedAt: t0}))

	// Re-adding keeps the original timestamp
	s.Require().NoError(s.storage.AddWatch(s.ctx, &model.WatchEntry{UserID: "u1", PlayerID: "p1", AddedAt: t0.Add(time.Hour)}))

	entries, err := s.storage.ListWatch(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(model.PlayerID("p1"), entries[0].PlayerID)
	s.Equal(t0, entries[0].AddedAt)
	s.Equal(model.PlayerID("p2"), entries[1].PlayerID)

	s.Require().NoError(s.storage.RemoveWatch(s.ctx, "u1", "p1"))
	s.Require().NoError(s.storage.RemoveWatch(s.ctx, "u1", "missing"))

	entries, err = s.storage.ListWatch(s.ctx, "u1")
	s.Require().NoError(err)
	s.Len(entries, 1)
}

// Import report tests

func (s *StorageSuite) TestSaveAndGetImport() {
	report := &model.ImportReport{
		ID:        "imp-1",
		Platform:  model.PlatformPokerBaazi,
		TotalRows: 3,
		Inserted:  2,
		Rejected:  1,
		Errors:    []model.RowError{{Row: 2, Code: model.CodeMissingIdentity, Reason: "username is blank"}},
	}
	s.Require().NoError(s.storage.SaveImport(s.ctx, report))

	got, err := s.storage.GetImport(s.ctx, "imp-1")
	s.Require().NoError(err)
	s.Equal(2, got.Inserted)
	s.Require().Len(got.Errors, 1)
	s.Equal(model.CodeMissingIdentity, got.Errors[0].Code)

	_, err = s.storage.GetImport(s.ctx, "imp-2")
	s.ErrorIs(err, model.ErrImportNotFound)
}

func (s *StorageSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	err := s.storage.InsertPlayer(ctx, &model.Player{ID: "p1", Username: "alice"})
	s.ErrorIs(err, context.Canceled)
}
