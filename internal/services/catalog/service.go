package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/mcoot/pokerstats/internal/dependencies/clock"
	"github.com/mcoot/pokerstats/internal/model"
	"github.com/mcoot/pokerstats/internal/storage"
)

const (
	// DefaultSearchLimit applies when a search names no limit
	DefaultSearchLimit = 20
	// MaxSearchLimit caps how many players one search returns
	MaxSearchLimit = 100
)

// ErrEmptyQuery is returned for a search with nothing to match
var ErrEmptyQuery = errors.New("search query is empty")

// Service serves read views of the catalog and accepts enrichment writes
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new catalog Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// Profile assembles the full view of a player. viewer may be empty, in which
// case the note and watchlist flag are left unset.
func (s *Service) Profile(ctx context.Context, username string, viewer model.UserID) (*Profile, error) {
	player, err := s.storage.GetPlayerByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}

	aliases, err := s.storage.ListAliases(ctx, player.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}

	profile := &Profile{
		Player:  player,
		Aliases: aliases,
	}

	stats, err := s.storage.GetStats(ctx, player.ID)
	switch {
	case err == nil:
		profile.Stats = SectionsFromStats(stats)
	case errors.Is(err, model.ErrStatsNotFound):
	default:
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}

	if viewer == "" {
		return profile, nil
	}

	note, err := s.storage.GetNote(ctx, viewer, player.ID)
	switch {
	case err == nil:
		profile.Note = note
	case errors.Is(err, model.ErrNoteNotFound):
	default:
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	watched, err := s.storage.ListWatch(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	profile.Watchlisted = slices.ContainsFunc(watched, func(e *model.WatchEntry) bool {
		return e.PlayerID == player.ID
	})

	return profile, nil
}

// Search finds players whose primary username contains query, ignoring case
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*model.Player, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, MaxSearchLimit)

	return s.storage.SearchPlayers(ctx, query, limit)
}

// Enrich replaces a player's free-text profile fields. Tags are trimmed,
// blanks dropped and duplicates removed keeping first occurrence.
func (s *Service) Enrich(ctx context.Context, playerID model.PlayerID, enrichment model.ProfileEnrichment) (*model.Player, error) {
	enrichment.Summary = strings.TrimSpace(enrichment.Summary)
	enrichment.ExploitStrategies = strings.TrimSpace(enrichment.ExploitStrategies)
	enrichment.Tags = cleanTags(enrichment.Tags)

	player, err := s.storage.UpdatePlayerProfile(ctx, playerID, enrichment, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "player profile enriched",
		"player_id", playerID,
		"tags", len(player.Tags),
	)
	return player, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
