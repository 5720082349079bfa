package annotations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mcoot/pokerstats/internal/dependencies/clock"
	"github.com/mcoot/pokerstats/internal/model"
	"github.com/mcoot/pokerstats/internal/storage"
)

// MaxNoteLength is the longest note accepted, in characters
const MaxNoteLength = 10000

// ErrNoteTooLong is returned when a note exceeds MaxNoteLength
var ErrNoteTooLong = errors.New("note is too long")

// WatchItem is one watchlist entry with its player resolved
type WatchItem struct {
	Player  *model.Player
	AddedAt time.Time
}

// Service manages per-user notes and watchlists. Players are addressed by
// primary username.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new annotations Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

func (s *Service) player(ctx context.Context, username string) (*model.Player, error) {
	return s.storage.GetPlayerByUsername(ctx, strings.TrimSpace(username))
}

// Note returns the user's note on a player
func (s *Service) Note(ctx context.Context, user model.UserID, username string) (*model.Note, error) {
	player, err := s.player(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.storage.GetNote(ctx, user, player.ID)
}

// SetNote creates or replaces the user's note on a player
func (s *Service) SetNote(ctx context.Context, user model.UserID, username, text string) (*model.Note, error) {
	if utf8.RuneCountInString(text) > MaxNoteLength {
		return nil, ErrNoteTooLong
	}

	player, err := s.player(ctx, username)
	if err != nil {
		return nil, err
	}

	note := &model.Note{
		UserID:    user,
		PlayerID:  player.ID,
		Text:      text,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.storage.UpsertNote(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}
	return note, nil
}

// Watchlist returns the user's watched players, oldest first
func (s *Service) Watchlist(ctx context.Context, user model.UserID) ([]WatchItem, error) {
	entries, err := s.storage.ListWatch(ctx, user)
	if err != nil {
		return nil, err
	}

	items := make([]WatchItem, 0, len(entries))
	for _, e := range entries {
		player, err := s.storage.GetPlayer(ctx, e.PlayerID)
		if errors.Is(err, model.ErrPlayerNotFound) {
			s.logger.WarnContext(ctx, "watchlist entry for missing player",
				"user_id", user,
				"player_id", e.PlayerID,
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, WatchItem{Player: player, AddedAt: e.AddedAt})
	}
	return items, nil
}

// Watch adds a player to the user's watchlist. Watching twice is a no-op.
func (s *Service) Watch(ctx context.Context, user model.UserID, username string) (*model.Player, error) {
	player, err := s.player(ctx, username)
	if err != nil {
		return nil, err
	}

	entry := &model.WatchEntry{
		UserID:   user,
		PlayerID: player.ID,
		AddedAt:  s.clock.Now(),
	}
	if err := s.storage.AddWatch(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to add to watchlist: %w", err)
	}
	return player, nil
}

// Unwatch removes a player from the user's watchlist
func (s *Service) Unwatch(ctx context.Context, user model.UserID, username string) error {
	player, err := s.player(ctx, username)
	if err != nil {
		return err
	}
	return s.storage.RemoveWatch(ctx, user, player.ID)
}
