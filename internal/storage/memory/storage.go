package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/pokerstats/internal/model"
	"github.com/mcoot/pokerstats/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Unique keys are enforced under a single lock, so conflict detection is
// atomic with respect to concurrent writers.
type Storage struct {
	mu sync.RWMutex

	players       map[model.PlayerID]*model.Player
	usernameIndex map[string]model.PlayerID
	aliases       map[model.AliasKey]*model.Alias
	stats         map[model.PlayerID]*model.Stats
	notes         map[noteKey]*model.Note
	watchlist     map[noteKey]*model.WatchEntry
	imports       map[model.ImportID]*model.ImportReport
}

type noteKey struct {
	userID   model.UserID
	playerID model.PlayerID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:       make(map[model.PlayerID]*model.Player),
		usernameIndex: make(map[string]model.PlayerID),
		aliases:       make(map[model.AliasKey]*model.Alias),
		stats:         make(map[model.PlayerID]*model.Stats),
		notes:         make(map[noteKey]*model.Note),
		watchlist:     make(map[noteKey]*model.WatchEntry),
		imports:       make(map[model.ImportID]*model.ImportReport),
	}
}

// Ping reports whether the store is usable
func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) InsertPlayer(ctx context.Context, player *model.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernameIndex[player.Username]; taken {
		return model.ErrPlayerExists
	}
	s.players[player.ID] = copyPlayer(player)
	s.usernameIndex[player.Username] = player.ID
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return copyPlayer(player), nil
}

func (s *Storage) GetPlayerByUsername(ctx context.Context, username string) (*model.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return copyPlayer(s.players[id]), nil
}

func (s *Storage) SearchPlayers(ctx context.Context, query string, limit int) ([]*model.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)

	s.mu.RLock()
	var matches []*model.Player
	for _, p := range s.players {
		if strings.Contains(strings.ToLower(p.Username), needle) {
			matches = append(matches, copyPlayer(p))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Username < matches[j].Username
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Storage) UpdatePlayerProfile(ctx context.Context, id model.PlayerID, enrichment model.ProfileEnrichment, updatedAt time.Time) (*model.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	enrichment.Apply(player, updatedAt)
	return copyPlayer(player), nil
}

// Alias operations

func (s *Storage) InsertAlias(ctx context.Context, alias *model.Alias) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := alias.Key()
	if _, taken := s.aliases[key]; taken {
		return model.ErrAliasExists
	}
	a := *alias
	s.aliases[key] = &a
	return nil
}

func (s *Storage) GetAlias(ctx context.Context, username string, platform model.Platform) (*model.Alias, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	alias, ok := s.aliases[model.AliasKey{Username: username, Platform: platform}]
	if !ok {
		return nil, model.ErrAliasNotFound
	}
	a := *alias
	return &a, nil
}

func (s *Storage) ListAliases(ctx context.Context, playerID model.PlayerID) ([]*model.Alias, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []*model.Alias
	for _, alias := range s.aliases {
		if alias.PlayerID == playerID {
			a := *alias
			out = append(out, &a)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Platform != out[j].Platform {
			return out[i].Platform < out[j].Platform
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

// Statistics operations

func (s *Storage) InsertStats(ctx context.Context, stats *model.Stats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.stats[stats.PlayerID]; exists {
		return model.ErrStatsExist
	}
	st := *stats
	st.Fields = stats.Fields.Clone()
	s.stats[stats.PlayerID] = &st
	return nil
}

func (s *Storage) GetStats(ctx context.Context, playerID model.PlayerID) (*model.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, ok := s.stats[playerID]
	if !ok {
		return nil, model.ErrStatsNotFound
	}
	st := *stats
	st.Fields = stats.Fields.Clone()
	return &st, nil
}

func (s *Storage) HasStats(ctx context.Context, playerID model.PlayerID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.stats[playerID]
	return ok, nil
}

// Note operations

func (s *Storage) UpsertNote(ctx context.Context, note *model.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := *note
	s.notes[noteKey{userID: note.UserID, playerID: note.PlayerID}] = &n
	return nil
}

func (s *Storage) GetNote(ctx context.Context, userID model.UserID, playerID model.PlayerID) (*model.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	note, ok := s.notes[noteKey{userID: userID, playerID: playerID}]
	if !ok {
		return nil, model.ErrNoteNotFound
	}
	n := *note
	return &n, nil
}

// Watchlist operations

func (s *Storage) AddWatch(ctx context.Context, entry *model.WatchEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := noteKey{userID: entry.UserID, playerID: entry.PlayerID}
	if _, exists := s.watchlist[key]; exists {
		return nil
	}
	e := *entry
	s.watchlist[key] = &e
	return nil
}

func (s *Storage) RemoveWatch(ctx context.Context, userID model.UserID, playerID model.PlayerID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchlist, noteKey{userID: userID, playerID: playerID})
	return nil
}

func (s *Storage) ListWatch(ctx context.Context, userID model.UserID) ([]*model.WatchEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []*model.WatchEntry
	for key, entry := range s.watchlist {
		if key.userID == userID {
			e := *entry
			out = append(out, &e)
		}
	}
	s.mu.RUnlock()

	sortWatch(out)
	return out, nil
}

// Import report operations

func (s *Storage) SaveImport(ctx context.Context, report *model.ImportReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *report
	r.Errors = append([]model.RowError(nil), report.Errors...)
	s.imports[report.ID] = &r
	return nil
}

func (s *Storage) GetImport(ctx context.Context, id model.ImportID) (*model.ImportReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.imports[id]
	if !ok {
		return nil, model.ErrImportNotFound
	}
	r := *report
	r.Errors = append([]model.RowError(nil), report.Errors...)
	return &r, nil
}

func copyPlayer(p *model.Player) *model.Player {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	return &c
}

func sortWatch(entries []*model.WatchEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].AddedAt.Equal(entries[j].AddedAt) {
			return entries[i].AddedAt.Before(entries[j].AddedAt)
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
}
