package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/pokerstats/internal/model"
	"github.com/mcoot/pokerstats/internal/storage"
)

// Identity inserts claim the unique key and write its dependent record in one
// script, so a reply lost in transit never leaves half an identity behind.
var (
	// KEYS: username index, player record. ARGV: username, player id, record.
	insertPlayerScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
	return 0
end
redis.call('SET', KEYS[2], ARGV[3])
return 1
`)

	// KEYS: alias record, per-player alias set. ARGV: record.
	insertAliasScript = redis.NewScript(`
if not redis.call('SET', KEYS[1], ARGV[1], 'NX') then
	return 0
end
redis.call('SADD', KEYS[2], KEYS[1])
return 1
`)
)

// Storage is a Redis-backed implementation of the storage interface.
// Unique keys are claimed with SET NX/HSETNX, so the first writer wins and
// later writers observe a conflict.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ping checks the connection is alive
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) InsertPlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	claimed, err := insertPlayerScript.Run(ctx, s.client,
		[]string{usernameIndexKey(), playerKey(player.ID)},
		player.Username, string(player.ID), data,
	).Bool()
	if err != nil {
		return err
	}
	if !claimed {
		return model.ErrPlayerExists
	}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetPlayerByUsername(ctx context.Context, username string) (*model.Player, error) {
	// Look up player ID from username index
	playerIDStr, err := s.client.HGet(ctx, usernameIndexKey(), username).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetPlayer(ctx, model.PlayerID(playerIDStr))
}

func (s *Storage) SearchPlayers(ctx context.Context, query string, limit int) ([]*model.Player, error) {
	index, err := s.client.HGetAll(ctx, usernameIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	names := make([]string, 0, len(index))
	for name := range index {
		if strings.Contains(strings.ToLower(name), needle) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	if len(names) == 0 {
		return []*model.Player{}, nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = playerKey(model.PlayerID(index[name]))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var player model.Player
		if err := json.Unmarshal([]byte(str), &player); err != nil {
			return nil, err
		}
		players = append(players, &player)
	}
	return players, nil
}

func (s *Storage) UpdatePlayerProfile(ctx context.Context, id model.PlayerID, enrichment model.ProfileEnrichment, updatedAt time.Time) (*model.Player, error) {
	key := playerKey(id)

	var updated *model.Player
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrPlayerNotFound
			}
			return err
		}

		var player model.Player
		if err := json.Unmarshal(data, &player); err != nil {
			return err
		}
		enrichment.Apply(&player, updatedAt)

		out, err := json.Marshal(&player)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			updated = &player
		}
		return err
	}

	attempts := max(s.cfg.ProfileUpdateRetries, 1)
	for range attempts {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, redis.TxFailedErr
}

// Alias operations

func (s *Storage) InsertAlias(ctx context.Context, alias *model.Alias) error {
	data, err := json.Marshal(alias)
	if err != nil {
		return err
	}

	key := aliasKey(alias.Username, alias.Platform)
	claimed, err := insertAliasScript.Run(ctx, s.client,
		[]string{key, aliasesForPlayerIndexKey(alias.PlayerID)},
		data,
	).Bool()
	if err != nil {
		return err
	}
	if !claimed {
		return model.ErrAliasExists
	}
	return nil
}

func (s *Storage) GetAlias(ctx context.Context, username string, platform model.Platform) (*model.Alias, error) {
	data, err := s.client.Get(ctx, aliasKey(username, platform)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAliasNotFound
		}
		return nil, err
	}

	var alias model.Alias
	if err := json.Unmarshal(data, &alias); err != nil {
		return nil, err
	}
	return &alias, nil
}

func (s *Storage) ListAliases(ctx context.Context, playerID model.PlayerID) ([]*model.Alias, error) {
	keys, err := s.client.SMembers(ctx, aliasesForPlayerIndexKey(playerID)).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*model.Alias{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	aliases := make([]*model.Alias, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var alias model.Alias
		if err := json.Unmarshal([]byte(str), &alias); err != nil {
			return nil, err
		}
		aliases = append(aliases, &alias)
	}

	sort.Slice(aliases, func(i, j int) bool {
		if aliases[i].Platform != aliases[j].Platform {
			return aliases[i].Platform < aliases[j].Platform
		}
		return aliases[i].Username < aliases[j].Username
	})
	return aliases, nil
}

// Statistics operations

func (s *Storage) InsertStats(ctx context.Context, stats *model.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	claimed, err := s.client.SetNX(ctx, statsKey(stats.PlayerID), data, 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return model.ErrStatsExist
	}
	return nil
}

func (s *Storage) GetStats(ctx context.Context, playerID model.PlayerID) (*model.Stats, error) {
	data, err := s.client.Get(ctx, statsKey(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrStatsNotFound
		}
		return nil, err
	}

	var stats model.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Storage) HasStats(ctx context.Context, playerID model.PlayerID) (bool, error) {
	exists, err := s.client.Exists(ctx, statsKey(playerID)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Note operations

func (s *Storage) UpsertNote(ctx context.Context, note *model.Note) error {
	data, err := json.Marshal(note)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, notesKey(note.UserID), string(note.PlayerID), data).Err()
}

func (s *Storage) GetNote(ctx context.Context, userID model.UserID, playerID model.PlayerID) (*model.Note, error) {
	data, err := s.client.HGet(ctx, notesKey(userID), string(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNoteNotFound
		}
		return nil, err
	}

	var note model.Note
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// Watchlist operations

func (s *Storage) AddWatch(ctx context.Context, entry *model.WatchEntry) error {
	// NX keeps the original timestamp when a player is re-added
	return s.client.ZAddNX(ctx, watchlistKey(entry.UserID), redis.Z{
		Score:  float64(entry.AddedAt.UnixMilli()),
		Member: string(entry.PlayerID),
	}).Err()
}

func (s *Storage) RemoveWatch(ctx context.Context, userID model.UserID, playerID model.PlayerID) error {
	return s.client.ZRem(ctx, watchlistKey(userID), string(playerID)).Err()
}

func (s *Storage) ListWatch(ctx context.Context, userID model.UserID) ([]*model.WatchEntry, error) {
	members, err := s.client.ZRangeWithScores(ctx, watchlistKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*model.WatchEntry, 0, len(members))
	for _, m := range members {
		playerID, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, &model.WatchEntry{
			UserID:   userID,
			PlayerID: model.PlayerID(playerID),
			AddedAt:  time.UnixMilli(int64(m.Score)).UTC(),
		})
	}
	return entries, nil
}

// Import report operations

func (s *Storage) SaveImport(ctx context.Context, report *model.ImportReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, importKey(report.ID), data, s.cfg.ImportTTL).Err()
}

func (s *Storage) GetImport(ctx context.Context, id model.ImportID) (*model.ImportReport, error) {
	data, err := s.client.Get(ctx, importKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrImportNotFound
		}
		return nil, err
	}

	var report model.ImportReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
