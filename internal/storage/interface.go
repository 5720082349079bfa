package storage

import (
	"context"
	"time"

	"github.com/mcoot/pokerstats/internal/model"
)

// Storage defines the row-store primitives the catalog relies on: point
// lookup by unique key, insert with unique-constraint conflict detection,
// and upsert by composite key. Implementations must report conflicts with
// the model sentinel errors rather than overwriting.
type Storage interface {
	// Player operations
	// InsertPlayer returns model.ErrPlayerExists if the primary username is taken
	InsertPlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByUsername(ctx context.Context, username string) (*model.Player, error)
	SearchPlayers(ctx context.Context, query string, limit int) ([]*model.Player, error)
	UpdatePlayerProfile(ctx context.Context, id model.PlayerID, enrichment model.ProfileEnrichment, updatedAt time.Time) (*model.Player, error)

	// Alias operations
	// InsertAlias returns model.ErrAliasExists if (username, platform) is taken
	InsertAlias(ctx context.Context, alias *model.Alias) error
	GetAlias(ctx context.Context, username string, platform model.Platform) (*model.Alias, error)
	ListAliases(ctx context.Context, playerID model.PlayerID) ([]*model.Alias, error)

	// Statistics operations
	// InsertStats returns model.ErrStatsExist if the player already has statistics
	InsertStats(ctx context.Context, stats *model.Stats) error
	GetStats(ctx context.Context, playerID model.PlayerID) (*model.Stats, error)
	HasStats(ctx context.Context, playerID model.PlayerID) (bool, error)

	// Note operations
	UpsertNote(ctx context.Context, note *model.Note) error
	GetNote(ctx context.Context, userID model.UserID, playerID model.PlayerID) (*model.Note, error)

	// Watchlist operations
	AddWatch(ctx context.Context, entry *model.WatchEntry) error
	RemoveWatch(ctx context.Context, userID model.UserID, playerID model.PlayerID) error
	ListWatch(ctx context.Context, userID model.UserID) ([]*model.WatchEntry, error)

	// Import report operations
	SaveImport(ctx context.Context, report *model.ImportReport) error
	GetImport(ctx context.Context, id model.ImportID) (*model.ImportReport, error)
}

// Pinger is implemented by stores that can report liveness
type Pinger interface {
	Ping(ctx context.Context) error
}
