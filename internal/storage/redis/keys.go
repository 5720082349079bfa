package redis

import (
	"fmt"

	"github.com/mcoot/pokerstats/internal/model"
)

// Key prefix for all catalog data
const keyPrefix = "pokerstats"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the HASH of username -> player_id.
// HSETNX on this hash enforces primary username uniqueness.
func usernameIndexKey() string {
	return fmt.Sprintf("%s:idx:username", keyPrefix)
}

// aliasKey returns the Redis key for an Alias
func aliasKey(username string, platform model.Platform) string {
	return fmt.Sprintf("%s:alias:%s:%s", keyPrefix, platform, username)
}

// aliasesForPlayerIndexKey returns the Redis key for the SET of alias keys of a player
func aliasesForPlayerIndexKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:aliases_for_player:%s", keyPrefix, playerID)
}

// statsKey returns the Redis key for a player's statistics snapshot
func statsKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:stats:%s", keyPrefix, playerID)
}

// notesKey returns the Redis key for the HASH of a user's notes, keyed by player_id
func notesKey(userID model.UserID) string {
	return fmt.Sprintf("%s:notes:%s", keyPrefix, userID)
}

// watchlistKey returns the Redis key for the ZSET of a user's watched players,
// scored by the time they were added
func watchlistKey(userID model.UserID) string {
	return fmt.Sprintf("%s:watchlist:%s", keyPrefix, userID)
}

// importKey returns the Redis key for an ImportReport
func importKey(id model.ImportID) string {
	return fmt.Sprintf("%s:import:%s", keyPrefix, id)
}
