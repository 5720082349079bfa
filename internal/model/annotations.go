package model

import "time"

// UserID identifies an authenticated user of the catalog (the identity
// provider's subject)
type UserID string

// Note is a user's private note on a player, keyed by (user, player)
type Note struct {
	UserID    UserID
	PlayerID  PlayerID
	Text      string
	UpdatedAt time.Time
}

// WatchEntry records that a user bookmarked a player
type WatchEntry struct {
	UserID   UserID
	PlayerID PlayerID
	AddedAt  time.Time
}
