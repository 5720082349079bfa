package model

import (
	"strings"
	"time"
)

// Platform names a source poker site
type Platform string

// Known platforms accepted for uploads
const (
	PlatformPokerBaazi Platform = "pokerbaazi"
	PlatformAdda52     Platform = "adda52"
	PlatformPokerStars Platform = "pokerstars"
	PlatformPartyPoker Platform = "partypoker"
	Platform888Poker   Platform = "888poker"
	PlatformBetway     Platform = "betway"
)

var knownPlatforms = map[Platform]struct{}{
	PlatformPokerBaazi: {},
	PlatformAdda52:     {},
	PlatformPokerStars: {},
	PlatformPartyPoker: {},
	Platform888Poker:   {},
	PlatformBetway:     {},
}

// ParsePlatform normalizes a platform name and checks it is known
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownPlatforms[p]; !ok {
		return "", ErrUnknownPlatform
	}
	return p, nil
}

// Alias binds a (username, platform) pair to a Player.
// The pair is unique across all aliases and is never rebound.
type Alias struct {
	ID        string
	PlayerID  PlayerID
	Username  string
	Platform  Platform
	CreatedAt time.Time
}

// AliasKey is the unique key of an alias
type AliasKey struct {
	Username string
	Platform Platform
}

// Key returns the alias's unique key
func (a *Alias) Key() AliasKey {
	return AliasKey{Username: a.Username, Platform: a.Platform}
}
