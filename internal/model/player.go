package model

import "time"

// PlayerID uniquely identifies a canonical player identity
type PlayerID string

// Player is the canonical identity for one real player. Aliases from any
// platform resolve to exactly one Player.
type Player struct {
	ID       PlayerID
	Username string // primary username, first seen (immutable)

	// Enrichment fields, populated by the external profile-enrichment
	// process. Ingestion never writes these.
	Summary           string
	ExploitStrategies string
	Tags              []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileEnrichment holds the free-text fields written by the enrichment process
type ProfileEnrichment struct {
	Summary           string
	ExploitStrategies string
	Tags              []string
}

// Apply copies the enrichment fields onto the player
func (e ProfileEnrichment) Apply(p *Player, now time.Time) {
	p.Summary = e.Summary
	p.ExploitStrategies = e.ExploitStrategies
	p.Tags = append([]string(nil), e.Tags...)
	p.UpdatedAt = now
}
