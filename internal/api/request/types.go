package request

// LinkAliasRequest is the request body for binding an alias to a player
type LinkAliasRequest struct {
	Username string `json:"username"`
	Platform string `json:"platform"`
}

// EnrichProfileRequest is the request body for replacing a player's profile text
type EnrichProfileRequest struct {
	Summary           string   `json:"summary"`
	ExploitStrategies string   `json:"exploit_strategies"`
	Tags              []string `json:"tags"`
}

// PutNoteRequest is the request body for saving a note
type PutNoteRequest struct {
	Text string `json:"text"`
}

// WatchRequest is the request body for adding or removing a watchlist entry
type WatchRequest struct {
	Username string `json:"username"`
}
