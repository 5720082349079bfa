package response

import (
	"time"

	"github.com/mcoot/pokerstats/internal/model"
	"github.com/mcoot/pokerstats/internal/services/annotations"
	"github.com/mcoot/pokerstats/internal/services/catalog"
)

// RowError is one rejected row in an import report
type RowError struct {
	Row    int    `json:"row"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// ImportReport summarizes one upload
type ImportReport struct {
	ID          string     `json:"id"`
	Platform    string     `json:"platform"`
	FileName    string     `json:"file_name,omitempty"`
	TotalRows   int        `json:"total_rows"`
	Inserted    int        `json:"inserted"`
	Skipped     int        `json:"skipped"`
	Rejected    int        `json:"rejected"`
	Unprocessed int        `json:"unprocessed"`
	Cancelled   bool       `json:"cancelled"`
	Errors      []RowError `json:"errors"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  time.Time  `json:"finished_at"`
}

// ImportReportFromModel converts a model.ImportReport
func ImportReportFromModel(r *model.ImportReport) ImportReport {
	errs := make([]RowError, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = RowError{Row: e.Row, Code: string(e.Code), Reason: e.Reason}
	}
	return ImportReport{
		ID:          string(r.ID),
		Platform:    string(r.Platform),
		FileName:    r.FileName,
		TotalRows:   r.TotalRows,
		Inserted:    r.Inserted,
		Skipped:     r.Skipped,
		Rejected:    r.Rejected,
		Unprocessed: r.Unprocessed,
		Cancelled:   r.Cancelled,
		Errors:      errs,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

// Player represents a player in API responses
type Player struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Summary           string    `json:"summary,omitempty"`
	ExploitStrategies string    `json:"exploit_strategies,omitempty"`
	Tags              []string  `json:"tags"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return Player{
		ID:                string(p.ID),
		Username:          p.Username,
		Summary:           p.Summary,
		ExploitStrategies: p.ExploitStrategies,
		Tags:              tags,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// PlayersFromModel converts a slice of players
func PlayersFromModel(players []*model.Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = PlayerFromModel(p)
	}
	return out
}

// Alias represents an alias in API responses
type Alias struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"player_id"`
	Username  string    `json:"username"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}

// AliasFromModel converts a model.Alias
func AliasFromModel(a *model.Alias) Alias {
	return Alias{
		ID:        a.ID,
		PlayerID:  string(a.PlayerID),
		Username:  a.Username,
		Platform:  string(a.Platform),
		CreatedAt: a.CreatedAt,
	}
}

// Preflop statistics section
type Preflop struct {
	VPIP           *float64 `json:"vpip"`
	PFR            *float64 `json:"pfr"`
	ThreeBet       *float64 `json:"three_bet"`
	FoldToThreeBet *float64 `json:"fold_to_three_bet"`
	Steal          *float64 `json:"steal"`
}

// Postflop statistics section
type Postflop struct {
	CheckRaise *float64 `json:"check_raise"`
	CBet       *float64 `json:"cbet"`
	FoldToCBet *float64 `json:"fold_to_cbet"`
	Fold       *float64 `json:"fold"`
	WTSD       *float64 `json:"wtsd"`
	WSD        *float64 `json:"wsd"`
}

// Tournament statistics section
type Tournament struct {
	TotalTournaments *float64 `json:"total_tournaments"`
	AvgBuyIn         *float64 `json:"avg_buyin"`
	ROI              *float64 `json:"roi"`
}

// Stats groups a player's statistics for display
type Stats struct {
	Preflop    Preflop             `json:"preflop"`
	Postflop   Postflop            `json:"postflop"`
	Tournament Tournament          `json:"tournament"`
	Other      map[string]*float64 `json:"other,omitempty"`
	ImportID   string              `json:"import_id"`
	CreatedAt  time.Time           `json:"created_at"`
}

// StatsFromSections converts catalog.Sections
func StatsFromSections(s *catalog.Sections) *Stats {
	if s == nil {
		return nil
	}
	return &Stats{
		Preflop: Preflop{
			VPIP:           s.Preflop.VPIP,
			PFR:            s.Preflop.PFR,
			ThreeBet:       s.Preflop.ThreeBet,
			FoldToThreeBet: s.Preflop.FoldToThreeBet,
			Steal:          s.Preflop.Steal,
		},
		Postflop: Postflop{
			CheckRaise: s.Postflop.CheckRaise,
			CBet:       s.Postflop.CBet,
			FoldToCBet: s.Postflop.FoldToCBet,
			Fold:       s.Postflop.Fold,
			WTSD:       s.Postflop.WTSD,
			WSD:        s.Postflop.WSD,
		},
		Tournament: Tournament{
			TotalTournaments: s.Tournament.TotalTournaments,
			AvgBuyIn:         s.Tournament.AvgBuyIn,
			ROI:              s.Tournament.ROI,
		},
		Other:     s.Other,
		ImportID:  string(s.ImportID),
		CreatedAt: s.CreatedAt,
	}
}

// Note represents a user's note in API responses
type Note struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteFromModel converts a model.Note
func NoteFromModel(n *model.Note) *Note {
	if n == nil {
		return nil
	}
	return &Note{Text: n.Text, UpdatedAt: n.UpdatedAt}
}

// Profile is the full player view
type Profile struct {
	Player      Player  `json:"player"`
	Aliases     []Alias `json:"aliases"`
	Stats       *Stats  `json:"stats"`
	Note        *Note   `json:"note,omitempty"`
	Watchlisted bool    `json:"watchlisted"`
}

// ProfileFromCatalog converts a catalog.Profile
func ProfileFromCatalog(p *catalog.Profile) Profile {
	aliases := make([]Alias, len(p.Aliases))
	for i, a := range p.Aliases {
		aliases[i] = AliasFromModel(a)
	}
	return Profile{
		Player:      PlayerFromModel(p.Player),
		Aliases:     aliases,
		Stats:       StatsFromSections(p.Stats),
		Note:        NoteFromModel(p.Note),
		Watchlisted: p.Watchlisted,
	}
}

// WatchItem is one watchlist entry
type WatchItem struct {
	Player  Player    `json:"player"`
	AddedAt time.Time `json:"added_at"`
}

// WatchlistFromItems converts annotations.WatchItem values
func WatchlistFromItems(items []annotations.WatchItem) []WatchItem {
	out := make([]WatchItem, len(items))
	for i, item := range items {
		out[i] = WatchItem{Player: PlayerFromModel(item.Player), AddedAt: item.AddedAt}
	}
	return out
}

// Health is the health check response
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
