package catalog

import (
	"time"

	"github.com/mcoot/pokerstats/internal/model"
)

// Profile is everything the profile page shows for one player
type Profile struct {
	Player      *model.Player
	Aliases     []*model.Alias
	Stats       *Sections // nil when the player has no statistics yet
	Note        *model.Note
	Watchlisted bool
}

// Sections groups statistics the way the profile page lays them out
type Sections struct {
	Preflop    Preflop
	Postflop   Postflop
	Tournament Tournament

	// Other holds uploaded columns outside the sections above
	Other model.StatFields

	ImportID  model.ImportID
	CreatedAt time.Time
}

// Preflop statistics
type Preflop struct {
	VPIP           *float64
	PFR            *float64
	ThreeBet       *float64
	FoldToThreeBet *float64
	Steal          *float64
}

// Postflop statistics
type Postflop struct {
	CheckRaise *float64
	CBet       *float64
	FoldToCBet *float64
	Fold       *float64
	WTSD       *float64
	WSD        *float64
}

// Tournament statistics
type Tournament struct {
	TotalTournaments *float64
	AvgBuyIn         *float64
	ROI              *float64
}

var sectionFields = map[string]struct{}{
	model.StatVPIP:             {},
	model.StatPFR:              {},
	model.StatThreeBet:         {},
	model.StatFoldToThreeBet:   {},
	model.StatSteal:            {},
	model.StatCheckRaise:       {},
	model.StatCBet:             {},
	model.StatFoldToCBet:       {},
	model.StatFold:             {},
	model.StatWTSD:             {},
	model.StatWSD:              {},
	model.StatTotalTournaments: {},
	model.StatAvgBuyIn:         {},
	model.StatROI:              {},
}

// SectionsFromStats shapes a statistics snapshot for display
func SectionsFromStats(stats *model.Stats) *Sections {
	line := stats.Line()

	other := model.StatFields{}
	for name, v := range stats.Fields.Clone() {
		if _, known := sectionFields[name]; !known && name != "username" {
			other[name] = v
		}
	}

	return &Sections{
		Preflop: Preflop{
			VPIP:           line.VPIP,
			PFR:            line.PFR,
			ThreeBet:       line.ThreeBet,
			FoldToThreeBet: line.FoldToThreeBet,
			Steal:          line.Steal,
		},
		Postflop: Postflop{
			CheckRaise: line.CheckRaise,
			CBet:       line.CBet,
			FoldToCBet: line.FoldToCBet,
			Fold:       line.Fold,
			WTSD:       line.WTSD,
			WSD:        line.WSD,
		},
		Tournament: Tournament{
			TotalTournaments: line.TotalTournaments,
			AvgBuyIn:         line.AvgBuyIn,
			ROI:              line.ROI,
		},
		Other:     other,
		ImportID:  stats.ImportID,
		CreatedAt: stats.CreatedAt,
	}
}
