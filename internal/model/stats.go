package model

import "time"

// Statistic field names read by the profile view. Uploads may carry any
// other numeric column; those are stored but not interpreted.
const (
	StatVPIP             = "vpip"
	StatPFR              = "pfr"
	StatThreeBet         = "three_bet"
	StatFoldToThreeBet   = "fold_to_three_bet"
	StatSteal            = "steal"
	StatCheckRaise       = "check_raise"
	StatCBet             = "cbet"
	StatFoldToCBet       = "fold_to_cbet"
	StatFold             = "fold"
	StatWTSD             = "wtsd"
	StatWSD              = "wsd"
	StatTotalTournaments = "total_tournaments"
	StatAvgBuyIn         = "avg_buyin"
	StatROI              = "roi"
)

// StatFields maps a statistic name to its value. A nil value means the
// source had no usable number for that field; zero is a real value.
type StatFields map[string]*float64

// Get returns the value for name, or nil if absent
func (f StatFields) Get(name string) *float64 {
	if f == nil {
		return nil
	}
	return f[name]
}

// Clone returns a deep copy
func (f StatFields) Clone() StatFields {
	if f == nil {
		return nil
	}
	out := make(StatFields, len(f))
	for k, v := range f {
		if v == nil {
			out[k] = nil
			continue
		}
		val := *v
		out[k] = &val
	}
	return out
}

// Stats is the single statistics snapshot retained for a player
type Stats struct {
	PlayerID  PlayerID
	Fields    StatFields
	ImportID  ImportID // batch that wrote the snapshot
	CreatedAt time.Time
}

// StatLine is the closed set of statistics the profile view reads
type StatLine struct {
	VPIP             *float64
	PFR              *float64
	ThreeBet         *float64
	FoldToThreeBet   *float64
	Steal            *float64
	CheckRaise       *float64
	CBet             *float64
	FoldToCBet       *float64
	Fold             *float64
	WTSD             *float64
	WSD              *float64
	TotalTournaments *float64
	AvgBuyIn         *float64
	ROI              *float64
}

// Line extracts the profile-view fields
func (s *Stats) Line() StatLine {
	f := s.Fields
	return StatLine{
		VPIP:             f.Get(StatVPIP),
		PFR:              f.Get(StatPFR),
		ThreeBet:         f.Get(StatThreeBet),
		FoldToThreeBet:   f.Get(StatFoldToThreeBet),
		Steal:            f.Get(StatSteal),
		CheckRaise:       f.Get(StatCheckRaise),
		CBet:             f.Get(StatCBet),
		FoldToCBet:       f.Get(StatFoldToCBet),
		Fold:             f.Get(StatFold),
		WTSD:             f.Get(StatWTSD),
		WSD:              f.Get(StatWSD),
		TotalTournaments: f.Get(StatTotalTournaments),
		AvgBuyIn:         f.Get(StatAvgBuyIn),
		ROI:              f.Get(StatROI),
	}
}
