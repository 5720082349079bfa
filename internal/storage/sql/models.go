package sql

import (
	"time"

	"gorm.io/datatypes"

	"github.com/mcoot/pokerstats/internal/model"
)

// Row types map catalog entities onto tables. Uniqueness invariants are
// carried by the indexes declared here.

type playerRow struct {
	ID                string `gorm:"primaryKey;type:varchar(64)"`
	Username          string `gorm:"not null;uniqueIndex:idx_players_username"`
	Summary           string
	ExploitStrategies string
	Tags              datatypes.JSONSlice[string]
	CreatedAt         time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime:false"`
}

func (playerRow) TableName() string { return "players" }

type aliasRow struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	PlayerID  string    `gorm:"not null;index:idx_aliases_player"`
	Username  string    `gorm:"not null;uniqueIndex:idx_aliases_identity,priority:1"`
	Platform  string    `gorm:"not null;uniqueIndex:idx_aliases_identity,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (aliasRow) TableName() string { return "player_aliases" }

type statsRow struct {
	PlayerID  string `gorm:"primaryKey;type:varchar(64)"`
	Fields    datatypes.JSON
	ImportID  string
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (statsRow) TableName() string { return "player_stats" }

type noteRow struct {
	UserID    string `gorm:"primaryKey;type:varchar(128)"`
	PlayerID  string `gorm:"primaryKey;type:varchar(64)"`
	Text      string
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (noteRow) TableName() string { return "player_notes" }

type watchRow struct {
	UserID   string `gorm:"primaryKey;type:varchar(128)"`
	PlayerID string `gorm:"primaryKey;type:varchar(64)"`
	AddedAt  time.Time
}

func (watchRow) TableName() string { return "watchlist_entries" }

type importRow struct {
	ID          string `gorm:"primaryKey;type:varchar(64)"`
	Platform    string
	FileName    string
	TotalRows   int
	Inserted    int
	Skipped     int
	Rejected    int
	Unprocessed int
	Cancelled   bool
	Errors      datatypes.JSONSlice[model.RowError]
	StartedAt   time.Time
	FinishedAt  time.Time
}

func (importRow) TableName() string { return "import_reports" }

func allModels() []any {
	return []any{&playerRow{}, &aliasRow{}, &statsRow{}, &noteRow{}, &watchRow{}, &importRow{}}
}

func playerFromRow(r *playerRow) *model.Player {
	return &model.Player{
		ID:                model.PlayerID(r.ID),
		Username:          r.Username,
		Summary:           r.Summary,
		ExploitStrategies: r.ExploitStrategies,
		Tags:              append([]string(nil), r.Tags...),
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
}

func aliasFromRow(r *aliasRow) *model.Alias {
	return &model.Alias{
		ID:        r.ID,
		PlayerID:  model.PlayerID(r.PlayerID),
		Username:  r.Username,
		Platform:  model.Platform(r.Platform),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func importFromRow(r *importRow) *model.ImportReport {
	return &model.ImportReport{
		ID:          model.ImportID(r.ID),
		Platform:    model.Platform(r.Platform),
		FileName:    r.FileName,
		TotalRows:   r.TotalRows,
		Inserted:    r.Inserted,
		Skipped:     r.Skipped,
		Rejected:    r.Rejected,
		Unprocessed: r.Unprocessed,
		Cancelled:   r.Cancelled,
		Errors:      append([]model.RowError(nil), r.Errors...),
		StartedAt:   r.StartedAt.UTC(),
		FinishedAt:  r.FinishedAt.UTC(),
	}
}
