package ingest

import (
	"context"
	"errors"

	"github.com/mcoot/pokerstats/internal/dependencies/clock"
	"github.com/mcoot/pokerstats/internal/model"
)

// Upserter writes the single statistics snapshot a player may have. An
// existing snapshot is never merged into or replaced.
type Upserter struct {
	store StatsStore
	clock clock.Clock
}

// NewUpserter creates a new Upserter
func NewUpserter(store StatsStore, clock clock.Clock) *Upserter {
	return &Upserter{
		store: store,
		clock: clock,
	}
}

// Upsert inserts fields as the player's snapshot unless one exists
func (u *Upserter) Upsert(ctx context.Context, playerID model.PlayerID, fields model.StatFields, importID model.ImportID) (model.Outcome, error) {
	exists, err := u.store.HasStats(ctx, playerID)
	if err != nil {
		return model.OutcomeRejected, err
	}
	if exists {
		return model.OutcomeSkippedExisting, nil
	}

	err = u.store.InsertStats(ctx, &model.Stats{
		PlayerID:  playerID,
		Fields:    fields.Clone(),
		ImportID:  importID,
		CreatedAt: u.clock.Now(),
	})
	switch {
	case err == nil:
		return model.OutcomeInserted, nil
	case errors.Is(err, model.ErrStatsExist):
		// Lost a race with a concurrent batch
		return model.OutcomeSkippedExisting, nil
	default:
		return model.OutcomeRejected, err
	}
}
