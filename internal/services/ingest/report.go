package ingest

import (
	"sync"
	"time"

	"github.com/mcoot/pokerstats/internal/model"
)

// Aggregator accumulates per-row outcomes into an ImportReport. It is safe
// for concurrent use by pipeline workers.
type Aggregator struct {
	mu     sync.Mutex
	report model.ImportReport
}

// NewAggregator starts a report for a batch of totalRows rows
func NewAggregator(id model.ImportID, platform model.Platform, fileName string, totalRows int, startedAt time.Time) *Aggregator {
	return &Aggregator{
		report: model.ImportReport{
			ID:        id,
			Platform:  platform,
			FileName:  fileName,
			TotalRows: totalRows,
			Errors:    []model.RowError{},
			StartedAt: startedAt,
		},
	}
}

// Record adds one row's outcome. rowErr must be non-nil for rejections.
func (a *Aggregator) Record(outcome model.Outcome, rowErr *model.RowError) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch outcome {
	case model.OutcomeInserted:
		a.report.Inserted++
	case model.OutcomeSkippedExisting:
		a.report.Skipped++
	case model.OutcomeRejected:
		a.report.Rejected++
		if rowErr != nil {
			a.report.Errors = append(a.report.Errors, *rowErr)
		}
	}
}

// Cancel marks the batch as stopped before all rows were processed
func (a *Aggregator) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.report.Cancelled = true
}

// Finish closes the report. Rows without an outcome are counted as
// unprocessed.
func (a *Aggregator) Finish(finishedAt time.Time) *model.ImportReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := a.report
	r.Unprocessed = r.TotalRows - r.Inserted - r.Skipped - r.Rejected
	r.Errors = append([]model.RowError{}, a.report.Errors...)
	r.SortErrors()
	r.FinishedAt = finishedAt
	return &r
}
