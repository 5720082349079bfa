package model

import (
	"fmt"
	"sort"
	"time"
)

// ImportID identifies one batch upload
type ImportID string

// Outcome is the result of processing one row
type Outcome string

const (
	OutcomeInserted        Outcome = "inserted"
	OutcomeSkippedExisting Outcome = "skipped_existing"
	OutcomeRejected        Outcome = "rejected"
)

// RowErrorCode classifies a rejected row
type RowErrorCode string

const (
	CodeMissingIdentity      RowErrorCode = "MISSING_IDENTITY"
	CodeIdentityCreateFailed RowErrorCode = "IDENTITY_CREATE_FAILED"
	CodeStoreTimeout         RowErrorCode = "STORE_TIMEOUT"
	CodeMalformedRow         RowErrorCode = "MALFORMED_ROW"
	CodeStoreError           RowErrorCode = "STORE_ERROR"
)

// RowError explains why a row was rejected
type RowError struct {
	Row    int // 1-based data row index
	Code   RowErrorCode
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Code, e.Reason)
}

// ImportReport summarizes one batch
type ImportReport struct {
	ID          ImportID
	Platform    Platform
	FileName    string
	TotalRows   int
	Inserted    int
	Skipped     int
	Rejected    int
	Unprocessed int  // rows not reached before cancellation
	Cancelled   bool
	Errors      []RowError
	StartedAt   time.Time
	FinishedAt  time.Time
}

// SortErrors orders row errors by row number
func (r *ImportReport) SortErrors() {
	sort.SliceStable(r.Errors, func(i, j int) bool {
		return r.Errors[i].Row < r.Errors[j].Row
	})
}
