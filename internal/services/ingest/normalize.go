package ingest

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"github.com/mcoot/pokerstats/internal/model"
)

// UsernameColumn is the reserved identity column; every other column is a
// numeric statistic
const UsernameColumn = "username"

// Record is one normalized data row
type Record struct {
	Row      int // 1-based data row index
	Username string
	Fields   model.StatFields

	// Err is set when the row cannot be ingested. Such rows are reported
	// but never reach the resolver.
	Err *model.RowError
}

// Batch is a validated table whose rows can be normalized on demand
type Batch struct {
	usernameCol int
	columns     []string // statistic name per column, "" for ignored columns
	rows        [][]string
}

// Normalize validates the header and prepares the rows. Column names are
// case-folded to the catalog's lowercase statistic names, so two headers
// differing only in case are duplicates. The only failure is a header that
// cannot describe the data; bad rows surface later as per-record errors.
func Normalize(t *Table) (*Batch, error) {
	if t == nil || isBlank(t.Header) {
		return nil, fmt.Errorf("%w: missing header row", model.ErrParseFailure)
	}

	b := &Batch{usernameCol: -1, columns: make([]string, len(t.Header))}
	seen := make(map[string]struct{}, len(t.Header))
	for i, raw := range t.Header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", model.ErrParseFailure, name)
		}
		seen[name] = struct{}{}

		if name == UsernameColumn {
			b.usernameCol = i
			continue
		}
		b.columns[i] = name
	}
	if b.usernameCol < 0 {
		return nil, fmt.Errorf("%w: header has no %q column", model.ErrParseFailure, UsernameColumn)
	}

	for _, row := range t.Rows {
		if isBlank(row) {
			continue
		}
		b.rows = append(b.rows, row)
	}
	return b, nil
}

// Len returns the number of non-blank data rows
func (b *Batch) Len() int {
	return len(b.rows)
}

// Columns returns the statistic column names in header order
func (b *Batch) Columns() []string {
	out := make([]string, 0, len(b.columns))
	for _, c := range b.columns {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Records yields normalized rows in input order. Each call starts a fresh
// pass over the batch.
func (b *Batch) Records() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for i, row := range b.rows {
			if !yield(b.normalizeRow(i+1, row)) {
				return
			}
		}
	}
}

func (b *Batch) normalizeRow(index int, cells []string) Record {
	rec := Record{Row: index}

	if len(cells) > len(b.columns) {
		rec.Err = &model.RowError{
			Row:    index,
			Code:   model.CodeMalformedRow,
			Reason: fmt.Sprintf("row has %d cells but header has %d columns", len(cells), len(b.columns)),
		}
		return rec
	}

	if b.usernameCol < len(cells) {
		rec.Username = strings.TrimSpace(cells[b.usernameCol])
	}
	if rec.Username == "" {
		rec.Err = &model.RowError{
			Row:    index,
			Code:   model.CodeMissingIdentity,
			Reason: "username is blank",
		}
		return rec
	}

	rec.Fields = make(model.StatFields, len(b.columns))
	for i, name := range b.columns {
		if name == "" {
			continue
		}
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		rec.Fields[name] = ParseNumber(cell)
	}
	return rec
}

// ParseNumber parses a statistic cell. A single trailing percent sign is
// ignored. Anything else that is not a whole finite number, such as "25.5x",
// yields nil.
func ParseNumber(cell string) *float64 {
	s := strings.TrimSpace(cell)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
