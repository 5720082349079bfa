// Package statsclean turns raw tracker exports, which carry hand counts and
// opportunity counts, into the percentage columns the importer expects.
package statsclean

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/mcoot/pokerstats/internal/model"
)

// SourceUsernameColumn names the player column in raw exports
const SourceUsernameColumn = "Username"

// ErrMissingUsername is returned when the export has no Username column
var ErrMissingUsername = errors.New("export has no Username column")

// Ratio derives one output column as numerator/denominator in percent
type Ratio struct {
	Column      string
	Numerator   string
	Denominator string
}

// Ratios lists the output columns in order
var Ratios = []Ratio{
	{model.StatVPIP, "hands_vpip", "hands_vpip_opportunity"},
	{model.StatPFR, "hands_pfr", "hands_pfr_opportunity"},
	{model.StatThreeBet, "hands_three_bet", "hands_three_bet_opportunity"},
	{model.StatFoldToThreeBet, "hands_folded_three_bet", "hands_three_bet_fold_opportunity"},
	{model.StatSteal, "hands_steal_attempt", "hands_steal_opportunity"},
	{model.StatCheckRaise, "hands_check_n_raise", "hands_check_n_raise_opportunity"},
	{model.StatCBet, "hands_cbet_success", "hands_cbet_opportunity"},
	{model.StatFoldToCBet, "hands_folded_to_cbet", "hands_fold_to_cbet_opportunity"},
	{model.StatFold, "hands_fold", "hands_fold_opportunity"},
	{model.StatWTSD, "hands_wtsd", "hands_flop_seen"},
	{model.StatWSD, "hands_won_at_showdown", "hands_wtsd"},
}

// Header returns the cleaned output header
func Header() []string {
	h := make([]string, 0, len(Ratios)+1)
	h = append(h, "username")
	for _, r := range Ratios {
		h = append(h, r.Column)
	}
	return h
}

// Summary counts what a Clean call did
type Summary struct {
	Read    int
	Written int
	Dropped int // rows without a username
}

// Clean reads a raw export from r and writes the cleaned CSV to w
func Clean(r io.Reader, w io.Writer) (Summary, error) {
	var summary Summary

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return summary, ErrMissingUsername
	}
	if err != nil {
		return summary, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	if _, ok := index[SourceUsernameColumn]; !ok {
		return summary, ErrMissingUsername
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Header()); err != nil {
		return summary, err
	}

	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("failed to read row %d: %w", summary.Read+1, err)
		}
		summary.Read++

		row := cleanRow(index, cells)
		if row == nil {
			summary.Dropped++
			continue
		}
		if err := writer.Write(row); err != nil {
			return summary, err
		}
		summary.Written++
	}

	writer.Flush()
	return summary, writer.Error()
}

func cleanRow(index map[string]int, cells []string) []string {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(cells) {
			return ""
		}
		return cells[i]
	}

	username := strings.TrimSpace(cell(SourceUsernameColumn))
	if username == "" {
		return nil
	}

	out := make([]string, 0, len(Ratios)+1)
	out = append(out, username)
	for _, r := range Ratios {
		v, ok := Pct(count(cell(r.Numerator)), count(cell(r.Denominator)))
		if !ok {
			out = append(out, "")
			continue
		}
		out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return out
}

// Pct returns n/d as a percentage rounded to two places. ok is false when
// d is zero.
func Pct(n, d int) (float64, bool) {
	if d == 0 {
		return 0, false
	}
	return math.RoundToEven(float64(n)/float64(d)*100*100) / 100, true
}

// count parses a hand count; anything that is not an integer counts as zero
func count(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
