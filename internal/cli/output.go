package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case ImportReport:
		o.printImportReport(v)
	case Player:
		o.printPlayer(v)
	case []Player:
		o.printPlayers(v)
	case Profile:
		o.printProfile(v)
	case Alias:
		fmt.Fprintf(o.w, "Linked %s on %s to player %s\n", v.Username, v.Platform, v.PlayerID)
	case Note:
		o.printNote(v)
	case []WatchItem:
		o.printWatchlist(v)
	case CleanResult:
		fmt.Fprintf(o.w, "Read %d rows, wrote %d, dropped %d without username\n", v.Read, v.Written, v.Dropped)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// RowError response type
type RowError struct {
	Row    int    `json:"row"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// ImportReport response type (matches API)
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

// Player response type
type Player struct {
	ID                string   `json:"id"`
	Username          string   `json:"username"`
	Summary           string   `json:"summary,omitempty"`
	ExploitStrategies string   `json:"exploit_strategies,omitempty"`
	Tags              []string `json:"tags"`
}

// Alias response type
type Alias struct {
	ID       string `json:"id"`
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
	Platform string `json:"platform"`
}

// Stats response type, grouped by section
type Stats struct {
	Preflop    map[string]*float64 `json:"preflop"`
	Postflop   map[string]*float64 `json:"postflop"`
	Tournament map[string]*float64 `json:"tournament"`
	Other      map[string]*float64 `json:"other,omitempty"`
	ImportID   string              `json:"import_id"`
}

// Note response type
type Note struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile response type
type Profile struct {
	Player      Player  `json:"player"`
	Aliases     []Alias `json:"aliases"`
	Stats       *Stats  `json:"stats"`
	Note        *Note   `json:"note,omitempty"`
	Watchlisted bool    `json:"watchlisted"`
}

// WatchItem response type
type WatchItem struct {
	Player  Player    `json:"player"`
	AddedAt time.Time `json:"added_at"`
}

// CleanResult summarizes a local clean run
type CleanResult struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	Read    int    `json:"read"`
	Written int    `json:"written"`
	Dropped int    `json:"dropped"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func (o *Output) printImportReport(r ImportReport) {
	fmt.Fprintf(o.w, "Import: %s (%s)\n", r.ID, r.Platform)
	fmt.Fprintf(o.w, "Rows: %d  inserted: %d  skipped: %d  rejected: %d\n", r.TotalRows, r.Inserted, r.Skipped, r.Rejected)
	if r.Cancelled {
		fmt.Fprintf(o.w, "Cancelled with %d rows unprocessed\n", r.Unprocessed)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintln(o.w, "Errors:")
		for _, e := range r.Errors {
			fmt.Fprintf(o.w, "  row %d: %s: %s\n", e.Row, e.Code, e.Reason)
		}
	}
}

func (o *Output) printPlayer(p Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.Username, p.ID)
	if len(p.Tags) > 0 {
		fmt.Fprintf(o.w, "Tags: %s\n", strings.Join(p.Tags, ", "))
	}
	if p.Summary != "" {
		fmt.Fprintf(o.w, "Summary: %s\n", p.Summary)
	}
	if p.ExploitStrategies != "" {
		fmt.Fprintf(o.w, "Exploits: %s\n", p.ExploitStrategies)
	}
}

func (o *Output) printPlayers(players []Player) {
	if len(players) == 0 {
		fmt.Fprintln(o.w, "No players found")
		return
	}
	for _, p := range players {
		fmt.Fprintf(o.w, "%s  %s\n", p.Username, p.ID)
	}
}

func (o *Output) printProfile(p Profile) {
	o.printPlayer(p.Player)

	if len(p.Aliases) > 0 {
		fmt.Fprintln(o.w, "Aliases:")
		for _, a := range p.Aliases {
			fmt.Fprintf(o.w, "  %s on %s\n", a.Username, a.Platform)
		}
	}

	if p.Stats == nil {
		fmt.Fprintln(o.w, "No statistics yet")
	} else {
		o.printSection("Preflop", p.Stats.Preflop)
		o.printSection("Postflop", p.Stats.Postflop)
		o.printSection("Tournament", p.Stats.Tournament)
		o.printSection("Other", p.Stats.Other)
	}

	if p.Watchlisted {
		fmt.Fprintln(o.w, "On your watchlist")
	}
	if p.Note != nil {
		fmt.Fprintf(o.w, "Your note: %s\n", p.Note.Text)
	}
}

func (o *Output) printSection(title string, values map[string]*float64) {
	if len(values) == 0 {
		return
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(o.w, "%s:\n", title)
	for _, name := range names {
		fmt.Fprintf(o.w, "  %-18s %s\n", name, formatStat(values[name]))
	}
}

func formatStat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func (o *Output) printNote(n Note) {
	fmt.Fprintln(o.w, n.Text)
	if !n.UpdatedAt.IsZero() {
		fmt.Fprintf(o.w, "(updated %s)\n", n.UpdatedAt.Format(time.RFC3339))
	}
}

func (o *Output) printWatchlist(items []WatchItem) {
	if len(items) == 0 {
		fmt.Fprintln(o.w, "Watchlist is empty")
		return
	}
	for _, item := range items {
		fmt.Fprintf(o.w, "%s  added %s\n", item.Player.Username, item.AddedAt.Format(time.RFC3339))
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	if h.Storage != "" {
		fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
	}
}
