package chesspresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/chess-humanmoves/pkg/chessdto"
)

const (
	analysisHeader = "♞ Human moves"
	historyHeader  = "♜ Recent analyses"
)

// Formatter renders analysis DTOs as plain text blocks for terminals and logs.
type Formatter struct {
	// Location for timestamps; UTC when nil.
	Location *time.Location
}

func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Analysis(a *chessdto.AnalysisDTO) string {
	if a == nil {
		return "No analysis."
	}
	var sb strings.Builder
	sb.WriteString(analysisHeader)
	sb.WriteByte('\n')
	sb.WriteString(fmt.Sprintf("• Engine: %s (depth %d)\n", a.Engine, a.Depth))
	sb.WriteString(fmt.Sprintf("• FEN: %s\n", a.FEN))
	if a.BestMove != "" {
		sb.WriteString(fmt.Sprintf("• Best move: %s\n", a.BestMove))
	}

	appendMoves(&sb, "Checks", a.Checks)
	appendMoves(&sb, "Captures", a.Captures)

	sb.WriteString(fmt.Sprintf("\n%d lines, %d parsed, %d skipped", a.Stats.Lines, a.Stats.Parsed, a.Stats.Skipped))
	if a.Stats.Malformed > 0 {
		sb.WriteString(fmt.Sprintf(", %d malformed", a.Stats.Malformed))
	}
	if d := formatDuration(time.Duration(a.DurationMS) * time.Millisecond); d != "" {
		sb.WriteString(" in " + d)
	}
	if a.Cached {
		sb.WriteString(" (cached)")
	}
	return sb.String()
}

func (f *Formatter) History(entries []chessdto.HistoryEntry) string {
	if len(entries) == 0 {
		return "No analyses yet."
	}
	var sb strings.Builder
	sb.WriteString(historyHeader)
	sb.WriteByte('\n')
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("• %s %s %s: %d checks, %d captures of %d\n",
			shortID(e.ID), f.formatShortTime(e.CreatedAt), e.Engine, e.Checks, e.Captures, e.Candidates))
		sb.WriteString("  " + e.FEN + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func appendMoves(sb *strings.Builder, title string, moves []chessdto.MoveDTO) {
	sb.WriteString(fmt.Sprintf("\n%s (%d)\n", title, len(moves)))
	if len(moves) == 0 {
		sb.WriteString("  none\n")
		return
	}
	for _, m := range moves {
		sb.WriteString(fmt.Sprintf("  %-8s %s", moveLabel(m), formatScore(m)))
		if m.CapturedPiece != "" {
			sb.WriteString(" takes " + m.CapturedPiece)
		}
		sb.WriteByte('\n')
	}
}

// moveLabel prefers the reference SAN when it disagrees with ours, since ours
// is never disambiguated.
func moveLabel(m chessdto.MoveDTO) string {
	if m.ReferenceSAN != "" && m.ReferenceSAN != m.SAN {
		return m.ReferenceSAN
	}
	if m.SAN != "" {
		return m.SAN
	}
	return m.Move
}

func formatScore(m chessdto.MoveDTO) string {
	if m.IsMate {
		return fmt.Sprintf("#%d", m.MateIn)
	}
	return fmt.Sprintf("%+.2f", float64(m.ScoreCP)/100)
}

func (f *Formatter) formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	loc := time.UTC
	if f != nil && f.Location != nil {
		loc = f.Location
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
