package chesspresenter

import (
	"strings"
	"testing"
	"time"

	"github.com/park285/chess-humanmoves/pkg/chessdto"
)

func TestAnalysis(t *testing.T) {
	a := &chessdto.AnalysisDTO{
		Engine:   "Stockfish",
		FEN:      "1N1Q1r2/2P3P1/8/2k3b1/4R2P/3P1NR1/1P1B4/3K4 w - - 0 1",
		Depth:    3,
		BestMove: "g7f8q",
		Checks: []chessdto.MoveDTO{
			{Move: "g7f8q", SAN: "gxf8=Q+", ScoreCP: 1250, IsCheck: true, IsCapture: true, CapturedPiece: "R"},
			{Move: "c7c8q", SAN: "c8=Q+", IsMate: true, MateIn: 2, IsCheck: true},
		},
		Stats:      chessdto.ParseStatsDTO{Lines: 8, Parsed: 3, Skipped: 4, Malformed: 1},
		DurationMS: 420,
		Cached:     true,
	}
	got := NewFormatter().Analysis(a)

	for _, want := range []string{
		"• Engine: Stockfish (depth 3)",
		"• Best move: g7f8q",
		"Checks (2)",
		"gxf8=Q+  +12.50 takes R",
		"c8=Q+    #2",
		"Captures (0)\n  none",
		"8 lines, 3 parsed, 4 skipped, 1 malformed in 420ms (cached)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestMoveLabelPrefersDisambiguatedReference(t *testing.T) {
	cases := []struct {
		m    chessdto.MoveDTO
		want string
	}{
		{chessdto.MoveDTO{Move: "a1d1", SAN: "Rd1", ReferenceSAN: "Rad1"}, "Rad1"},
		{chessdto.MoveDTO{Move: "h1h8", SAN: "Qh8+", ReferenceSAN: "Qh8+"}, "Qh8+"},
		{chessdto.MoveDTO{Move: "e2e4", SAN: "e4"}, "e4"},
		{chessdto.MoveDTO{Move: "e2e4"}, "e2e4"},
	}
	for _, tc := range cases {
		if got := moveLabel(tc.m); got != tc.want {
			t.Errorf("moveLabel(%s) = %q, want %q", tc.m.Move, got, tc.want)
		}
	}
}

func TestHistory(t *testing.T) {
	f := NewFormatter()
	if got := f.History(nil); got != "No analyses yet." {
		t.Fatalf("empty history = %q", got)
	}

	got := f.History([]chessdto.HistoryEntry{{
		ID:         "0123456789abcdef",
		Engine:     "Stockfish",
		FEN:        "3k4/R7/8/8/8/8/8/3K3Q w - - 0 1",
		Candidates: 12,
		Checks:     3,
		Captures:   1,
		CreatedAt:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}})
	want := "♜ Recent analyses\n• 01234567 2026-03-01 09:30 Stockfish: 3 checks, 1 captures of 12\n  3k4/R7/8/8/8/8/8/3K3Q w - - 0 1"
	if got != want {
		t.Fatalf("History =\n%s\nwant\n%s", got, want)
	}
}
