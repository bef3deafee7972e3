package board

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseFENRoundTripsPlacement(t *testing.T) {
	fens := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"3k4/R7/8/8/8/8/8/3K3Q w - - 0 1",
		"r6r/1Pq2kP1/8/8/8/8/8/R3K2R w KQ - 0 0",
		"1N1Q1r2/2P3P1/8/2k3b1/4R2P/3P1NR1/1P1B4/3K4 w - - 0 1",
		"8/8/8/8/8/8/8/8 b - - 0 40",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		want := strings.Fields(fen)[0]
		if got := pos.Placement(); got != want {
			t.Fatalf("placement round trip: got %q want %q", got, want)
		}
	}
}

func TestParseFENFields(t *testing.T) {
	pos, err := ParseFEN("r6r/1Pq2kP1/8/8/8/8/8/R3K2R w KQ - 0 0")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos.SideToMove != White {
		t.Fatalf("side to move = %q, want w", pos.SideToMove)
	}
	if pos.MoveNumber != "0" {
		t.Fatalf("move number = %q, want 0", pos.MoveNumber)
	}
	wantRow := [8]byte{'-', 'P', 'q', '-', '-', 'k', 'P', '-'}
	if diff := cmp.Diff(wantRow, pos.Board[1]); diff != "" {
		t.Fatalf("rank 7 mismatch (-want +got):\n%s", diff)
	}
	if pos.At(Square{Row: 7, Col: 4}) != 'K' {
		t.Fatalf("expected white king on e1, got %q", pos.At(Square{Row: 7, Col: 4}))
	}
}

func TestParseFENRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"five fields":     "3k4/R7/8/8/8/8/8/3K3Q w - - 0",
		"seven ranks":     "3k4/R7/8/8/8/8/3K3Q w - - 0 1",
		"short rank":      "3k4/R6/8/8/8/8/8/3K3Q w - - 0 1",
		"long rank":       "3k4/R8/8/8/8/8/8/3K3Q w - - 0 1",
		"bad piece":       "3k4/X7/8/8/8/8/8/3K3Q w - - 0 1",
		"bad side":        "3k4/R7/8/8/8/8/8/3K3Q x - - 0 1",
		"empty":           "",
		"nine empties":    "9/8/8/8/8/8/8/8 w - - 0 1",
		"zero empty run":  "08/8/8/8/8/8/8/8 w - - 0 1",
	}
	for name, fen := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFEN(fen)
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("ParseFEN(%q) error = %v, want ErrFormat", fen, err)
			}
			var fe *FormatError
			if !errors.As(err, &fe) || fe.FEN != fen {
				t.Fatalf("expected *FormatError carrying the input, got %#v", err)
			}
		})
	}
}

func TestFindKing(t *testing.T) {
	pos, err := ParseFEN("3k4/R7/8/8/8/8/8/3K3Q w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	sq, ok := FindKing(pos, Black)
	if !ok || sq.Name() != "d8" {
		t.Fatalf("black king = %v (%v), want d8", sq.Name(), ok)
	}
	sq, ok = FindKing(pos, White)
	if !ok || sq.Name() != "d1" {
		t.Fatalf("white king = %v (%v), want d1", sq.Name(), ok)
	}

	empty, _ := ParseFEN("8/8/8/8/8/8/8/8 w - - 0 1")
	if _, ok := FindKing(empty, White); ok {
		t.Fatalf("expected no king on an empty board")
	}
}
