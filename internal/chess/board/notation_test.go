package board

import "testing"

func TestToAlgebraic(t *testing.T) {
	cases := []struct {
		name    string
		fen     string
		move    string
		check   bool
		capture bool
		want    string
	}{
		{"queen check", "3k4/R7/8/8/8/8/8/3K3Q w - - 0 1", "h1h8", true, false, "Qh8+"},
		{"kingside castle", "r6r/1Pq2kP1/8/8/8/8/8/R3K2R w KQ - 0 0", "e1g1", false, false, "O-O"},
		{"queenside castle with check", "r6r/1Pq2kP1/8/8/8/8/8/R3K2R w KQ - 0 0", "e1c1", true, false, "O-O-O+"},
		{"black kingside castle", "r3k2r/8/8/8/8/8/8/4K3 b kq - 0 1", "e8g8", false, false, "O-O"},
		{"pawn push", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", "e2e4", false, false, "e4"},
		{"pawn capture", "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5", false, true, "exd5"},
		{"capture promotion with check", "1N1Q1r2/2P3P1/8/2k3b1/4R2P/3P1NR1/1P1B4/3K4 w - - 0 1", "g7f8q", true, true, "gxf8=Q+"},
		{"knight promotion", "1N1Q1r2/2P3P1/8/2k3b1/4R2P/3P1NR1/1P1B4/3K4 w - - 0 1", "c7c8n", false, false, "c8=N"},
		{"piece capture", "1N1Q1r2/2P3P1/8/2k3b1/4R2P/3P1NR1/1P1B4/3K4 w - - 0 1", "d8f8", false, true, "Qxf8"},
		{"black piece is uppercased", "4k3/8/8/8/8/8/3q4/4K3 b - - 0 1", "d2d1", true, false, "Qd1+"},
		{"king step", "4k3/8/8/8/8/8/8/R3K2R w KQ - 0 1", "e1f1", false, false, "Kf1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToAlgebraic(mustParse(t, tc.fen), tc.move, tc.check, tc.capture)
			if err != nil {
				t.Fatalf("ToAlgebraic: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ToAlgebraic(%s) = %q, want %q", tc.move, got, tc.want)
			}
		})
	}
}

// Two rooks can reach d1; correct SAN is "Rad1". The translator does not
// disambiguate yet, so this pins the current, known-incorrect output.
func TestToAlgebraicWithoutDisambiguationIsExpectedIncorrect(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/8/R6R w - - 0 1")
	got, err := ToAlgebraic(pos, "a1d1", false, false)
	if err != nil {
		t.Fatalf("ToAlgebraic: %v", err)
	}
	if got != "Rd1" {
		t.Fatalf("ToAlgebraic = %q; expected the undisambiguated %q", got, "Rd1")
	}
}

func TestToAlgebraicRejectsEmptySource(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	if _, err := ToAlgebraic(pos, "a1a2", false, false); err == nil {
		t.Fatalf("expected error for a move from an empty square")
	}
}
