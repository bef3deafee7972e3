package board

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrInvalidMove = errors.New("invalid coordinate move")

// Move is a decoded coordinate move such as "e2e4" or "b7b8q".
type Move struct {
	From      Square
	To        Square
	Promotion byte
}

func ParseMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %q has length %d", ErrInvalidMove, s, len(s))
	}
	from, ok := parseSquare(s[0], s[1])
	if !ok {
		return Move{}, fmt.Errorf("%w: bad source square in %q", ErrInvalidMove, s)
	}
	to, ok := parseSquare(s[2], s[3])
	if !ok {
		return Move{}, fmt.Errorf("%w: bad destination square in %q", ErrInvalidMove, s)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		switch promo := kind(s[4]); promo {
		case 'q', 'r', 'b', 'n':
			m.Promotion = promo
		default:
			return Move{}, fmt.Errorf("%w: bad promotion piece in %q", ErrInvalidMove, s)
		}
	}
	return m, nil
}

func parseSquare(file, rank byte) (Square, bool) {
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Square{}, false
	}
	return Square{Row: int('8' - rank), Col: int(file - 'a')}, true
}

// castleRookMove returns the rook relocation for a castling king move: a
// king leaving the e-file of its home rank and landing two files away.
func castleRookMove(p Position, m Move) (from, to Square, ok bool) {
	piece := p.At(m.From)
	if kind(piece) != 'k' || m.From.Col != 4 || m.To.Row != m.From.Row {
		return Square{}, Square{}, false
	}
	home := 7
	if colorOf(piece) == Black {
		home = 0
	}
	if m.From.Row != home {
		return Square{}, Square{}, false
	}
	switch m.To.Col - m.From.Col {
	case 2:
		return Square{Row: home, Col: 7}, Square{Row: home, Col: 5}, true
	case -2:
		return Square{Row: home, Col: 0}, Square{Row: home, Col: 3}, true
	}
	return Square{}, Square{}, false
}

// Apply plays coord on a copy of p. The side to move flips and a numeric move
// number is incremented; p itself is never modified.
func Apply(p Position, coord string) (Position, error) {
	m, err := ParseMove(coord)
	if err != nil {
		return Position{}, err
	}
	piece := p.At(m.From)
	if piece == Empty {
		return Position{}, fmt.Errorf("%w: no piece on %s for %q", ErrInvalidMove, m.From.Name(), coord)
	}

	next := p
	next.FEN = ""
	rookFrom, rookTo, castles := castleRookMove(p, m)

	placed := piece
	if m.Promotion != 0 {
		placed = withColor(m.Promotion, colorOf(piece))
	}
	next.Board[m.From.Row][m.From.Col] = Empty
	next.Board[m.To.Row][m.To.Col] = placed

	if castles {
		rook := next.At(rookFrom)
		next.Board[rookFrom.Row][rookFrom.Col] = Empty
		next.Board[rookTo.Row][rookTo.Col] = rook
	}

	next.SideToMove = p.SideToMove.Opposite()
	if n, err := strconv.Atoi(p.MoveNumber); err == nil {
		next.MoveNumber = strconv.Itoa(n + 1)
	}
	return next, nil
}
