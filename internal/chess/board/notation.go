package board

import (
	"fmt"
	"strings"
)

// ToAlgebraic renders coord as SAN for the position it is played from.
//
// Known limitation: no disambiguation is attempted, so when two like pieces
// can reach the destination the result omits the source file or rank
// (e.g. "Rd1" instead of "Rad1").
func ToAlgebraic(p Position, coord string, isCheck, isCapture bool) (string, error) {
	m, err := ParseMove(coord)
	if err != nil {
		return "", err
	}
	piece := p.At(m.From)
	if piece == Empty {
		return "", fmt.Errorf("%w: no piece on %s for %q", ErrInvalidMove, m.From.Name(), coord)
	}

	check := ""
	if isCheck {
		check = "+"
	}

	if _, _, castles := castleRookMove(p, m); castles {
		if m.To.Col > m.From.Col {
			return "O-O" + check, nil
		}
		return "O-O-O" + check, nil
	}

	dest := m.To.Name()
	var sb strings.Builder
	if kind(piece) == 'p' {
		if isCapture {
			sb.WriteByte(coord[0])
			sb.WriteByte('x')
		}
		sb.WriteString(dest)
		if m.Promotion != 0 {
			sb.WriteByte('=')
			sb.WriteByte(withColor(m.Promotion, White))
		}
		sb.WriteString(check)
		return sb.String(), nil
	}

	sb.WriteByte(withColor(piece, White))
	if isCapture {
		sb.WriteByte('x')
	}
	sb.WriteString(dest)
	sb.WriteString(check)
	return sb.String(), nil
}
