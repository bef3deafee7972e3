package board

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFormat is matched by every FormatError.
var ErrFormat = errors.New("invalid FEN")

type FormatError struct {
	FEN    string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid FEN %q: %s", e.FEN, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// ParseFEN builds a Position from a six-field FEN string. Only the piece
// placement, side to move and move number fields are kept; castling rights,
// en passant square and halfmove clock are validated for presence only.
func ParseFEN(fen string) (Position, error) {
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return Position{}, &FormatError{FEN: fen, Reason: fmt.Sprintf("expected 6 fields, got %d", len(fields))}
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return Position{}, &FormatError{FEN: fen, Reason: fmt.Sprintf("expected 8 ranks, got %d", len(ranks))}
	}

	pos := Position{FEN: fen, MoveNumber: fields[5]}
	for row, rank := range ranks {
		col := 0
		for i := 0; i < len(rank); i++ {
			c := rank[i]
			switch {
			case c >= '1' && c <= '8':
				n := int(c - '0')
				if col+n > 8 {
					return Position{}, &FormatError{FEN: fen, Reason: fmt.Sprintf("rank %d overflows 8 files", 8-row)}
				}
				for j := 0; j < n; j++ {
					pos.Board[row][col] = Empty
					col++
				}
			case isPieceLetter(c):
				if col >= 8 {
					return Position{}, &FormatError{FEN: fen, Reason: fmt.Sprintf("rank %d overflows 8 files", 8-row)}
				}
				pos.Board[row][col] = c
				col++
			default:
				return Position{}, &FormatError{FEN: fen, Reason: fmt.Sprintf("unexpected %q in rank %d", c, 8-row)}
			}
		}
		if col != 8 {
			return Position{}, &FormatError{FEN: fen, Reason: fmt.Sprintf("rank %d has %d files", 8-row, col)}
		}
	}

	switch side := Color(fields[1][0]); side {
	case White, Black:
		pos.SideToMove = side
	default:
		return Position{}, &FormatError{FEN: fen, Reason: fmt.Sprintf("unknown side to move %q", fields[1])}
	}

	return pos, nil
}
