package board

import (
	"strings"
	"unicode"
)

// Empty marks an unoccupied cell.
const Empty byte = '-'

type Color byte

const (
	White Color = 'w'
	Black Color = 'b'
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Board is indexed [row][col]; row 0 is rank 8 and col 0 is file a,
// matching the order ranks appear in a FEN placement field.
type Board [8][8]byte

// Position is a value type: copying it copies the board, so a Position
// handed to Apply or kept by a caller can never be edited through another
// copy.
type Position struct {
	Board      Board
	SideToMove Color
	MoveNumber string
	FEN        string
}

type Square struct {
	Row int
	Col int
}

func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

// Name returns the square in coordinate form, e.g. "e4".
func (s Square) Name() string {
	return string([]byte{byte('a' + s.Col), byte('8' - s.Row)})
}

func (p Position) At(sq Square) byte {
	return p.Board[sq.Row][sq.Col]
}

// Placement re-serializes the piece placement field of the position.
func (p Position) Placement() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		run := 0
		for col := 0; col < 8; col++ {
			cell := p.Board[row][col]
			if cell == Empty {
				run++
				continue
			}
			if run > 0 {
				sb.WriteByte(byte('0' + run))
				run = 0
			}
			sb.WriteByte(cell)
		}
		if run > 0 {
			sb.WriteByte(byte('0' + run))
		}
	}
	return sb.String()
}

func (p Position) String() string {
	var sb strings.Builder
	sb.WriteString("Fen: " + p.FEN + "\n")
	sb.WriteString("Move: " + string(p.SideToMove) + "\n")
	sb.WriteString("MoveNumber: " + p.MoveNumber + "\n")
	for row := 0; row < 8; row++ {
		sb.Write(p.Board[row][:])
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FindKing returns the square of the given color's king.
func FindKing(p Position, c Color) (Square, bool) {
	king := byte('k')
	if c == White {
		king = 'K'
	}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p.Board[row][col] == king {
				return Square{Row: row, Col: col}, true
			}
		}
	}
	return Square{}, false
}

func isPieceLetter(c byte) bool {
	switch unicode.ToLower(rune(c)) {
	case 'p', 'n', 'b', 'r', 'q', 'k':
		return true
	}
	return false
}

func colorOf(piece byte) Color {
	if piece >= 'A' && piece <= 'Z' {
		return White
	}
	return Black
}

// kind returns the lowercase piece letter regardless of color.
func kind(piece byte) byte {
	return byte(unicode.ToLower(rune(piece)))
}

func withColor(letter byte, c Color) byte {
	if c == White {
		return byte(unicode.ToUpper(rune(letter)))
	}
	return byte(unicode.ToLower(rune(letter)))
}
