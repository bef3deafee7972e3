package board

type ray struct {
	dRow, dCol int
	diagonal   bool
}

var rays = [8]ray{
	{-1, -1, true}, {-1, 0, false}, {-1, 1, true},
	{0, -1, false}, {0, 1, false},
	{1, -1, true}, {1, 0, false}, {1, 1, true},
}

var knightOffsets = [8][2]int{
	{1, 2}, {1, -2}, {-1, 2}, {-1, -2},
	{2, -1}, {2, 1}, {-2, 1}, {-2, -1},
}

// IsSquareThreatened reports whether the side that just moved (the opposite
// of p.SideToMove) attacks the square at row, col. It is an attack test only:
// pins and the legality of the attacking move are ignored.
func IsSquareThreatened(p Position, row, col int) bool {
	attacker := p.SideToMove.Opposite()

	for _, r := range rays {
		sq := Square{Row: row, Col: col}
		for step := 0; ; step++ {
			sq = Square{Row: sq.Row + r.dRow, Col: sq.Col + r.dCol}
			if !sq.InBounds() {
				break
			}
			piece := p.At(sq)
			if piece == Empty {
				continue
			}
			if colorOf(piece) == attacker && threatensAlong(piece, r, step == 0) {
				return true
			}
			break
		}
	}

	for _, off := range knightOffsets {
		sq := Square{Row: row + off[0], Col: col + off[1]}
		if !sq.InBounds() {
			continue
		}
		piece := p.At(sq)
		if piece != Empty && colorOf(piece) == attacker && kind(piece) == 'n' {
			return true
		}
	}
	return false
}

// threatensAlong reports whether piece, found on ray r looking outward from
// the target, can capture back along that ray.
func threatensAlong(piece byte, r ray, adjacent bool) bool {
	switch kind(piece) {
	case 'q':
		return true
	case 'r':
		return !r.diagonal
	case 'b':
		return r.diagonal
	case 'k':
		return adjacent
	case 'p':
		if !adjacent || !r.diagonal {
			return false
		}
		// White pawns capture toward row 0, so they sit on a higher row than
		// the square they attack; black pawns the reverse.
		if colorOf(piece) == White {
			return r.dRow == 1
		}
		return r.dRow == -1
	}
	return false
}
