package chess

import (
	"fmt"
	"strings"

	chesslib "github.com/corentings/chess/v2"
)

// ReferenceNotation encodes coord in SAN using a full move generator. Unlike
// board.ToAlgebraic it disambiguates and marks mate, but it rejects positions
// the generator considers illegal.
func ReferenceNotation(fen, coord string) (string, error) {
	option, err := chesslib.FEN(strings.TrimSpace(fen))
	if err != nil {
		return "", fmt.Errorf("parse fen %q: %w", fen, err)
	}
	game := chesslib.NewGame(option)
	pos := game.Position()
	mv, err := chesslib.UCINotation{}.Decode(pos, strings.ToLower(strings.TrimSpace(coord)))
	if err != nil {
		return "", fmt.Errorf("decode move %q: %w", coord, err)
	}
	return chesslib.AlgebraicNotation{}.Encode(pos, mv), nil
}
