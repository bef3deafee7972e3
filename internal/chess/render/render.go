// Package render draws a board.Position as a PNG, optionally marking one
// coordinate move with an arrow and a caption above the board.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/chess-humanmoves/internal/chess/board"
)

const (
	DefaultSquareSize = 64

	boardSquares  = 8
	sideMargin    = 28
	captionHeight = 36
	panelRadius   = 8
	bottomMargin  = 24
)

type Options struct {
	// Move is a coordinate move drawn as an arrow. Empty draws none.
	Move string
	// Caption is printed in a panel above the board, e.g. the move in SAN.
	Caption    string
	SquareSize int
}

type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// RenderPNG draws pos. The arrow for opts.Move is coloured by the side that
// owns the piece on its source square.
func (r *Renderer) RenderPNG(ctx context.Context, pos board.Position, opts Options) ([]byte, error) {
	squareSize := opts.SquareSize
	if squareSize <= 0 {
		squareSize = DefaultSquareSize
	}

	var move *board.Move
	if strings.TrimSpace(opts.Move) != "" {
		m, err := board.ParseMove(opts.Move)
		if err != nil {
			return nil, err
		}
		move = &m
	}

	boardSize := squareSize * boardSquares
	topMargin := sideMargin
	if opts.Caption != "" {
		topMargin += captionHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)
	origin := image.Point{X: sideMargin, Y: topMargin}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	drawCaption(img, opts.Caption, image.Rect(origin.X, 6, origin.X+boardSize, 6+captionHeight-10))
	drawSquares(img, squareSize, origin)
	if move != nil {
		drawSquareOverlay(img, move.From, squareSize, origin, moveSquareFill)
		drawSquareOverlay(img, move.To, squareSize, origin, moveSquareFill)
	}
	if err := drawPieces(img, pos, squareSize, origin); err != nil {
		return nil, err
	}
	if move != nil {
		clr := whiteArrow
		if p := pos.At(move.From); p != board.Empty && p >= 'a' {
			clr = blackArrow
		}
		drawArrow(img, move.From, move.To, squareSize, origin, clr)
	}
	drawCoordinates(img, squareSize, origin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	backgroundColor     = color.RGBA{R: 40, G: 44, B: 58, A: 255}
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	moveSquareFill      = color.NRGBA{R: 255, G: 228, B: 120, A: 120}
	whiteArrow          = color.NRGBA{R: 255, G: 196, B: 64, A: 180}
	blackArrow          = color.NRGBA{R: 148, G: 207, B: 255, A: 180}
	captionPanelColor   = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	captionTextColor    = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point) {
	for row := 0; row < boardSquares; row++ {
		for col := 0; col < boardSquares; col++ {
			rect := squareRect(board.Square{Row: row, Col: col}, squareSize, origin)
			clr := lightSquare
			if (row+col)%2 == 1 {
				clr = darkSquare
			}
			imagedraw.Draw(dst, rect, image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, pos board.Position, squareSize int, origin image.Point) error {
	for row := 0; row < boardSquares; row++ {
		for col := 0; col < boardSquares; col++ {
			piece := pos.Board[row][col]
			if piece == board.Empty {
				continue
			}
			img, err := renderPieceImage(piece, squareSize)
			if err != nil {
				return err
			}
			rect := squareRect(board.Square{Row: row, Col: col}, squareSize, origin)
			imagedraw.Draw(dst, rect, img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawCaption(img *image.RGBA, caption string, rect image.Rectangle) {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return
	}
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face}
	drawRoundedPanel(img, rect, panelRadius, captionPanelColor)
	drawCenteredString(drawer, rect, truncateWithEllipsis(face, caption, rect.Dx()-16), captionTextColor)
}

func drawCoordinates(dst imagedraw.Image, squareSize int, origin image.Point) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateTextColor)}
	ascent := face.Metrics().Ascent.Ceil()
	boardEnd := origin.Y + boardSquares*squareSize

	for i := 0; i < boardSquares; i++ {
		rank := string(rune('8' - i))
		drawCenteredText(drawer, rank, origin.X-sideMargin/2, origin.Y+i*squareSize+squareSize/2+ascent/2)
		file := string(rune('a' + i))
		drawCenteredText(drawer, file, origin.X+i*squareSize+squareSize/2, boardEnd+ascent+4)
	}
}

func drawSquareOverlay(img *image.RGBA, sq board.Square, squareSize int, origin image.Point, clr color.Color) {
	imagedraw.Draw(img, squareRect(sq, squareSize, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func squareRect(sq board.Square, squareSize int, origin image.Point) image.Rectangle {
	x := origin.X + sq.Col*squareSize
	y := origin.Y + sq.Row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func drawArrow(img *image.RGBA, from, to board.Square, squareSize int, origin image.Point, clr color.Color) {
	if from == to {
		return
	}
	startRect := squareRect(from, squareSize, origin)
	endRect := squareRect(to, squareSize, origin)
	sx := float64(startRect.Min.X + squareSize/2)
	sy := float64(startRect.Min.Y + squareSize/2)
	ex := float64(endRect.Min.X + squareSize/2)
	ey := float64(endRect.Min.Y + squareSize/2)

	dx, dy := ex-sx, ey-sy
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	baseLength := length - float64(squareSize)*0.45
	if baseLength < float64(squareSize)*0.35 {
		baseLength = length * 0.6
	}
	halfWidth := float64(squareSize) * 0.12
	headWidth := float64(squareSize) * 0.42

	baseX := sx + dirX*baseLength
	baseY := sy + dirY*baseLength

	fillQuad(img,
		pointF{sx - perpX*halfWidth, sy - perpY*halfWidth},
		pointF{sx + perpX*halfWidth, sy + perpY*halfWidth},
		pointF{baseX + perpX*halfWidth, baseY + perpY*halfWidth},
		pointF{baseX - perpX*halfWidth, baseY - perpY*halfWidth},
		clr)
	fillTriangleF(img,
		pointF{ex, ey},
		pointF{baseX - perpX*headWidth/2, baseY - perpY*headWidth/2},
		pointF{baseX + perpX*headWidth/2, baseY + perpY*headWidth/2},
		clr)
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}
