package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Piece outlines on a 45x45 canvas. %[1]s is the body fill, %[2]s the
// outline colour.
var pieceShapes = map[byte]string{
	'p': `<circle cx="22.5" cy="15" r="6" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 14 38 L 31 38 L 27 22 L 18 22 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	'r': `<path d="M 11 9 L 15 9 L 15 12 L 20 12 L 20 9 L 25 9 L 25 12 L 30 12 L 30 9 L 34 9 L 34 16 L 31 18 L 31 31 L 34 33 L 34 38 L 11 38 L 11 33 L 14 31 L 14 18 L 11 16 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	'n': `<path d="M 22 10 C 32 11 37 18 36 38 L 15 38 C 15 29 24 27 21 20 C 18 22 16 24 12 25 C 9 25 8 22 10 20 C 14 16 16 12 22 10 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<circle cx="17" cy="16" r="1.5" fill="%[2]s"/>`,
	'b': `<circle cx="22.5" cy="8" r="2.5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<ellipse cx="22.5" cy="21" rx="7" ry="10" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 12 38 L 33 38 L 30 31 L 15 31 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	'q': `<path d="M 9 13 L 15 28 L 15 12 L 20 27 L 22.5 11 L 25 27 L 30 12 L 30 28 L 36 13 L 32 33 L 13 33 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 12 38 L 33 38 L 32 33 L 13 33 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	'k': `<path d="M 22.5 5 L 22.5 14 M 18.5 9 L 26.5 9" fill="none" stroke="%[2]s" stroke-width="2"/>
<path d="M 12 34 C 8 26 12 18 22.5 17 C 33 18 37 26 33 34 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 12 38 L 33 38 L 33 34 L 12 34 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
}

func pieceSVG(piece byte) ([]byte, error) {
	lower := piece | 0x20
	shape, ok := pieceShapes[lower]
	if !ok {
		return nil, fmt.Errorf("no shape for piece %q", piece)
	}
	fill, stroke := "#fafafa", "#1e1e1e"
	if piece == lower {
		fill, stroke = "#1e1e1e", "#fafafa"
	}
	var b bytes.Buffer
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">`)
	fmt.Fprintf(&b, shape, fill, stroke)
	b.WriteString(`</svg>`)
	return b.Bytes(), nil
}

type pieceCacheKey struct {
	piece byte
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(piece byte, size int) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	data, err := pieceSVG(piece)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}
