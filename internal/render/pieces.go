package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/park285/dambrete/internal/draughts"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const manSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
<circle cx="50" cy="55" r="38" fill="#000000" fill-opacity="0.35"/>
<circle cx="50" cy="50" r="38" fill="{fill}" stroke="{edge}" stroke-width="3"/>
<circle cx="50" cy="50" r="27" fill="none" stroke="{edge}" stroke-width="2"/>
<circle cx="50" cy="50" r="17" fill="none" stroke="{edge}" stroke-width="1.5"/>
</svg>`

const kingSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
<circle cx="50" cy="55" r="38" fill="#000000" fill-opacity="0.35"/>
<circle cx="50" cy="50" r="38" fill="{fill}" stroke="{edge}" stroke-width="3"/>
<circle cx="50" cy="50" r="27" fill="none" stroke="{edge}" stroke-width="2"/>
<path d="M30 60 L30 38 L40 48 L50 32 L60 48 L70 38 L70 60 Z" fill="{crown}" stroke="{edge}" stroke-width="2"/>
</svg>`

type pieceStyle struct {
	fill, edge, crown string
}

var pieceStyles = map[draughts.Side]pieceStyle{
	draughts.White: {fill: "#f4ecd8", edge: "#6b5b45", crown: "#d4a017"},
	draughts.Black: {fill: "#2b2b2e", edge: "#0d0d0f", crown: "#e0b84a"},
}

type pieceCacheKey struct {
	piece draughts.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func pieceSVG(p draughts.Piece) (string, error) {
	style, ok := pieceStyles[p.Side]
	if !ok {
		return "", fmt.Errorf("no style for side %v", p.Side)
	}
	src := manSVG
	if p.IsKing() {
		src = kingSVG
	}
	r := strings.NewReplacer("{fill}", style.fill, "{edge}", style.edge, "{crown}", style.crown)
	return r.Replace(src), nil
}

// renderPieceImage rasterizes one piece at size x size, cached per piece.
func renderPieceImage(p draughts.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: p, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	src, err := pieceSVG(p)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src))
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
