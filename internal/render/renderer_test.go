package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/park285/dambrete/internal/draughts"
)

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func center(sq draughts.Square, flip bool) image.Point {
	r := squareRect(sq, image.Point{X: sideMargin, Y: topMargin}, flip)
	return image.Point{X: r.Min.X + squareSize/2, Y: r.Min.Y + squareSize/2}
}

func sameRGB(a color.Color, b color.RGBA) bool {
	r, g, bl, _ := a.RGBA()
	return uint8(r>>8) == b.R && uint8(g>>8) == b.G && uint8(bl>>8) == b.B
}

func TestRenderPNG_StartingPosition(t *testing.T) {
	board := draughts.NewBoard()
	data, err := NewBoardRenderer().RenderPNG(context.Background(), &board, Options{Header: "ROOM01", Turn: "white to move"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img := decode(t, data)
	w, h := Size()
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		t.Fatalf("size = %v, want %dx%d", img.Bounds(), w, h)
	}

	p := center(draughts.Sq(3, 3), false)
	if !sameRGB(img.At(p.X, p.Y), lightSquare) {
		t.Fatalf("light square colour = %v", img.At(p.X, p.Y))
	}
	p = center(draughts.Sq(3, 2), false)
	if !sameRGB(img.At(p.X, p.Y), darkSquare) {
		t.Fatalf("empty dark square colour = %v", img.At(p.X, p.Y))
	}
	p = center(draughts.Sq(5, 0), false)
	if sameRGB(img.At(p.X, p.Y), darkSquare) {
		t.Fatalf("white man not drawn")
	}
}

func TestRenderPNG_FlipAndOverlays(t *testing.T) {
	var board draughts.Board
	board.Set(draughts.Sq(0, 1), draughts.Piece{Side: draughts.Black, Rank: draughts.King})
	pending := draughts.Sq(0, 1)
	data, err := NewBoardRenderer().RenderPNG(context.Background(), &board, Options{
		Flip:      true,
		Pending:   &pending,
		Highlight: &Highlight{From: draughts.Sq(2, 3), To: draughts.Sq(0, 1)},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img := decode(t, data)

	// flipped, row 0 col 1 is drawn at the bottom right area
	p := center(draughts.Sq(0, 1), true)
	if p.Y < topMargin+boardSize-squareSize {
		t.Fatalf("flip did not move row 0 to the bottom: %v", p)
	}
	if sameRGB(img.At(p.X, p.Y), darkSquare) {
		t.Fatalf("king not drawn at flipped square")
	}
	from := center(draughts.Sq(2, 3), true)
	if sameRGB(img.At(from.X, from.Y), darkSquare) {
		t.Fatalf("highlight missing on from square")
	}
}

func TestRenderPNG_Errors(t *testing.T) {
	r := NewBoardRenderer()
	if _, err := r.RenderPNG(context.Background(), nil, Options{}); err == nil {
		t.Fatalf("nil board accepted")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	board := draughts.NewBoard()
	if _, err := r.RenderPNG(ctx, &board, Options{}); err == nil {
		t.Fatalf("cancelled context accepted")
	}
}

func TestRenderPieceImage_Cached(t *testing.T) {
	p := draughts.Piece{Side: draughts.White, Rank: draughts.King}
	a, err := renderPieceImage(p, 32)
	if err != nil {
		t.Fatalf("render piece: %v", err)
	}
	b, _ := renderPieceImage(p, 32)
	if a != b {
		t.Fatalf("piece image not cached")
	}
	if _, err := pieceSVG(draughts.Piece{}); err == nil {
		t.Fatalf("empty piece has a style")
	}
}
