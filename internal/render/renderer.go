package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	"github.com/park285/dambrete/internal/draughts"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	squareSize = 64
	boardSize  = squareSize * draughts.Size
	sideMargin = 28
	topMargin  = 56
	botMargin  = 28
	panelPadY  = 10
)

// Highlight marks the last step.
type Highlight struct {
	From draughts.Square
	To   draughts.Square
}

type Options struct {
	Highlight *Highlight
	// Pending is the square of a piece that must continue its capture chain.
	Pending *draughts.Square
	Header  string
	Turn    string
	// Flip draws the board from Black's side.
	Flip bool
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board *draughts.Board, opts Options) ([]byte, error)
}

type pngRenderer struct{}

func NewBoardRenderer() BoardRenderer { return &pngRenderer{} }

// Size returns the dimensions of every rendered image.
func Size() (int, int) {
	return boardSize + sideMargin*2, boardSize + topMargin + botMargin
}

var (
	lightSquare     = color.RGBA{233, 207, 163, 255}
	darkSquare      = color.RGBA{140, 94, 62, 255}
	backgroundColor = color.RGBA{22, 24, 34, 255}
	hudPanelColor   = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudTextPrimary  = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTextTurn     = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	moveFromColor   = color.NRGBA{R: 255, G: 228, B: 120, A: 110}
	moveToColor     = color.NRGBA{R: 255, G: 228, B: 120, A: 170}
	pendingColor    = color.NRGBA{R: 230, G: 70, B: 60, A: 220}
	coordinateColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

func (r *pngRenderer) RenderPNG(ctx context.Context, board *draughts.Board, opts Options) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	w, h := Size()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	origin := image.Point{X: sideMargin, Y: topMargin}
	drawHUD(img, opts)
	drawSquares(img, origin)
	if opts.Highlight != nil {
		drawSquareOverlay(img, opts.Highlight.From, origin, opts.Flip, moveFromColor)
		drawSquareOverlay(img, opts.Highlight.To, origin, opts.Flip, moveToColor)
	}
	if err := drawPieces(img, board, origin, opts.Flip); err != nil {
		return nil, err
	}
	if opts.Pending != nil {
		drawRing(img, *opts.Pending, origin, opts.Flip, pendingColor)
	}
	drawCoordinates(img, origin, opts.Flip)

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

// squareRect maps a board square to pixels; row 0 is drawn on top unless flipped.
func squareRect(sq draughts.Square, origin image.Point, flip bool) image.Rectangle {
	row, col := sq.Row, sq.Col
	if flip {
		row, col = draughts.Size-1-row, draughts.Size-1-col
	}
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func drawSquares(dst imagedraw.Image, origin image.Point) {
	for r := 0; r < draughts.Size; r++ {
		for c := 0; c < draughts.Size; c++ {
			clr := lightSquare
			if draughts.Playable(r, c) {
				clr = darkSquare
			}
			rect := squareRect(draughts.Sq(r, c), origin, false)
			imagedraw.Draw(dst, rect, image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, board *draughts.Board, origin image.Point, flip bool) error {
	for _, side := range []draughts.Side{draughts.White, draughts.Black} {
		for _, sq := range board.Squares(side) {
			img, err := renderPieceImage(board.At(sq), squareSize)
			if err != nil {
				return err
			}
			imagedraw.Draw(dst, squareRect(sq, origin, flip), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawSquareOverlay(img *image.RGBA, sq draughts.Square, origin image.Point, flip bool, clr color.Color) {
	if !sq.InBounds() {
		return
	}
	rect := squareRect(sq, origin, flip)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			blendPixel(img, x, y, clr)
		}
	}
}

// drawRing outlines a square with a 3px circle.
func drawRing(img *image.RGBA, sq draughts.Square, origin image.Point, flip bool, clr color.Color) {
	if !sq.InBounds() {
		return
	}
	rect := squareRect(sq, origin, flip)
	cx, cy := rect.Min.X+squareSize/2, rect.Min.Y+squareSize/2
	outer, inner := squareSize/2-1, squareSize/2-4
	for y := -outer; y <= outer; y++ {
		for x := -outer; x <= outer; x++ {
			d := x*x + y*y
			if d <= outer*outer && d >= inner*inner {
				blendPixel(img, cx+x, cy+y, clr)
			}
		}
	}
}

func drawHUD(img *image.RGBA, opts Options) {
	if opts.Header == "" && opts.Turn == "" {
		return
	}
	w, _ := Size()
	panel := image.Rect(sideMargin, panelPadY, w-sideMargin, topMargin-panelPadY)
	for y := panel.Min.Y; y < panel.Max.Y; y++ {
		for x := panel.Min.X; x < panel.Max.X; x++ {
			blendPixel(img, x, y, hudPanelColor)
		}
	}
	face := basicfont.Face7x13
	baseline := panel.Min.Y + (panel.Dy()+face.Metrics().Ascent.Ceil())/2
	drawer := &font.Drawer{Dst: img, Face: face, Src: image.NewUniform(hudTextPrimary)}
	maxWidth := panel.Dx() / 2
	drawer.Dot = fixed.P(panel.Min.X+12, baseline)
	drawer.DrawString(truncate(drawer, opts.Header, maxWidth))

	if opts.Turn != "" {
		drawer.Src = image.NewUniform(hudTextTurn)
		turn := truncate(drawer, opts.Turn, maxWidth-24)
		drawer.Dot = fixed.P(panel.Max.X-12-drawer.MeasureString(turn).Round(), baseline)
		drawer.DrawString(turn)
	}
}

func truncate(drawer *font.Drawer, text string, maxWidth int) string {
	if drawer.MeasureString(text).Round() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		s := string(runes) + "..."
		if drawer.MeasureString(s).Round() <= maxWidth {
			return s
		}
	}
	return ""
}

func drawCoordinates(img *image.RGBA, origin image.Point, flip bool) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face, Src: image.NewUniform(coordinateColor)}
	ascent := face.Metrics().Ascent.Ceil()
	for i := 0; i < draughts.Size; i++ {
		rank := draughts.Sq(i, 0).Algebraic()[1:]
		file := draughts.Sq(draughts.Size-1, i).Algebraic()[:1]
		rankRect := squareRect(draughts.Sq(i, 0), origin, flip)
		fileRect := squareRect(draughts.Sq(draughts.Size-1, i), origin, flip)
		drawCenteredText(drawer, rank, origin.X-sideMargin/2, rankRect.Min.Y+squareSize/2+ascent/2)
		drawCenteredText(drawer, file, fileRect.Min.X+squareSize/2, origin.Y+boardSize+ascent+4)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 65535 - sa
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((sr + uint32(dst.R)*0x101*inv/65535) >> 8),
		G: uint8((sg + uint32(dst.G)*0x101*inv/65535) >> 8),
		B: uint8((sb + uint32(dst.B)*0x101*inv/65535) >> 8),
		A: uint8((sa + uint32(dst.A)*0x101*inv/65535) >> 8),
	})
}
