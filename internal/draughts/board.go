package draughts

import (
	"fmt"
	"strings"
)

// Size is the board edge length.
const Size = 8

// Side identifies a player colour.
type Side uint8

const (
	NoSide Side = iota
	White
	Black
)

func (s Side) Opponent() Side {
	switch s {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoSide
	}
}

func (s Side) String() string {
	switch s {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return ""
	}
}

// PromotionRow is the far row on which a man of this side becomes a king.
func (s Side) PromotionRow() int {
	if s == White {
		return 0
	}
	return Size - 1
}

// forward is the row delta of a man's simple move.
func (s Side) forward() int {
	if s == White {
		return -1
	}
	return 1
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	v, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSide accepts "white"/"w", "black"/"b" and the empty string.
func ParseSide(raw string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	case "":
		return NoSide, nil
	default:
		return NoSide, fmt.Errorf("unknown side %q", raw)
	}
}

type Rank uint8

const (
	Man Rank = iota
	King
)

func (r Rank) String() string {
	if r == King {
		return "king"
	}
	return "man"
}

// Piece is the content of a square. The zero value is an empty square.
type Piece struct {
	Side Side
	Rank Rank
}

func (p Piece) Empty() bool  { return p.Side == NoSide }
func (p Piece) IsKing() bool { return p.Side != NoSide && p.Rank == King }

// promoted returns the piece as it stands after landing on row.
func (p Piece) promoted(row int) Piece {
	if p.Rank == Man && p.Side != NoSide && row == p.Side.PromotionRow() {
		p.Rank = King
	}
	return p
}

// code is the single-rune encoding: w, b men; W, B kings; '.' empty.
func (p Piece) code() byte {
	switch {
	case p.Side == White && p.Rank == King:
		return 'W'
	case p.Side == White:
		return 'w'
	case p.Side == Black && p.Rank == King:
		return 'B'
	case p.Side == Black:
		return 'b'
	default:
		return '.'
	}
}

func pieceFromCode(c byte) (Piece, bool) {
	switch c {
	case 'w':
		return Piece{Side: White, Rank: Man}, true
	case 'W':
		return Piece{Side: White, Rank: King}, true
	case 'b':
		return Piece{Side: Black, Rank: Man}, true
	case 'B':
		return Piece{Side: Black, Rank: King}, true
	case '.', '-', '_':
		return Piece{}, true
	default:
		return Piece{}, false
	}
}

// Square addresses a cell; row 0 is Black's back row.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func Sq(row, col int) Square { return Square{Row: row, Col: col} }

func (s Square) String() string { return fmt.Sprintf("%d,%d", s.Row, s.Col) }

func (s Square) InBounds() bool { return InBounds(s.Row, s.Col) }

func (s Square) Playable() bool { return Playable(s.Row, s.Col) }

func (s Square) index() uint { return uint(s.Row*Size + s.Col) }

func (s Square) step(dr, dc, n int) Square {
	return Square{Row: s.Row + dr*n, Col: s.Col + dc*n}
}

// Algebraic returns the square in Russian draughts notation ("c3"), with
// a1 in White's bottom-left corner.
func (s Square) Algebraic() string {
	if !s.InBounds() {
		return ""
	}
	return string(rune('a'+s.Col)) + string(rune('1'+(Size-1-s.Row)))
}

// ParseAlgebraic is the inverse of Square.Algebraic.
func ParseAlgebraic(raw string) (Square, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if len(raw) != 2 || raw[0] < 'a' || raw[0] > 'h' || raw[1] < '1' || raw[1] > '8' {
		return Square{}, fmt.Errorf("bad square %q", raw)
	}
	return Square{Row: Size - 1 - int(raw[1]-'1'), Col: int(raw[0] - 'a')}, nil
}

func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// Playable reports whether a square is one of the dark squares play happens on.
func Playable(row, col int) bool {
	return InBounds(row, col) && (row+col)%2 == 1
}

// directions lists the four diagonals.
var directions = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

// Board is an 8x8 grid. It is a value type: assignment copies the position.
type Board struct {
	cells [Size][Size]Piece
}

// NewBoard returns the starting position.
func NewBoard() Board {
	var b Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if !Playable(r, c) {
				continue
			}
			switch {
			case r < 3:
				b.cells[r][c] = Piece{Side: Black, Rank: Man}
			case r > 4:
				b.cells[r][c] = Piece{Side: White, Rank: Man}
			}
		}
	}
	return b
}

func (b *Board) At(s Square) Piece { return b.cells[s.Row][s.Col] }

func (b *Board) Set(s Square, p Piece) { b.cells[s.Row][s.Col] = p }

func (b *Board) Clear(s Square) { b.cells[s.Row][s.Col] = Piece{} }

func (b *Board) Clone() Board { return *b }

// Count returns the number of pieces of side.
func (b *Board) Count(side Side) int {
	n := 0
	for r := range b.cells {
		for c := range b.cells[r] {
			if b.cells[r][c].Side == side {
				n++
			}
		}
	}
	return n
}

// Squares returns the occupied squares of side in row-major order.
func (b *Board) Squares(side Side) []Square {
	var out []Square
	for r := range b.cells {
		for c := range b.cells[r] {
			if b.cells[r][c].Side == side {
				out = append(out, Square{Row: r, Col: c})
			}
		}
	}
	return out
}

// String encodes the board as 64 runes, row-major.
func (b Board) String() string {
	var sb strings.Builder
	sb.Grow(Size * Size)
	for r := range b.cells {
		for c := range b.cells[r] {
			sb.WriteByte(b.cells[r][c].code())
		}
	}
	return sb.String()
}

// ParseBoard decodes the Board.String form. Whitespace and '/' row
// separators are ignored so test fixtures can be laid out as a grid.
func ParseBoard(raw string) (Board, error) {
	var b Board
	i := 0
	for j := 0; j < len(raw); j++ {
		ch := raw[j]
		if ch == ' ' || ch == '\n' || ch == '\t' || ch == '\r' || ch == '/' {
			continue
		}
		p, ok := pieceFromCode(ch)
		if !ok {
			return Board{}, fmt.Errorf("board: bad piece code %q at %d", ch, j)
		}
		if i >= Size*Size {
			return Board{}, fmt.Errorf("board: more than %d squares", Size*Size)
		}
		r, c := i/Size, i%Size
		if !p.Empty() && !Playable(r, c) {
			return Board{}, fmt.Errorf("board: piece on light square %d,%d", r, c)
		}
		b.cells[r][c] = p
		i++
	}
	if i != Size*Size {
		return Board{}, fmt.Errorf("board: got %d squares, want %d", i, Size*Size)
	}
	return b, nil
}

func (b Board) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Board) UnmarshalText(raw []byte) error {
	v, err := ParseBoard(string(raw))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
