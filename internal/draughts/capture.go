package draughts

// Sequence is the ordered list of landing squares of one capture chain.
type Sequence []Square

func (s Sequence) clone() Sequence { return append(Sequence(nil), s...) }

// squareSet is a bit set keyed by Square.index.
type squareSet uint64

func (s squareSet) has(sq Square) bool {
	return s&(1<<sq.index()) != 0
}

func (s squareSet) with(sq Square) squareSet {
	return s | 1<<sq.index()
}

// CaptureSequences returns every maximal capture chain for the piece on from.
// An empty square or a piece with no capture yields nil.
func CaptureSequences(b *Board, from Square) []Sequence {
	if !from.InBounds() {
		return nil
	}
	p := b.At(from)
	if p.Empty() {
		return nil
	}
	return captureSequences(*b, from, p, 0)
}

// captureSequences explores jumps from sq on its own copy of the board. The
// captured set prevents a square from being jumped twice within one chain.
func captureSequences(b Board, sq Square, p Piece, captured squareSet) []Sequence {
	var out []Sequence
	for _, d := range directions {
		if p.Rank == King {
			out = append(out, kingJumps(b, sq, p, captured, d[0], d[1])...)
		} else {
			out = append(out, manJumps(b, sq, p, captured, d[0], d[1])...)
		}
	}
	return out
}

func manJumps(b Board, sq Square, p Piece, captured squareSet, dr, dc int) []Sequence {
	mid := sq.step(dr, dc, 1)
	land := sq.step(dr, dc, 2)
	if !land.InBounds() {
		return nil
	}
	victim := b.At(mid)
	if victim.Side != p.Side.Opponent() || captured.has(mid) {
		return nil
	}
	if !b.At(land).Empty() {
		return nil
	}
	return jump(b, sq, mid, land, p, captured)
}

func kingJumps(b Board, sq Square, p Piece, captured squareSet, dr, dc int) []Sequence {
	var (
		out    []Sequence
		victim Square
		found  bool
	)
	for n := 1; ; n++ {
		cur := sq.step(dr, dc, n)
		if !cur.InBounds() {
			break
		}
		cell := b.At(cur)
		if cell.Empty() {
			if found {
				out = append(out, jump(b, sq, victim, cur, p, captured)...)
			}
			continue
		}
		// two pieces on the ray, an own piece, or an already jumped square end it
		if found || cell.Side == p.Side || captured.has(cur) {
			break
		}
		victim, found = cur, true
	}
	return out
}

// jump simulates a single capture on a copy of b and recurses from land.
func jump(b Board, from, victim, land Square, p Piece, captured squareSet) []Sequence {
	b.Clear(from)
	b.Clear(victim)
	np := p.promoted(land.Row)
	b.Set(land, np)

	tails := captureSequences(b, land, np, captured.with(victim))
	if len(tails) == 0 {
		return []Sequence{{land}}
	}
	out := make([]Sequence, 0, len(tails))
	for _, t := range tails {
		seq := make(Sequence, 0, len(t)+1)
		seq = append(seq, land)
		out = append(out, append(seq, t...))
	}
	return out
}

// capturedBetween returns the single piece square strictly between from and
// to on a diagonal. ok is false when more than one piece stands in between.
func capturedBetween(b *Board, from, to Square) (sq Square, found, ok bool) {
	if abs(to.Row-from.Row) != abs(to.Col-from.Col) || from == to {
		return Square{}, false, false
	}
	dr, dc := sign(to.Row-from.Row), sign(to.Col-from.Col)
	for cur := from.step(dr, dc, 1); cur != to; cur = cur.step(dr, dc, 1) {
		if b.At(cur).Empty() {
			continue
		}
		if found {
			return Square{}, false, false
		}
		sq, found = cur, true
	}
	return sq, found, true
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
