package draughts

import "sort"

// MoveSet is the legal move set for one side on one position. Moves holds
// first steps only; later steps of a capture chain are resolved through
// PendingChain once the first jump has been played.
type MoveSet struct {
	Side        Side
	MustCapture bool
	Chained     bool
	MaxCaptures int
	Moves       map[Square][]Square

	// plans keeps the maximal capture sequences per origin.
	plans map[Square][]Sequence
}

// LegalMoves resolves the move set for side. When any capture exists only the
// chains of globally maximal length are legal.
func LegalMoves(b *Board, side Side) MoveSet {
	ms := MoveSet{Side: side, Moves: map[Square][]Square{}}

	all := map[Square][]Sequence{}
	for _, from := range b.Squares(side) {
		seqs := CaptureSequences(b, from)
		if len(seqs) == 0 {
			continue
		}
		all[from] = seqs
		for _, s := range seqs {
			if len(s) > ms.MaxCaptures {
				ms.MaxCaptures = len(s)
			}
		}
	}

	if ms.MaxCaptures > 0 {
		ms.MustCapture = true
		ms.plans = map[Square][]Sequence{}
		for from, seqs := range all {
			var keep []Sequence
			for _, s := range seqs {
				if len(s) == ms.MaxCaptures {
					keep = append(keep, s)
				}
			}
			if len(keep) == 0 {
				continue
			}
			ms.plans[from] = keep
			ms.Moves[from] = firstSteps(keep, 0)
		}
		return ms
	}

	for _, from := range b.Squares(side) {
		if tos := simpleMoves(b, from); len(tos) > 0 {
			ms.Moves[from] = tos
		}
	}
	return ms
}

func simpleMoves(b *Board, from Square) []Square {
	p := b.At(from)
	var out []Square
	if p.Rank == King {
		for _, d := range directions {
			for n := 1; ; n++ {
				to := from.step(d[0], d[1], n)
				if !to.InBounds() || !b.At(to).Empty() {
					break
				}
				out = append(out, to)
			}
		}
	} else {
		dr := p.Side.forward()
		for _, dc := range [2]int{-1, 1} {
			to := from.step(dr, dc, 1)
			if to.InBounds() && b.At(to).Empty() {
				out = append(out, to)
			}
		}
	}
	sortSquares(out)
	return out
}

// firstSteps returns the unique landings at index idx, sorted.
func firstSteps(seqs []Sequence, idx int) []Square {
	seen := map[Square]struct{}{}
	var out []Square
	for _, s := range seqs {
		if idx >= len(s) {
			continue
		}
		if _, ok := seen[s[idx]]; ok {
			continue
		}
		seen[s[idx]] = struct{}{}
		out = append(out, s[idx])
	}
	sortSquares(out)
	return out
}

func sortSquares(sqs []Square) {
	sort.Slice(sqs, func(i, j int) bool {
		if sqs[i].Row != sqs[j].Row {
			return sqs[i].Row < sqs[j].Row
		}
		return sqs[i].Col < sqs[j].Col
	})
}

// Empty reports whether the side has no legal move at all.
func (m MoveSet) Empty() bool { return len(m.Moves) == 0 }

// Allows reports whether from→to is one of the first steps in the set.
func (m MoveSet) Allows(from, to Square) bool {
	for _, sq := range m.Moves[from] {
		if sq == to {
			return true
		}
	}
	return false
}

// Origins returns the movable squares in row-major order.
func (m MoveSet) Origins() []Square {
	out := make([]Square, 0, len(m.Moves))
	for from := range m.Moves {
		out = append(out, from)
	}
	sortSquares(out)
	return out
}

// Sequences returns the retained maximal capture chains starting at from.
func (m MoveSet) Sequences(from Square) []Sequence {
	seqs := m.plans[from]
	out := make([]Sequence, len(seqs))
	for i, s := range seqs {
		out[i] = s.clone()
	}
	return out
}

// Count returns the number of (origin, first step) pairs.
func (m MoveSet) Count() int {
	n := 0
	for _, tos := range m.Moves {
		n += len(tos)
	}
	return n
}
