package draughts

import "fmt"

// PendingChain binds the side to move to one piece between the first and the
// last jump of a multi-capture.
type PendingChain struct {
	Side      Side       `json:"side"`
	Origin    Square     `json:"origin"`
	Current   Square     `json:"current"`
	Steps     int        `json:"steps"`
	Remaining []Sequence `json:"remaining"`
}

func (p *PendingChain) Clone() *PendingChain {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Remaining = make([]Sequence, len(p.Remaining))
	for i, s := range p.Remaining {
		cp.Remaining[i] = s.clone()
	}
	return &cp
}

// continues reports whether some remaining sequence has another landing.
func (p *PendingChain) continues() bool {
	for _, s := range p.Remaining {
		if len(s) > p.Steps {
			return true
		}
	}
	return false
}

func (p *PendingChain) advance(to Square) {
	var keep []Sequence
	for _, s := range p.Remaining {
		if len(s) > p.Steps && s[p.Steps] == to {
			keep = append(keep, s)
		}
	}
	p.Remaining = keep
	p.Current = to
	p.Steps++
}

// Game is a position plus the turn state needed to apply moves one jump at a
// time.
type Game struct {
	Board   Board         `json:"board"`
	Turn    Side          `json:"turn"`
	Pending *PendingChain `json:"pending,omitempty"`
}

// NewGame returns the starting position with White to move.
func NewGame() Game {
	return Game{Board: NewBoard(), Turn: White}
}

func (g *Game) Clone() Game {
	return Game{Board: g.Board, Turn: g.Turn, Pending: g.Pending.Clone()}
}

// LegalMoves returns the move set for the side to move, narrowed to the bound
// piece while a capture chain is pending.
func (g *Game) LegalMoves() MoveSet {
	p := g.Pending
	if p == nil || p.Side != g.Turn {
		return LegalMoves(&g.Board, g.Turn)
	}
	ms := MoveSet{
		Side:        p.Side,
		MustCapture: true,
		Chained:     true,
		Moves:       map[Square][]Square{},
	}
	for _, s := range p.Remaining {
		if n := len(s) - p.Steps; n > ms.MaxCaptures {
			ms.MaxCaptures = n
		}
	}
	if tos := firstSteps(p.Remaining, p.Steps); len(tos) > 0 {
		ms.Moves[p.Current] = tos
	}
	return ms
}

// Outcome describes one accepted jump or step.
type Outcome struct {
	Side           Side
	From           Square
	To             Square
	Capture        bool
	Captured       Square
	Promoted       bool
	ChainContinues bool
	GameOver       bool
	Winner         Side
}

// Apply validates from→to for the side to move and plays it. A rejected move
// leaves the game untouched.
func (g *Game) Apply(from, to Square) (Outcome, error) {
	if !from.Playable() || !to.Playable() {
		return Outcome{}, fmt.Errorf("%w: %s -> %s", ErrOutOfBounds, from, to)
	}
	if p := g.Pending; p != nil && p.Side == g.Turn && from != p.Current {
		return Outcome{}, fmt.Errorf("%w: continue from %s", ErrMustContinueChain, p.Current)
	}
	piece := g.Board.At(from)
	if piece.Side != g.Turn {
		return Outcome{}, fmt.Errorf("%w: no %s piece on %s", ErrIllegalMove, g.Turn, from)
	}
	if dr, dc := to.Row-from.Row, to.Col-from.Col; dr == 0 || abs(dr) != abs(dc) {
		return Outcome{}, fmt.Errorf("%w: %s -> %s is not diagonal", ErrIllegalMove, from, to)
	}
	if !g.Board.At(to).Empty() {
		return Outcome{}, fmt.Errorf("%w: %s is occupied", ErrIllegalMove, to)
	}
	ms := g.LegalMoves()
	if !ms.Allows(from, to) {
		return Outcome{}, fmt.Errorf("%w: %s -> %s not allowed", ErrIllegalMove, from, to)
	}
	victim, found, ok := capturedBetween(&g.Board, from, to)
	switch {
	case !ok:
		return Outcome{}, fmt.Errorf("%w: more than one piece between %s and %s", ErrIllegalMove, from, to)
	case found && g.Board.At(victim).Side != piece.Side.Opponent():
		return Outcome{}, fmt.Errorf("%w: %s holds no opposing piece", ErrIllegalMove, victim)
	case found != ms.MustCapture:
		return Outcome{}, fmt.Errorf("%w: capture mismatch on %s -> %s", ErrIllegalMove, from, to)
	}

	landed := piece.promoted(to.Row)
	g.Board.Clear(from)
	if found {
		g.Board.Clear(victim)
	}
	g.Board.Set(to, landed)

	out := Outcome{
		Side:     piece.Side,
		From:     from,
		To:       to,
		Capture:  found,
		Captured: victim,
		Promoted: landed.Rank != piece.Rank,
	}

	if found {
		if g.Pending == nil {
			g.Pending = &PendingChain{Side: piece.Side, Origin: from, Current: from, Remaining: ms.Sequences(from)}
		}
		g.Pending.advance(to)
		if g.Pending.continues() {
			out.ChainContinues = true
			return out, nil
		}
		g.Pending = nil
	}

	g.Turn = g.Turn.Opponent()
	if g.LegalMoves().Empty() {
		out.GameOver = true
		out.Winner = piece.Side
	}
	return out, nil
}
