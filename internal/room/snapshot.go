package room

import (
	"github.com/park285/dambrete/internal/draughts"
	"github.com/park285/dambrete/pkg/damdto"
)

func pair(sq draughts.Square) [2]int { return [2]int{sq.Row, sq.Col} }

// Snapshot converts a session for the wire.
func Snapshot(s *Session) damdto.SessionState {
	st := damdto.SessionState{
		ID:         s.ID,
		Turn:       s.Game.Turn.String(),
		Status:     string(s.Status),
		Winner:     s.Winner.String(),
		Reason:     string(s.Reason),
		White:      damdto.Seat{Identity: s.White.Identity, Bot: s.White.Bot},
		Black:      damdto.Seat{Identity: s.Black.Identity, Bot: s.Black.Bot},
		Spectators: append([]string{}, s.Spectators...),
		MoveCount:  len(s.History),
		Games:      s.Games,
		UpdatedAt:  s.UpdatedAt,
	}
	for r := 0; r < draughts.Size; r++ {
		for c := 0; c < draughts.Size; c++ {
			p := s.Game.Board.At(draughts.Sq(r, c))
			if p.Empty() {
				continue
			}
			st.Board[r][c] = &damdto.Piece{Side: p.Side.String(), King: p.IsKing()}
		}
	}
	if lm := s.LastMove; lm != nil {
		st.LastMove = &damdto.LastMove{From: pair(lm.From), To: pair(lm.To), Capture: lm.Capture, By: lm.Side.String()}
	}
	if p := s.Game.Pending; p != nil {
		cur := pair(p.Current)
		st.Pending = &cur
	}
	return st
}

// Hint converts a move set for the wire; nil stays nil.
func Hint(ms *draughts.MoveSet) *damdto.LegalMoves {
	if ms == nil {
		return nil
	}
	h := &damdto.LegalMoves{
		Side:        ms.Side.String(),
		MustCapture: ms.MustCapture,
		Selectable:  [][2]int{},
		Moves:       map[string][][2]int{},
	}
	for _, from := range ms.Origins() {
		h.Selectable = append(h.Selectable, pair(from))
		tos := make([][2]int, 0, len(ms.Moves[from]))
		for _, to := range ms.Moves[from] {
			tos = append(tos, pair(to))
		}
		h.Moves[from.String()] = tos
		if ms.Chained {
			cur := pair(from)
			h.Pending = &cur
		}
	}
	return h
}

// Summarize builds the lobby list entry.
func Summarize(s *Session) damdto.RoomSummary {
	return damdto.RoomSummary{
		ID:         s.ID,
		White:      s.White.Identity,
		Black:      s.Black.Identity,
		Spectators: len(s.Spectators),
		Status:     string(s.Status),
		Bot:        s.HasBot(),
	}
}
