package wsapi

import (
	"context"

	"github.com/park285/dambrete/internal/obslog"
	"github.com/park285/dambrete/internal/results"
	"github.com/park285/dambrete/internal/room"
	"github.com/park285/dambrete/pkg/damdto"
	"go.uber.org/zap"
)

// onEvent fans a committed change out: the state to everyone in the room,
// the move hint to each seated player, the lobby list to everyone.
func (h *Hub) onEvent(ev room.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	if ev.Kind != room.EventRemoved && ev.Session != nil {
		s := ev.Session
		st := room.Snapshot(s)
		for _, identity := range s.Occupants() {
			h.sendTo(identity, EvState, st)
		}
		for _, seat := range []room.Seat{s.White, s.Black} {
			if seat.Empty() || seat.Bot {
				continue
			}
			h.sendTo(seat.Identity, EvYourMoves, hintFor(s, seat.Identity))
		}
		if s.Status == room.StatusFinished {
			over := h.overNotice(s)
			for _, identity := range s.Occupants() {
				h.sendTo(identity, EvOver, over)
			}
			h.broadcast(EvLeaderboard, h.leaderboard(ctx))
		}
	}
	h.broadcast(EvList, h.roomList(ctx))
}

func (h *Hub) pushRoom(c *client, s *room.Session) {
	c.push(EvState, room.Snapshot(s))
	c.push(EvYourMoves, hintFor(s, c.identity))
}

func hintFor(s *room.Session, identity string) *damdto.LegalMoves {
	if s.Status != room.StatusPlaying || s.SideOf(identity) != s.Game.Turn {
		return nil
	}
	ms := s.Game.LegalMoves()
	return room.Hint(&ms)
}

func (h *Hub) roomList(ctx context.Context) []damdto.RoomSummary {
	list, err := h.deps.Manager.List(ctx)
	if err != nil {
		obslog.L().Warn("ws_room_list_error", zap.Error(err))
		return []damdto.RoomSummary{}
	}
	out := make([]damdto.RoomSummary, 0, len(list))
	for _, s := range list {
		out = append(out, room.Summarize(s))
	}
	return out
}

func (h *Hub) leaderboard(ctx context.Context) []damdto.PlayerStats {
	out := []damdto.PlayerStats{}
	if h.deps.Results == nil {
		return out
	}
	top, err := h.deps.Results.Top(ctx, results.TopSize)
	if err != nil {
		obslog.L().Warn("ws_leaderboard_error", zap.Error(err))
		return out
	}
	for _, p := range top {
		out = append(out, damdto.PlayerStats{Name: p.Name, Wins: p.Wins, Losses: p.Losses, XP: p.XP, Rating: p.Rating})
	}
	return out
}

func (h *Hub) overNotice(s *room.Session) overBody {
	winner := s.Winner.String()
	name := h.deps.Catalog.SideName(winner)
	return overBody{
		ID:     s.ID,
		Winner: winner,
		Reason: string(s.Reason),
		Text:   h.deps.Catalog.Text("game.finished."+string(s.Reason), map[string]string{"Winner": name}, winner),
	}
}
