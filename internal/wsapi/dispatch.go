package wsapi

import (
	"context"
	"encoding/json"

	"github.com/park285/dambrete/internal/draughts"
	"github.com/park285/dambrete/internal/obslog"
	"github.com/park285/dambrete/internal/results"
	"github.com/park285/dambrete/internal/room"
	"github.com/park285/dambrete/pkg/damdto"
	"go.uber.org/zap"
)

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return room.ErrInvalidArgs
	}
	return nil
}

func (h *Hub) dispatch(ctx context.Context, c *client, env Envelope) {
	m := h.deps.Manager
	switch env.Type {
	case CmdLobbyHello:
		c.push(EvMe, h.profile(ctx, c.identity))
		c.push(EvList, h.roomList(ctx))
		c.push(EvOnline, h.Online())

	case CmdCreate:
		s, err := m.Create(ctx, c.identity)
		if err != nil {
			h.reject(c, "", err)
			return
		}
		c.push(EvCreated, roomRef{ID: s.ID})
		c.push(EvJoined, joined{ID: s.ID, Role: string(room.RoleWhite)})
		h.pushRoom(c, s)

	case CmdJoin:
		var p roomRef
		if err := decode(env.Payload, &p); err != nil {
			h.reject(c, "", err)
			return
		}
		res, err := m.Join(ctx, p.ID, c.identity)
		if err != nil {
			h.reject(c, p.ID, err)
			return
		}
		c.push(EvJoined, joined{ID: res.Session.ID, Role: string(res.Role)})
		h.pushRoom(c, res.Session)

	case CmdLeave:
		var p roomRef
		if err := decode(env.Payload, &p); err != nil {
			h.reject(c, "", err)
			return
		}
		if _, err := m.Leave(ctx, p.ID, c.identity); err != nil {
			h.reject(c, p.ID, err)
			return
		}
		c.push(EvLeft, roomRef{ID: room.NormalizeID(p.ID)})

	case CmdBot:
		var p botCmd
		if err := decode(env.Payload, &p); err != nil {
			h.reject(c, "", err)
			return
		}
		side, err := draughts.ParseSide(p.Side)
		if err != nil || h.deps.Bot == nil {
			h.reject(c, "", room.ErrInvalidArgs)
			return
		}
		if side == draughts.NoSide {
			side = draughts.White
		}
		s, err := h.deps.Bot.Start(ctx, c.identity, side)
		if err != nil {
			h.reject(c, "", err)
			return
		}
		c.push(EvCreated, roomRef{ID: s.ID})
		c.push(EvJoined, joined{ID: s.ID, Role: side.String()})
		h.pushRoom(c, s)

	case CmdMove:
		var p moveCmd
		if err := decode(env.Payload, &p); err != nil {
			h.reject(c, "", err)
			return
		}
		from := draughts.Sq(p.From[0], p.From[1])
		to := draughts.Sq(p.To[0], p.To[1])
		if _, err := m.SubmitMove(ctx, p.ID, c.identity, from, to); err != nil {
			h.reject(c, p.ID, err)
			// resend the hint so the client can recover its selection
			if s, lerr := m.Session(ctx, p.ID); lerr == nil {
				h.pushRoom(c, s)
			}
		}

	case CmdResign:
		var p roomRef
		if err := decode(env.Payload, &p); err != nil {
			h.reject(c, "", err)
			return
		}
		if _, err := m.Resign(ctx, p.ID, c.identity); err != nil {
			h.reject(c, p.ID, err)
		}

	case CmdRematch:
		var p roomRef
		if err := decode(env.Payload, &p); err != nil {
			h.reject(c, "", err)
			return
		}
		if _, err := m.Rematch(ctx, p.ID, c.identity); err != nil {
			h.reject(c, p.ID, err)
		}

	default:
		obslog.L().Debug("ws_unknown_command", zap.String("conn_id", c.id), zap.String("type", env.Type))
		h.reject(c, "", room.ErrInvalidArgs)
	}
}

// reject sends room:error with a localized message.
func (h *Hub) reject(c *client, id string, err error) {
	de := room.AsDomainError(err)
	var data any
	if de.Code == damdto.CodeMustContinueChain && id != "" {
		if s, lerr := h.deps.Manager.Session(context.Background(), id); lerr == nil && s.Game.Pending != nil {
			data = map[string]string{"Square": s.Game.Pending.Current.Algebraic()}
		}
	}
	msg := de.Message
	if h.deps.Catalog != nil {
		msg = h.deps.Catalog.ErrorText(de.Code, data)
	}
	if de.Code == damdto.CodeInternal {
		obslog.L().Error("ws_command_error", zap.String("conn_id", c.id), zap.String("room_id", id), zap.Error(err))
	}
	c.push(EvError, errorBody{ID: room.NormalizeID(id), Code: de.Code, Message: msg, Retryable: de.Retryable})
}

func (h *Hub) profile(ctx context.Context, identity string) damdto.PlayerStats {
	out := damdto.PlayerStats{Name: identity, Rating: results.BaseRating}
	if h.deps.Results == nil {
		return out
	}
	p, err := h.deps.Results.Stats(ctx, identity)
	if err != nil {
		return out
	}
	return damdto.PlayerStats{Name: p.Name, Wins: p.Wins, Losses: p.Losses, XP: p.XP, Rating: p.Rating}
}
