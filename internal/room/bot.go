package room

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/park285/dambrete/internal/draughts"
	"github.com/park285/dambrete/internal/obslog"
	"go.uber.org/zap"
)

// BotIdentity is the seat identity of the built-in opponent.
const BotIdentity = "@bot"

// Picker chooses one step from a non-empty move set.
type Picker func(ms draughts.MoveSet) (from, to draughts.Square, ok bool)

// RandomPicker picks uniformly among all (origin, destination) pairs.
func RandomPicker(seed int64) Picker {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))
	return func(ms draughts.MoveSet) (draughts.Square, draughts.Square, bool) {
		n := ms.Count()
		if n == 0 {
			return draughts.Square{}, draughts.Square{}, false
		}
		mu.Lock()
		k := rng.Intn(n)
		mu.Unlock()
		for _, from := range ms.Origins() {
			tos := ms.Moves[from]
			if k < len(tos) {
				return from, tos[k], true
			}
			k -= len(tos)
		}
		return draughts.Square{}, draughts.Square{}, false
	}
}

// BotOpponent plays the bot seat through Manager.SubmitMove, the same path a
// human move takes.
type BotOpponent struct {
	m    *Manager
	pick Picker
	busy sync.Map
}

func NewBotOpponent(m *Manager, pick Picker) *BotOpponent {
	if pick == nil {
		pick = RandomPicker(time.Now().UnixNano())
	}
	return &BotOpponent{m: m, pick: pick}
}

// Attach makes the bot answer every committed change that leaves it on move.
func (b *BotOpponent) Attach() {
	b.m.Subscribe(func(ev Event) {
		if ev.Kind == EventRemoved || ev.Session == nil || !botOnMove(ev.Session) {
			return
		}
		if _, err := b.Play(context.Background(), ev.ID); err != nil {
			obslog.L().Warn("bot_play_error", zap.String("room_id", ev.ID), zap.Error(err))
		}
	})
}

// Start opens a running game between identity and the bot. The human takes
// side; the bot moves at once when it has White.
func (b *BotOpponent) Start(ctx context.Context, identity string, side draughts.Side) (*Session, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" || identity == BotIdentity {
		return nil, ErrInvalidArgs
	}
	human, bot := Seat{Identity: identity}, Seat{Identity: BotIdentity, Bot: true}
	white, black := human, bot
	if side == draughts.Black {
		white, black = bot, human
	}
	s, err := b.m.create(ctx, white, black)
	if err != nil {
		return nil, err
	}
	if botOnMove(s) {
		if _, err := b.Play(ctx, s.ID); err != nil {
			return nil, err
		}
		return b.m.Session(ctx, s.ID)
	}
	return s, nil
}

// Play moves for the bot until a human is on move or the game ends. It
// returns the number of steps played. Concurrent calls for one room collapse
// into the first.
func (b *BotOpponent) Play(ctx context.Context, id string) (int, error) {
	id = NormalizeID(id)
	if _, busy := b.busy.LoadOrStore(id, struct{}{}); busy {
		return 0, nil
	}
	defer b.busy.Delete(id)

	played := 0
	for played < 128 {
		s, err := b.m.Session(ctx, id)
		if err != nil {
			return played, err
		}
		if !botOnMove(s) {
			return played, nil
		}
		from, to, ok := b.pick(s.Game.LegalMoves())
		if !ok {
			return played, nil
		}
		if _, err := b.m.SubmitMove(ctx, id, s.Seat(s.Game.Turn).Identity, from, to); err != nil {
			return played, err
		}
		played++
	}
	return played, nil
}

func botOnMove(s *Session) bool {
	if s.Status != StatusPlaying {
		return false
	}
	seat := s.Seat(s.Game.Turn)
	return seat != nil && seat.Bot
}
