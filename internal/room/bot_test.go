package room

import (
	"context"
	"testing"

	"github.com/park285/dambrete/internal/draughts"
)

func firstPicker(ms draughts.MoveSet) (draughts.Square, draughts.Square, bool) {
	origins := ms.Origins()
	if len(origins) == 0 {
		return draughts.Square{}, draughts.Square{}, false
	}
	return origins[0], ms.Moves[origins[0]][0], true
}

func TestBotAnswersHumanMove(t *testing.T) {
	eachStore(t, func(t *testing.T, st Store) {
		m := newTestManager(st, Options{})
		bot := NewBotOpponent(m, firstPicker)
		bot.Attach()
		ctx := context.Background()

		s, err := bot.Start(ctx, "human", draughts.White)
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		if s.Status != StatusPlaying || !s.Black.Bot || s.Black.Identity != BotIdentity {
			t.Fatalf("bot game: %+v", s)
		}
		if _, err := m.SubmitMove(ctx, s.ID, "human", draughts.Sq(5, 0), draughts.Sq(4, 1)); err != nil {
			t.Fatalf("human move: %v", err)
		}
		cur, err := m.Session(ctx, s.ID)
		if err != nil {
			t.Fatalf("Session: %v", err)
		}
		if cur.Game.Turn != draughts.White || len(cur.History) != 2 {
			t.Fatalf("bot did not reply: turn=%v history=%d", cur.Game.Turn, len(cur.History))
		}
		if got := cur.History[1]; got.Side != draughts.Black || got.From != draughts.Sq(2, 1) {
			t.Fatalf("bot move=%+v", got)
		}
	})
}

func TestBotOpensWhenWhite(t *testing.T) {
	m := newTestManager(NewMemoryStore(), Options{})
	bot := NewBotOpponent(m, firstPicker)
	s, err := bot.Start(context.Background(), "human", draughts.Black)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Game.Turn != draughts.Black || len(s.History) != 1 || !s.White.Bot {
		t.Fatalf("bot must open: turn=%v history=%d", s.Game.Turn, len(s.History))
	}
	n, err := bot.Play(context.Background(), s.ID)
	if err != nil || n != 0 {
		t.Fatalf("Play on human turn: %d %v", n, err)
	}
}

func TestBotStartRejectsBotIdentity(t *testing.T) {
	m := newTestManager(NewMemoryStore(), Options{})
	bot := NewBotOpponent(m, nil)
	if _, err := bot.Start(context.Background(), BotIdentity, draughts.White); ReasonOf(err) != "INVALID_ARGS" {
		t.Fatalf("err=%v", err)
	}
}

func TestRandomPickerStaysLegal(t *testing.T) {
	pick := RandomPicker(7)
	g := draughts.NewGame()
	for i := 0; i < 60; i++ {
		ms := g.LegalMoves()
		if ms.Empty() {
			break
		}
		from, to, ok := pick(ms)
		if !ok || !ms.Allows(from, to) {
			t.Fatalf("picked %v->%v not in %v", from, to, ms.Moves)
		}
		out, err := g.Apply(from, to)
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if out.GameOver {
			break
		}
	}
	if _, _, ok := pick(draughts.MoveSet{}); ok {
		t.Fatalf("empty set must not yield a move")
	}
}
