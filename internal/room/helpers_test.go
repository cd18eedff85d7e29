package room

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/dambrete/internal/draughts"
	"github.com/redis/go-redis/v9"
)

var testClock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, time.Hour), mr
}

// eachStore runs fn against the memory and the Redis store.
func eachStore(t *testing.T, fn func(t *testing.T, st Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("redis", func(t *testing.T) {
		st, _ := newTestRedisStore(t)
		fn(t, st)
	})
}

func seqIDs() func() (string, error) {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("ROOM%02d", n), nil
	}
}

type fakeSink struct {
	mu   sync.Mutex
	seen []*Session
}

func (f *fakeSink) RecordResult(_ context.Context, s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, s)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func newTestManager(st Store, opts Options) *Manager {
	if opts.NewID == nil {
		opts.NewID = seqIDs()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return testClock }
	}
	return NewManager(st, opts)
}

// seedPlaying stores a running game between u1 (White) and u2 (Black) on a
// board given as eight rows.
func seedPlaying(t *testing.T, st Store, id string, turn draughts.Side, rows ...string) {
	t.Helper()
	b, err := draughts.ParseBoard(strings.Join(rows, "/"))
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	s := newSession(id, testClock)
	s.Game = draughts.Game{Board: b, Turn: turn}
	s.White = Seat{Identity: "u1"}
	s.Black = Seat{Identity: "u2"}
	s.Status = StatusPlaying
	if err := st.Create(context.Background(), s); err != nil {
		t.Fatalf("seed Create: %v", err)
	}
}

// startedRoom creates a room by u1 and joins u2.
func startedRoom(t *testing.T, m *Manager) string {
	t.Helper()
	ctx := context.Background()
	s, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	jr, err := m.Join(ctx, s.ID, "u2")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !jr.Started {
		t.Fatalf("second join must start the game")
	}
	return s.ID
}
