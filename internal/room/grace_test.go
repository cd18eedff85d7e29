package room

import (
	"context"
	"testing"
	"time"

	"github.com/park285/dambrete/internal/draughts"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (f *fakeTimer) Stop() bool {
	was := !f.stopped
	f.stopped = true
	return was
}

func newGracePolicy(m *Manager, grace time.Duration) (*DisconnectPolicy, *[]*fakeTimer) {
	p := NewDisconnectPolicy(m, grace)
	var timers []*fakeTimer
	p.afterFunc = func(d time.Duration, f func()) stopper {
		t := &fakeTimer{d: d, f: f}
		timers = append(timers, t)
		return t
	}
	return p, &timers
}

func TestDisconnectWithoutGraceLeavesAtOnce(t *testing.T) {
	m := newTestManager(NewMemoryStore(), Options{})
	id := startedRoom(t, m)
	p, timers := newGracePolicy(m, 0)
	if err := p.Disconnect(context.Background(), id, "u1"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if len(*timers) != 0 {
		t.Fatalf("no timer expected")
	}
	s, err := m.Session(context.Background(), id)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if s.Status != StatusFinished || s.Winner != draughts.Black || s.Reason != ReasonForfeit {
		t.Fatalf("immediate forfeit expected: %+v", s)
	}
}

func TestDisconnectGraceExpires(t *testing.T) {
	m := newTestManager(NewMemoryStore(), Options{})
	id := startedRoom(t, m)
	p, timers := newGracePolicy(m, 30*time.Second)
	ctx := context.Background()

	if err := p.Disconnect(ctx, id, "u2"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if len(*timers) != 1 || (*timers)[0].d != 30*time.Second || !p.Pending(id, "u2") {
		t.Fatalf("grace timer not armed")
	}
	s, _ := m.Session(ctx, id)
	if s.Status != StatusPlaying {
		t.Fatalf("game must keep running during grace")
	}

	(*timers)[0].f()
	if p.Pending(id, "u2") {
		t.Fatalf("pending after expiry")
	}
	s, _ = m.Session(ctx, id)
	if s.Status != StatusFinished || s.Winner != draughts.White || !s.Black.Empty() {
		t.Fatalf("expired grace must forfeit: %+v", s)
	}
}

func TestReconnectCancelsGrace(t *testing.T) {
	m := newTestManager(NewMemoryStore(), Options{})
	id := startedRoom(t, m)
	p, timers := newGracePolicy(m, time.Minute)
	ctx := context.Background()

	if err := p.Disconnect(ctx, id, "u1"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if !p.Reconnect(id, "u1") {
		t.Fatalf("Reconnect found no timer")
	}
	if !(*timers)[0].stopped {
		t.Fatalf("timer not stopped")
	}
	// a timer that fires after being replaced or cancelled does nothing
	(*timers)[0].f()
	s, _ := m.Session(ctx, id)
	if s.Status != StatusPlaying {
		t.Fatalf("cancelled grace still forfeited")
	}
	if p.Reconnect(id, "u1") {
		t.Fatalf("second Reconnect should report nothing pending")
	}
}

func TestGraceAfterGameEndedJustLeaves(t *testing.T) {
	m := newTestManager(NewMemoryStore(), Options{})
	id := startedRoom(t, m)
	p, timers := newGracePolicy(m, time.Minute)
	ctx := context.Background()

	if err := p.Disconnect(ctx, id, "u1"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if _, err := m.Resign(ctx, id, "u2"); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	(*timers)[0].f()
	s, _ := m.Session(ctx, id)
	if s.Winner != draughts.White || s.Reason != ReasonResign || !s.White.Empty() {
		t.Fatalf("late leave must not rewrite the result: %+v", s)
	}
}
