package room

import (
	"context"
	"sync"
	"time"

	"github.com/park285/dambrete/internal/obslog"
	"go.uber.org/zap"
)

type stopper interface{ Stop() bool }

type graceKey struct{ room, identity string }

// DisconnectPolicy turns a dropped connection into Leave, either at once
// (grace 0) or after the grace window unless the player reconnects first.
type DisconnectPolicy struct {
	m     *Manager
	grace time.Duration

	// afterFunc is time.AfterFunc outside tests.
	afterFunc func(d time.Duration, f func()) stopper

	mu      sync.Mutex
	pending map[graceKey]stopper
}

func NewDisconnectPolicy(m *Manager, grace time.Duration) *DisconnectPolicy {
	return &DisconnectPolicy{
		m:     m,
		grace: grace,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		pending: make(map[graceKey]stopper),
	}
}

func (p *DisconnectPolicy) Grace() time.Duration { return p.grace }

// Disconnect applies the policy for identity in room id.
func (p *DisconnectPolicy) Disconnect(ctx context.Context, id, identity string) error {
	id = NormalizeID(id)
	if p.grace <= 0 {
		_, err := p.m.Leave(ctx, id, identity)
		return err
	}
	key := graceKey{room: id, identity: identity}
	p.mu.Lock()
	defer p.mu.Unlock()
	if old, ok := p.pending[key]; ok {
		old.Stop()
	}
	var t stopper
	t = p.afterFunc(p.grace, func() {
		p.mu.Lock()
		if p.pending[key] != t {
			p.mu.Unlock()
			return
		}
		delete(p.pending, key)
		p.mu.Unlock()
		if _, err := p.m.Leave(context.Background(), id, identity); err != nil {
			obslog.L().Info("room_grace_leave_skipped", zap.String("room_id", id), zap.String("identity", identity), zap.Error(err))
			return
		}
		obslog.L().Info("room_grace_expired", zap.String("room_id", id), zap.String("identity", identity))
	})
	p.pending[key] = t
	obslog.L().Info("room_grace_start", zap.String("room_id", id), zap.String("identity", identity), zap.Duration("grace", p.grace))
	return nil
}

// Reconnect cancels a pending grace timer. It reports whether one existed.
func (p *DisconnectPolicy) Reconnect(id, identity string) bool {
	key := graceKey{room: NormalizeID(id), identity: identity}
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.pending[key]
	if !ok {
		return false
	}
	t.Stop()
	delete(p.pending, key)
	return true
}

// Pending reports whether identity is inside a grace window for room id.
func (p *DisconnectPolicy) Pending(id, identity string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pending[graceKey{room: NormalizeID(id), identity: identity}]
	return ok
}

// Close stops every pending timer without leaving.
func (p *DisconnectPolicy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, t := range p.pending {
		t.Stop()
		delete(p.pending, k)
	}
}
