package results

import (
	"context"
	"strings"
	"sync"
)

// memrepo is the repository used when no DATABASE_URL is configured.
type memrepo struct {
	mu      sync.RWMutex
	games   map[string]Record
	order   []string
	players map[string]*PlayerStats
}

func NewMemoryRepository() Repository {
	return &memrepo{
		games:   make(map[string]Record),
		players: make(map[string]*PlayerStats),
	}
}

func (m *memrepo) SaveResult(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.games[r.GameID]; dup {
		return nil
	}
	m.games[r.GameID] = r
	m.order = append(m.order, r.GameID)
	if !r.Rated() {
		return nil
	}
	m.player(r.WinnerID).applyWin()
	m.player(r.LoserID).applyLoss()
	return nil
}

func (m *memrepo) player(name string) *PlayerStats {
	p, ok := m.players[name]
	if !ok {
		np := newPlayer(name)
		p = &np
		m.players[name] = p
	}
	return p
}

func (m *memrepo) Stats(_ context.Context, name string) (PlayerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[strings.TrimSpace(name)]
	if !ok {
		return PlayerStats{}, ErrPlayerNotFound
	}
	return *p, nil
}

func (m *memrepo) Top(_ context.Context, n int) ([]PlayerStats, error) {
	m.mu.RLock()
	list := make([]PlayerStats, 0, len(m.players))
	for _, p := range m.players {
		list = append(list, *p)
	}
	m.mu.RUnlock()
	sortLeaderboard(list)
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return list, nil
}

// Games returns saved records oldest first.
func (m *memrepo) Games() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.games[id])
	}
	return out
}

func (m *memrepo) Close() error { return nil }
