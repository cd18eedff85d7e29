package room

import (
	"context"
	"crypto/rand"
	"errors"
	"sort"
	"strings"
	"sync"
)

// Store owns the session records. Update runs fn on a private copy inside the
// session's critical section and commits only when fn returns nil; fn may run
// more than once when the store retries an optimistic transaction.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Session, error)
}

type memEntry struct {
	mu   sync.Mutex
	s    *Session
	gone bool
}

// MemoryStore keeps sessions in process with one mutex per session.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memEntry)}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return ErrInvalidArgs
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[s.ID]; ok {
		return ErrExists
	}
	m.entries[s.ID] = &memEntry{s: s.Clone()}
	return nil
}

func (m *MemoryStore) entry(id string) *memEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[id]
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	e := m.entry(id)
	if e == nil {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return nil, ErrNotFound
	}
	return e.s.Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*Session) error) (*Session, error) {
	e := m.entry(id)
	if e == nil {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return nil, ErrNotFound
	}
	cur := e.s.Clone()
	if err := fn(cur); err != nil {
		if errors.Is(err, ErrDrop) {
			e.gone = true
			m.remove(id, e)
			return cur, nil
		}
		return nil, err
	}
	e.s = cur
	return cur.Clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	e := m.entry(id)
	if e == nil {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gone = true
	m.remove(id, e)
	return nil
}

func (m *MemoryStore) remove(id string, e *memEntry) {
	m.mu.Lock()
	if m.entries[id] == e {
		delete(m.entries, id)
	}
	m.mu.Unlock()
}

func (m *MemoryStore) List(ctx context.Context) ([]*Session, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		s, err := m.Load(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	sortSessions(out)
	return out, nil
}

// sortSessions orders oldest first, ties by id.
func sortSessions(list []*Session) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

const idAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewRoomID returns a six character code without look-alike glyphs.
func NewRoomID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = idAlphabet[int(b[i])%len(idAlphabet)]
	}
	return string(b), nil
}

// NormalizeID trims and upper-cases a user supplied room code.
func NormalizeID(raw string) string { return strings.ToUpper(strings.TrimSpace(raw)) }
