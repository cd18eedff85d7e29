package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/park285/dambrete/internal/draughts"
	"github.com/park285/dambrete/internal/obslog"
	"go.uber.org/zap"
)

// ResultSink receives every finished game exactly once.
type ResultSink interface {
	RecordResult(ctx context.Context, s *Session) error
}

type Options struct {
	AllowSpectators     bool
	SwapColorsOnRematch bool
	Results             ResultSink
	Now                 func() time.Time
	NewID               func() (string, error)
}

// Manager is the room state machine. Every mutation goes through
// Store.Update, so one room sees at most one change at a time.
type Manager struct {
	store Store
	opts  Options

	mu   sync.RWMutex
	subs []func(Event)
}

func NewManager(store Store, opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = NewRoomID
	}
	return &Manager{store: store, opts: opts}
}

// AttachResults wires a sink for finished games.
func (m *Manager) AttachResults(r ResultSink) {
	if m != nil {
		m.opts.Results = r
	}
}

// Subscribe registers fn for change events. Callbacks run synchronously on
// the goroutine that made the change, after it was committed.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
}

func (m *Manager) publish(ev Event) {
	m.mu.RLock()
	subs := append(make([]func(Event), 0, len(m.subs)), m.subs...)
	m.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (m *Manager) now() time.Time { return m.opts.Now() }

// Create seats identity as White in a fresh room.
func (m *Manager) Create(ctx context.Context, identity string) (*Session, error) {
	return m.create(ctx, Seat{Identity: strings.TrimSpace(identity)}, Seat{})
}

func (m *Manager) create(ctx context.Context, white, black Seat) (*Session, error) {
	if white.Identity == "" {
		return nil, ErrInvalidArgs
	}
	for attempt := 0; attempt < 5; attempt++ {
		id, err := m.opts.NewID()
		if err != nil {
			return nil, fmt.Errorf("room id: %w", err)
		}
		s := newSession(id, m.now())
		s.White, s.Black = white, black
		if !black.Empty() {
			s.Status = StatusPlaying
			s.StartedAt = s.CreatedAt
		}
		err = m.store.Create(ctx, s)
		if errors.Is(err, ErrExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		obslog.L().Info("room_create",
			zap.String("room_id", s.ID),
			zap.String("white", white.Identity),
			zap.String("black", black.Identity),
		)
		m.publish(Event{Kind: EventCreated, ID: s.ID, Session: s.Clone()})
		return s, nil
	}
	return nil, fmt.Errorf("room id: %w", ErrExists)
}

// Join seats identity in the first free seat, returns a seated identity to
// its own seat, and otherwise adds a spectator.
func (m *Manager) Join(ctx context.Context, id, identity string) (JoinResult, error) {
	id, identity = NormalizeID(id), strings.TrimSpace(identity)
	if id == "" || identity == "" {
		return JoinResult{}, ErrInvalidArgs
	}
	var res JoinResult
	s, err := m.store.Update(ctx, id, func(s *Session) error {
		res = JoinResult{}
		switch {
		case s.White.Identity == identity:
			res.Role = RoleWhite
			return nil
		case s.Black.Identity == identity:
			res.Role = RoleBlack
			return nil
		case s.White.Empty():
			s.White = Seat{Identity: identity}
			res.Role = RoleWhite
		case s.Black.Empty():
			s.Black = Seat{Identity: identity}
			res.Role = RoleBlack
		default:
			if !m.opts.AllowSpectators {
				return ErrRoomFull
			}
			res.Role = RoleSpectator
		}
		// a spectator taking a seat stops spectating
		s.removeSpectator(identity)
		if res.Role == RoleSpectator {
			s.Spectators = append(s.Spectators, identity)
		}
		if s.Status == StatusWaiting && !s.White.Empty() && !s.Black.Empty() {
			s.Status = StatusPlaying
			s.StartedAt = m.now()
			res.Started = true
		}
		s.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		return JoinResult{}, err
	}
	res.Session = s
	obslog.L().Info("room_join",
		zap.String("room_id", id),
		zap.String("identity", identity),
		zap.String("role", string(res.Role)),
		zap.Bool("started", res.Started),
	)
	m.publish(Event{Kind: EventUpdated, ID: id, Session: s.Clone()})
	return res, nil
}

// SubmitMove plays one jump or step for the caller's side.
func (m *Manager) SubmitMove(ctx context.Context, id, identity string, from, to draughts.Square) (MoveResult, error) {
	id, identity = NormalizeID(id), strings.TrimSpace(identity)
	if id == "" || identity == "" {
		return MoveResult{}, ErrInvalidArgs
	}
	var out draughts.Outcome
	s, err := m.store.Update(ctx, id, func(s *Session) error {
		switch s.Status {
		case StatusFinished:
			return ErrGameOver
		case StatusWaiting:
			if s.SideOf(identity) == draughts.NoSide {
				return ErrNoSeat
			}
			return ErrNotStarted
		}
		side := s.SideOf(identity)
		if side == draughts.NoSide {
			return ErrNoSeat
		}
		if side != s.Game.Turn {
			return ErrNotYourTurn
		}
		o, err := s.Game.Apply(from, to)
		if err != nil {
			return err
		}
		out = o
		rec := MoveRecord{
			Side:      o.Side,
			From:      o.From,
			To:        o.To,
			Capture:   o.Capture,
			Captured:  o.Captured,
			Promoted:  o.Promoted,
			Continues: o.ChainContinues,
		}
		s.LastMove = &rec
		s.History = append(s.History, rec)
		s.UpdatedAt = m.now()
		if o.GameOver {
			s.finish(o.Winner, ReasonNoMoves, s.UpdatedAt)
		}
		return nil
	})
	if err != nil {
		obslog.L().Debug("room_move_rejected",
			zap.String("room_id", id),
			zap.String("identity", identity),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
			zap.String("reason", ReasonOf(err)),
		)
		return MoveResult{}, err
	}
	obslog.L().Info("room_move",
		zap.String("room_id", id),
		zap.String("identity", identity),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Bool("capture", out.Capture),
		zap.Bool("chain", out.ChainContinues),
		zap.String("turn", s.Game.Turn.String()),
	)
	if out.GameOver {
		m.finished(ctx, s)
	}
	m.publish(Event{Kind: EventUpdated, ID: id, Session: s.Clone()})
	return MoveResult{Session: s, Outcome: out}, nil
}

// Resign ends a running game in the opponent's favour.
func (m *Manager) Resign(ctx context.Context, id, identity string) (*Session, error) {
	return m.concede(ctx, id, identity, ReasonResign)
}

// Forfeit is Resign for a player who went away. It is accepted at any later
// time while the game is still running and identity still holds a seat.
func (m *Manager) Forfeit(ctx context.Context, id, identity string) (*Session, error) {
	return m.concede(ctx, id, identity, ReasonForfeit)
}

func (m *Manager) concede(ctx context.Context, id, identity string, reason EndReason) (*Session, error) {
	id, identity = NormalizeID(id), strings.TrimSpace(identity)
	if id == "" || identity == "" {
		return nil, ErrInvalidArgs
	}
	s, err := m.store.Update(ctx, id, func(s *Session) error {
		side := s.SideOf(identity)
		if side == draughts.NoSide {
			return ErrNoSeat
		}
		switch s.Status {
		case StatusFinished:
			return ErrGameOver
		case StatusWaiting:
			return ErrNotStarted
		}
		s.finish(side.Opponent(), reason, m.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("room_concede",
		zap.String("room_id", id),
		zap.String("identity", identity),
		zap.String("reason", string(reason)),
		zap.String("winner", s.Winner.String()),
	)
	m.finished(ctx, s)
	m.publish(Event{Kind: EventUpdated, ID: id, Session: s.Clone()})
	return s, nil
}

// Leave vacates the caller's seat or spectator slot. A seated player leaving
// a running game forfeits it. The room is removed once no human is left.
func (m *Manager) Leave(ctx context.Context, id, identity string) (LeaveResult, error) {
	id, identity = NormalizeID(id), strings.TrimSpace(identity)
	if id == "" || identity == "" {
		return LeaveResult{}, ErrInvalidArgs
	}
	var res LeaveResult
	s, err := m.store.Update(ctx, id, func(s *Session) error {
		res = LeaveResult{}
		side := s.SideOf(identity)
		switch {
		case side != draughts.NoSide:
			if s.Status == StatusPlaying {
				s.finish(side.Opponent(), ReasonForfeit, m.now())
				res.Forfeited = true
			}
			*s.Seat(side) = Seat{}
		case s.removeSpectator(identity):
		default:
			return ErrNoSeat
		}
		s.UpdatedAt = m.now()
		if s.Humans() == 0 {
			res.Removed = true
			return ErrDrop
		}
		return nil
	})
	if err != nil {
		return LeaveResult{}, err
	}
	res.Session = s
	obslog.L().Info("room_leave",
		zap.String("room_id", id),
		zap.String("identity", identity),
		zap.Bool("forfeit", res.Forfeited),
		zap.Bool("removed", res.Removed),
	)
	if res.Forfeited {
		m.finished(ctx, s)
	}
	if res.Removed {
		m.publish(Event{Kind: EventRemoved, ID: id, Session: s.Clone()})
	} else {
		m.publish(Event{Kind: EventUpdated, ID: id, Session: s.Clone()})
	}
	return res, nil
}

// Rematch resets a finished room for another game.
func (m *Manager) Rematch(ctx context.Context, id, identity string) (*Session, error) {
	id, identity = NormalizeID(id), strings.TrimSpace(identity)
	if id == "" || identity == "" {
		return nil, ErrInvalidArgs
	}
	s, err := m.store.Update(ctx, id, func(s *Session) error {
		if s.SideOf(identity) == draughts.NoSide {
			return ErrNoSeat
		}
		if s.Status != StatusFinished {
			return ErrInProgress
		}
		now := m.now()
		if m.opts.SwapColorsOnRematch {
			s.White, s.Black = s.Black, s.White
		}
		s.Game = draughts.NewGame()
		s.Winner = draughts.NoSide
		s.Reason = ""
		s.FinalWhite, s.FinalBlack = Seat{}, Seat{}
		s.LastMove = nil
		s.History = nil
		s.Games++
		s.UpdatedAt = now
		s.Status = StatusWaiting
		if !s.White.Empty() && !s.Black.Empty() {
			s.Status = StatusPlaying
			s.StartedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("room_rematch",
		zap.String("room_id", id),
		zap.String("identity", identity),
		zap.Int("games", s.Games),
		zap.String("status", string(s.Status)),
	)
	m.publish(Event{Kind: EventUpdated, ID: id, Session: s.Clone()})
	return s, nil
}

// Session returns the current record.
func (m *Manager) Session(ctx context.Context, id string) (*Session, error) {
	id = NormalizeID(id)
	if id == "" {
		return nil, ErrInvalidArgs
	}
	return m.store.Load(ctx, id)
}

func (m *Manager) List(ctx context.Context) ([]*Session, error) {
	return m.store.List(ctx)
}

// RoomsOf returns the ids of the rooms identity occupies.
func (m *Manager) RoomsOf(ctx context.Context, identity string) ([]string, error) {
	list, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, s := range list {
		if s.SideOf(identity) != draughts.NoSide || s.IsSpectator(identity) {
			out = append(out, s.ID)
		}
	}
	return out, nil
}

// LegalMoves returns the hint for identity, or nil when it is not that
// identity's turn in a running game.
func (m *Manager) LegalMoves(ctx context.Context, id, identity string) (*draughts.MoveSet, error) {
	s, err := m.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	return movesFor(s, identity), nil
}

func movesFor(s *Session, identity string) *draughts.MoveSet {
	if s.Status != StatusPlaying {
		return nil
	}
	side := s.SideOf(strings.TrimSpace(identity))
	if side == draughts.NoSide || side != s.Game.Turn {
		return nil
	}
	ms := s.Game.LegalMoves()
	return &ms
}

// finished hands a completed game to the result sink.
func (m *Manager) finished(ctx context.Context, s *Session) {
	obslog.L().Info("room_finish",
		zap.String("room_id", s.ID),
		zap.String("winner", s.Winner.String()),
		zap.String("reason", string(s.Reason)),
		zap.Int("moves", len(s.History)),
	)
	if m.opts.Results == nil {
		return
	}
	if err := m.opts.Results.RecordResult(ctx, s.Clone()); err != nil {
		obslog.L().Error("room_result_persist_error", zap.String("room_id", s.ID), zap.Error(err))
	}
}
