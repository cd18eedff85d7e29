package room

import (
	"time"

	"github.com/park285/dambrete/internal/draughts"
)

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusPlaying  Status = "PLAYING"
	StatusFinished Status = "FINISHED"
)

// EndReason records why a game finished.
type EndReason string

const (
	ReasonNoMoves EndReason = "NO_MOVES"
	ReasonResign  EndReason = "RESIGN"
	ReasonForfeit EndReason = "FORFEIT"
)

// Role is what a join gave the caller.
type Role string

const (
	RoleWhite     Role = "white"
	RoleBlack     Role = "black"
	RoleSpectator Role = "spectator"
)

// Seat is empty when Identity is "".
type Seat struct {
	Identity string `json:"identity,omitempty"`
	Bot      bool   `json:"bot,omitempty"`
}

func (s Seat) Empty() bool { return s.Identity == "" }

func (s Seat) human() bool { return s.Identity != "" && !s.Bot }

// MoveRecord is one accepted jump or step.
type MoveRecord struct {
	Side      draughts.Side   `json:"side"`
	From      draughts.Square `json:"from"`
	To        draughts.Square `json:"to"`
	Capture   bool            `json:"capture,omitempty"`
	Captured  draughts.Square `json:"captured"`
	Promoted  bool            `json:"promoted,omitempty"`
	Continues bool            `json:"continues,omitempty"`
}

// Session is the persisted room record.
type Session struct {
	ID         string        `json:"id"`
	Game       draughts.Game `json:"game"`
	White      Seat          `json:"white"`
	Black      Seat          `json:"black"`
	Spectators []string      `json:"spectators,omitempty"`
	Status     Status        `json:"status"`
	Winner     draughts.Side `json:"winner,omitempty"`
	Reason     EndReason     `json:"reason,omitempty"`
	// FinalWhite and FinalBlack keep the seats as they stood at the end, so a
	// forfeit by a leaving player still names both players.
	FinalWhite Seat         `json:"final_white"`
	FinalBlack Seat         `json:"final_black"`
	LastMove   *MoveRecord  `json:"last_move,omitempty"`
	History    []MoveRecord `json:"history,omitempty"`
	Games      int          `json:"games"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	StartedAt  time.Time    `json:"started_at"`
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Game:      draughts.NewGame(),
		Status:    StatusWaiting,
		Games:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Game = s.Game.Clone()
	cp.Spectators = append([]string(nil), s.Spectators...)
	cp.History = append([]MoveRecord(nil), s.History...)
	if s.LastMove != nil {
		lm := *s.LastMove
		cp.LastMove = &lm
	}
	return &cp
}

// SideOf returns the side seated by identity, or NoSide.
func (s *Session) SideOf(identity string) draughts.Side {
	switch {
	case identity == "":
		return draughts.NoSide
	case s.White.Identity == identity:
		return draughts.White
	case s.Black.Identity == identity:
		return draughts.Black
	default:
		return draughts.NoSide
	}
}

// Seat returns the seat of side.
func (s *Session) Seat(side draughts.Side) *Seat {
	switch side {
	case draughts.White:
		return &s.White
	case draughts.Black:
		return &s.Black
	default:
		return nil
	}
}

func (s *Session) IsSpectator(identity string) bool {
	for _, id := range s.Spectators {
		if id == identity {
			return true
		}
	}
	return false
}

// HasBot reports whether either seat is held by a bot.
func (s *Session) HasBot() bool { return s.White.Bot || s.Black.Bot }

// Humans counts seated humans plus spectators.
func (s *Session) Humans() int {
	n := len(s.Spectators)
	if s.White.human() {
		n++
	}
	if s.Black.human() {
		n++
	}
	return n
}

// Occupants lists every human identity in the room.
func (s *Session) Occupants() []string {
	var out []string
	if s.White.human() {
		out = append(out, s.White.Identity)
	}
	if s.Black.human() {
		out = append(out, s.Black.Identity)
	}
	return append(out, s.Spectators...)
}

func (s *Session) removeSpectator(identity string) bool {
	for i, id := range s.Spectators {
		if id == identity {
			s.Spectators = append(s.Spectators[:i], s.Spectators[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Session) finish(winner draughts.Side, reason EndReason, now time.Time) {
	s.Status = StatusFinished
	s.FinalWhite, s.FinalBlack = s.White, s.Black
	s.Winner = winner
	s.Reason = reason
	s.Game.Pending = nil
	s.UpdatedAt = now
}

type JoinResult struct {
	Session *Session
	Role    Role
	// Started is set when this join moved the room to PLAYING.
	Started bool
}

type MoveResult struct {
	Session *Session
	Outcome draughts.Outcome
}

type LeaveResult struct {
	Session *Session
	Removed bool
	// Forfeited is set when the leaver lost a running game.
	Forfeited bool
}

// EventKind classifies a change notification.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventRemoved EventKind = "removed"
)

// Event is delivered to subscribers after every committed change.
type Event struct {
	Kind    EventKind
	ID      string
	Session *Session
}
