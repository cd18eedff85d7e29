package results

import (
	"context"
	"errors"
	"sort"
	"time"
)

// Stats rule: the winner gains a win, 25 xp and 10 rating points; the loser
// gains a loss, 5 xp and drops 8 rating points, never below RatingFloor.
const (
	BaseRating  = 1000
	RatingFloor = 800
	WinXP       = 25
	LossXP      = 5
	WinRating   = 10
	LossRating  = 8
	TopSize     = 10
)

var ErrPlayerNotFound = errors.New("player not found")

// Record is one finished game.
type Record struct {
	GameID     string
	RoomID     string
	Game       int
	White      string
	Black      string
	WhiteBot   bool
	BlackBot   bool
	Winner     string // "white" | "black"
	WinnerID   string
	LoserID    string
	Reason     string
	Moves      []string
	Text       string
	StartedAt  time.Time
	EndedAt    time.Time
	DurationMs int64
}

// Rated reports whether the game counts toward player stats: both seats
// human and a decided winner.
func (r Record) Rated() bool {
	return !r.WhiteBot && !r.BlackBot && r.WinnerID != "" && r.LoserID != ""
}

type PlayerStats struct {
	Name   string
	Wins   int
	Losses int
	XP     int
	Rating int
}

func newPlayer(name string) PlayerStats {
	return PlayerStats{Name: name, Rating: BaseRating}
}

func (p *PlayerStats) applyWin() {
	p.Wins++
	p.XP += WinXP
	p.Rating += WinRating
}

func (p *PlayerStats) applyLoss() {
	p.Losses++
	p.XP += LossXP
	p.Rating -= LossRating
	if p.Rating < RatingFloor {
		p.Rating = RatingFloor
	}
}

// Repository persists results and the derived player stats.
type Repository interface {
	SaveResult(ctx context.Context, r Record) error
	Stats(ctx context.Context, name string) (PlayerStats, error)
	Top(ctx context.Context, n int) ([]PlayerStats, error)
	Close() error
}

// sortLeaderboard orders by rating, then wins, then xp.
func sortLeaderboard(list []PlayerStats) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.XP != b.XP {
			return a.XP > b.XP
		}
		return a.Name < b.Name
	})
}
