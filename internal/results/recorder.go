package results

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/park285/dambrete/internal/draughts"
	"github.com/park285/dambrete/internal/obslog"
	"github.com/park285/dambrete/internal/room"
	"go.uber.org/zap"
)

// Recorder adapts a Repository to room.ResultSink.
type Recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) *Recorder { return &Recorder{repo: repo} }

func (r *Recorder) RecordResult(ctx context.Context, s *room.Session) error {
	if r == nil || r.repo == nil || s == nil {
		return nil
	}
	rec := BuildRecord(s, uuid.NewString())
	if err := r.repo.SaveResult(ctx, rec); err != nil {
		return err
	}
	obslog.L().Info("result_saved",
		zap.String("game_id", rec.GameID),
		zap.String("room_id", rec.RoomID),
		zap.String("winner", rec.Winner),
		zap.String("reason", rec.Reason),
		zap.Bool("rated", rec.Rated()),
	)
	return nil
}

// BuildRecord converts a finished session.
func BuildRecord(s *room.Session, gameID string) Record {
	moves := MoveText(s.History)
	winner := s.Winner.String()
	white, black := s.FinalWhite, s.FinalBlack
	if white.Empty() && black.Empty() {
		white, black = s.White, s.Black
	}
	rec := Record{
		GameID:    gameID,
		RoomID:    s.ID,
		Game:      s.Games,
		White:     white.Identity,
		Black:     black.Identity,
		WhiteBot:  white.Bot,
		BlackBot:  black.Bot,
		Winner:    winner,
		Reason:    string(s.Reason),
		Moves:     moves,
		Text:      GameText(moves, winner),
		StartedAt: s.StartedAt,
		EndedAt:   s.UpdatedAt,
	}
	switch s.Winner {
	case draughts.White:
		rec.WinnerID, rec.LoserID = white.Identity, black.Identity
	case draughts.Black:
		rec.WinnerID, rec.LoserID = black.Identity, white.Identity
	}
	if d := rec.EndedAt.Sub(rec.StartedAt).Milliseconds(); d > 0 && !rec.StartedAt.IsZero() {
		rec.DurationMs = d
	}
	if strings.TrimSpace(rec.Reason) == "" {
		rec.Reason = "unknown"
	}
	return rec
}
