package results

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/park285/dambrete/internal/draughts"
	"github.com/park285/dambrete/internal/room"
)

func rated(id, winner, loser string) Record {
	return Record{GameID: id, RoomID: "ROOM01", White: winner, Black: loser, Winner: "white", WinnerID: winner, LoserID: loser}
}

func TestMemoryRepository_StatsRule(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	if err := repo.SaveResult(ctx, rated("g1", "alice", "bob")); err != nil {
		t.Fatalf("save: %v", err)
	}
	a, err := repo.Stats(ctx, "alice")
	if err != nil {
		t.Fatalf("stats alice: %v", err)
	}
	if a.Wins != 1 || a.Losses != 0 || a.XP != WinXP || a.Rating != BaseRating+WinRating {
		t.Fatalf("alice = %+v", a)
	}
	b, _ := repo.Stats(ctx, "bob")
	if b.Wins != 0 || b.Losses != 1 || b.XP != LossXP || b.Rating != BaseRating-LossRating {
		t.Fatalf("bob = %+v", b)
	}
	if _, err := repo.Stats(ctx, "carol"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("carol err = %v", err)
	}
}

func TestMemoryRepository_DuplicateGameIgnored(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	for i := 0; i < 3; i++ {
		_ = repo.SaveResult(ctx, rated("g1", "alice", "bob"))
	}
	a, _ := repo.Stats(ctx, "alice")
	if a.Wins != 1 {
		t.Fatalf("wins = %d, want 1", a.Wins)
	}
	if n := len(repo.(*memrepo).Games()); n != 1 {
		t.Fatalf("games = %d", n)
	}
}

func TestMemoryRepository_RatingFloor(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	for i := 0; i < 40; i++ {
		_ = repo.SaveResult(ctx, rated("g"+string(rune('A'+i)), "alice", "bob"))
	}
	b, _ := repo.Stats(ctx, "bob")
	if b.Rating != RatingFloor {
		t.Fatalf("rating = %d, want floor %d", b.Rating, RatingFloor)
	}
	if b.Losses != 40 {
		t.Fatalf("losses = %d", b.Losses)
	}
}

func TestMemoryRepository_BotGamesUnrated(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	rec := rated("g1", "alice", room.BotIdentity)
	rec.BlackBot = true
	_ = repo.SaveResult(ctx, rec)
	if _, err := repo.Stats(ctx, "alice"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("bot game changed stats: %v", err)
	}
	if n := len(repo.(*memrepo).Games()); n != 1 {
		t.Fatalf("bot game not stored")
	}
}

func TestMemoryRepository_TopOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	_ = repo.SaveResult(ctx, rated("g1", "alice", "bob"))
	_ = repo.SaveResult(ctx, rated("g2", "alice", "carol"))
	_ = repo.SaveResult(ctx, rated("g3", "carol", "bob"))

	top, err := repo.Top(ctx, TopSize)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	var names []string
	for _, p := range top {
		names = append(names, p.Name)
	}
	// alice 1020; carol 1002; bob 984
	want := []string{"alice", "carol", "bob"}
	if len(names) != len(want) {
		t.Fatalf("top = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("top = %v, want %v", names, want)
		}
	}
	short, _ := repo.Top(ctx, 1)
	if len(short) != 1 || short[0].Name != "alice" {
		t.Fatalf("top(1) = %+v", short)
	}
}

func TestMoveText(t *testing.T) {
	history := []room.MoveRecord{
		{Side: draughts.White, From: draughts.Sq(5, 2), To: draughts.Sq(4, 3)},
		{Side: draughts.Black, From: draughts.Sq(2, 5), To: draughts.Sq(3, 4)},
		{Side: draughts.White, From: draughts.Sq(4, 3), To: draughts.Sq(2, 5), Capture: true, Continues: true},
		{Side: draughts.White, From: draughts.Sq(2, 5), To: draughts.Sq(0, 3), Capture: true},
	}
	got := MoveText(history)
	want := []string{"c3-d4", "f6-e5", "d4:f6:d8"}
	if len(got) != len(want) {
		t.Fatalf("moves = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("moves = %v, want %v", got, want)
		}
	}
	if text := GameText(got, "white"); text != "1. c3-d4 f6-e5 2. d4:f6:d8 2-0" {
		t.Fatalf("text = %q", text)
	}
	if text := GameText(nil, ""); text != "*" {
		t.Fatalf("empty text = %q", text)
	}
}

func TestBuildRecord_ForfeitUsesFinalSeats(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := &room.Session{
		ID:         "ROOM01",
		Status:     room.StatusFinished,
		Winner:     draughts.Black,
		Reason:     room.ReasonForfeit,
		Black:      room.Seat{Identity: "bob"},
		FinalWhite: room.Seat{Identity: "alice"},
		FinalBlack: room.Seat{Identity: "bob"},
		Games:      2,
		StartedAt:  start,
		UpdatedAt:  start.Add(90 * time.Second),
	}
	rec := BuildRecord(s, "gid")
	if rec.White != "alice" || rec.WinnerID != "bob" || rec.LoserID != "alice" {
		t.Fatalf("record = %+v", rec)
	}
	if !rec.Rated() || rec.Reason != "FORFEIT" || rec.Game != 2 {
		t.Fatalf("record = %+v", rec)
	}
	if rec.DurationMs != 90000 {
		t.Fatalf("duration = %d", rec.DurationMs)
	}
	if rec.Text != "0-2" {
		t.Fatalf("text = %q", rec.Text)
	}
}

func TestRecorder_SavesOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	rec := NewRecorder(repo)
	s := &room.Session{
		ID:         "ROOM01",
		Status:     room.StatusFinished,
		Winner:     draughts.White,
		Reason:     room.ReasonResign,
		FinalWhite: room.Seat{Identity: "alice"},
		FinalBlack: room.Seat{Identity: "bob"},
	}
	if err := rec.RecordResult(ctx, s); err != nil {
		t.Fatalf("record: %v", err)
	}
	a, err := repo.Stats(ctx, "alice")
	if err != nil || a.Wins != 1 {
		t.Fatalf("alice = %+v err=%v", a, err)
	}
	if err := (*Recorder)(nil).RecordResult(ctx, s); err != nil {
		t.Fatalf("nil recorder: %v", err)
	}
}

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("DAMBRETE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("DAMBRETE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	repo, err := NewPostgresRepository(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	suffix := time.Now().Format("150405.000000")
	winner, loser := "pg-w-"+suffix, "pg-l-"+suffix
	r := rated("pg-"+suffix, winner, loser)
	r.EndedAt = time.Now()
	for i := 0; i < 2; i++ {
		if err := repo.SaveResult(ctx, r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	w, err := repo.Stats(ctx, winner)
	if err != nil || w.Wins != 1 || w.Rating != BaseRating+WinRating {
		t.Fatalf("winner = %+v err=%v", w, err)
	}
	l, _ := repo.Stats(ctx, loser)
	if l.Losses != 1 || l.Rating != BaseRating-LossRating {
		t.Fatalf("loser = %+v", l)
	}
}
