package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS dam_games (
    game_id     TEXT PRIMARY KEY,
    room_id     TEXT NOT NULL,
    game_no     INTEGER NOT NULL DEFAULT 1,
    white_id    TEXT NOT NULL,
    black_id    TEXT NOT NULL,
    white_bot   BOOLEAN NOT NULL DEFAULT FALSE,
    black_bot   BOOLEAN NOT NULL DEFAULT FALSE,
    winner      TEXT NOT NULL,
    reason      TEXT NOT NULL,
    moves       JSONB NOT NULL,
    move_text   TEXT NOT NULL,
    started_at  TIMESTAMPTZ,
    ended_at    TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS dam_players (
    name    TEXT PRIMARY KEY,
    wins    INTEGER NOT NULL DEFAULT 0,
    losses  INTEGER NOT NULL DEFAULT 0,
    xp      INTEGER NOT NULL DEFAULT 0,
    rating  INTEGER NOT NULL DEFAULT 1000
);`

// PostgresRepository stores results in dam_games and stats in dam_players.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(databaseURL string) (*PostgresRepository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresRepository{db: db}, nil
}

// EnsureSchema creates the tables when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *PostgresRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult inserts the game once; stats move only on the first insert so a
// repeated save of the same game id is harmless.
func (r *PostgresRepository) SaveResult(ctx context.Context, rec Record) error {
	if r == nil || r.db == nil {
		return nil
	}
	movesRaw, err := json.Marshal(rec.Moves)
	if err != nil {
		return err
	}
	var started any
	if !rec.StartedAt.IsZero() {
		started = rec.StartedAt
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO dam_games (
        game_id, room_id, game_no, white_id, black_id, white_bot, black_bot,
        winner, reason, moves, move_text, started_at, ended_at, duration_ms
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
      ON CONFLICT (game_id) DO NOTHING`,
		rec.GameID, rec.RoomID, rec.Game, rec.White, rec.Black, rec.WhiteBot, rec.BlackBot,
		rec.Winner, rec.Reason, string(movesRaw), rec.Text, started, rec.EndedAt, rec.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 && rec.Rated() {
		if err := bumpPlayer(ctx, tx, rec.WinnerID, 1, 0, WinXP, WinRating); err != nil {
			return err
		}
		if err := bumpPlayer(ctx, tx, rec.LoserID, 0, 1, LossXP, -LossRating); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func bumpPlayer(ctx context.Context, tx *sql.Tx, name string, wins, losses, xp, rating int) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO dam_players (name, wins, losses, xp, rating)
      VALUES ($1, $2, $3, $4, GREATEST($6, $5 + $7))
      ON CONFLICT (name) DO UPDATE SET
        wins   = dam_players.wins + EXCLUDED.wins,
        losses = dam_players.losses + EXCLUDED.losses,
        xp     = dam_players.xp + EXCLUDED.xp,
        rating = GREATEST($6, dam_players.rating + $7)`,
		name, wins, losses, xp, BaseRating, RatingFloor, rating,
	)
	if err != nil {
		return fmt.Errorf("update player %s: %w", name, err)
	}
	return nil
}

func (r *PostgresRepository) Stats(ctx context.Context, name string) (PlayerStats, error) {
	var p PlayerStats
	err := r.db.QueryRowContext(ctx,
		`SELECT name, wins, losses, xp, rating FROM dam_players WHERE name = $1`,
		strings.TrimSpace(name),
	).Scan(&p.Name, &p.Wins, &p.Losses, &p.XP, &p.Rating)
	if errors.Is(err, sql.ErrNoRows) {
		return PlayerStats{}, ErrPlayerNotFound
	}
	return p, err
}

func (r *PostgresRepository) Top(ctx context.Context, n int) ([]PlayerStats, error) {
	if n <= 0 {
		n = TopSize
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, wins, losses, xp, rating FROM dam_players
         ORDER BY rating DESC, wins DESC, xp DESC, name ASC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PlayerStats
	for rows.Next() {
		var p PlayerStats
		if err := rows.Scan(&p.Name, &p.Wins, &p.Losses, &p.XP, &p.Rating); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
