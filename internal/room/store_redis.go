package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/park285/dambrete/internal/obslog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultRoomTTL = 24 * time.Hour
	maxTxRetries   = 8
)

// RedisStore keeps each session as JSON under dam:room:<id>. Updates use
// WATCH on the record key so concurrent writers retry instead of interleaving.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultRoomTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// DialRedis opens a client from REDIS_URL and pings it.
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is empty")
	}
	opts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}

func keyRoom(id string) string { return "dam:room:" + strings.TrimSpace(id) }

const (
	keyRooms = "dam:rooms"
	keyLobby = "dam:lobby"
)

func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return ErrInvalidArgs
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, keyRoom(sess.ID), raw, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrExists
	}
	pipe := s.rdb.TxPipeline()
	s.index(ctx, pipe, sess)
	_, err = pipe.Exec(ctx)
	return err
}

// index keeps dam:rooms and dam:lobby in step with the record.
func (s *RedisStore) index(ctx context.Context, pipe redis.Pipeliner, sess *Session) {
	pipe.SAdd(ctx, keyRooms, sess.ID)
	pipe.Expire(ctx, keyRooms, s.ttl)
	if sess.Status == StatusWaiting {
		pipe.SAdd(ctx, keyLobby, sess.ID)
		pipe.Expire(ctx, keyLobby, s.ttl)
	} else {
		pipe.SRem(ctx, keyLobby, sess.ID)
	}
}

func (s *RedisStore) unindex(ctx context.Context, pipe redis.Pipeliner, id string) {
	pipe.Del(ctx, keyRoom(id))
	pipe.SRem(ctx, keyRooms, id)
	pipe.SRem(ctx, keyLobby, id)
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, keyRoom(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	key := keyRoom(id)
	var out *Session
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var cur Session
		if err := json.Unmarshal(raw, &cur); err != nil {
			return fmt.Errorf("decode room %s: %w", id, err)
		}
		ferr := fn(&cur)
		drop := errors.Is(ferr, ErrDrop)
		if ferr != nil && !drop {
			return ferr
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if drop {
				s.unindex(ctx, pipe, cur.ID)
				return nil
			}
			newRaw, err := json.Marshal(&cur)
			if err != nil {
				return err
			}
			pipe.Set(ctx, key, newRaw, s.ttl)
			s.index(ctx, pipe, &cur)
			return nil
		})
		if err != nil {
			return err
		}
		out = &cur
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		obslog.L().Debug("room_tx_retry", zap.String("room_id", id), zap.Int("attempt", i+1))
	}
	return nil, ErrConflict
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Exists(ctx, keyRoom(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	pipe := s.rdb.TxPipeline()
	s.unindex(ctx, pipe, id)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) List(ctx context.Context) ([]*Session, error) {
	ids, err := s.rdb.SMembers(ctx, keyRooms).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Load(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// record expired; drop the stale index entry
			_ = s.rdb.SRem(ctx, keyRooms, id).Err()
			_ = s.rdb.SRem(ctx, keyLobby, id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	sortSessions(out)
	return out, nil
}

// Lobby lists rooms still waiting for a second player.
func (s *RedisStore) Lobby(ctx context.Context) ([]*Session, error) {
	ids, err := s.rdb.SMembers(ctx, keyLobby).Result()
	if err != nil {
		return nil, err
	}
	var out []*Session
	for _, id := range ids {
		sess, err := s.Load(ctx, id)
		if err != nil || sess.Status != StatusWaiting {
			continue
		}
		out = append(out, sess)
	}
	sortSessions(out)
	return out, nil
}
