package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LeavePolicy decides what a disconnect does to a running game.
type LeavePolicy string

const (
	LeaveForfeit LeavePolicy = "forfeit"
	LeaveGrace   LeavePolicy = "grace"
)

type AppConfig struct {
	HTTPAddr       string
	APIAddr        string
	AllowedOrigins []string

	RedisURL    string
	DatabaseURL string
	RoomTTL     time.Duration

	LeavePolicy       LeavePolicy
	LeaveGrace        time.Duration
	RematchSwapColors bool
	AllowSpectators   bool

	MessagesDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:          ":10080",
		APIAddr:           ":10081",
		RoomTTL:           24 * time.Hour,
		LeavePolicy:       LeaveForfeit,
		LeaveGrace:        30 * time.Second,
		RematchSwapColors: true,
		AllowSpectators:   true,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("API_ADDR")); v != "" {
		cfg.APIAddr = v
	}
	cfg.AllowedOrigins = splitCSV(os.Getenv("ALLOWED_ORIGINS"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if v := strings.TrimSpace(os.Getenv("ROOM_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RoomTTL = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("LEAVE_POLICY")); v != "" {
		switch p := LeavePolicy(strings.ToLower(v)); p {
		case LeaveForfeit, LeaveGrace:
			cfg.LeavePolicy = p
		default:
			return nil, fmt.Errorf("LEAVE_POLICY must be forfeit or grace, got %q", v)
		}
	}
	if v := strings.TrimSpace(os.Getenv("LEAVE_GRACE")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.LeaveGrace = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("REMATCH_SWAP_COLORS")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RematchSwapColors = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("ALLOW_SPECTATORS")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AllowSpectators = b
		}
	}
	return cfg, nil
}

// Grace returns the disconnect grace window the policy implies.
func (c *AppConfig) Grace() time.Duration {
	if c.LeavePolicy == LeaveGrace {
		return c.LeaveGrace
	}
	return 0
}

func splitCSV(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
