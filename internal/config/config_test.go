package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"HTTP_ADDR", "API_ADDR", "ALLOWED_ORIGINS", "REDIS_URL", "DATABASE_URL",
		"ROOM_TTL", "LEAVE_POLICY", "LEAVE_GRACE", "REMATCH_SWAP_COLORS", "ALLOW_SPECTATORS", "MESSAGES_DIR"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":10080" || cfg.APIAddr != ":10081" {
		t.Fatalf("addrs: %q %q", cfg.HTTPAddr, cfg.APIAddr)
	}
	if cfg.LeavePolicy != LeaveForfeit || cfg.Grace() != 0 {
		t.Fatalf("policy=%q grace=%v", cfg.LeavePolicy, cfg.Grace())
	}
	if !cfg.RematchSwapColors || !cfg.AllowSpectators || cfg.RoomTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEAVE_POLICY", "Grace")
	t.Setenv("LEAVE_GRACE", "5s")
	t.Setenv("ALLOWED_ORIGINS", " a.example , ,b.example")
	t.Setenv("ALLOW_SPECTATORS", "false")
	t.Setenv("ROOM_TTL", "bogus")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Grace() != 5*time.Second {
		t.Fatalf("grace=%v", cfg.Grace())
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "b.example" {
		t.Fatalf("origins=%v", cfg.AllowedOrigins)
	}
	if cfg.AllowSpectators {
		t.Fatalf("spectators should be off")
	}
	if cfg.RoomTTL != 24*time.Hour {
		t.Fatalf("invalid ROOM_TTL must keep default, got %v", cfg.RoomTTL)
	}
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEAVE_POLICY", "ignore")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}
