package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MIN_INVESTMENT", "")
	t.Setenv("PAYOUT_TIMEZONE", "")
	cfg := Load()
	if cfg.MinInvestment != 50000 {
		t.Fatalf("expected default minimum 50000, got %d", cfg.MinInvestment)
	}
	if cfg.PayoutLocation() != time.UTC {
		t.Fatalf("expected UTC payout location, got %v", cfg.PayoutLocation())
	}
	if cfg.SchedulerEnabled {
		t.Fatal("scheduler must be opt-in")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MIN_INVESTMENT", "75000")
	t.Setenv("SCHEDULER_INTERVAL", "15m")
	t.Setenv("LEDGER_BACKEND", "Memory")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	cfg := Load()
	if cfg.MinInvestment != 75000 {
		t.Fatalf("expected 75000, got %d", cfg.MinInvestment)
	}
	if cfg.SchedulerInterval != 15*time.Minute {
		t.Fatalf("expected 15m, got %s", cfg.SchedulerInterval)
	}
	if cfg.LedgerBackend != "memory" {
		t.Fatalf("expected lowercased backend, got %q", cfg.LedgerBackend)
	}
	if got := cfg.CORSOrigins(); len(got) != 2 || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", got)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("MIN_INVESTMENT", "lots")
	t.Setenv("PAYOUT_TIMEZONE", "Mars/Olympus")
	t.Setenv("SCHEDULER_INTERVAL", "0s")
	t.Setenv("LOCK_TTL", "-5s")
	t.Setenv("JWT_ACCESS_TTL", "soon")
	cfg := Load()
	if cfg.SchedulerInterval != time.Hour {
		t.Fatalf("expected scheduler interval fallback 1h, got %v", cfg.SchedulerInterval)
	}
	if cfg.LockTTL != 30*time.Second {
		t.Fatalf("expected lock ttl fallback 30s, got %v", cfg.LockTTL)
	}
	if cfg.AccessTTL != time.Hour {
		t.Fatalf("expected access ttl fallback 1h, got %v", cfg.AccessTTL)
	}
	if cfg.MinInvestment != 50000 {
		t.Fatalf("expected fallback 50000, got %d", cfg.MinInvestment)
	}
	if cfg.PayoutLocation() != time.UTC {
		t.Fatal("expected UTC fallback for unknown zone")
	}
}
