package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ORG_CODE", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("LOGIN_RATE_LIMIT_BURST", "")
	t.Setenv("MIGRATE_ON_START", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg := Load()
	if cfg.OrgCode != "CONAMED" {
		t.Fatalf("expected default org code CONAMED, got %q", cfg.OrgCode)
	}
	if cfg.JWTTTL != 8*time.Hour {
		t.Fatalf("expected default jwt ttl 8h, got %s", cfg.JWTTTL)
	}
	if cfg.RedisURL != "" {
		t.Fatalf("expected redis disabled by default, got %q", cfg.RedisURL)
	}
	if cfg.LoginRateLimitBurst != 5 {
		t.Fatalf("expected login burst 5, got %d", cfg.LoginRateLimitBurst)
	}
	if cfg.MigrateOnStart {
		t.Fatalf("expected migrations off by default")
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Fatalf("expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("ORG_CODE", "ARCH")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("MIGRATE_ON_START", "true")
	t.Setenv("MAX_PAGE_SIZE", "250")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,192.0.2.10 ")

	cfg := Load()
	if cfg.OrgCode != "ARCH" {
		t.Fatalf("expected org code override, got %q", cfg.OrgCode)
	}
	if cfg.JWTTTL != 30*time.Minute {
		t.Fatalf("expected jwt ttl 30m, got %s", cfg.JWTTTL)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if !cfg.MigrateOnStart {
		t.Fatalf("expected migrate on start")
	}
	if cfg.MaxPageSize != 250 {
		t.Fatalf("expected max page size 250, got %d", cfg.MaxPageSize)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0] != "10.0.0.0/8" || cfg.TrustedProxies[1] != "192.0.2.10" {
		t.Fatalf("unexpected trusted proxies %v", cfg.TrustedProxies)
	}
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("JWT_TTL", "forever")
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("MIGRATE_ON_START", "sometimes")

	cfg := Load()
	if cfg.JWTTTL != 8*time.Hour {
		t.Fatalf("expected fallback ttl, got %s", cfg.JWTTTL)
	}
	if cfg.DBMaxOpenConns != 10 {
		t.Fatalf("expected fallback max conns, got %d", cfg.DBMaxOpenConns)
	}
	if cfg.MigrateOnStart {
		t.Fatalf("expected fallback false")
	}
}
