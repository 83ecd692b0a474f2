package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.FreshnessWindow != 30*time.Minute {
		t.Fatalf("FreshnessWindow=%v want 30m", cfg.FreshnessWindow)
	}
	if cfg.StoreDriver != "postgres" {
		t.Fatalf("StoreDriver=%q want postgres", cfg.StoreDriver)
	}
	if cfg.DedupeInflight {
		t.Fatalf("in-flight dedupe must default to off")
	}
	if cfg.Upstream.BaseURL != "https://api.n2yo.com/rest/v1/satellite" {
		t.Fatalf("BaseURL=%q", cfg.Upstream.BaseURL)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("FRESHNESS_WINDOW", "5m")
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("DEDUPE_INFLIGHT", "yes")
	t.Setenv("N2YO_BASE_URL", "http://localhost:1234/api/")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("H3_RES", "42")

	cfg := FromEnv()
	if cfg.FreshnessWindow != 5*time.Minute {
		t.Fatalf("FreshnessWindow=%v want 5m", cfg.FreshnessWindow)
	}
	if cfg.StoreDriver != "redis" {
		t.Fatalf("StoreDriver=%q want redis", cfg.StoreDriver)
	}
	if !cfg.DedupeInflight {
		t.Fatalf("DedupeInflight should be true")
	}
	if cfg.Upstream.BaseURL != "http://localhost:1234/api" {
		t.Fatalf("BaseURL=%q", cfg.Upstream.BaseURL)
	}
	if got := cfg.Events.BrokerList(); len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("BrokerList=%v", got)
	}
	if cfg.H3Res != 7 {
		t.Fatalf("out of range H3_RES should fall back to 7, got %d", cfg.H3Res)
	}
}

func TestFromEnv_NonPositiveWindowFallsBack(t *testing.T) {
	t.Setenv("FRESHNESS_WINDOW", "-1s")
	if got := FromEnv().FreshnessWindow; got != 30*time.Minute {
		t.Fatalf("FreshnessWindow=%v want 30m", got)
	}
}
