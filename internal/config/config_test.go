package config

import (
	"os"
	"testing"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	// 环境变量设置后，应优先返回环境变量
	if err := os.Setenv(key, "8080"); err != nil {
		t.Fatalf("Setenv error: %v", err)
	}
	defer func() { _ = os.Unsetenv(key) }()
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestGetEnvListSplitsAndTrims(t *testing.T) {
	const key = "TEST_FEED_LIST"

	_ = os.Unsetenv(key)
	if got := getEnvList(key); got != nil {
		t.Fatalf("unset key should return nil, got %v", got)
	}

	_ = os.Setenv(key, " https://a.example/feed , ,https://b.example/rss")
	defer func() { _ = os.Unsetenv(key) }()

	got := getEnvList(key)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %v", got)
	}
	if got[0] != "https://a.example/feed" || got[1] != "https://b.example/rss" {
		t.Fatalf("entries not trimmed correctly: %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "FEED_CRON", "PRICE_CRON", "POSTGRES_DSN", "REDIS_ADDR"} {
		_ = os.Unsetenv(key)
	}

	cfg := Load()
	if cfg.AppPort != "9000" {
		t.Fatalf("AppPort = %q, want 9000", cfg.AppPort)
	}
	if cfg.FeedCronSpec != "*/10 * * * *" || cfg.PriceCronSpec != "*/5 * * * *" {
		t.Fatalf("cron defaults wrong: %q / %q", cfg.FeedCronSpec, cfg.PriceCronSpec)
	}
	// 可选依赖默认关闭
	if cfg.PostgresDSN != "" || cfg.RedisAddr != "" {
		t.Fatalf("optional deps should default to disabled: %+v", cfg)
	}
}
