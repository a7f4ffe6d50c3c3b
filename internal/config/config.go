package config

import (
	"log"
	"os"
	"strings"
)

type Config struct {
	AppPort string

	// 为空时禁用对应的可选依赖：无 Postgres 则不归档，无 Redis 则不做缓存镜像
	PostgresDSN string
	RedisAddr   string

	// 为空时使用 collector 内置的默认源列表
	RSSFeeds         []string
	TelegramChannels []string

	FeedCronSpec  string
	PriceCronSpec string
}

func Load() *Config {
	cfg := &Config{
		AppPort:          getEnv("APP_PORT", "9000"),
		PostgresDSN:      getEnv("POSTGRES_DSN", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RSSFeeds:         getEnvList("RSS_FEEDS"),
		TelegramChannels: getEnvList("TELEGRAM_CHANNELS"),
		FeedCronSpec:     getEnv("FEED_CRON", "*/10 * * * *"),
		PriceCronSpec:    getEnv("PRICE_CRON", "*/5 * * * *"),
	}

	log.Printf("config loaded: port=%s feed_cron=%s price_cron=%s", cfg.AppPort, cfg.FeedCronSpec, cfg.PriceCronSpec)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvList 解析逗号分隔的环境变量，空段忽略
func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
