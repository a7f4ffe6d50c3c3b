package main

import (
	"context"
	"log"
	"time"

	"github.com/cryptopulse/cryptopulse/internal/aggregator"
	"github.com/cryptopulse/cryptopulse/internal/collector"
	"github.com/cryptopulse/cryptopulse/internal/config"
	"github.com/cryptopulse/cryptopulse/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// 一个仅执行一次聚合的命令行入口：适合手动触发刷新
func main() {
	decimal.MarshalJSONWithoutQuotes = true

	cfg := config.Load()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	var store *storage.Store
	if cfg.PostgresDSN != "" {
		s, err := storage.NewStore(cfg.PostgresDSN, rdb)
		if err != nil {
			log.Printf("warn: init store failed, archive disabled: %v", err)
		} else {
			store = s
		}
	}

	news := collector.NewRSSFetcher(cfg.RSSFeeds)
	social := collector.NewTelegramFetcher(cfg.TelegramChannels)
	prices := collector.NewCoinGeckoFetcher()
	agg := aggregator.New(news, social, prices, store, rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := agg.RefreshPrices(ctx); err != nil {
		log.Printf("refresh prices error: %v", err)
	}

	res := agg.Combined(ctx)
	if res.Status == aggregator.StatusError {
		log.Fatalf("aggregate failed: %v", res.Err)
	}
	log.Printf("aggregate done: %d items, status=%s", len(res.Posts), res.Status)
}
