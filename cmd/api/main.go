package main

import (
	"context"
	"log"
	"time"

	"github.com/cryptopulse/cryptopulse/internal/aggregator"
	"github.com/cryptopulse/cryptopulse/internal/api"
	"github.com/cryptopulse/cryptopulse/internal/collector"
	"github.com/cryptopulse/cryptopulse/internal/config"
	"github.com/cryptopulse/cryptopulse/internal/scheduler"
	"github.com/cryptopulse/cryptopulse/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func main() {
	// 行情数值以 JSON number 输出，终端前端直接当数字用
	decimal.MarshalJSONWithoutQuotes = true

	cfg := config.Load()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("warn: redis ping failed: %v", err)
		}
		cancel()
	}

	// 归档是可选能力：没配 Postgres 或初始化失败时仅跑内存缓存
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

	// 按数据源更新频率配置独立的刷新周期
	jobs := []scheduler.Job{
		{Name: "combined_feed", CronSpec: cfg.FeedCronSpec, Run: agg.RefreshCombined},
		{Name: "prices", CronSpec: cfg.PriceCronSpec, Run: agg.RefreshPrices},
	}
	sched, err := scheduler.New(jobs)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	sched.Start()

	r := gin.Default()
	api.NewServer(agg, store).RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}
