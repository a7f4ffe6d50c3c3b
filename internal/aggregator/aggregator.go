package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/cryptopulse/cryptopulse/internal/cache"
	"github.com/cryptopulse/cryptopulse/internal/collector"
	"github.com/cryptopulse/cryptopulse/internal/feed"
	"github.com/cryptopulse/cryptopulse/internal/processor"
	"github.com/cryptopulse/cryptopulse/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	defaultFeedWindow   = 10 * time.Minute
	defaultNewsWindow   = 10 * time.Minute
	defaultSocialWindow = 10 * time.Minute
	defaultPriceWindow  = 5 * time.Minute

	// 聚合流与单源新闻流对外返回的条数上限
	maxFeedItems = 150
	maxNewsItems = 100

	mirrorTTL = time.Hour
)

// Status 响应状态
type Status string

const (
	StatusFresh  Status = "fresh"
	StatusCached Status = "cached"
	StatusStale  Status = "stale"
	StatusError  Status = "error"
)

// FeedResult 一次聚合请求的结果
type FeedResult struct {
	Posts     []feed.Item
	Status    Status
	CacheAge  time.Duration
	Timestamp time.Time
	Err       error
}

// PriceResult 行情请求的结果
type PriceResult struct {
	Prices   []collector.CryptoPrice
	Cached   bool
	Stale    bool
	Fallback bool
	CacheAge time.Duration
	Err      error
}

// Aggregator 驱动 fetch -> normalize -> filter -> tag -> cluster -> cache
// 全流程，容忍单源失败。缓存对象显式持有、构造时注入，便于测试替换
type Aggregator struct {
	news   collector.NewsSource
	social collector.SocialSource
	prices collector.PriceSource

	// 可选：聚合成功后把结果归档到存储层
	store *storage.Store

	feedCache   *cache.Cache[[]feed.Item]
	newsCache   *cache.Cache[[]feed.Item]
	socialCache *cache.Cache[[]feed.Item]
	priceCache  *cache.Cache[[]collector.CryptoPrice]

	// 各端点独立的缓存窗口，测试中可调
	FeedWindow   time.Duration
	NewsWindow   time.Duration
	SocialWindow time.Duration
	PriceWindow  time.Duration
}

func New(news collector.NewsSource, social collector.SocialSource, prices collector.PriceSource, store *storage.Store, rdb *redis.Client) *Aggregator {
	return &Aggregator{
		news:   news,
		social: social,
		prices: prices,
		store:  store,

		feedCache:   cache.New[[]feed.Item]("cryptopulse:feed:combined", mirrorTTL).WithRedis(rdb),
		newsCache:   cache.New[[]feed.Item]("cryptopulse:feed:news", mirrorTTL).WithRedis(rdb),
		socialCache: cache.New[[]feed.Item]("cryptopulse:feed:social", mirrorTTL).WithRedis(rdb),
		priceCache:  cache.New[[]collector.CryptoPrice]("cryptopulse:prices", mirrorTTL).WithRedis(rdb),

		FeedWindow:   defaultFeedWindow,
		NewsWindow:   defaultNewsWindow,
		SocialWindow: defaultSocialWindow,
		PriceWindow:  defaultPriceWindow,
	}
}

// Combined 组合聚合流：缓存命中直接返回；过期则重跑管道；
// 重跑失败但存在旧数据时降级返回旧数据并标记 stale
func (a *Aggregator) Combined(ctx context.Context) FeedResult {
	if items, age, ok := a.feedCache.Get(); ok && age < a.FeedWindow {
		return FeedResult{Posts: items, Status: StatusCached, CacheAge: age, Timestamp: time.Now()}
	}

	items, err := a.refreshCombined(ctx)
	if err != nil {
		if cached, age, ok := a.feedCache.Get(); ok {
			log.Printf("aggregator: combined refresh failed, serving stale: %v", err)
			return FeedResult{Posts: cached, Status: StatusStale, CacheAge: age, Err: err}
		}
		return FeedResult{Status: StatusError, Err: err}
	}
	return FeedResult{Posts: items, Status: StatusFresh, Timestamp: time.Now()}
}

// RefreshCombined 后台定时刷新入口：跳过新鲜度检查，成功后整槽替换，
// 不阻塞前台对当前槽位的读取
func (a *Aggregator) RefreshCombined(ctx context.Context) error {
	_, err := a.refreshCombined(ctx)
	return err
}

func (a *Aggregator) refreshCombined(ctx context.Context) ([]feed.Item, error) {
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		newsItems   []feed.Item
		socialItems []feed.Item
	)

	// 两条子管道并发执行，整体耗时受限于最慢的一条而不是两者之和；
	// 单条失败降级为空贡献，不拖垮整次聚合
	wg.Add(2)
	go func() {
		defer wg.Done()
		items, err := a.newsItems(ctx)
		if err != nil {
			log.Printf("aggregator: news pipeline degraded to empty: %v", err)
			return
		}
		mu.Lock()
		newsItems = items
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		items, err := a.socialItems(ctx)
		if err != nil {
			log.Printf("aggregator: social pipeline degraded to empty: %v", err)
			return
		}
		mu.Lock()
		socialItems = items
		mu.Unlock()
	}()
	wg.Wait()

	combined := make([]feed.Item, 0, len(socialItems)+len(newsItems))
	combined = append(combined, socialItems...)
	combined = append(combined, newsItems...)
	if len(combined) == 0 {
		return nil, errors.New("no items found from rss or telegram sources")
	}

	combined = processor.Cluster(combined, processor.SimilarityThreshold)
	processor.SortFeed(combined)
	if len(combined) > maxFeedItems {
		combined = combined[:maxFeedItems]
	}

	a.feedCache.Set(combined)
	log.Printf("aggregator: combined feed refreshed, %d items", len(combined))

	if a.store != nil {
		if err := a.store.SaveBatch(combined); err != nil {
			log.Printf("aggregator: archive save error: %v", err)
		}
	}
	return combined, nil
}

// newsItems 组合管道用的子入口：窗口内直接用缓存，否则重跑；
// 失败不回退旧数据，由组合管道决定降级策略
func (a *Aggregator) newsItems(ctx context.Context) ([]feed.Item, error) {
	if items, age, ok := a.newsCache.Get(); ok && age < a.NewsWindow {
		return items, nil
	}
	return a.refreshNews(ctx)
}

func (a *Aggregator) socialItems(ctx context.Context) ([]feed.Item, error) {
	if items, age, ok := a.socialCache.Get(); ok && age < a.SocialWindow {
		return items, nil
	}
	return a.refreshSocial(ctx)
}

// News 新闻子管道：抓全部 RSS 源并跑完整处理流水线
func (a *Aggregator) News(ctx context.Context) FeedResult {
	if items, age, ok := a.newsCache.Get(); ok && age < a.NewsWindow {
		return FeedResult{Posts: items, Status: StatusCached, CacheAge: age, Timestamp: time.Now()}
	}

	items, err := a.refreshNews(ctx)
	if err != nil {
		if cached, age, ok := a.newsCache.Get(); ok {
			log.Printf("aggregator: news refresh failed, serving stale: %v", err)
			return FeedResult{Posts: cached, Status: StatusStale, CacheAge: age, Err: err}
		}
		return FeedResult{Status: StatusError, Err: err}
	}
	return FeedResult{Posts: items, Status: StatusFresh, Timestamp: time.Now()}
}

func (a *Aggregator) refreshNews(ctx context.Context) ([]feed.Item, error) {
	raw, err := a.news.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}

	items := processor.NormalizeArticles(raw)
	items = processor.FilterSpam(items)
	processor.TagItems(items)
	items = processor.Cluster(items, processor.SimilarityThreshold)
	processor.SortFeed(items)
	if len(items) > maxNewsItems {
		items = items[:maxNewsItems]
	}
	if len(items) == 0 {
		return nil, errors.New("news: no usable items after filtering")
	}

	a.newsCache.Set(items)
	return items, nil
}

// Social 社交子管道：帖子归一化并打标注，按发布时间降序，不做聚类
func (a *Aggregator) Social(ctx context.Context) FeedResult {
	if items, age, ok := a.socialCache.Get(); ok && age < a.SocialWindow {
		return FeedResult{Posts: items, Status: StatusCached, CacheAge: age, Timestamp: time.Now()}
	}

	items, err := a.refreshSocial(ctx)
	if err != nil {
		if cached, age, ok := a.socialCache.Get(); ok {
			log.Printf("aggregator: social refresh failed, serving stale: %v", err)
			return FeedResult{Posts: cached, Status: StatusStale, CacheAge: age, Err: err}
		}
		return FeedResult{Status: StatusError, Err: err}
	}
	return FeedResult{Posts: items, Status: StatusFresh, Timestamp: time.Now()}
}

func (a *Aggregator) refreshSocial(ctx context.Context) ([]feed.Item, error) {
	raw, err := a.social.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch social: %w", err)
	}

	items := processor.NormalizePosts(raw)
	processor.TagItems(items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) == 0 {
		return nil, errors.New("social: no posts scraped")
	}

	a.socialCache.Set(items)
	return items, nil
}

// Prices 行情：缓存窗口更短；失败时优先回退旧缓存，连缓存都没有
// 就返回演示数据并带上 fallback 标记
func (a *Aggregator) Prices(ctx context.Context) PriceResult {
	if prices, age, ok := a.priceCache.Get(); ok && age < a.PriceWindow {
		return PriceResult{Prices: prices, Cached: true, CacheAge: age}
	}

	prices, err := a.prices.Fetch(ctx)
	if err != nil {
		if cached, age, ok := a.priceCache.Get(); ok {
			log.Printf("aggregator: price fetch failed, serving stale: %v", err)
			return PriceResult{Prices: cached, Cached: true, Stale: true, CacheAge: age, Err: err}
		}
		log.Printf("aggregator: price fetch failed with no cache, serving fallback: %v", err)
		return PriceResult{Prices: collector.FallbackPrices(), Fallback: true, Err: err}
	}

	a.priceCache.Set(prices)
	return PriceResult{Prices: prices}
}

// RefreshPrices 后台定时刷新入口
func (a *Aggregator) RefreshPrices(ctx context.Context) error {
	prices, err := a.prices.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch prices: %w", err)
	}
	a.priceCache.Set(prices)
	return nil
}

// 已知的 BTC 历史高点，重要新闻提示的触发基准
var knownBTCAllTimeHigh = decimal.NewFromInt(108786)

// ImportantNews 根据当前 BTC 价格推导一条提示文案；无触发条件时
// 回落到聚合流里最新的影响价格条目。返回空串表示当前无提示
func (a *Aggregator) ImportantNews(ctx context.Context) (string, decimal.Decimal) {
	pr := a.Prices(ctx)

	var btc decimal.Decimal
	for _, p := range pr.Prices {
		if p.Symbol == "BTC" {
			btc = p.Price
			break
		}
	}
	if btc.IsZero() || pr.Fallback {
		return "", btc
	}

	switch {
	case btc.GreaterThan(knownBTCAllTimeHigh.Mul(decimal.NewFromFloat(1.005))):
		return fmt.Sprintf("ATH ALERT: Bitcoin breaks past $%s! Currently trading at $%s!",
			knownBTCAllTimeHigh.StringFixed(0), btc.StringFixed(0)), btc
	case btc.GreaterThan(knownBTCAllTimeHigh.Mul(decimal.NewFromFloat(0.98))):
		return fmt.Sprintf("PRICE WATCH: Bitcoin nearing its ATH of ~$%s, currently at $%s",
			knownBTCAllTimeHigh.StringFixed(0), btc.StringFixed(0)), btc
	case btc.GreaterThan(decimal.NewFromInt(85000)):
		return fmt.Sprintf("ALERT: Bitcoin price soaring, currently trading at $%s", btc.StringFixed(0)), btc
	case btc.GreaterThan(decimal.NewFromInt(75000)):
		return fmt.Sprintf("NOTICE: Bitcoin showing strong momentum, currently at $%s", btc.StringFixed(0)), btc
	}

	// 没有价格触发时，用聚合流里最新的影响价格条目兜底；只读当前槽位
	if items, _, ok := a.feedCache.Get(); ok {
		for _, it := range items {
			if it.IsPriceImpacting {
				return fmt.Sprintf("NEWS: %s (%s)", it.Title, it.Source), btc
			}
		}
	}
	return "", btc
}
