package collector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	rssFeedTimeout   = 10 * time.Second
	rssConcurrency   = 6
	rssMaxItemAge    = 7 * 24 * time.Hour
	rssMaxSummaryLen = 300
)

// DefaultRSSFeeds 默认抓取的加密货币新闻 RSS 源
var DefaultRSSFeeds = []string{
	"https://cointelegraph.com/rss",
	"https://bitcoinist.com/feed/",
	"https://www.newsbtc.com/feed/",
	"https://cryptopotato.com/feed/",
	"https://99bitcoins.com/feed/",
	"https://cryptobriefing.com/feed/",
	"https://crypto.news/feed/",
	"https://coinlabz.com/feed/",
	"https://bitrss.com/rss.xml",
	"https://cryptopurview.com/feed/",
	"https://zycrypto.com/feed/",
	"https://thebitcoinnews.com/feed/",
}

// RSSFetcher 并发抓取多个 RSS 源；单个源失败只影响自身，
// 仅当全部源都失败时整体报错
type RSSFetcher struct {
	parser *gofeed.Parser
	feeds  []string
}

func NewRSSFetcher(feeds []string) *RSSFetcher {
	if len(feeds) == 0 {
		feeds = DefaultRSSFeeds
	}
	p := gofeed.NewParser()
	p.UserAgent = "CryptoPulseBot/1.0"
	return &RSSFetcher{parser: p, feeds: feeds}
}

func (f *RSSFetcher) Name() string {
	return "rss_news"
}

func (f *RSSFetcher) Fetch(ctx context.Context) ([]RawArticle, error) {
	log.Printf("rss: fetch %d feeds...", len(f.feeds))

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		sem    = make(chan struct{}, rssConcurrency)
		out    = make([]RawArticle, 0, 128)
		failed int
	)

	for _, feedURL := range f.feeds {
		wg.Add(1)
		sem <- struct{}{}
		go func(feedURL string) {
			defer wg.Done()
			defer func() { <-sem }()

			items, err := f.fetchFeed(ctx, feedURL)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("rss: fetch %s error: %v", feedURL, err)
				failed++
				return
			}
			out = append(out, items...)
		}(feedURL)
	}
	wg.Wait()

	if failed == len(f.feeds) {
		return nil, fmt.Errorf("rss: all %d feeds failed", len(f.feeds))
	}

	log.Printf("rss: fetched %d items (%d feeds failed)", len(out), failed)
	return out, nil
}

func (f *RSSFetcher) fetchFeed(ctx context.Context, feedURL string) ([]RawArticle, error) {
	fctx, cancel := context.WithTimeout(ctx, rssFeedTimeout)
	defer cancel()

	fd, err := f.parser.ParseURLWithContext(feedURL, fctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	maxAge := time.Now().Add(-rssMaxItemAge)
	items := make([]RawArticle, 0, len(fd.Items))
	for _, it := range fd.Items {
		var pub time.Time
		if it.PublishedParsed != nil {
			pub = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			pub = *it.UpdatedParsed
		}
		// 一周以前的旧闻直接丢弃，避免冷门源把陈年条目顶进聚合流
		if !pub.IsZero() && pub.Before(maxAge) {
			continue
		}

		summary := it.Description
		if summary == "" {
			summary = it.Content
		}
		summary = truncateText(stripHTML(summary), rssMaxSummaryLen)

		items = append(items, RawArticle{
			GUID:        it.GUID,
			Title:       it.Title,
			Link:        it.Link,
			Summary:     summary,
			PublishedAt: pub,
			FeedURL:     feedURL,
		})
	}
	return items, nil
}

// stripHTML 去掉摘要里的标签并压缩空白；RSS 源常把整段 HTML 塞进 description
func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func truncateText(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
