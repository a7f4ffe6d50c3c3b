package processor

import (
	"testing"
	"time"

	"github.com/cryptopulse/cryptopulse/internal/collector"
	"github.com/cryptopulse/cryptopulse/internal/feed"
)

func TestNormalizeArticlesDefaultsAndDedupe(t *testing.T) {
	pub := time.Now().Add(-time.Hour)
	articles := []collector.RawArticle{
		{
			GUID:        "g1",
			Title:       "Spot Bitcoin ETF Sees Fresh Inflows",
			Link:        "https://www.newsbtc.com/news/etf-inflows",
			Summary:     "Funds keep accumulating.",
			PublishedAt: pub,
			FeedURL:     "https://www.newsbtc.com/feed/",
		},
		// 同一 guid 的重复条目应被丢弃
		{
			GUID:    "g1",
			Title:   "Spot Bitcoin ETF Sees Fresh Inflows (dup)",
			Link:    "https://www.newsbtc.com/news/etf-inflows",
			FeedURL: "https://www.newsbtc.com/feed/",
		},
		// 缺标题、缺摘要、缺时间的条目用占位值补齐
		{
			Link:    "https://cointelegraph.com/news/placeholder",
			FeedURL: "https://cointelegraph.com/rss",
		},
	}

	out := NormalizeArticles(articles)
	if len(out) != 2 {
		t.Fatalf("expected 2 items after dedupe, got %d", len(out))
	}

	first := out[0]
	if first.ID != "g1" {
		t.Fatalf("ID = %q, want guid %q", first.ID, "g1")
	}
	if first.Source != "Newsbtc" {
		t.Fatalf("Source = %q, want Newsbtc", first.Source)
	}
	if !first.IsPriceImpacting {
		t.Fatalf("ETF headline should be price impacting")
	}
	if first.ItemType != feed.TypeNews {
		t.Fatalf("ItemType = %q, want news", first.ItemType)
	}
	if first.SourceCount != 1 || len(first.AggregatedSources) != 1 || first.AggregatedSources[0] != "Newsbtc" {
		t.Fatalf("source bookkeeping wrong: count=%d sources=%v", first.SourceCount, first.AggregatedSources)
	}

	second := out[1]
	if second.ID != "https://cointelegraph.com/news/placeholder" {
		t.Fatalf("missing guid should fall back to link, got %q", second.ID)
	}
	if second.Title != "No title" || second.Summary != "No summary available" {
		t.Fatalf("placeholders not applied: title=%q summary=%q", second.Title, second.Summary)
	}
	if second.PublishedAt.IsZero() {
		t.Fatalf("missing publish time should default to now")
	}
}

func TestNormalizePosts(t *testing.T) {
	posted := time.Now().Add(-30 * time.Minute)
	posts := []collector.RawPost{
		{
			ID:       "telegram-WatcherGuru-42",
			Author:   "Watcher Guru",
			AuthorID: "WatcherGuru",
			Content:  "Exchange maintenance window announced for the weekend",
			PostedAt: posted,
			URL:      "https://t.me/WatcherGuru/42",
		},
	}

	out := NormalizePosts(posts)
	if len(out) != 1 {
		t.Fatalf("expected 1 item, got %d", len(out))
	}

	it := out[0]
	if it.ItemType != feed.TypeSocial {
		t.Fatalf("ItemType = %q, want social", it.ItemType)
	}
	if it.Source != "Telegram" {
		t.Fatalf("Source = %q, want Telegram", it.Source)
	}
	// 帖子正文即标题，摘要留空
	if it.Title != posts[0].Content || it.Summary != "" {
		t.Fatalf("title/summary mapping wrong: %q / %q", it.Title, it.Summary)
	}
	if it.Author != "Watcher Guru" || it.AuthorID != "WatcherGuru" {
		t.Fatalf("author fields wrong: %q / %q", it.Author, it.AuthorID)
	}
	if !it.PublishedAt.Equal(posted) {
		t.Fatalf("PublishedAt = %v, want %v", it.PublishedAt, posted)
	}
}

func TestSourceNameFromFeed(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.newsbtc.com/feed/", "Newsbtc"},
		{"https://cointelegraph.com/rss", "Cointelegraph"},
		{"https://crypto.news/feed/", "Crypto"},
		{"", "Rss"},
		{":::", "Rss"},
	}
	for _, c := range cases {
		if got := SourceNameFromFeed(c.in); got != c.want {
			t.Fatalf("SourceNameFromFeed(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
