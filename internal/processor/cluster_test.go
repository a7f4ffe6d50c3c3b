package processor

import (
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/cryptopulse/cryptopulse/internal/feed"
)

func TestNormalizeTitleStripsFillerAndUnifiesNumbers(t *testing.T) {
	// 两种常见的改写（千分位 vs k 后缀、rumors vs speculation）应归一成同一形态
	n1 := NormalizeTitle("Bitcoin Surges Past $60,000 as ETF Rumors Circulate")
	n2 := NormalizeTitle("BTC Surges Past $60K Amid ETF Speculation")
	if n1 != "surges past 60000 etf" {
		t.Fatalf("NormalizeTitle #1 = %q, want %q", n1, "surges past 60000 etf")
	}
	if n1 != n2 {
		t.Fatalf("normalized forms differ: %q vs %q", n1, n2)
	}

	if got := NormalizeTitle(""); got != "" {
		t.Fatalf("NormalizeTitle(\"\") = %q, want empty", got)
	}
}

func TestSimilarityScoreSymmetricAndBounded(t *testing.T) {
	t1 := "Solana Network Handles Record Transaction Load"
	t2 := "Ethereum Developers Schedule Next Testnet Rollout"

	if got := SimilarityScore(t1, t1); got != 1 {
		t.Fatalf("self similarity = %v, want 1", got)
	}

	s12 := SimilarityScore(t1, t2)
	s21 := SimilarityScore(t2, t1)
	if s12 != s21 {
		t.Fatalf("similarity not symmetric: %v vs %v", s12, s21)
	}
	if s12 < 0 || s12 > 1 {
		t.Fatalf("similarity out of range: %v", s12)
	}
	if s12 >= SimilarityThreshold {
		t.Fatalf("unrelated titles should stay below threshold, got %v", s12)
	}

	if got := SimilarityScore("", t1); got != 0 {
		t.Fatalf("similarity with empty title = %v, want 0", got)
	}
}

func TestClusterMergesRewrittenHeadlines(t *testing.T) {
	now := time.Now()
	items := []feed.Item{
		{
			ID:                "a",
			Title:             "Bitcoin Surges Past $60,000 as ETF Rumors Circulate",
			Source:            "Coindesk",
			PublishedAt:       now.Add(-10 * time.Minute),
			Summary:           "Spot funds recorded heavy inflows during the morning session.",
			IsPriceImpacting:  true,
			ItemType:          feed.TypeNews,
			SourceCount:       1,
			AggregatedSources: []string{"Coindesk"},
		},
		{
			ID:                "b",
			Title:             "BTC Surges Past $60K Amid ETF Speculation",
			Source:            "Newsbtc",
			PublishedAt:       now.Add(-25 * time.Minute),
			Summary:           "Traders expect more inflows.",
			IsPriceImpacting:  true,
			ItemType:          feed.TypeNews,
			SourceCount:       1,
			AggregatedSources: []string{"Newsbtc"},
		},
	}
	TagItems(items)

	out := Cluster(items, SimilarityThreshold)
	if len(out) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(out))
	}

	cl := out[0]
	// 代表条目：同为新闻且都影响价格时，摘要更长的一条胜出
	if cl.ID != "a" {
		t.Fatalf("representative = %q, want %q", cl.ID, "a")
	}
	if cl.SourceCount != 2 {
		t.Fatalf("SourceCount = %d, want 2", cl.SourceCount)
	}
	if len(cl.AggregatedSources) != cl.SourceCount {
		t.Fatalf("AggregatedSources length %d != SourceCount %d", len(cl.AggregatedSources), cl.SourceCount)
	}
	if len(cl.SimilarTitles) != 1 || cl.SimilarTitles[0].Source != "Newsbtc" {
		t.Fatalf("unexpected SimilarTitles: %+v", cl.SimilarTitles)
	}
	// 聚类时间取全簇最早
	if !cl.PublishedAt.Equal(items[1].PublishedAt) {
		t.Fatalf("cluster PublishedAt = %v, want earliest %v", cl.PublishedAt, items[1].PublishedAt)
	}
	if len(cl.Categories) == 0 || cl.Categories[0] != "bitcoin" {
		t.Fatalf("cluster categories = %v, want [bitcoin ...]", cl.Categories)
	}
}

func TestClusterRepresentativePriority(t *testing.T) {
	now := time.Now()
	title := "Mining Difficulty Hits New Peak"

	// 影响价格的条目优先，即便它是社交帖且文本更短
	items := []feed.Item{
		{ID: "n", Title: title, Source: "Coindesk", ItemType: feed.TypeNews,
			Summary: "A long detailed writeup about the network difficulty adjustment.", PublishedAt: now.Add(-time.Hour)},
		{ID: "s", Title: title, Source: "Telegram", ItemType: feed.TypeSocial,
			IsPriceImpacting: true, PublishedAt: now},
	}
	out := Cluster(items, SimilarityThreshold)
	if len(out) != 1 || out[0].ID != "s" {
		t.Fatalf("price impacting member should win, got %+v", out)
	}

	// 同为不影响价格时，新闻优先于社交，再按文本长度取更长的
	items = []feed.Item{
		{ID: "social", Title: title, Source: "Telegram", ItemType: feed.TypeSocial, PublishedAt: now},
		{ID: "short", Title: title, Source: "Newsbtc", ItemType: feed.TypeNews,
			Summary: "brief note", PublishedAt: now.Add(-time.Minute)},
		{ID: "long", Title: title, Source: "Coindesk", ItemType: feed.TypeNews,
			Summary: "A much longer summary covering every aspect of the difficulty change in depth.", PublishedAt: now.Add(-2 * time.Minute)},
	}
	out = Cluster(items, SimilarityThreshold)
	if len(out) != 1 || out[0].ID != "long" {
		t.Fatalf("longer news member should win, got %+v", out)
	}
	if out[0].SourceCount != 3 {
		t.Fatalf("SourceCount = %d, want 3", out[0].SourceCount)
	}
}

func TestClusterIdempotent(t *testing.T) {
	now := time.Now()
	items := []feed.Item{
		{ID: "a", Title: "Bitcoin Surges Past $60,000 as ETF Rumors Circulate", Source: "Coindesk",
			Summary: "Spot funds recorded heavy inflows.", ItemType: feed.TypeNews, PublishedAt: now.Add(-10 * time.Minute)},
		{ID: "b", Title: "BTC Surges Past $60K Amid ETF Speculation", Source: "Newsbtc",
			ItemType: feed.TypeNews, PublishedAt: now.Add(-20 * time.Minute)},
		{ID: "c", Title: "Solana Network Handles Record Transaction Load", Source: "Cointelegraph",
			ItemType: feed.TypeNews, PublishedAt: now.Add(-30 * time.Minute)},
		{ID: "d", Title: "Ethereum Developers Schedule Next Testnet Rollout", Source: "Cryptopotato",
			ItemType: feed.TypeNews, PublishedAt: now.Add(-40 * time.Minute)},
	}
	TagItems(items)

	once := Cluster(items, SimilarityThreshold)
	twice := Cluster(once, SimilarityThreshold)

	byID := func(s []feed.Item) {
		sort.Slice(s, func(i, j int) bool { return s[i].ID < s[j].ID })
	}
	byID(once)
	byID(twice)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("re-clustering changed output:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestSortFeedOrdering(t *testing.T) {
	now := time.Now()
	items := []feed.Item{
		{ID: "newest", PublishedAt: now, SourceCount: 1},
		{ID: "multi", PublishedAt: now.Add(-time.Hour), SourceCount: 3},
		{ID: "impact", PublishedAt: now.Add(-2 * time.Hour), SourceCount: 1, IsPriceImpacting: true},
	}
	SortFeed(items)

	want := []string{"impact", "multi", "newest"}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("position %d = %q, want %q (full order: %+v)", i, items[i].ID, id, items)
		}
	}
}
