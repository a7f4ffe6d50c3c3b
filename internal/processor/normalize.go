package processor

import (
	"net/url"
	"strings"
	"time"

	"github.com/cryptopulse/cryptopulse/internal/collector"
	"github.com/cryptopulse/cryptopulse/internal/feed"
	"github.com/google/uuid"
)

const (
	defaultTitle   = "No title"
	defaultSummary = "No summary available"
	socialSource   = "Telegram"
)

// NormalizeArticles 把 RSS 原始条目归一成统一模型。
// 必填字段保证有值：缺标题/摘要用占位文案，缺时间用当前时间，
// 缺 id 依次用 guid、链接、随机 uuid。同一批内按 id 去重
func NormalizeArticles(articles []collector.RawArticle) []feed.Item {
	now := time.Now()
	seen := make(map[string]struct{}, len(articles))
	out := make([]feed.Item, 0, len(articles))

	for _, a := range articles {
		id := a.GUID
		if id == "" {
			id = a.Link
		}
		if id == "" {
			id = uuid.NewString()
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		title := strings.TrimSpace(a.Title)
		if title == "" {
			title = defaultTitle
		}
		summary := strings.TrimSpace(a.Summary)
		if summary == "" {
			summary = defaultSummary
		}
		pub := a.PublishedAt
		if pub.IsZero() {
			pub = now
		}
		link := a.Link
		if link == "" {
			link = a.FeedURL
		}

		source := SourceNameFromFeed(a.FeedURL)
		out = append(out, feed.Item{
			ID:                id,
			Title:             title,
			Source:            source,
			URL:               link,
			PublishedAt:       pub,
			Summary:           summary,
			IsPriceImpacting:  IsPriceImpacting(title, summary),
			ItemType:          feed.TypeNews,
			SourceCount:       1,
			AggregatedSources: []string{source},
		})
	}
	return out
}

// NormalizePosts 把聊天式帖子归一成统一模型：帖子正文即标题，摘要留空
func NormalizePosts(posts []collector.RawPost) []feed.Item {
	now := time.Now()
	seen := make(map[string]struct{}, len(posts))
	out := make([]feed.Item, 0, len(posts))

	for _, p := range posts {
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		title := strings.TrimSpace(p.Content)
		if title == "" {
			title = defaultTitle
		}
		pub := p.PostedAt
		if pub.IsZero() {
			pub = now
		}

		out = append(out, feed.Item{
			ID:                id,
			Title:             title,
			Source:            socialSource,
			URL:               p.URL,
			PublishedAt:       pub,
			Summary:           "",
			IsPriceImpacting:  IsPriceImpacting(title, ""),
			ItemType:          feed.TypeSocial,
			Author:            p.Author,
			AuthorID:          p.AuthorID,
			SourceCount:       1,
			AggregatedSources: []string{socialSource},
		})
	}
	return out
}

// SourceNameFromFeed 从订阅地址推导来源名：
// 主机名去掉 www. 前缀，取第一段并首字母大写
func SourceNameFromFeed(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return "Rss"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	name := strings.Split(host, ".")[0]
	if name == "" {
		return "Rss"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
