package collector

import (
	"context"
	"time"
)

// RawArticle RSS 源解析出的原始条目，只允许被 normalizer 消费，
// 原始形态不外泄到管道后续环节
type RawArticle struct {
	GUID        string
	Title       string
	Link        string
	Summary     string
	PublishedAt time.Time // 零值表示来源未提供发布时间
	FeedURL     string
}

// RawPost 聊天式来源（Telegram 公共网页预览）抓到的原始帖子
type RawPost struct {
	ID       string
	Author   string
	AuthorID string
	Content  string
	PostedAt time.Time
	URL      string
}

// NewsSource 新闻类数据源：一次 Fetch 返回全部原始条目，失败相互独立
type NewsSource interface {
	Name() string
	Fetch(ctx context.Context) ([]RawArticle, error)
}

// SocialSource 社交类数据源
type SocialSource interface {
	Name() string
	Fetch(ctx context.Context) ([]RawPost, error)
}

// PriceSource 行情类数据源
type PriceSource interface {
	Name() string
	Fetch(ctx context.Context) ([]CryptoPrice, error)
}
