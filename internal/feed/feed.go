package feed

import "time"

// Sentiment 情感极性
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ItemType 条目类型：新闻源 or 社交源
type ItemType string

const (
	TypeNews   ItemType = "news"
	TypeSocial ItemType = "social"
)

// SimilarTitle 被折叠进同一聚类的近似标题，保留来源供前端展开查看
type SimilarTitle struct {
	Source string `json:"source"`
	Title  string `json:"title"`
}

// Item 聚合后的统一条目。所有来源（RSS / Telegram）最终都归一成这个结构
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Summary     string    `json:"summary"`

	// IsPriceImpacting 标题或摘要命中影响价格的关键词
	IsPriceImpacting bool     `json:"isPriceImpacting"`
	ItemType         ItemType `json:"itemType"`

	// 社交来源才有的字段（频道展示名 / 频道用户名）
	Author   string `json:"author,omitempty"`
	AuthorID string `json:"authorId,omitempty"`

	// Categories 永远非空，未命中任何分类时回落到 ["general"]
	Categories []string `json:"categories"`

	Sentiment           Sentiment `json:"sentiment"`
	SentimentConfidence int       `json:"sentimentConfidence"`
	SentimentTerms      []string  `json:"sentimentTerms,omitempty"`

	// 聚类后填充：贡献该条目的去重来源数与列表
	SourceCount       int            `json:"sourceCount"`
	AggregatedSources []string       `json:"aggregatedSources"`
	SimilarTitles     []SimilarTitle `json:"similarTitles,omitempty"`
}
