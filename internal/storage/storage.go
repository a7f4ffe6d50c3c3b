package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cryptopulse/cryptopulse/internal/feed"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// FeedRecord 归档后的聚合条目；列表接口用的扩展字段放 JSONB
type FeedRecord struct {
	ID               string    `gorm:"primaryKey;size:128" json:"id"`
	Title            string    `gorm:"size:512" json:"title"`
	Source           string    `gorm:"size:64;index" json:"source"`
	URL              string    `gorm:"size:1024;uniqueIndex" json:"url"`
	Summary          string    `gorm:"size:600" json:"summary"`
	ItemType         string    `gorm:"size:16;index" json:"itemType"`
	PublishedAt      time.Time `gorm:"index" json:"publishedAt"`
	PublishedDate    string    `gorm:"size:10;index" json:"publishedDate"` // 日期 YYYY-MM-DD，用于按日筛选
	IsPriceImpacting bool      `gorm:"index" json:"isPriceImpacting"`
	Sentiment        string    `gorm:"size:16;index" json:"sentiment"`
	SentimentScore   int       `json:"sentimentConfidence"`
	SourceCount      int       `json:"sourceCount"`

	ExtraData datatypes.JSONMap `gorm:"type:jsonb" json:"extraData"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (FeedRecord) TableName() string {
	return "feed_items"
}

// Store 聚合结果归档：Postgres 存明细，Redis 做列表查询的短 TTL 缓存
type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStore(dsn string, rdb *redis.Client) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&FeedRecord{}); err != nil {
		return nil, err
	}

	return &Store{DB: db, Redis: rdb}, nil
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// truncateRunesDB 按 rune 数截断，确保不超过数据库字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

// SaveBatch 归档一批聚合条目，以 URL 作为幂等键；已存在的条目更新
// 聚合元数据（来源数、情感、分类并集会随后续轮次变化）
func (s *Store) SaveBatch(items []feed.Item) error {
	for _, it := range items {
		title := truncateRunesDB(toValidUTF8(it.Title), 512)
		summary := truncateRunesDB(toValidUTF8(it.Summary), 600)

		rec := &FeedRecord{
			ID:               truncateRunesDB(it.ID, 128),
			Title:            title,
			Source:           it.Source,
			URL:              it.URL,
			Summary:          summary,
			ItemType:         string(it.ItemType),
			PublishedAt:      it.PublishedAt,
			PublishedDate:    it.PublishedAt.UTC().Format("2006-01-02"),
			IsPriceImpacting: it.IsPriceImpacting,
			Sentiment:        string(it.Sentiment),
			SentimentScore:   it.SentimentConfidence,
			SourceCount:      it.SourceCount,
			ExtraData:        extraDataFor(it),
		}

		if err := s.DB.Where("url = ?", it.URL).FirstOrCreate(rec).Error; err != nil {
			return fmt.Errorf("archive %s: %w", it.URL, err)
		}
		_ = s.DB.Model(rec).Updates(map[string]any{
			"title":              title,
			"summary":            summary,
			"sentiment":          string(it.Sentiment),
			"sentiment_score":    it.SentimentConfidence,
			"source_count":       it.SourceCount,
			"is_price_impacting": it.IsPriceImpacting,
			"extra_data":         extraDataFor(it),
		}).Error
	}
	return nil
}

func extraDataFor(it feed.Item) datatypes.JSONMap {
	extra := datatypes.JSONMap{
		"categories":        toAnySlice(it.Categories),
		"aggregatedSources": toAnySlice(it.AggregatedSources),
	}
	if len(it.SentimentTerms) > 0 {
		extra["sentimentTerms"] = toAnySlice(it.SentimentTerms)
	}
	if len(it.SimilarTitles) > 0 {
		titles := make([]any, 0, len(it.SimilarTitles))
		for _, st := range it.SimilarTitles {
			titles = append(titles, map[string]any{"source": st.Source, "title": st.Title})
		}
		extra["similarTitles"] = titles
	}
	return extra
}

func toAnySlice(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}

// ListArchive 按分类、情感与日期筛选归档条目，Redis 做 5 分钟列表缓存
func (s *Store) ListArchive(category, sentiment, date string, limit int) ([]FeedRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	ctx := context.Background()
	cacheKey := fmt.Sprintf("cryptopulse:archive:%s:%s:%s:%d", category, sentiment, date, limit)

	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []FeedRecord
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	db := s.DB.Model(&FeedRecord{})
	if category != "" {
		// JSONB 包含判断：extra_data->'categories' 含有指定分类
		db = db.Where("extra_data->'categories' @> ?::jsonb", fmt.Sprintf("[%q]", category))
	}
	if sentiment != "" {
		db = db.Where("sentiment = ?", sentiment)
	}
	if date != "" {
		db = db.Where("published_date = ?", date)
	}

	var list []FeedRecord
	if err := db.Order("published_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}

	const listCacheTTL = 5 * time.Minute
	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err(); err != nil {
				log.Printf("storage: archive cache set error: %v", err)
			}
		}
	}

	return list, nil
}
