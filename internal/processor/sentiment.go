package processor

import (
	"math"
	"strings"

	"github.com/cryptopulse/cryptopulse/internal/feed"
)

const (
	// 置信度按「得分 / 合理最高分」折算到百分比
	maxReasonableScore = 5
	// 只要有词命中，置信度就不低于该下限
	minConfidence = 20
)

// SentimentResult 情感打分结果
type SentimentResult struct {
	Sentiment  feed.Sentiment
	Confidence int
	Terms      []string
}

// AnalyzeSentiment 对文本做加权词表扫描：两侧各求命中权重和，
// 严格大的一侧胜出；平手（含零分）为 neutral 且置信度为 0。
// 纯函数，不依赖其他条目
func AnalyzeSentiment(text string) SentimentResult {
	if text == "" {
		return SentimentResult{Sentiment: feed.SentimentNeutral}
	}

	posScore, posTerms := scoreTerms(text, positiveTerms)
	negScore, negTerms := scoreTerms(text, negativeTerms)

	switch {
	case posScore > negScore:
		return SentimentResult{
			Sentiment:  feed.SentimentPositive,
			Confidence: confidenceFor(posScore),
			Terms:      posTerms,
		}
	case negScore > posScore:
		return SentimentResult{
			Sentiment:  feed.SentimentNegative,
			Confidence: confidenceFor(negScore),
			Terms:      negTerms,
		}
	default:
		return SentimentResult{Sentiment: feed.SentimentNeutral}
	}
}

func scoreTerms(text string, terms []WeightedTerm) (int, []string) {
	score := 0
	var matched []string
	for _, t := range terms {
		if termPatterns[t.Term].MatchString(text) {
			score += t.Weight
			matched = append(matched, t.Term)
		}
	}
	return score, matched
}

func confidenceFor(score int) int {
	c := int(math.Round(float64(score) / maxReasonableScore * 100))
	if c > 100 {
		c = 100
	}
	if c > 0 && c < minConfidence {
		c = minConfidence
	}
	return c
}

// Categorize 独立检查每个分类正则，可多选；全部未命中时回落到 general
func Categorize(text string) []string {
	if text == "" {
		return []string{CategoryGeneral}
	}
	var categories []string
	for _, cp := range categoryPatterns {
		if cp.Pattern.MatchString(text) {
			categories = append(categories, cp.Name)
		}
	}
	if len(categories) == 0 {
		categories = append(categories, CategoryGeneral)
	}
	return categories
}

// TagItems 逐条打情感与分类标注；聚类时会对成员分类求并集，
// 所以标注必须先于聚类执行
func TagItems(items []feed.Item) {
	for i := range items {
		text := strings.TrimSpace(items[i].Title + " " + items[i].Summary)
		r := AnalyzeSentiment(text)
		items[i].Sentiment = r.Sentiment
		items[i].SentimentConfidence = r.Confidence
		items[i].SentimentTerms = r.Terms
		items[i].Categories = Categorize(text)
	}
}
