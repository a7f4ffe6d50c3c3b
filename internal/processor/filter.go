package processor

import (
	"github.com/cryptopulse/cryptopulse/internal/feed"
)

const (
	minTitleLen   = 10
	minSummaryLen = 20
)

// FilterSpam 在聚类前移除广告/灌水与近空内容，垃圾条目不允许
// 成为聚类种子或混进已有聚类。保持输入顺序，不在此处限量
func FilterSpam(items []feed.Item) []feed.Item {
	out := make([]feed.Item, 0, len(items))
	for _, it := range items {
		if isSpam(it) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func isSpam(it feed.Item) bool {
	if spamPattern.MatchString(it.Title + " " + it.Summary) {
		return true
	}
	// 标题和摘要都近乎为空的条目视为低质量
	return len(it.Title) < minTitleLen && len(it.Summary) < minSummaryLen
}
