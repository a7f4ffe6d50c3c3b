package processor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cryptopulse/cryptopulse/internal/feed"
)

const (
	// SimilarityThreshold 两个标题归并进同一聚类的最低 Jaccard 相似度
	SimilarityThreshold = 0.7

	// O(n²) 两两比较的输入上限；超限时先按时间取最新的一批
	maxProcessItems = 400

	normalizedTitleMaxLen = 80
)

// 标题归一化时剔除的套话/停用词/行业水词。
// 只用于相似度比较，展示标题不受影响
var fillerPatterns = []*regexp.Regexp{
	// 新闻头部惯用语
	regexp.MustCompile(`(?i)\b(breaking|alert|urgent|just in|update|report|analysis|exclusive|announced|review|price watch|explained|guide|tutorial|how to|sponsored|promoted|vs|versus)\b`),
	// 常见冠词、介词与助动词
	regexp.MustCompile(`(?i)\b(a|an|the|is|are|was|were|to|of|for|on|in|at|by|with|as|it|its|will|be|has|had|have|can|could|should|would|may|might|must|amid|after|over|here's|heres|what|you|need|know)\b`),
	// 标题里不携带区分信息的市场措辞
	regexp.MustCompile(`(?i)\b(rumors?|rumours?|speculation|speculate[sd]?|circulate[sd]?|circulating|expected|reportedly)\b`),
	// 行业水词与币名本身：几乎每条标题都有，不具区分度
	regexp.MustCompile(`(?i)\b(price prediction|price analysis|price movement|market update|crypto market|btc|eth|bitcoin|ethereum|cryptocurrency|crypto|market cap|trading volume)\b`),
}

var (
	thousandsPattern = regexp.MustCompile(`(\d),(\d{3})\b`)
	kSuffixPattern   = regexp.MustCompile(`\b(\d+)k\b`)
	nonAlnumPattern  = regexp.MustCompile(`[^\w\s]|_`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// NormalizeTitle 生成仅用于相似度比较的标题形态：小写、剔除套话、
// 统一数字写法（60,000 与 60k 都归一成 60000）、去掉非字母数字字符、
// 压缩空白并截断长度
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}
	norm := strings.ToLower(title)
	for _, re := range fillerPatterns {
		norm = re.ReplaceAllString(norm, " ")
	}
	for thousandsPattern.MatchString(norm) {
		norm = thousandsPattern.ReplaceAllString(norm, "$1$2")
	}
	norm = kSuffixPattern.ReplaceAllString(norm, "${1}000")
	norm = nonAlnumPattern.ReplaceAllString(norm, " ")
	norm = strings.TrimSpace(spacePattern.ReplaceAllString(norm, " "))
	if len(norm) > normalizedTitleMaxLen {
		norm = norm[:normalizedTitleMaxLen]
	}
	return norm
}

// SimilarityScore 两个标题归一化后按词集求 Jaccard 相似度，
// 对称且落在 [0,1]；任一归一化结果为空时返回 0
func SimilarityScore(title1, title2 string) float64 {
	n1 := NormalizeTitle(title1)
	n2 := NormalizeTitle(title2)
	return similarity(n1, tokenSet(n1), n2, tokenSet(n2))
}

func tokenSet(norm string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(norm) {
		set[tok] = struct{}{}
	}
	return set
}

func similarity(norm1 string, set1 map[string]struct{}, norm2 string, set2 map[string]struct{}) float64 {
	if norm1 == "" || norm2 == "" {
		return 0
	}
	if norm1 == norm2 {
		return 1
	}
	if len(set1) == 0 || len(set2) == 0 {
		return 0
	}
	inter := 0
	for tok := range set1 {
		if _, ok := set2[tok]; ok {
			inter++
		}
	}
	union := len(set1) + len(set2) - inter
	return float64(inter) / float64(union)
}

type clusterEntry struct {
	item   feed.Item
	norm   string
	tokens map[string]struct{}
}

// Cluster 贪心单链路聚类：反复取队首作种子，把剩余条目中相似度达到
// 阈值的并入同一簇。非传递——与 B 相似但与种子不相似的条目不会进入
// 该簇，这是已知的启发式局限，依赖输入顺序；因此先统一按时间降序排。
// 已聚类过的条目（sourceCount 已填充）作为单例原样通过
func Cluster(items []feed.Item, threshold float64) []feed.Item {
	sorted := make([]feed.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})
	if len(sorted) > maxProcessItems {
		sorted = sorted[:maxProcessItems]
	}

	remaining := make([]clusterEntry, 0, len(sorted))
	for _, it := range sorted {
		norm := NormalizeTitle(it.Title)
		remaining = append(remaining, clusterEntry{item: it, norm: norm, tokens: tokenSet(norm)})
	}

	out := make([]feed.Item, 0, len(remaining))
	for len(remaining) > 0 {
		seed := remaining[0]
		remaining = remaining[1:]

		members := []clusterEntry{seed}
		kept := remaining[:0]
		for _, e := range remaining {
			if similarity(seed.norm, seed.tokens, e.norm, e.tokens) >= threshold {
				members = append(members, e)
			} else {
				kept = append(kept, e)
			}
		}
		remaining = kept

		if len(members) == 1 {
			out = append(out, asSingleton(seed.item))
			continue
		}
		out = append(out, buildCluster(members))
	}
	return out
}

func asSingleton(it feed.Item) feed.Item {
	if it.SourceCount == 0 {
		it.SourceCount = 1
		it.AggregatedSources = []string{it.Source}
	}
	return it
}

// buildCluster 选代表并合成聚类条目。代表优先级：影响价格 > 新闻先于
// 社交 > 文本更长 > 发布更早。聚类时间取全簇最早，分类取全簇并集
func buildCluster(members []clusterEntry) feed.Item {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i].item, members[j].item
		if a.IsPriceImpacting != b.IsPriceImpacting {
			return a.IsPriceImpacting
		}
		if a.ItemType != b.ItemType {
			return a.ItemType == feed.TypeNews
		}
		at, bt := clusterText(a), clusterText(b)
		if len(at) != len(bt) {
			return len(at) > len(bt)
		}
		return a.PublishedAt.Before(b.PublishedAt)
	})

	rep := members[0].item

	earliest := rep.PublishedAt
	sources := make([]string, 0, len(members))
	seenSources := make(map[string]struct{}, len(members))
	var similarTitles []feed.SimilarTitle
	var categories []string
	seenCats := make(map[string]struct{})

	for _, m := range members {
		it := m.item
		if it.PublishedAt.Before(earliest) {
			earliest = it.PublishedAt
		}
		if _, ok := seenSources[it.Source]; !ok {
			seenSources[it.Source] = struct{}{}
			sources = append(sources, it.Source)
		}
		if it.ID != rep.ID {
			similarTitles = append(similarTitles, feed.SimilarTitle{Source: it.Source, Title: it.Title})
		}
		for _, cat := range it.Categories {
			if _, ok := seenCats[cat]; !ok {
				seenCats[cat] = struct{}{}
				categories = append(categories, cat)
			}
		}
	}

	rep.PublishedAt = earliest
	rep.SourceCount = len(sources)
	rep.AggregatedSources = sources
	rep.SimilarTitles = similarTitles
	if len(categories) > 0 {
		rep.Categories = categories
	}
	return rep
}

func clusterText(it feed.Item) string {
	if it.Summary != "" {
		return it.Summary
	}
	return it.Title
}

// SortFeed 最终展示排序：影响价格的在前，再按来源数降序（多源故事
// 优先露出），最后按发布时间降序
func SortFeed(items []feed.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.IsPriceImpacting != b.IsPriceImpacting {
			return a.IsPriceImpacting
		}
		if a.SourceCount != b.SourceCount {
			return a.SourceCount > b.SourceCount
		}
		return a.PublishedAt.After(b.PublishedAt)
	})
}
