package processor

import (
	"regexp"
	"strings"
)

// 词表全部做成数据，打分/分类算法不感知具体词条，便于独立扩展与测试

// WeightedTerm 情感词及其权重（1–3）
type WeightedTerm struct {
	Term   string
	Weight int
}

var positiveTerms = []WeightedTerm{
	{"bullish", 3},
	{"surge", 2},
	{"rally", 2},
	{"gain", 1},
	{"profit", 1},
	{"climb", 1},
	{"rise", 1},
	{"soar", 2},
	{"uptrend", 2},
	{"upside", 1},
	{"growth", 1},
	{"record high", 3},
	{"breakthrough", 2},
	{"milestone", 1},
	{"opportunity", 1},
	{"optimistic", 2},
	{"outperform", 2},
}

var negativeTerms = []WeightedTerm{
	{"bearish", 3},
	{"crash", 3},
	{"plunge", 2},
	{"drop", 1},
	{"fall", 1},
	{"decline", 1},
	{"down", 1},
	{"loss", 1},
	{"downtrend", 2},
	{"warning", 1},
	{"risk", 1},
	{"danger", 2},
	{"trouble", 1},
	{"sell-off", 2},
	{"dump", 2},
	{"correction", 1},
	{"concern", 1},
}

// impactKeywords 命中则认为条目可能影响价格；按子串匹配
var impactKeywords = []string{
	"crash",
	"surge",
	"soar",
	"plummet",
	"ban",
	"regulate",
	"sec",
	"hack",
	"security",
	"breach",
	"exploit",
	"vulnerability",
	"etf",
	"approval",
	"reject",
	"halving",
	"fork",
	"upgrade",
}

// spamKeywords 广告/灌水常见话术，聚类前过滤
var spamKeywords = []string{
	"giveaway",
	"airdrop",
	"sign up",
	"limited offer",
	"special deal",
	"exclusive access",
	"click here",
	"free crypto",
	"guaranteed profit",
	"make money fast",
	"investment opportunity",
	"whitelist now",
	"presale live",
	"ico starting",
	"join telegram",
	"promoted content",
	"sponsored post",
	"how to",
	"guide",
	"tutorial",
	"explained",
	"need to know",
	"beginner's guide",
	"what is",
	"what are",
	"opinion",
}

type categoryPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

var categoryPatterns = []categoryPattern{
	{"bitcoin", regexp.MustCompile(`(?i)\b(bitcoin|btc)\b`)},
	{"ethereum", regexp.MustCompile(`(?i)\b(ethereum|eth)\b`)},
	{"defi", regexp.MustCompile(`(?i)\b(defi|decentralized finance)\b`)},
	{"nft", regexp.MustCompile(`(?i)\b(nft|non.fungible)\b`)},
	{"regulation", regexp.MustCompile(`(?i)\b(regulation|regulat|law|legal|government)\b`)},
	{"exchange", regexp.MustCompile(`(?i)\b(exchange|binance|coinbase|kraken|ftx)\b`)},
	{"wallet", regexp.MustCompile(`(?i)\b(wallet|custody|storage)\b`)},
	{"security", regexp.MustCompile(`(?i)\b(hack|security|breach|theft|vulnerability)\b`)},
}

// CategoryGeneral 未命中任何分类时的兜底分类
const CategoryGeneral = "general"

var spamPattern = compileUnion(spamKeywords)

func compileUnion(keywords []string) *regexp.Regexp {
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	return regexp.MustCompile("(?i)" + strings.Join(quoted, "|"))
}

// 情感词按整词匹配，预编译词 -> 正则
var termPatterns = buildTermPatterns()

func buildTermPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(positiveTerms)+len(negativeTerms))
	for _, t := range positiveTerms {
		patterns[t.Term] = compileWordPattern(t.Term)
	}
	for _, t := range negativeTerms {
		patterns[t.Term] = compileWordPattern(t.Term)
	}
	return patterns
}

func compileWordPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
}

// IsPriceImpacting 标题+摘要里出现任一影响关键词即判定为 true
func IsPriceImpacting(title, summary string) bool {
	text := strings.ToLower(title + " " + summary)
	for _, kw := range impactKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
