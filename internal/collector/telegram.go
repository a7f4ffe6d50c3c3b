package collector

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const (
	telegramTimeout   = 8 * time.Second
	telegramUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// DefaultTelegramChannels 默认监听的公开频道
var DefaultTelegramChannels = []string{
	"WatcherGuru",
	"whale_alert_io",
	"CryptoCoiners",
	"CoingraphNews",
	"news_crypto",
}

// 频道用户名到展示名的映射；页面上取不到频道标题时兜底
var telegramDisplayNames = map[string]string{
	"WatcherGuru":    "Watcher Guru",
	"whale_alert_io": "Whale Alert",
	"CryptoCoiners":  "Crypto Coiners",
	"CoingraphNews":  "Coingraph News",
	"news_crypto":    "Crypto News",
}

var (
	mentionPattern  = regexp.MustCompile(`@\w+`)
	tgSuffixPattern = regexp.MustCompile(`(?i)\s*\|?\s*telegram\s*\|\s*twitter\s*$`)
)

// TelegramFetcher 抓取 t.me/s/<channel> 公共网页预览。
// 不走 Bot API，公开频道的预览页是静态 HTML，直接解析即可
type TelegramFetcher struct {
	channels []string
}

func NewTelegramFetcher(channels []string) *TelegramFetcher {
	if len(channels) == 0 {
		channels = DefaultTelegramChannels
	}
	return &TelegramFetcher{channels: channels}
}

func (t *TelegramFetcher) Name() string {
	return "telegram"
}

func (t *TelegramFetcher) Fetch(ctx context.Context) ([]RawPost, error) {
	log.Printf("telegram: scrape %d channels...", len(t.channels))

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		all    = make([]RawPost, 0, 64)
		failed int
	)

	for _, ch := range t.channels {
		wg.Add(1)
		go func(ch string) {
			defer wg.Done()
			posts, err := t.scrapeChannel(ch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("telegram: scrape %s error: %v", ch, err)
				failed++
				return
			}
			all = append(all, posts...)
		}(ch)
	}
	wg.Wait()

	if failed == len(t.channels) {
		return nil, fmt.Errorf("telegram: all %d channels failed", len(t.channels))
	}

	// 按发布时间降序，抹平各频道并发完成顺序带来的差异
	sort.Slice(all, func(i, j int) bool {
		return all[i].PostedAt.After(all[j].PostedAt)
	})

	log.Printf("telegram: scraped %d posts (%d channels failed)", len(all), failed)
	return all, nil
}

func (t *TelegramFetcher) scrapeChannel(username string) ([]RawPost, error) {
	c := colly.NewCollector(
		colly.AllowedDomains("t.me"),
		colly.UserAgent(telegramUserAgent),
	)
	c.SetRequestTimeout(telegramTimeout)

	posts := make([]RawPost, 0, 20)
	channelName := telegramDisplayNames[username]
	if channelName == "" {
		channelName = username
	}

	c.OnHTML(".tgme_channel_info_header_title", func(e *colly.HTMLElement) {
		if name := strings.TrimSpace(e.Text); name != "" {
			channelName = name
		}
	})

	c.OnHTML(".tgme_widget_message_wrap", func(e *colly.HTMLElement) {
		text := extractMessageText(e.DOM)
		if text == "" {
			return
		}

		postedAt := time.Now()
		if dt := e.ChildAttr(".tgme_widget_message_date time", "datetime"); dt != "" {
			if ts, err := time.Parse(time.RFC3339, dt); err == nil {
				postedAt = ts
			}
		}

		link := e.ChildAttr("a.tgme_widget_message_date", "href")
		msgID := ""
		if link != "" {
			parts := strings.Split(link, "/")
			msgID = parts[len(parts)-1]
		}
		if msgID == "" {
			msgID = fmt.Sprintf("%d-%d", time.Now().UnixMilli(), len(posts))
		}

		postURL := link
		if postURL == "" {
			postURL = "https://t.me/" + username
		}

		posts = append(posts, RawPost{
			ID:       fmt.Sprintf("telegram-%s-%s", username, msgID),
			AuthorID: username,
			Content:  text,
			PostedAt: postedAt,
			URL:      postURL,
		})
	})

	if err := c.Visit("https://t.me/s/" + username); err != nil {
		return nil, err
	}

	// 频道标题在页面顶部，Visit 返回后再统一回填展示名
	for i := range posts {
		posts[i].Author = channelName
	}
	return posts, nil
}

// extractMessageText 取消息正文；<br> 先替换成换行再取文本，保留原帖的分行
func extractMessageText(sel *goquery.Selection) string {
	msg := sel.Find(".tgme_widget_message_text")
	if msg.Length() == 0 {
		return ""
	}
	msg.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml("\n")
	})
	return CleanMessageText(msg.Text())
}

// CleanMessageText 去掉 @提及 与频道惯用的 "Telegram | Twitter" 尾缀
func CleanMessageText(text string) string {
	text = mentionPattern.ReplaceAllString(text, "")
	text = tgSuffixPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
