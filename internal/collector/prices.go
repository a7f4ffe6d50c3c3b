package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	coinGeckoMarketsURL   = "https://api.coingecko.com/api/v3/coins/markets"
	priceClientTimeout    = 10 * time.Second
	priceMaxResponseBytes = 1 << 20 // 1MB
)

// CryptoPrice 单个币种的行情快照
type CryptoPrice struct {
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Change24h   decimal.Decimal `json:"change24h"`
	Volume24h   decimal.Decimal `json:"volume24h"`
	MarketCap   decimal.Decimal `json:"marketCap"`
	LastUpdate  time.Time       `json:"lastUpdate"`
	CoinGeckoID string          `json:"coinGeckoId"`
}

// MonitoredCoins 监控的头部币种及其 CoinGecko ID
var MonitoredCoins = []struct {
	ID     string
	Symbol string
}{
	{"bitcoin", "BTC"},
	{"ethereum", "ETH"},
	{"binancecoin", "BNB"},
	{"solana", "SOL"},
	{"cardano", "ADA"},
	{"avalanche-2", "AVAX"},
	{"polkadot", "DOT"},
	{"chainlink", "LINK"},
	{"polygon", "MATIC"},
	{"uniswap", "UNI"},
	{"litecoin", "LTC"},
	{"dogecoin", "DOGE"},
	{"shiba-inu", "SHIB"},
	{"ripple", "XRP"},
	{"tron", "TRX"},
}

type coinGeckoMarket struct {
	ID                       string              `json:"id"`
	Symbol                   string              `json:"symbol"`
	Name                     string              `json:"name"`
	CurrentPrice             decimal.NullDecimal `json:"current_price"`
	PriceChangePercentage24h decimal.NullDecimal `json:"price_change_percentage_24h"`
	TotalVolume              decimal.NullDecimal `json:"total_volume"`
	MarketCap                decimal.NullDecimal `json:"market_cap"`
	LastUpdated              string              `json:"last_updated"`
}

// CoinGeckoFetcher 批量拉取监控币种的行情
type CoinGeckoFetcher struct {
	client *http.Client
}

func NewCoinGeckoFetcher() *CoinGeckoFetcher {
	return &CoinGeckoFetcher{client: &http.Client{Timeout: priceClientTimeout}}
}

func (f *CoinGeckoFetcher) Name() string {
	return "coingecko"
}

func (f *CoinGeckoFetcher) Fetch(ctx context.Context) ([]CryptoPrice, error) {
	log.Println("prices: fetch CoinGecko markets...")

	ids := make([]string, 0, len(MonitoredCoins))
	for _, coin := range MonitoredCoins {
		ids = append(ids, coin.ID)
	}

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("ids", strings.Join(ids, ","))
	q.Set("order", "market_cap_desc")
	q.Set("per_page", "20")
	q.Set("page", "1")
	q.Set("sparkline", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coinGeckoMarketsURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("coingecko: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CryptoPulseBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko: fetch markets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko: unexpected status %d", resp.StatusCode)
	}

	var raw []coinGeckoMarket
	if err := json.NewDecoder(io.LimitReader(resp.Body, priceMaxResponseBytes)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("coingecko: decode markets: %w", err)
	}

	prices := make([]CryptoPrice, 0, len(raw))
	for _, m := range raw {
		lastUpdate := time.Now()
		if ts, err := time.Parse(time.RFC3339, m.LastUpdated); err == nil {
			lastUpdate = ts
		}
		prices = append(prices, CryptoPrice{
			Symbol:      strings.ToUpper(m.Symbol),
			Name:        m.Name,
			Price:       nullToZero(m.CurrentPrice),
			Change24h:   nullToZero(m.PriceChangePercentage24h),
			Volume24h:   nullToZero(m.TotalVolume),
			MarketCap:   nullToZero(m.MarketCap),
			LastUpdate:  lastUpdate,
			CoinGeckoID: m.ID,
		})
	}

	log.Printf("prices: fetched %d prices", len(prices))
	return prices, nil
}

// nullToZero CoinGecko 对缺数据的字段返回 null
func nullToZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// FallbackPrices 行情源彻底失败且无缓存时兜底的演示数据
func FallbackPrices() []CryptoPrice {
	now := time.Now()
	prices := make([]CryptoPrice, 0, len(MonitoredCoins))
	for _, coin := range MonitoredCoins {
		prices = append(prices, CryptoPrice{
			Symbol:      coin.Symbol,
			Name:        coinDisplayName(coin.ID),
			Price:       decimal.NewFromFloat(rand.Float64() * 50000),
			Change24h:   decimal.NewFromFloat((rand.Float64() - 0.5) * 10),
			Volume24h:   decimal.NewFromFloat(rand.Float64() * 1e9),
			MarketCap:   decimal.NewFromFloat(rand.Float64() * 1e11),
			LastUpdate:  now,
			CoinGeckoID: coin.ID,
		})
	}
	return prices
}

// coinDisplayName 把 CoinGecko ID 转成展示名，例如 "shiba-inu" -> "Shiba Inu"
func coinDisplayName(id string) string {
	words := strings.Split(strings.ReplaceAll(id, "-", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
