package api

import (
	"net/http"
	"strconv"

	"github.com/cryptopulse/cryptopulse/internal/aggregator"
	"github.com/cryptopulse/cryptopulse/internal/feed"
	"github.com/cryptopulse/cryptopulse/internal/storage"
	"github.com/gin-gonic/gin"
)

// Server 所有端点只读、无副作用；缓存更替是内部实现细节。
// 即便失败，响应也是带 error/status 字段的完整 JSON，前端据此降级渲染
type Server struct {
	agg   *aggregator.Aggregator
	store *storage.Store
}

func NewServer(agg *aggregator.Aggregator, store *storage.Store) *Server {
	return &Server{agg: agg, store: store}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/feed", s.combinedFeed)
		v1.GET("/feed/important", s.importantNews)
		v1.GET("/news", s.news)
		v1.GET("/social", s.social)
		v1.GET("/prices", s.prices)
		v1.GET("/archive", s.archive)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) combinedFeed(c *gin.Context) {
	res := s.agg.Combined(c.Request.Context())
	if res.Status == aggregator.StatusError {
		c.JSON(http.StatusInternalServerError, gin.H{
			"posts":  []feed.Item{},
			"status": res.Status,
			"error":  res.Err.Error(),
		})
		return
	}

	body := gin.H{"posts": res.Posts, "status": res.Status}
	if res.Status == aggregator.StatusCached || res.Status == aggregator.StatusStale {
		body["cacheAge"] = res.CacheAge.Milliseconds()
	}
	if !res.Timestamp.IsZero() {
		body["timestamp"] = res.Timestamp.UnixMilli()
	}
	if res.Err != nil {
		body["error"] = res.Err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) importantNews(c *gin.Context) {
	alert, btc := s.agg.ImportantNews(c.Request.Context())
	var news any
	if alert != "" {
		news = alert
	}
	c.JSON(http.StatusOK, gin.H{
		"importantNews": news,
		"bitcoinPrice":  btc,
	})
}

func (s *Server) news(c *gin.Context) {
	res := s.agg.News(c.Request.Context())
	if res.Status == aggregator.StatusError {
		c.JSON(http.StatusInternalServerError, gin.H{
			"news":  []feed.Item{},
			"error": res.Err.Error(),
		})
		return
	}

	body := gin.H{
		"news":   res.Posts,
		"cached": res.Status != aggregator.StatusFresh,
	}
	if res.Status == aggregator.StatusStale {
		body["stale"] = true
		body["error"] = res.Err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) social(c *gin.Context) {
	res := s.agg.Social(c.Request.Context())
	if res.Status == aggregator.StatusError {
		c.JSON(http.StatusInternalServerError, gin.H{
			"posts": []feed.Item{},
			"error": res.Err.Error(),
		})
		return
	}

	body := gin.H{
		"posts":  res.Posts,
		"cached": res.Status != aggregator.StatusFresh,
	}
	if res.Status == aggregator.StatusStale {
		body["stale"] = true
		body["error"] = res.Err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) prices(c *gin.Context) {
	res := s.agg.Prices(c.Request.Context())

	body := gin.H{
		"prices": res.Prices,
		"cached": res.Cached,
	}
	if res.Cached {
		body["cacheAge"] = res.CacheAge.Milliseconds()
	}
	if res.Stale {
		body["stale"] = true
	}
	if res.Err != nil {
		body["error"] = res.Err.Error()
	}

	// 演示兜底数据仍然算失败，状态码要能被前端识别
	if res.Fallback {
		body["fallback"] = true
		c.JSON(http.StatusInternalServerError, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) archive(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "archive_disabled",
			"message": "archive storage is not configured",
		})
		return
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 50
	}

	items, err := s.store.ListArchive(
		c.Query("category"),
		c.Query("sentiment"),
		c.Query("date"),
		limit,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
