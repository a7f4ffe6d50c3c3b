package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// Cache 单槽位结果缓存：每次成功聚合整槽覆盖，两次写入之间只读。
// 进程内槽位是唯一权威，新鲜度由调用方根据年龄自行判断。
// 可选的 Redis 镜像只在进程重启后给空槽位预热，读写均为尽力而为，
// Redis 不可用时行为不变
type Cache[T any] struct {
	mu  sync.RWMutex
	ok  bool
	ts  time.Time
	val T

	rdb *redis.Client
	key string
	ttl time.Duration
}

func New[T any](key string, ttl time.Duration) *Cache[T] {
	return &Cache[T]{key: key, ttl: ttl}
}

// WithRedis 挂接镜像并尝试用上一次的结果预热空槽位；rdb 可为 nil
func (c *Cache[T]) WithRedis(rdb *redis.Client) *Cache[T] {
	if rdb == nil {
		return c
	}
	c.rdb = rdb
	c.warm()
	return c
}

type mirrorEntry[T any] struct {
	Timestamp time.Time `json:"timestamp"`
	Data      T         `json:"data"`
}

func (c *Cache[T]) warm() {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	bs, err := c.rdb.Get(ctx, c.key).Bytes()
	if err != nil {
		return
	}
	var e mirrorEntry[T]
	if err := json.Unmarshal(bs, &e); err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ok {
		c.val, c.ts, c.ok = e.Data, e.Timestamp, true
	}
}

// Get 返回槽内数据及其年龄，不判断是否过期；槽位为空时 ok 为 false
func (c *Cache[T]) Get() (T, time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ok {
		var zero T
		return zero, 0, false
	}
	return c.val, time.Since(c.ts), true
}

// Set 原子替换整个槽位，并尽力同步写镜像
func (c *Cache[T]) Set(val T) {
	now := time.Now()
	c.mu.Lock()
	c.val, c.ts, c.ok = val, now, true
	c.mu.Unlock()

	if c.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if bs, err := json.Marshal(mirrorEntry[T]{Timestamp: now, Data: val}); err == nil {
		_ = c.rdb.Set(ctx, c.key, bs, c.ttl).Err()
	}
}
