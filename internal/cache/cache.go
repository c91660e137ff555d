// 包 cache：对账结果热缓存（Redis + 进程内 LRU），供按缩放层级多次生成柱体时复用
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vote-recon/internal/logger"
	"vote-recon/internal/metrics"
	"vote-recon/internal/recon"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "voterecon:result:"

// ResultCache：按频道 id 缓存最近一次成功的对账结果
type ResultCache interface {
	Get(ctx context.Context, channelID string) (*recon.Result, bool)
	Set(ctx context.Context, r *recon.Result)
}

// Redis：JSON 序列化存储，带 TTL
// 约束：rc 为 nil 时所有读取未命中、写入忽略；Redis 异常仅记录日志，不影响主流程
type Redis struct {
	rc  *redis.Client
	ttl time.Duration
}

func NewRedis(rc *redis.Client, ttl time.Duration) *Redis { return &Redis{rc: rc, ttl: ttl} }

func (c *Redis) Get(ctx context.Context, channelID string) (*recon.Result, bool) {
	if c.rc == nil {
		return nil, false
	}
	s, err := c.rc.Get(ctx, keyPrefix+channelID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Debug("result_cache_redis_get_error", "channel", channelID, "err", err)
		}
		return nil, false
	}
	var r recon.Result
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		logger.L().Debug("result_cache_decode_error", "channel", channelID, "err", err)
		return nil, false
	}
	return &r, true
}

func (c *Redis) Set(ctx context.Context, r *recon.Result) {
	if c.rc == nil || r == nil {
		return
	}
	b, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := c.rc.Set(ctx, keyPrefix+r.ChannelID, b, c.ttl).Err(); err != nil {
		logger.L().Debug("result_cache_redis_set_error", "channel", r.ChannelID, "err", err)
	}
}

// 文档注释：两级缓存
// 背景：先查进程内 LRU，再查 Redis（多实例共享）；Redis 命中时回填本地。写入同时写两级。
type Layered struct {
	local  *LRU
	remote *Redis
}

func New(rc *redis.Client, size int, ttl time.Duration) *Layered {
	return &Layered{local: NewLRU(size, ttl), remote: NewRedis(rc, ttl)}
}

func (c *Layered) Get(ctx context.Context, channelID string) (*recon.Result, bool) {
	if r, ok := c.local.Get(ctx, channelID); ok {
		metrics.ResultCacheHitsTotal.Inc()
		return r, true
	}
	if r, ok := c.remote.Get(ctx, channelID); ok {
		c.local.Set(ctx, r)
		metrics.ResultCacheHitsTotal.Inc()
		return r, true
	}
	metrics.ResultCacheMissesTotal.Inc()
	return nil, false
}

func (c *Layered) Set(ctx context.Context, r *recon.Result) {
	c.local.Set(ctx, r)
	c.remote.Set(ctx, r)
}
