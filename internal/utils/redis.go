// 包 utils：外部连接工具（Postgres / Redis / 自签名证书），统一从配置读取参数
package utils

import (
	"vote-recon/internal/config"
	"vote-recon/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis：按配置创建 Redis 客户端；REDIS_ENABLED=false 时返回 nil
// 约束：客户端惰性连接，返回非 nil 不代表可用，调用方需 Ping 确认
func OpenRedis(cfg *config.Config) *redis.Client {
	if !cfg.RedisEnabled {
		return nil
	}
	logger.L().Debug("redis_env", "addr", cfg.RedisAddr(), "db", cfg.Redis.DB)
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr(), Password: cfg.Redis.Pass, DB: cfg.Redis.DB})
}
