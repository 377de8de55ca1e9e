package database

import (
	"context"

	"thinkbot-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

var RDB *redis.Client

// InitRedis 初始化 Redis 客户端连接。addr 为空时跳过初始化，
// 对话历史缓存随之禁用，MySQL 仍然是唯一的事实来源。
func InitRedis(addr, password string, db int) {
	if addr == "" {
		log.Info("REDIS_ADDR 未配置，对话历史缓存已禁用")
		return
	}

	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 测试连接
	ctx := context.Background()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", err)
	}

	log.Info("Redis client connected successfully")
}
