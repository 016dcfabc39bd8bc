// Package repository 提供了会话存储与对话日志的数据访问层。
package repository

import (
	"context"
	"fmt"

	"cfs-assistant-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// SessionRepository 是会话凭证的持久化键值存储。
// Save 以单条原子记录写入四个字段；Load 不做任何修复，缺失的字段以空字符串返回。
type SessionRepository interface {
	Load(ctx context.Context) (model.Session, error)
	Save(ctx context.Context, session model.Session) error
	Clear(ctx context.Context) error
}

type redisSessionRepository struct {
	redisClient *redis.Client
	prefix      string
}

// NewRedisSessionRepository 创建一个基于 Redis 的 SessionRepository。
// 每个字段存为独立的键：<prefix>authToken、<prefix>username ……
func NewRedisSessionRepository(redisClient *redis.Client, prefix string) SessionRepository {
	return &redisSessionRepository{redisClient: redisClient, prefix: prefix}
}

func (r *redisSessionRepository) key(name string) string {
	return r.prefix + name
}

func (r *redisSessionRepository) keys() []string {
	keys := make([]string, len(model.SessionKeys))
	for i, k := range model.SessionKeys {
		keys[i] = r.key(k)
	}
	return keys
}

// Load 使用 MGET 一次读取四个键。
func (r *redisSessionRepository) Load(ctx context.Context) (model.Session, error) {
	values, err := r.redisClient.MGet(ctx, r.keys()...).Result()
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	rec := make(map[string]string, len(values))
	for i, v := range values {
		// 不存在的键返回 nil
		if s, ok := v.(string); ok {
			rec[model.SessionKeys[i]] = s
		}
	}
	return model.SessionFromRecord(rec), nil
}

// Save 在 MULTI/EXEC 事务中写入四个键，要么全部写入要么全部失败。
func (r *redisSessionRepository) Save(ctx context.Context, session model.Session) error {
	rec := session.Record()
	_, err := r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range model.SessionKeys {
			pipe.Set(ctx, r.key(k), rec[k], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear 用一条 DEL 删除全部四个键。
func (r *redisSessionRepository) Clear(ctx context.Context) error {
	if err := r.redisClient.Del(ctx, r.keys()...).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
