package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedTokenKey = "auth:revoked:%s"

// TokenRepository 已注销令牌的黑名单，Redis 未启用时所有操作为空操作
type TokenRepository struct {
	Redis *redis.Client
}

func NewTokenRepository(rdb *redis.Client) *TokenRepository {
	return &TokenRepository{Redis: rdb}
}

// Revoke 记录令牌 ID，过期时间与令牌剩余有效期一致
func (r *TokenRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if r.Redis == nil || tokenID == "" || ttl <= 0 {
		return nil
	}
	return r.Redis.Set(ctx, fmt.Sprintf(revokedTokenKey, tokenID), 1, ttl).Err()
}

func (r *TokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r.Redis == nil || tokenID == "" {
		return false, nil
	}
	n, err := r.Redis.Exists(ctx, fmt.Sprintf(revokedTokenKey, tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
