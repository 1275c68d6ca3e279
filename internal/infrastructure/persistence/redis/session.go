package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// Key设计：library:session:{user_id}、library:blacklist:{token}
const (
	sessionKeyPrefix   = "library:session:"
	blacklistKeyPrefix = "library:blacklist:"
)

// SessionStore 登录会话与JWT黑名单
// JWT本身无状态，登出后通过黑名单让access token提前失效
type SessionStore struct {
	client redis.UniversalClient
}

// NewSessionStore 创建会话存储
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(userID uint) string {
	return sessionKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// SaveSession 记录登录信息，过期时间与refresh token一致
func (s *SessionStore) SaveSession(ctx context.Context, userID uint, data map[string]any, ttl time.Duration) error {
	key := sessionKey(userID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.WithCause(apperrors.ErrRedisError, fmt.Errorf("保存会话失败: %w", err))
	}
	return nil
}

// GetSession 会话不存在视为未登录
func (s *SessionStore) GetSession(ctx context.Context, userID uint) (map[string]string, error) {
	result, err := s.client.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return nil, apperrors.WithCause(apperrors.ErrRedisError, fmt.Errorf("获取会话失败: %w", err))
	}
	if len(result) == 0 {
		return nil, apperrors.ErrUnauthorized
	}
	return result, nil
}

// DeleteSession 登出时删除
func (s *SessionStore) DeleteSession(ctx context.Context, userID uint) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return apperrors.WithCause(apperrors.ErrRedisError, fmt.Errorf("删除会话失败: %w", err))
	}
	return nil
}

// AddToBlacklist ttl为token剩余有效期，过期后自动清理
func (s *SessionStore) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, blacklistKeyPrefix+token, "revoked", ttl).Err(); err != nil {
		return apperrors.WithCause(apperrors.ErrRedisError, fmt.Errorf("添加Token到黑名单失败: %w", err))
	}
	return nil
}

// IsInBlacklist 检查Token是否已被注销
func (s *SessionStore) IsInBlacklist(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistKeyPrefix+token).Result()
	if err != nil {
		return false, apperrors.WithCause(apperrors.ErrRedisError, fmt.Errorf("检查黑名单失败: %w", err))
	}
	return n > 0, nil
}
