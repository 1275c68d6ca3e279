package user

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/pkg/jwt"
)

// SessionStore 登录会话与Token黑名单（Redis实现）
type SessionStore interface {
	SaveSession(ctx context.Context, userID uint, data map[string]any, ttl time.Duration) error
	GetSession(ctx context.Context, userID uint) (map[string]string, error)
	DeleteSession(ctx context.Context, userID uint) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// UserInfo 用户信息
type UserInfo struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	IsAdmin  bool   `json:"is_admin"`
}

func toUserInfo(u *user.User) UserInfo {
	return UserInfo{ID: u.ID, Email: u.Email, Nickname: u.Nickname, IsAdmin: u.IsAdmin}
}

// TokenResponse 登录/刷新响应
type TokenResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"` // Access Token过期时间（秒）
}

// issue 生成Token对并保存会话，会话有效期 = Refresh Token有效期
func issue(ctx context.Context, jwtManager *jwt.Manager, sessions SessionStore, u *user.User, clientIP string) (*TokenResponse, error) {
	pair, err := jwtManager.GenerateToken(u.ID, u.Email, u.Nickname, u.IsAdmin)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"user_id":  u.ID,
		"email":    u.Email,
		"is_admin": u.IsAdmin,
		"login_at": time.Now().Unix(),
		"ip":       clientIP,
	}
	if err := sessions.SaveSession(ctx, u.ID, data, jwtManager.RefreshTokenExpire()); err != nil {
		return nil, err
	}

	return &TokenResponse{
		User:         toUserInfo(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}
