package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/logger"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
)

// LoginUseCase 邮箱密码登录，签发Token并保存会话
type LoginUseCase struct {
	userService user.Service
	jwtManager  *jwt.Manager
	sessions    SessionStore
}

func NewLoginUseCase(userService user.Service, jwtManager *jwt.Manager, sessions SessionStore) *LoginUseCase {
	return &LoginUseCase{userService: userService, jwtManager: jwtManager, sessions: sessions}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string
	Password string
	ClientIP string
}

func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	u, err := uc.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return issue(ctx, uc.jwtManager, uc.sessions, u, req.ClientIP)
}

// RefreshUseCase 用Refresh Token换新的Token对
// 要求会话仍然存在（登出后Refresh Token失效），并重新读取用户（管理员身份可能已变化）
type RefreshUseCase struct {
	users      user.Repository
	jwtManager *jwt.Manager
	sessions   SessionStore
}

func NewRefreshUseCase(users user.Repository, jwtManager *jwt.Manager, sessions SessionStore) *RefreshUseCase {
	return &RefreshUseCase{users: users, jwtManager: jwtManager, sessions: sessions}
}

func (uc *RefreshUseCase) Execute(ctx context.Context, refreshToken, clientIP string) (*TokenResponse, error) {
	claims, err := uc.jwtManager.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if _, err := uc.sessions.GetSession(ctx, claims.UserID); err != nil {
		return nil, err
	}
	u, err := uc.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.GetAppError(err).Code == apperrors.ErrCodeUserNotFound {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	return issue(ctx, uc.jwtManager, uc.sessions, u, clientIP)
}

// LogoutUseCase 登出：删除会话，Access Token在剩余有效期内加入黑名单
type LogoutUseCase struct {
	sessions SessionStore
}

func NewLogoutUseCase(sessions SessionStore) *LogoutUseCase {
	return &LogoutUseCase{sessions: sessions}
}

func (uc *LogoutUseCase) Execute(ctx context.Context, claims *jwt.Claims, accessToken string) error {
	if err := uc.sessions.DeleteSession(ctx, claims.UserID); err != nil {
		return err
	}
	if err := uc.sessions.AddToBlacklist(ctx, accessToken, claims.TTL(time.Now())); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("用户登出", zap.Uint("user_id", claims.UserID))
	return nil
}

// MeUseCase 当前用户信息
type MeUseCase struct {
	users user.Repository
}

func NewMeUseCase(users user.Repository) *MeUseCase {
	return &MeUseCase{users: users}
}

func (uc *MeUseCase) Execute(ctx context.Context, userID uint) (*UserInfo, error) {
	u, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := toUserInfo(u)
	return &info, nil
}
