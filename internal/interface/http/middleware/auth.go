package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/library/internal/domain/query"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/response"
)

const (
	ctxKeyClaims = "claims"
	ctxKeyToken  = "access_token"
)

// TokenBlacklist 已登出的Access Token
type TokenBlacklist interface {
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware JWT认证
// 1. 从 Authorization: Bearer <token> 提取Token
// 2. 检查黑名单（已登出）
// 3. 校验签名与类型，把Claims注入gin上下文
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  TokenBlacklist
}

func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist TokenBlacklist) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, blacklist: blacklist}
}

// RequireAuth 要求登录
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.AbortWithError(c, apperrors.ErrInvalidToken)
			return
		}
		tokenString := strings.TrimSpace(parts[1])

		blacklisted, err := m.blacklist.IsInBlacklist(c.Request.Context(), tokenString)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}
		if blacklisted {
			response.AbortWithError(c, apperrors.New(apperrors.ErrCodeInvalidToken, "Token已失效，请重新登录"))
			return
		}

		claims, err := m.jwtManager.ParseAccessToken(tokenString)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		c.Set(ctxKeyClaims, claims)
		c.Set(ctxKeyToken, tokenString)
		c.Next()
	}
}

// RequireAdmin 要求管理员，需放在RequireAuth之后
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortWithError(c, apperrors.ErrUnauthorized)
			return
		}
		if !claims.IsAdmin {
			response.AbortWithError(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// GetClaims 当前请求的Claims，未登录返回nil
func GetClaims(c *gin.Context) *jwt.Claims {
	if v, ok := c.Get(ctxKeyClaims); ok {
		if claims, ok := v.(*jwt.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetAccessToken 当前请求携带的Access Token
func GetAccessToken(c *gin.Context) string {
	return c.GetString(ctxKeyToken)
}

// GetPrincipal 当前认证用户，供查询层做可见性判断
func GetPrincipal(c *gin.Context) query.Principal {
	claims := GetClaims(c)
	if claims == nil {
		return query.Principal{}
	}
	return query.Principal{UserID: claims.UserID, IsAdmin: claims.IsAdmin}
}
