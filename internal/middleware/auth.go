package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/w22j/find-friends-backend/internal/model"
	"github.com/w22j/find-friends-backend/internal/repository"
	"github.com/w22j/find-friends-backend/pkg/jwt"
	"github.com/w22j/find-friends-backend/pkg/response"
)

const (
	ctxKeyUserID = "user_id"
	ctxKeyUser   = "login_user"
)

// TokenValidator access token 校验
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// UserLoader 根据 ID 加载用户
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// JWTAuth JWT 认证中间件，校验失败直接返回 401
func JWTAuth(validator TokenValidator, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, validator, users) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth 携带 token 时解析登录用户，未携带时匿名访问
func OptionalAuth(validator TokenValidator, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if extractToken(c.GetHeader("Authorization")) == "" {
			c.Next()
			return
		}
		if !authenticate(c, validator, users) {
			c.Abort()
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, validator TokenValidator, users UserLoader) bool {
	token := extractToken(c.GetHeader("Authorization"))
	if token == "" {
		response.Unauthorized(c, "")
		return false
	}

	claims, err := validator.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			response.Unauthorized(c, "登录已过期")
		} else {
			response.Unauthorized(c, "")
		}
		return false
	}

	user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Unauthorized(c, "")
		} else {
			_ = c.Error(err)
			response.ErrorWithMsg(c, response.CodeSystemError, "系统内部异常")
		}
		return false
	}

	SetLoginUser(c, user)
	return true
}

// extractToken 从 Authorization header 提取 token
func extractToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// GetUserID 从 context 获取 user_id
func GetUserID(c *gin.Context) int64 {
	userID, exists := c.Get(ctxKeyUserID)
	if !exists {
		return 0
	}
	return userID.(int64)
}

// GetLoginUser 从 context 获取登录用户，匿名访问时为 nil
func GetLoginUser(c *gin.Context) *model.User {
	user, exists := c.Get(ctxKeyUser)
	if !exists {
		return nil
	}
	return user.(*model.User)
}

// SetLoginUser 写入登录用户
func SetLoginUser(c *gin.Context, user *model.User) {
	c.Set(ctxKeyUserID, user.ID)
	c.Set(ctxKeyUser, user)
}
