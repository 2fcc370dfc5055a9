package middleware

import (
	"context"
	"net/http"
	"social_events_backend/internal/config"
	"social_events_backend/internal/util"
	"social_events_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserChecker 令牌中的用户必须仍然存在
type UserChecker interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// RevocationChecker 已注销的令牌不能再使用
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

func AuthMiddleware(cfg *config.Config, users UserChecker, tokens RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT parse failed", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		ctx := c.Request.Context()

		revoked, err := tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Redis 故障时不放行
			logger.Log.Error("Token revocation check failed", zap.Error(err))
			util.Error(c, http.StatusServiceUnavailable, "Authentication backend unavailable")
			c.Abort()
			return
		}
		if revoked {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		exists, err := users.Exists(ctx, claims.UserID)
		if err != nil {
			util.LogInternalError(c, util.WrapStorage("users.exists", err))
			c.Abort()
			return
		}
		if !exists {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(util.ContextUserKey, claims)
		c.Next()
	}
}
