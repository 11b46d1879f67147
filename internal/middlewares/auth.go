package middlewares

import (
	"net/http"
	"strings"

	"github.com/3Eeeecho/go-cloudbox/internal/config"
	"github.com/3Eeeecho/go-cloudbox/internal/handlers/response"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/utils"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware 解析 JWT 并把用户 ID 写入上下文
// 浏览器直接打开下载链接时无法带请求头，因此也接受 ?token= 查询参数
func AuthMiddleware(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从请求头或查询参数获取 Token
		tokenString, ok := bearerToken(c)
		if !ok {
			response.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "Authorization header is required")
			return
		}

		// 2. 解析和验证 Token
		claims, err := utils.ParseToken(tokenString, cfg.SecretKey)
		if err != nil {
			response.AbortWithError(c, http.StatusUnauthorized, xerr.TokenInvalidCode, "Invalid or expired token")
			return
		}

		// 3. 将用户信息存储到 Gin Context 中，以便后续 Handler 使用
		c.Set(utils.ContextUserIDKey, claims.UserID)
		c.Set("email", claims.Email)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		// Token 格式通常是 "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if t := c.Query("token"); t != "" {
		return t, true
	}
	return "", false
}
