package utils

import (
	"github.com/gin-gonic/gin"
)

// ContextUserIDKey 认证中间件写入 gin.Context 的键
const ContextUserIDKey = "userID"

// GetUserIDFromContext 从 Gin 上下文中获取用户ID
// 返回 false 表示请求没有经过认证中间件
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	userID, ok := v.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
