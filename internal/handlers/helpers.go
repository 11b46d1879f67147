package handlers

import (
	"net/http"
	"strings"

	"github.com/3Eeeecho/go-cloudbox/internal/handlers/response"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/utils"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
)

// currentUser 取出认证中间件写入的用户ID，取不到时直接返回 401
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		response.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "未认证")
		return "", false
	}
	return userID, true
}

// optionalID 空字符串表示根目录
func optionalID(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return &raw
}

func badRequest(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
}
