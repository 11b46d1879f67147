package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-cloudbox/internal/handlers/response"
	"github.com/3Eeeecho/go-cloudbox/internal/services/admin"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService admin.UserService
}

func NewUserHandler(userService admin.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetUserProfile 处理获取已认证用户资料的请求。
// @Summary 获取当前用户资料
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response "用户资料检索成功"
// @Failure 401 {object} response.Response "未授权"
// @Failure 404 {object} response.Response "用户未找到"
// @Router /api/v1/users/me [get]
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err, "检索用户资料失败")
		return
	}
	response.Success(c, http.StatusOK, "成功获取用户资料", user)
}
