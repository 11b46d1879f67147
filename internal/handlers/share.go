package handlers

import (
	"net/http"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/handlers/response"
	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/services/share"
	"github.com/gin-gonic/gin"
)

type ShareHandler struct {
	shareService share.ShareService
}

func NewShareHandler(shareService share.ShareService) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
	}
}

type CreateShareRequest struct {
	FileID     string     `json:"file_id" binding:"required"`
	Email      string     `json:"email" binding:"required,email"`
	Permission string     `json:"permission" binding:"required"` // VIEWER 或 EDITOR
	ExpiresAt  *time.Time `json:"expires_at"`
}

type UpdateShareRequest struct {
	Permission string `json:"permission" binding:"required"`
}

// CreateShare 把文件分享给某个邮箱，未注册的邮箱只收到公开链接
// @Summary 分享文件
// @Tags 分享
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateShareRequest true "分享信息"
// @Success 200 {object} response.Response "内部分享返回分享记录，外部分享只返回 token"
// @Failure 400 {object} response.Response "请求参数无效或分享给自己"
// @Failure 403 {object} response.Response "只有所有者可以分享"
// @Failure 404 {object} response.Response "文件未找到"
// @Router /api/v1/shares [post]
func (h *ShareHandler) CreateShare(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	permission, valid := models.ParsePermission(req.Permission)
	if !valid {
		response.HandleError(c, xerr.ErrInvalidPermission, "分享失败")
		return
	}

	result, err := h.shareService.ShareFile(c.Request.Context(), userID, share.ShareRequest{
		FileID:     req.FileID,
		Email:      req.Email,
		Permission: permission,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		response.HandleError(c, err, "分享失败")
		return
	}
	response.Success(c, http.StatusOK, "分享成功", result)
}

// @Summary 分享给我的文件
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/shares/with-me [get]
func (h *ShareHandler) ListSharedWithMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	shares, err := h.shareService.ListSharedWithMe(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err, "获取分享列表失败")
		return
	}
	response.Success(c, http.StatusOK, "获取分享列表成功", shares)
}

// @Summary 我分享出去的文件
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/shares/by-me [get]
func (h *ShareHandler) ListSharedByMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	shares, err := h.shareService.ListSharedByMe(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err, "获取分享列表失败")
		return
	}
	response.Success(c, http.StatusOK, "获取分享列表成功", shares)
}

// @Summary 修改分享权限
// @Tags 分享
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "分享ID"
// @Param request body UpdateShareRequest true "新权限"
// @Success 200 {object} response.Response
// @Router /api/v1/shares/{id} [put]
func (h *ShareHandler) UpdatePermission(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req UpdateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	permission, valid := models.ParsePermission(req.Permission)
	if !valid {
		response.HandleError(c, xerr.ErrInvalidPermission, "修改权限失败")
		return
	}
	updated, err := h.shareService.UpdatePermission(c.Request.Context(), userID, c.Param("id"), permission)
	if err != nil {
		response.HandleError(c, err, "修改权限失败")
		return
	}
	response.Success(c, http.StatusOK, "修改权限成功", updated)
}

// RevokeShare 分享者和接收者都可以撤销
// @Summary 撤销分享
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param id path string true "分享ID"
// @Success 200 {object} response.Response "分享已撤销"
// @Failure 403 {object} response.Response "无权撤销"
// @Failure 404 {object} response.Response "分享不存在"
// @Router /api/v1/shares/{id} [delete]
func (h *ShareHandler) RevokeShare(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.shareService.RevokeShare(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.HandleError(c, err, "撤销分享失败")
		return
	}
	response.Success(c, http.StatusOK, "分享已撤销", nil)
}
