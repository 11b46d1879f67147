package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-cloudbox/internal/handlers/response"
	"github.com/3Eeeecho/go-cloudbox/internal/services/notify"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService notify.NotificationService
}

func NewNotificationHandler(notificationService notify.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// @Summary 通知列表
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.notificationService.List(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err, "获取通知失败")
		return
	}
	response.Success(c, http.StatusOK, "获取通知成功", list)
}

// @Summary 未读通知数
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err, "获取未读数失败")
		return
	}
	response.Success(c, http.StatusOK, "获取未读数成功", gin.H{"count": count})
}

// @Summary 标记已读
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param id path string true "通知ID"
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.HandleError(c, err, "标记已读失败")
		return
	}
	response.Success(c, http.StatusOK, "已标记为已读", nil)
}

// @Summary 全部标记已读
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	n, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err, "标记已读失败")
		return
	}
	response.Success(c, http.StatusOK, "已全部标记为已读", gin.H{"updated": n})
}
