package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-cloudbox/internal/handlers/response"
	"github.com/3Eeeecho/go-cloudbox/internal/services/explorer"
	"github.com/gin-gonic/gin"
)

type TrashHandler struct {
	trashService explorer.TrashService
}

func NewTrashHandler(trashService explorer.TrashService) *TrashHandler {
	return &TrashHandler{trashService: trashService}
}

// @Summary 回收站列表
// @Tags 回收站
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/trash [get]
func (h *TrashHandler) ListTrash(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listing, err := h.trashService.ListTrash(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err, "获取回收站失败")
		return
	}
	response.Success(c, http.StatusOK, "获取回收站成功", listing)
}

// EmptyTrash 部分项目删除失败时仍返回 200，失败明细在 failures 中
// @Summary 清空回收站
// @Tags 回收站
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/trash [delete]
func (h *TrashHandler) EmptyTrash(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := h.trashService.EmptyTrash(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err, "清空回收站失败")
		return
	}
	message := "回收站已清空"
	if result.Failed > 0 {
		message = "回收站已清空，部分项目删除失败"
	}
	response.Success(c, http.StatusOK, message, result)
}
