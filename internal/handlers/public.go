package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-cloudbox/internal/handlers/response"
	"github.com/3Eeeecho/go-cloudbox/internal/services/explorer"
	"github.com/gin-gonic/gin"
)

// PublicHandler 公开链接访问，不需要登录
type PublicHandler struct {
	publicLinks explorer.PublicLinkService
}

func NewPublicHandler(publicLinks explorer.PublicLinkService) *PublicHandler {
	return &PublicHandler{publicLinks: publicLinks}
}

// @Summary 通过公开链接查看文件
// @Tags 公开链接
// @Produce json
// @Param token path string true "公开 token"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response "链接不存在或已撤销"
// @Router /api/v1/public/{token} [get]
func (h *PublicHandler) GetFile(c *gin.Context) {
	file, err := h.publicLinks.PublicFile(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.HandleError(c, err, "获取文件失败")
		return
	}
	response.Success(c, http.StatusOK, "获取文件成功", file)
}

// @Summary 通过公开链接下载
// @Tags 公开链接
// @Produce json
// @Param token path string true "公开 token"
// @Param redirect query bool false "是否跳转，默认 true"
// @Success 302 "跳转到签名下载地址"
// @Router /api/v1/public/{token}/download [get]
func (h *PublicHandler) Download(c *gin.Context) {
	result, err := h.publicLinks.PublicDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.HandleError(c, err, "下载文件失败")
		return
	}
	respondDownload(c, result)
}
