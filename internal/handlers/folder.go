package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-cloudbox/internal/handlers/response"
	"github.com/3Eeeecho/go-cloudbox/internal/services/explorer"
	"github.com/gin-gonic/gin"
)

type FolderHandler struct {
	folderService explorer.FolderService
	trashService  explorer.TrashService
}

func NewFolderHandler(folderService explorer.FolderService, trashService explorer.TrashService) *FolderHandler {
	return &FolderHandler{folderService: folderService, trashService: trashService}
}

type CreateFolderRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parent_id"`
}

// MoveFolderRequest parent_id 为空表示移动到根目录
type MoveFolderRequest struct {
	ParentID *string `json:"parent_id"`
}

// @Summary 创建文件夹
// @Tags 文件夹
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param data body CreateFolderRequest true "文件夹信息"
// @Success 201 {object} response.Response
// @Router /api/v1/folders [post]
func (h *FolderHandler) CreateFolder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var parentID *string
	if req.ParentID != nil {
		parentID = optionalID(*req.ParentID)
	}
	folder, err := h.folderService.CreateFolder(c.Request.Context(), userID, req.Name, parentID)
	if err != nil {
		response.HandleError(c, err, "创建文件夹失败")
		return
	}
	response.Success(c, http.StatusCreated, "创建文件夹成功", folder)
}

// @Summary 列出子文件夹
// @Tags 文件夹
// @Produce json
// @Security BearerAuth
// @Param parent_id query string false "父文件夹ID"
// @Success 200 {object} response.Response
// @Router /api/v1/folders [get]
func (h *FolderHandler) ListFolders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	folders, err := h.folderService.ListFolders(c.Request.Context(), userID, optionalID(c.Query("parent_id")))
	if err != nil {
		response.HandleError(c, err, "获取文件夹列表失败")
		return
	}
	response.Success(c, http.StatusOK, "获取文件夹列表成功", folders)
}

// @Summary 文件夹详情
// @Tags 文件夹
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件夹ID"
// @Success 200 {object} response.Response
// @Router /api/v1/folders/{id} [get]
func (h *FolderHandler) GetFolder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	folder, err := h.folderService.GetFolder(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.HandleError(c, err, "获取文件夹失败")
		return
	}
	response.Success(c, http.StatusOK, "获取文件夹成功", folder)
}

// @Summary 重命名文件夹
// @Tags 文件夹
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件夹ID"
// @Param data body RenameRequest true "新名称"
// @Success 200 {object} response.Response
// @Router /api/v1/folders/{id}/rename [put]
func (h *FolderHandler) RenameFolder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	folder, err := h.folderService.RenameFolder(c.Request.Context(), userID, c.Param("id"), req.Name)
	if err != nil {
		response.HandleError(c, err, "重命名文件夹失败")
		return
	}
	response.Success(c, http.StatusOK, "重命名成功", folder)
}

// @Summary 移动文件夹
// @Tags 文件夹
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件夹ID"
// @Param data body MoveFolderRequest true "目标父文件夹"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "不能移动到自身或子目录"
// @Router /api/v1/folders/{id}/move [put]
func (h *FolderHandler) MoveFolder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req MoveFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var target *string
	if req.ParentID != nil {
		target = optionalID(*req.ParentID)
	}
	folder, err := h.folderService.MoveFolder(c.Request.Context(), userID, c.Param("id"), target)
	if err != nil {
		response.HandleError(c, err, "移动文件夹失败")
		return
	}
	response.Success(c, http.StatusOK, "移动成功", folder)
}

// @Summary 文件夹移入回收站
// @Tags 文件夹
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件夹ID"
// @Success 200 {object} response.Response
// @Router /api/v1/folders/{id} [delete]
func (h *FolderHandler) TrashFolder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.trashService.TrashFolder(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.HandleError(c, err, "移入回收站失败")
		return
	}
	response.Success(c, http.StatusOK, "已移入回收站", nil)
}

// @Summary 恢复文件夹
// @Tags 文件夹
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件夹ID"
// @Success 200 {object} response.Response
// @Router /api/v1/folders/{id}/restore [post]
func (h *FolderHandler) RestoreFolder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	folder, err := h.trashService.RestoreFolder(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.HandleError(c, err, "恢复文件夹失败")
		return
	}
	response.Success(c, http.StatusOK, "恢复成功", folder)
}

// @Summary 彻底删除文件夹，子项移动到其父目录
// @Tags 文件夹
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件夹ID"
// @Success 200 {object} response.Response
// @Router /api/v1/folders/{id}/permanent [delete]
func (h *FolderHandler) PurgeFolder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.trashService.PurgeFolder(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.HandleError(c, err, "彻底删除失败")
		return
	}
	response.Success(c, http.StatusOK, "已彻底删除", nil)
}
