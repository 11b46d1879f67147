package handlers

import (
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-cloudbox/internal/handlers/response"
	"github.com/3Eeeecho/go-cloudbox/internal/services/explorer"
	"github.com/3Eeeecho/go-cloudbox/internal/services/share"
	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	fileService  explorer.FileService
	trashService explorer.TrashService
	publicLinks  explorer.PublicLinkService
	shareService share.ShareService
}

func NewFileHandler(
	fileService explorer.FileService,
	trashService explorer.TrashService,
	publicLinks explorer.PublicLinkService,
	shareService share.ShareService,
) *FileHandler {
	return &FileHandler{
		fileService:  fileService,
		trashService: trashService,
		publicLinks:  publicLinks,
		shareService: shareService,
	}
}

// InitUploadRequest 直传前申请上传地址
type InitUploadRequest struct {
	Name     string  `json:"name" binding:"required"`
	Size     int64   `json:"size" binding:"required"`
	MimeType string  `json:"mime_type"`
	FolderID *string `json:"folder_id"`
}

// CompleteUploadRequest key 为 init-upload 返回的 key
type CompleteUploadRequest struct {
	Key      string  `json:"key" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	MimeType string  `json:"mime_type"`
	FolderID *string `json:"folder_id"`
}

type RenameRequest struct {
	Name string `json:"name" binding:"required"`
}

// MoveRequest folder_id 为空表示移动到根目录
type MoveRequest struct {
	FolderID *string `json:"folder_id"`
}

// @Summary 上传文件
// @Tags 文件
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "文件"
// @Param folder_id formData string false "目标文件夹ID，为空表示根目录"
// @Success 201 {object} response.Response "上传成功"
// @Failure 400 {object} response.Response "文件为空、过大或超出配额"
// @Router /api/v1/files/upload [post]
func (h *FileHandler) UploadFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer src.Close()

	file, err := h.fileService.Upload(c.Request.Context(), userID, explorer.UploadRequest{
		FolderID: optionalID(c.PostForm("folder_id")),
		Name:     fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Size:     fileHeader.Size,
		Content:  src,
	})
	if err != nil {
		response.HandleError(c, err, "上传文件失败")
		return
	}
	response.Success(c, http.StatusCreated, "上传成功", file)
}

// @Summary 申请直传地址
// @Tags 文件
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body InitUploadRequest true "文件信息"
// @Success 200 {object} response.Response "返回上传地址和 key"
// @Failure 400 {object} response.Response "文件为空、过大或超出配额"
// @Router /api/v1/files/init-upload [post]
func (h *FileHandler) InitUpload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req InitUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ticket, err := h.fileService.InitUpload(c.Request.Context(), userID, explorer.InitUploadRequest{
		FolderID: req.FolderID,
		Name:     req.Name,
		MimeType: req.MimeType,
		Size:     req.Size,
	})
	if err != nil {
		response.HandleError(c, err, "申请上传地址失败")
		return
	}
	response.Success(c, http.StatusOK, "请使用返回的地址上传文件", ticket)
}

// @Summary 完成直传并登记文件
// @Tags 文件
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CompleteUploadRequest true "上传信息"
// @Success 201 {object} response.Response "登记成功"
// @Failure 404 {object} response.Response "对象尚未上传"
// @Failure 409 {object} response.Response "已经登记过"
// @Router /api/v1/files/complete-upload [post]
func (h *FileHandler) CompleteUpload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CompleteUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	file, err := h.fileService.CompleteUpload(c.Request.Context(), userID, explorer.CompleteUploadRequest{
		Key:      req.Key,
		FolderID: req.FolderID,
		Name:     req.Name,
		MimeType: req.MimeType,
	})
	if err != nil {
		response.HandleError(c, err, "登记上传文件失败")
		return
	}
	response.Success(c, http.StatusCreated, "上传成功", file)
}

// @Summary 列出目录内容
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param folder_id query string false "文件夹ID，为空表示根目录"
// @Success 200 {object} response.Response
// @Router /api/v1/files [get]
func (h *FileHandler) ListFiles(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listing, err := h.fileService.ListFiles(c.Request.Context(), userID, optionalID(c.Query("folder_id")))
	if err != nil {
		response.HandleError(c, err, "获取文件列表失败")
		return
	}
	response.Success(c, http.StatusOK, "获取文件列表成功", listing)
}

// @Summary 按文件名搜索
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param q query string true "关键字"
// @Success 200 {object} response.Response
// @Router /api/v1/files/search [get]
func (h *FileHandler) Search(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	files, err := h.fileService.Search(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		response.HandleError(c, err, "搜索失败")
		return
	}
	response.Success(c, http.StatusOK, "搜索成功", files)
}

// @Summary 最近文件
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/files/recent [get]
func (h *FileHandler) Recent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	entries, err := h.fileService.Recent(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err, "获取最近文件失败")
		return
	}
	response.Success(c, http.StatusOK, "获取最近文件成功", entries)
}

// @Summary 星标文件
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/files/starred [get]
func (h *FileHandler) Starred(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	entries, err := h.fileService.Starred(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err, "获取星标文件失败")
		return
	}
	response.Success(c, http.StatusOK, "获取星标文件成功", entries)
}

// @Summary 存储空间使用情况
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/files/storage [get]
func (h *FileHandler) StorageUsage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	usage, err := h.fileService.StorageUsage(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err, "获取存储空间失败")
		return
	}
	response.Success(c, http.StatusOK, "获取存储空间成功", usage)
}

// @Summary 文件详情
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response "无权访问"
// @Failure 404 {object} response.Response "文件不存在"
// @Router /api/v1/files/{id} [get]
func (h *FileHandler) GetFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	entry, err := h.fileService.GetFile(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.HandleError(c, err, "获取文件详情失败")
		return
	}
	response.Success(c, http.StatusOK, "获取文件详情成功", entry)
}

// DownloadFile 默认 302 跳转到签名地址，redirect=false 时返回 JSON
// @Summary 下载文件
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件ID"
// @Param redirect query bool false "是否跳转，默认 true"
// @Success 302 "跳转到签名下载地址"
// @Success 200 {object} response.Response "签名下载地址"
// @Router /api/v1/files/{id}/download [get]
func (h *FileHandler) DownloadFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := h.fileService.Download(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.HandleError(c, err, "下载文件失败")
		return
	}
	respondDownload(c, result)
}

func respondDownload(c *gin.Context, result *explorer.DownloadResult) {
	if redirect, err := strconv.ParseBool(c.DefaultQuery("redirect", "true")); err == nil && !redirect {
		response.Success(c, http.StatusOK, "获取下载地址成功", result)
		return
	}
	c.Redirect(http.StatusFound, result.URL)
}

// @Summary 重命名文件
// @Tags 文件
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件ID"
// @Param data body RenameRequest true "新文件名"
// @Success 200 {object} response.Response
// @Router /api/v1/files/{id}/rename [put]
func (h *FileHandler) RenameFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	file, err := h.fileService.Rename(c.Request.Context(), userID, c.Param("id"), req.Name)
	if err != nil {
		response.HandleError(c, err, "重命名文件失败")
		return
	}
	response.Success(c, http.StatusOK, "重命名成功", file)
}

// @Summary 移动文件
// @Tags 文件
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件ID"
// @Param data body MoveRequest true "目标文件夹"
// @Success 200 {object} response.Response
// @Router /api/v1/files/{id}/move [put]
func (h *FileHandler) MoveFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var target *string
	if req.FolderID != nil {
		target = optionalID(*req.FolderID)
	}
	file, err := h.fileService.Move(c.Request.Context(), userID, c.Param("id"), target)
	if err != nil {
		response.HandleError(c, err, "移动文件失败")
		return
	}
	response.Success(c, http.StatusOK, "移动成功", file)
}

// @Summary 切换星标
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件ID"
// @Success 200 {object} response.Response
// @Router /api/v1/files/{id}/star [post]
func (h *FileHandler) ToggleStar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	starred, err := h.fileService.ToggleStar(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.HandleError(c, err, "切换星标失败")
		return
	}
	response.Success(c, http.StatusOK, "切换星标成功", gin.H{"starred": starred})
}

// @Summary 移入回收站
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件ID"
// @Success 200 {object} response.Response
// @Router /api/v1/files/{id} [delete]
func (h *FileHandler) TrashFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.trashService.TrashFile(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.HandleError(c, err, "移入回收站失败")
		return
	}
	response.Success(c, http.StatusOK, "已移入回收站", nil)
}

// @Summary 从回收站恢复
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件ID"
// @Success 200 {object} response.Response
// @Router /api/v1/files/{id}/restore [post]
func (h *FileHandler) RestoreFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	file, err := h.trashService.RestoreFile(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.HandleError(c, err, "恢复文件失败")
		return
	}
	response.Success(c, http.StatusOK, "恢复成功", file)
}

// @Summary 彻底删除
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "文件不在回收站中"
// @Router /api/v1/files/{id}/permanent [delete]
func (h *FileHandler) PurgeFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.trashService.PurgeFile(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.HandleError(c, err, "彻底删除失败")
		return
	}
	response.Success(c, http.StatusOK, "已彻底删除", nil)
}

// @Summary 生成公开链接
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件ID"
// @Success 200 {object} response.Response
// @Router /api/v1/files/{id}/public-link [post]
func (h *FileHandler) GeneratePublicLink(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	link, err := h.publicLinks.GeneratePublicLink(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.HandleError(c, err, "生成公开链接失败")
		return
	}
	response.Success(c, http.StatusOK, "生成公开链接成功", link)
}

// @Summary 撤销公开链接
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件ID"
// @Success 200 {object} response.Response
// @Router /api/v1/files/{id}/public-link [delete]
func (h *FileHandler) RevokePublicLink(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.publicLinks.RevokePublicLink(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.HandleError(c, err, "撤销公开链接失败")
		return
	}
	response.Success(c, http.StatusOK, "公开链接已撤销", nil)
}

// @Summary 文件的分享列表
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param id path string true "文件ID"
// @Success 200 {object} response.Response
// @Router /api/v1/files/{id}/shares [get]
func (h *FileHandler) ListFileShares(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	shares, err := h.shareService.ListFileShares(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.HandleError(c, err, "获取分享列表失败")
		return
	}
	response.Success(c, http.StatusOK, "获取分享列表成功", shares)
}
