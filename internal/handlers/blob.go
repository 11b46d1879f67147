package handlers

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"strings"

	"github.com/3Eeeecho/go-cloudbox/internal/handlers/response"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/storage"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BlobHandler 校验本地存储的签名地址并返回文件内容
type BlobHandler struct {
	local   *storage.LocalStorageService
	maxSize int64 // 直传的请求体上限，0 表示不限制
}

func NewBlobHandler(local *storage.LocalStorageService, maxSize int64) *BlobHandler {
	return &BlobHandler{local: local, maxSize: maxSize}
}

// @Summary 下载本地存储对象
// @Tags 存储
// @Produce octet-stream
// @Param key path string true "对象 key"
// @Param expires query string true "过期时间戳"
// @Param sig query string true "签名"
// @Success 200 {file} binary
// @Failure 403 {object} response.Response "签名无效或已过期"
// @Router /api/v1/blobs/{key} [get]
func (h *BlobHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	name := c.Query("name")
	if err := h.local.Verify(key, c.Query("expires"), name, c.Query("sig")); err != nil {
		response.Error(c, http.StatusForbidden, xerr.ForbiddenCode, "下载地址无效或已过期")
		return
	}

	f, err := h.local.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			response.Error(c, http.StatusNotFound, xerr.FileNotFoundCode, "文件不存在")
			return
		}
		logger.Error("Serve blob: 打开本地文件失败", zap.String("key", key), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "读取文件失败")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "读取文件失败")
		return
	}
	if name != "" {
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	}
	// ServeContent 负责 Range 和 If-Modified-Since
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
}

// @Summary 直传到本地存储
// @Tags 存储
// @Accept octet-stream
// @Produce json
// @Param key path string true "对象 key"
// @Param expires query string true "过期时间戳"
// @Param sig query string true "签名"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response "签名无效或已过期"
// @Failure 413 {object} response.Response "文件过大"
// @Router /api/v1/blobs/{key} [put]
func (h *BlobHandler) Upload(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if err := h.local.VerifyUpload(key, c.Query("expires"), c.Query("sig")); err != nil {
		response.Error(c, http.StatusForbidden, xerr.ForbiddenCode, "上传地址无效或已过期")
		return
	}

	body := c.Request.Body
	if h.maxSize > 0 {
		body = http.MaxBytesReader(c.Writer, body, h.maxSize)
	}
	res, err := h.local.PutObject(c.Request.Context(), key, body, c.Request.ContentLength, c.ContentType())
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, xerr.FileTooLargeCode, "上传文件过大，超出限制")
			return
		}
		logger.Error("Upload blob: 写入本地文件失败", zap.String("key", key), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "写入文件失败")
		return
	}
	response.Success(c, http.StatusOK, "上传成功", gin.H{"key": res.Key, "size": res.Size})
}
