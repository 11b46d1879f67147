package explorer

import (
	"context"
	"math"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/cache"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/search"
	"github.com/3Eeeecho/go-cloudbox/internal/services/access"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

func newFileEntry(file *models.File, grant access.Grant) FileEntry {
	entry := FileEntry{
		File:       *file,
		Permission: grant.Level,
		Starred:    file.Starred,
		ActivityAt: file.ActivityAt(),
	}
	if share := grant.Share; share != nil {
		entry.Shared = true
		entry.ShareID = share.ID
		entry.Starred = share.Starred
		entry.SharedBy = share.SharedBy
		if share.LastOpenedAt != nil {
			entry.ActivityAt = *share.LastOpenedAt
		} else {
			entry.ActivityAt = share.CreatedAt
		}
	}
	return entry
}

// sharedEntries 把分享记录转换成接收者视角的文件条目，starredOnly 时只保留接收者加了星标的
func sharedEntries(shares []models.Share, starredOnly bool) []FileEntry {
	entries := make([]FileEntry, 0, len(shares))
	for i := range shares {
		share := &shares[i]
		if share.File == nil || (starredOnly && !share.Starred) {
			continue
		}
		entries = append(entries, newFileEntry(share.File, access.Grant{Level: share.Permission, Share: share}))
	}
	return entries
}

func newStorageUsage(used, quota int64) *StorageUsage {
	usage := &StorageUsage{
		UsedBytes:  used,
		QuotaBytes: quota,
		Used:       humanize.IBytes(uint64(max(used, 0))),
		Quota:      humanize.IBytes(uint64(max(quota, 0))),
	}
	if quota > 0 {
		usage.Percentage = math.Round(float64(used)/float64(quota)*10000) / 100
	}
	return usage
}

func sameFolder(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// 以下副作用失败只记录日志

func reindex(ctx context.Context, engine search.Engine, file *models.File) {
	if err := engine.Index(ctx, file); err != nil {
		logger.Warn("更新搜索索引失败", zap.String("fileID", file.ID), zap.Error(err))
	}
}

func unindex(ctx context.Context, engine search.Engine, fileID string) {
	if err := engine.Remove(ctx, fileID); err != nil {
		logger.Warn("删除搜索索引失败", zap.String("fileID", fileID), zap.Error(err))
	}
}

func invalidate(ctx context.Context, c cache.Cache, keys ...string) {
	if err := c.Del(ctx, keys...); err != nil {
		logger.Warn("删除缓存失败", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *fileService) reindex(ctx context.Context, file *models.File) {
	reindex(ctx, s.search, file)
}
