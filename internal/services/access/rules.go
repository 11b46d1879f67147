package access

import (
	"fmt"
	"time"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
)

// Action 对文件或文件夹请求的操作
type Action string

const (
	ActionView     Action = "view"
	ActionRename   Action = "rename"
	ActionMove     Action = "move"
	ActionDelete   Action = "delete"
	ActionRestore  Action = "restore"
	ActionPurge    Action = "purge"
	ActionStar     Action = "star"
	ActionShare    Action = "share"
	ActionDownload Action = "download"
)

// Grant 允许访问时的有效权限
type Grant struct {
	Level models.Permission
	Owner bool
	Share *models.Share // 通过分享获得权限时非空
}

// allowedWhileTrashed 回收站中的项目只允许查看、删除（幂等）、恢复和彻底删除
func allowedWhileTrashed(a Action) bool {
	switch a {
	case ActionView, ActionDelete, ActionRestore, ActionPurge:
		return true
	}
	return false
}

// requiredLevel 非所有者执行操作所需的分享权限，false 表示只有所有者可以执行
func requiredLevel(a Action) (models.Permission, bool) {
	switch a {
	case ActionView, ActionDownload, ActionStar:
		return models.PermissionViewer, true
	case ActionRename, ActionMove:
		return models.PermissionEditor, true
	default:
		return "", false
	}
}

func ownerGrant(trashed bool, action Action) (Grant, error) {
	if trashed && !allowedWhileTrashed(action) {
		return Grant{}, xerr.ErrItemTrashed
	}
	return Grant{Level: models.PermissionEditor, Owner: true}, nil
}

// EvaluateFile 判断 actorID 能否对文件执行 action
// share 是该文件分享给 actorID 的记录，没有时传 nil；过期的分享视同不存在
func EvaluateFile(actorID string, file *models.File, share *models.Share, action Action, now time.Time) (Grant, error) {
	if file == nil {
		return Grant{}, xerr.ErrFileNotFound
	}
	if actorID != "" && file.UserID == actorID {
		return ownerGrant(file.Trashed, action)
	}

	if share == nil || share.FileID != file.ID || share.SharedWithID != actorID || share.Expired(now) {
		return Grant{}, xerr.ErrPermissionDenied
	}
	// 文件进入回收站后，分享对象不能再做任何操作
	if file.Trashed {
		return Grant{}, xerr.ErrPermissionDenied
	}
	required, ok := requiredLevel(action)
	if !ok || !share.Permission.Allows(required) {
		return Grant{}, xerr.ErrPermissionDenied
	}
	return Grant{Level: share.Permission, Share: share}, nil
}

// EvaluateFolder 文件夹没有分享模型，只有所有者可以操作
func EvaluateFolder(actorID string, folder *models.Folder, action Action) (Grant, error) {
	if folder == nil {
		return Grant{}, xerr.ErrDirectoryNotFound
	}
	if actorID == "" || folder.UserID != actorID {
		return Grant{}, xerr.ErrPermissionDenied
	}
	return ownerGrant(folder.Trashed, action)
}

// EvaluateAnonymous 公开链接访问：只能查看和下载 token 匹配且未删除的文件
func EvaluateAnonymous(file *models.File, token string, action Action) (Grant, error) {
	if file == nil || token == "" || !file.HasPublicToken() || *file.PublicShareToken != token {
		return Grant{}, xerr.ErrPublicLinkNotFound
	}
	if action != ActionView && action != ActionDownload {
		return Grant{}, fmt.Errorf("公开链接不支持 %s: %w", action, xerr.ErrPermissionDenied)
	}
	// 回收站中的文件对外表现为链接失效
	if file.Trashed {
		return Grant{}, xerr.ErrPublicLinkNotFound
	}
	return Grant{Level: models.PermissionViewer}, nil
}
