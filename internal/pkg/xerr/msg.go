package xerr

import "errors"

// 错误分类，handler 层据此映射 HTTP 状态码
var (
	ErrNotFound         = errors.New("资源不存在")
	ErrAccessDenied     = errors.New("无权访问")
	ErrInvalidOperation = errors.New("非法操作")
	ErrStorageFailure   = errors.New("存储服务异常")
	ErrDuplicateState   = errors.New("状态重复")
	ErrUnauthenticated  = errors.New("未认证")
	ErrInternal         = errors.New("服务器内部错误")
)

var (
	// 客户端请求错误
	ErrInvalidParams         = New(InvalidParamsCode, ErrInvalidOperation, "无效的请求参数")
	ErrFileTooLarge          = New(FileTooLargeCode, ErrInvalidOperation, "上传文件过大，超出限制")
	ErrFileNameInvalid       = New(FileNameInvalidCode, ErrInvalidOperation, "名称为空或包含非法字符")
	ErrEmptyUpload           = New(EmptyUploadCode, ErrInvalidOperation, "不能上传空文件")
	ErrCannotMoveIntoSelf    = New(CannotMoveIntoSelfCode, ErrInvalidOperation, "不能把目录移动到自身")
	ErrCannotMoveIntoSubtree = New(CannotMoveIntoSubtreeCode, ErrInvalidOperation, "不能移动目录到其子目录下")
	ErrCannotShareWithSelf   = New(CannotShareWithSelfCode, ErrInvalidOperation, "不能把文件分享给自己")
	ErrInvalidPermission     = New(InvalidPermissionCode, ErrInvalidOperation, "分享权限只能是 VIEWER 或 EDITOR")
	ErrNotInTrash            = New(NotInTrashCode, ErrInvalidOperation, "该项目不在回收站中")
	ErrQuotaExceeded         = New(QuotaExceededCode, ErrInvalidOperation, "存储空间不足")
	ErrTargetFolderTrashed   = New(TargetFolderTrashedCode, ErrInvalidOperation, "目标文件夹位于回收站中")
	ErrInvalidUploadKey      = New(InvalidUploadKeyCode, ErrInvalidOperation, "上传 key 无效")

	// 认证与授权错误
	ErrUnauthorized       = New(UnauthorizedCode, ErrUnauthenticated, "用户未授权")
	ErrTokenInvalid       = New(TokenInvalidCode, ErrUnauthenticated, "认证 Token 无效或已过期")
	ErrInvalidCredentials = New(InvalidCredentialsCode, ErrUnauthenticated, "邮箱或密码不正确")

	// 权限错误，回收站中的项目只允许查看、删除、恢复和彻底删除
	ErrPermissionDenied = New(PermissionDeniedCode, ErrAccessDenied, "您没有操作此资源的权限")
	ErrItemTrashed      = New(FileStatusInvalidCode, ErrAccessDenied, "该项目位于回收站中，请先恢复")

	// 资源未找到错误
	ErrUserNotFound         = New(UserNotFoundCode, ErrNotFound, "用户不存在")
	ErrFileNotFound         = New(FileNotFoundCode, ErrNotFound, "文件不存在")
	ErrDirectoryNotFound    = New(DirectoryNotFoundCode, ErrNotFound, "目录不存在")
	ErrShareNotFound        = New(ShareNotFoundCode, ErrNotFound, "分享记录不存在")
	ErrPublicLinkNotFound   = New(PublicLinkNotFoundCode, ErrNotFound, "公开链接不存在或已失效")
	ErrNotificationNotFound = New(NotificationNotFoundCode, ErrNotFound, "通知不存在")
	ErrUploadNotFound       = New(UploadNotFoundCode, ErrNotFound, "上传的对象不存在，请先完成上传")

	// 业务逻辑冲突
	ErrEmailAlreadyExists     = New(EmailAlreadyExistsCode, ErrDuplicateState, "邮箱已被注册")
	ErrUploadAlreadyCompleted = New(UploadAlreadyCompletedCode, ErrDuplicateState, "该上传已经完成")

	// 数据库与外部服务错误
	ErrServerInternal = New(InternalServerErrorCode, ErrInternal, "服务器内部错误")
	ErrDatabaseError  = New(DatabaseErrorCode, ErrInternal, "数据库操作失败")
	ErrStorageError   = New(StorageErrorCode, ErrStorageFailure, "存储服务操作失败")
)
