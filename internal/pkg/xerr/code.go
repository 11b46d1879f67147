package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode         = 40000 // 无效的请求参数
	InvalidOperationCode      = 40001 // 非法操作
	FileTooLargeCode          = 40003 // 文件过大
	FileNameInvalidCode       = 40004 // 文件名无效
	EmptyUploadCode           = 40005 // 上传的文件为空
	FileStatusInvalidCode     = 40006 // 文件状态异常，无法操作
	CannotMoveIntoSelfCode    = 40007 // 不能把目录移动到自身
	CannotMoveIntoSubtreeCode = 40008 // 不能移动目录到其子目录下
	CannotShareWithSelfCode   = 40009 // 不能分享给自己
	InvalidPermissionCode     = 40010 // 无效的分享权限
	NotInTrashCode            = 40011 // 不在回收站中
	QuotaExceededCode         = 40012 // 存储空间不足
	TargetFolderTrashedCode   = 40013 // 目标文件夹在回收站中
	InvalidUploadKeyCode      = 40014 // 上传 key 不属于当前用户

	// --- 认证与授权错误系列 (401xx) ---
	UnauthorizedCode       = 40100 // 通用未授权
	TokenInvalidCode       = 40101 // Token 无效或过期
	InvalidCredentialsCode = 40102 // 邮箱或密码错误

	// --- 权限错误系列 (403xx) ---
	ForbiddenCode        = 40300 // 通用无权限
	PermissionDeniedCode = 40301 // 权限不足 (细分)

	// --- 资源未找到错误系列 (404xx) ---
	NotFoundCode             = 40400 // 通用资源未找到
	UserNotFoundCode         = 40401 // 用户不存在
	FileNotFoundCode         = 40402 // 文件不存在
	DirectoryNotFoundCode    = 40403 // 目录不存在
	ShareNotFoundCode        = 40404 // 分享记录不存在
	PublicLinkNotFoundCode   = 40405 // 公开链接不存在
	NotificationNotFoundCode = 40406 // 通知不存在
	UploadNotFoundCode       = 40407 // 直传对象不存在

	// --- 业务逻辑冲突系列 (409xx) ---
	DuplicateStateCode         = 40900 // 状态重复
	EmailAlreadyExistsCode     = 40901 // 邮箱已存在
	UploadAlreadyCompletedCode = 40902 // 直传已经登记过

	// --- 服务器内部错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部通用错误
	DatabaseErrorCode       = 50001 // 数据库操作失败
	StorageErrorCode        = 50002 // 存储服务操作失败（如MinIO）
)
