package xerr

import (
	"errors"
	"fmt"
)

// CodeError 结构体用于在服务层传递带有业务码的错误
// Err 是错误分类（ErrNotFound、ErrAccessDenied 等），errors.Is 可以同时命中具体错误和分类
type CodeError struct {
	Code int    // 业务错误码
	Msg  string // 面向用户的错误信息
	Err  error  // 错误分类
}

// Error 实现 error 接口
func (e *CodeError) Error() string {
	return e.Msg
}

// Unwrap 返回错误分类，支持 errors.Is(err, xerr.ErrNotFound)
func (e *CodeError) Unwrap() error {
	return e.Err
}

// New 创建一个 CodeError 实例
func New(code int, kind error, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg, Err: kind}
}

// Wrap 给具体错误附加上下文，同时保留 errors.Is 的匹配能力
func Wrap(target *CodeError, cause error) error {
	if cause == nil {
		return target
	}
	return fmt.Errorf("%w: %v", target, cause)
}

// CodeOf 提取错误链上的业务码，没有则返回 InternalServerErrorCode
func CodeOf(err error) int {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return InternalServerErrorCode
}

// MessageOf 提取错误链上面向用户的信息
func MessageOf(err error) (string, bool) {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Msg, true
	}
	return "", false
}
