package errors

import (
	"errors"
	"fmt"
)

// AppError 业务错误
// Code 决定错误类别，Message 为返回给调用方的提示，Err 仅用于日志排查
type AppError struct {
	Code    int    // 错误码
	Message string // 用户可见的错误消息
	Err     error  // 原始错误（可选，不会返回给前端）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新错误
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装原始错误，保留错误码和消息
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// WithMessage 替换提示消息，保留错误码
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// Is 判断是否为指定错误（按错误码比较）
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取错误码，如果不是 AppError 返回系统错误码
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeSystemError
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ErrSystem.Message
}

// ============== 错误码定义 ==============

const (
	CodeSuccess = 0

	// 参数 / 资源 40000-40099
	CodeParamsError = 40000
	CodeNullError   = 40001

	// 权限 40100-40199
	CodeNotLogin = 40100
	CodeNoAuth   = 40101

	// 系统 50000-50099
	CodeSystemError = 50000
)

// ============== 预定义错误 ==============

var (
	ErrParams   = NewError(CodeParamsError, "请求参数错误")
	ErrNotFound = NewError(CodeNullError, "请求数据为空")
	ErrNotLogin = NewError(CodeNotLogin, "未登录")
	ErrNoAuth   = NewError(CodeNoAuth, "无权限")
	ErrSystem   = NewError(CodeSystemError, "系统内部异常")
)
