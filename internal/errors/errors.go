package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// ErrorCode 定义错误码类型
type ErrorCode int

// 定义系统级错误码 (1000-1999)
const (
	ErrInternal ErrorCode = 1000 + iota
	ErrDatabase
	ErrCache
	ErrTimeout
	ErrMedia
)

// 定义认证相关错误码 (2000-2999)
const (
	ErrUnauthorized ErrorCode = 2000 + iota
	ErrInvalidToken
	ErrTokenExpired
	ErrInvalidCredentials
	ErrNotAuthor
)

// 定义请求相关错误码 (3000-3999)
const (
	ErrBadRequest ErrorCode = 3000 + iota
	ErrValidation
	ErrTooManyRequests
	ErrPayloadTooLarge
)

// 定义业务相关错误码 (4000-4999)
const (
	ErrUserNotFound ErrorCode = 4000 + iota
	ErrUserExists
	ErrWeakPassword
	ErrPostNotFound
	ErrEmailExists
	ErrSelfReference
	ErrEmptyPost
)

// AppError 定义应用错误结构
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装已有错误
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Store 包装存储层错误，调用方只会看到通用信息；超时单独归类
func Store(message string, err error) *AppError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return Wrap(ErrTimeout, message, err)
	}
	return Wrap(ErrDatabase, message, err)
}

// As 取出错误链中的 AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf 返回错误码，非 AppError 一律视为内部错误
func CodeOf(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrInternal
}

// Is 判断错误链中是否包含指定错误码
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsNotFound 判断是否为资源不存在类错误
func IsNotFound(err error) bool {
	switch CodeOf(err) {
	case ErrUserNotFound, ErrPostNotFound:
		return true
	}
	return false
}

// IsValidation 判断是否为输入校验类错误
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case ErrBadRequest, ErrValidation, ErrWeakPassword, ErrSelfReference, ErrEmptyPost:
		return true
	}
	return false
}
