// Package errors 提供统一的错误定义
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 资源错误 (3xxx)
	CodePageIndexOutOfRange ErrorCode = "3001"
	CodeEntityNotFound      ErrorCode = "3002"
	CodeEntityConflict      ErrorCode = "3003"
	CodeStoryNotFound       ErrorCode = "3004"

	// 业务错误 (4xxx)
	CodeUnknownTool        ErrorCode = "4001"
	CodeNoImageInputs      ErrorCode = "4002"
	CodeGenerationFailed   ErrorCode = "4003"
	CodeLLMCallFailed      ErrorCode = "4004"
	CodeImageGenFailed     ErrorCode = "4005"
	CodeMalformedLLMOutput ErrorCode = "4006"

	// 外部服务错误 (5xxx)
	CodeDatabaseError      ErrorCode = "5001"
	CodeCacheError         ErrorCode = "5002"
	CodeLLMProviderError   ErrorCode = "5003"
	CodeImageProviderError ErrorCode = "5004"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Newf 创建带格式化消息的应用错误
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodePageIndexOutOfRange, CodeUnknownTool, CodeNoImageInputs:
		return http.StatusBadRequest
	case CodeNotFound, CodeEntityNotFound, CodeStoryNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeEntityConflict:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeGenerationFailed, CodeLLMCallFailed, CodeImageGenFailed, CodeMalformedLLMOutput,
		CodeLLMProviderError, CodeImageProviderError:
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrConflict           = New(CodeConflict, "resource conflict")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrEntityNotFound = New(CodeEntityNotFound, "entity not found")
	ErrStoryNotFound  = New(CodeStoryNotFound, "story not found")

	ErrNoImageInputs    = New(CodeNoImageInputs, "no valid image files or prompts provided")
	ErrGenerationFailed = New(CodeGenerationFailed, "story generation failed")
	ErrLLMCallFailed    = New(CodeLLMCallFailed, "LLM call failed")
	ErrImageGenFailed   = New(CodeImageGenFailed, "image generation failed")
)

// PageIndexOutOfRange 构造页索引越界错误,消息中带出有效区间
func PageIndexOutOfRange(index, length int) *AppError {
	return Newf(CodePageIndexOutOfRange, "page index %d out of range [0, %d)", index, length)
}

// UnknownTool 构造未知工具错误
func UnknownTool(name string) *AppError {
	return Newf(CodeUnknownTool, "unknown tool: %s", name)
}

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
