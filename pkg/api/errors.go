package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/kasuganosora/knapsackga/pkg/catalog"
	"github.com/kasuganosora/knapsackga/pkg/knapsack"
	"github.com/kasuganosora/knapsackga/pkg/optimizer/genetic"
)

// Error 错误类型（带堆栈）
type Error struct {
	Code    ErrorCode
	Message string
	Stack   []string // 调用堆栈
	Cause   error    // 原始错误
}

// ErrorCode 错误码
type ErrorCode string

const (
	ErrCodeInvalidConfig        ErrorCode = "INVALID_CONFIG"
	ErrCodeDegeneratePopulation ErrorCode = "DEGENERATE_POPULATION"
	ErrCodeInvalidProblem       ErrorCode = "INVALID_PROBLEM"
	ErrCodeCatalog              ErrorCode = "CATALOG"
	ErrCodeInvalidParam         ErrorCode = "INVALID_PARAM"
	ErrCodeCanceled             ErrorCode = "CANCELED"
	ErrCodeInternal             ErrorCode = "INTERNAL"
)

// Error 接口实现
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// StackTrace 返回调用堆栈
func (e *Error) StackTrace() []string {
	return e.Stack
}

// NewError 创建错误
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Stack:   captureStackTrace(),
		Cause:   cause,
	}
}

// WrapError 包装错误
func WrapError(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}

	// keep the original stack when re-wrapping our own error
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return &Error{
			Code:    code,
			Message: message,
			Stack:   apiErr.Stack,
			Cause:   err,
		}
	}

	return &Error{
		Code:    code,
		Message: message,
		Stack:   captureStackTrace(),
		Cause:   err,
	}
}

// FromError classifies err by the sentinel it wraps. An *Error is returned
// unchanged.
func FromError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return WrapError(err, classify(err), message)
}

func classify(err error) ErrorCode {
	switch {
	case errors.Is(err, genetic.ErrInvalidConfig):
		return ErrCodeInvalidConfig
	case errors.Is(err, genetic.ErrDegeneratePopulation):
		return ErrCodeDegeneratePopulation
	case errors.Is(err, knapsack.ErrInvalidProblem):
		return ErrCodeInvalidProblem
	case errors.Is(err, knapsack.ErrLengthMismatch), errors.Is(err, knapsack.ErrInvalidChromosome):
		return ErrCodeInvalidParam
	case errors.Is(err, catalog.ErrCatalog):
		return ErrCodeCatalog
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCanceled
	default:
		return ErrCodeInternal
	}
}

// HTTPStatus maps an error code to the status the HTTP API answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidConfig, ErrCodeInvalidProblem, ErrCodeInvalidParam:
		return http.StatusBadRequest
	case ErrCodeDegeneratePopulation:
		return http.StatusUnprocessableEntity
	case ErrCodeCanceled:
		return http.StatusRequestTimeout
	case ErrCodeCatalog:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// captureStackTrace 捕获调用堆栈
func captureStackTrace() []string {
	pc := make([]uintptr, 32)
	n := runtime.Callers(3, pc) // 跳过前3层

	if n == 0 {
		return []string{}
	}

	frames := runtime.CallersFrames(pc[:n])
	stack := make([]string, 0, n)

	for {
		frame, more := frames.Next()

		fn := frame.Function
		file := frame.File
		if idx := strings.LastIndex(file, "/"); idx != -1 {
			file = file[idx+1:]
		}
		if idx := strings.LastIndex(fn, "/"); idx != -1 {
			fn = fn[idx+1:]
		}
		stack = append(stack, fmt.Sprintf("  at %s (%s:%d)", fn, file, frame.Line))

		if !more {
			break
		}
	}

	return stack
}

// IsErrorCode 检查错误码
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code && code != ""
}

// GetErrorCode 获取错误码
func GetErrorCode(err error) ErrorCode {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}
