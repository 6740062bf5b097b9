package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"
)

// ProcessingError 是处理流程错误的基础类型
type ProcessingError struct {
	Message string
	Cause   error
}

// Error 实现error接口
func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap 支持error chain
func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// NewError 创建一个新的ProcessingError
func NewError(message string, cause error) error {
	return &ProcessingError{
		Message: message,
		Cause:   cause,
	}
}

// RetryableError 表示可以重试的临时失败（限流、服务端错误等）
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("可重试错误 (status %d): %s", e.StatusCode, Truncate(e.Message, 200))
}

// IsRetryable 判断错误是否值得重试
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// ErrorHandler 处理错误和重试
type ErrorHandler struct {
	MaxRetries int
	RetryDelay float64 // 秒，第n次重试等待 RetryDelay*n

	// ShouldRetry 为nil时所有错误都重试
	ShouldRetry func(error) bool

	mu         sync.Mutex
	errorStats map[string]map[string]int // 操作 -> 错误信息 -> 计数
}

// NewErrorHandler 创建新的错误处理器
func NewErrorHandler(maxRetries int, retryDelay float64) *ErrorHandler {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &ErrorHandler{
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
		errorStats: make(map[string]map[string]int),
	}
}

// Retry 执行函数并在失败时重试
func (h *ErrorHandler) Retry(operation string, fn func() error) error {
	return h.RetryContext(context.Background(), operation, fn)
}

// RetryContext 与Retry相同，但在等待期间响应ctx取消
func (h *ErrorHandler) RetryContext(ctx context.Context, operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < h.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		h.updateErrorStats(operation, err.Error())

		if h.ShouldRetry != nil && !h.ShouldRetry(err) {
			return NewError(fmt.Sprintf("操作 %s 失败", operation), err)
		}

		if attempt < h.MaxRetries-1 {
			delay := time.Duration(h.RetryDelay * float64(attempt+1) * float64(time.Second))
			Warn("操作 %s 失败 (尝试 %d/%d): %s", operation, attempt+1, h.MaxRetries, err)
			Warn("等待 %.1f 秒后重试...", delay.Seconds())

			select {
			case <-ctx.Done():
				return NewError(fmt.Sprintf("操作 %s 已取消", operation), ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return NewError(fmt.Sprintf("操作 %s 重试 %d 次后仍然失败", operation, h.MaxRetries), lastErr)
}

// SafeExecute 安全地执行函数，并在失败时进行清理
func (h *ErrorHandler) SafeExecute(operation string, fn func() error, cleanup func()) error {
	err := fn()
	if err != nil {
		h.updateErrorStats(operation, err.Error())

		if cleanup != nil {
			Info("执行清理操作...")
			cleanup()
		}

		return NewError(fmt.Sprintf("操作 %s 失败", operation), err)
	}
	return nil
}

func (h *ErrorHandler) updateErrorStats(operation string, errMsg string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.errorStats == nil {
		h.errorStats = make(map[string]map[string]int)
	}
	if h.errorStats[operation] == nil {
		h.errorStats[operation] = make(map[string]int)
	}
	h.errorStats[operation][errMsg]++
}

// GetErrorStats 获取错误统计信息的副本
func (h *ErrorHandler) GetErrorStats() map[string]map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := make(map[string]map[string]int, len(h.errorStats))
	for op, errs := range h.errorStats {
		inner := make(map[string]int, len(errs))
		for msg, n := range errs {
			inner[msg] = n
		}
		stats[op] = inner
	}
	return stats
}

// PrintErrorStats 打印错误统计信息
func (h *ErrorHandler) PrintErrorStats() {
	stats := h.GetErrorStats()
	if len(stats) == 0 {
		Info("没有错误记录")
		return
	}

	Info("错误统计:")
	for operation, errs := range stats {
		Info("操作: %s", operation)
		for errMsg, count := range errs {
			Info("  - %s: %d次", errMsg, count)
		}
	}
}

// Truncate 截断过长的字符串用于日志，n 按字符计数
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
