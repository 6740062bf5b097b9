package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorHandler(t *testing.T) {
	handler := NewErrorHandler(3, 0.1)
	assert.Equal(t, 3, handler.MaxRetries)
	assert.Equal(t, 0.1, handler.RetryDelay)
	assert.Empty(t, handler.GetErrorStats())

	// 次数至少为1
	assert.Equal(t, 1, NewErrorHandler(0, 0).MaxRetries)
}

func TestRetry(t *testing.T) {
	handler := NewErrorHandler(3, 0.01) // 使用很小的延迟以加速测试

	// 一次成功
	callCount := 0
	err := handler.Retry("test_success", func() error {
		callCount++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)

	// 失败后重试成功
	callCount = 0
	err = handler.Retry("test_retry_success", func() error {
		callCount++
		if callCount < 2 {
			return errors.New("预期错误")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, callCount)

	// 总是失败
	callCount = 0
	testErr := errors.New("总是失败")
	err = handler.Retry("test_always_fail", func() error {
		callCount++
		return testErr
	})
	assert.Error(t, err)
	assert.ErrorIs(t, err, testErr)
	assert.Equal(t, handler.MaxRetries, callCount)

	stats := handler.GetErrorStats()
	assert.Len(t, stats, 2)
	assert.Equal(t, 1, stats["test_retry_success"]["预期错误"])
	assert.Equal(t, handler.MaxRetries, stats["test_always_fail"]["总是失败"])
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	handler := NewErrorHandler(5, 0.01)
	handler.ShouldRetry = IsRetryable

	callCount := 0
	err := handler.Retry("bad_request", func() error {
		callCount++
		return errors.New("status 400")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, callCount)

	callCount = 0
	err = handler.Retry("rate_limited", func() error {
		callCount++
		if callCount < 3 {
			return &RetryableError{StatusCode: 429, Message: "slow down"}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestRetryContextCancelled(t *testing.T) {
	handler := NewErrorHandler(3, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	callCount := 0
	err := handler.RetryContext(ctx, "cancelled", func() error {
		callCount++
		return errors.New("失败")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, callCount)
}

func TestSafeExecute(t *testing.T) {
	handler := NewErrorHandler(3, 0.01)

	executed := false
	cleaned := false
	err := handler.SafeExecute("test_safe_success", func() error {
		executed = true
		return nil
	}, func() {
		cleaned = true
	})
	assert.NoError(t, err)
	assert.True(t, executed)
	assert.False(t, cleaned)

	executed = false
	testErr := errors.New("预期错误")
	err = handler.SafeExecute("test_safe_fail", func() error {
		executed = true
		return testErr
	}, func() {
		cleaned = true
	})
	assert.Error(t, err)
	assert.True(t, executed)
	assert.True(t, cleaned)

	var perr *ProcessingError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, handler.GetErrorStats()["test_safe_fail"]["预期错误"])
}

func TestErrorStats(t *testing.T) {
	handler := NewErrorHandler(3, 0.01)

	handler.updateErrorStats("op1", "err1")
	handler.updateErrorStats("op1", "err1")
	handler.updateErrorStats("op1", "err2")
	handler.updateErrorStats("op2", "err3")

	stats := handler.GetErrorStats()
	assert.Len(t, stats, 2)
	assert.Equal(t, 2, stats["op1"]["err1"])
	assert.Equal(t, 1, stats["op1"]["err2"])
	assert.Equal(t, 1, stats["op2"]["err3"])

	// 返回的是副本
	stats["op1"]["err1"] = 100
	assert.Equal(t, 2, handler.GetErrorStats()["op1"]["err1"])

	handler.PrintErrorStats()
}

func TestRetryableError(t *testing.T) {
	err := &RetryableError{StatusCode: 503, Message: "unavailable"}
	assert.Contains(t, err.Error(), "503")
	assert.True(t, IsRetryable(NewError("wrapped", err)))
	assert.False(t, IsRetryable(errors.New("plain")))
}
