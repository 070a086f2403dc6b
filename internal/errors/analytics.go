package errors

import (
	"sync"
	"time"
)

// ErrorAnalytics 错误分析
type ErrorAnalytics struct {
	mu            sync.RWMutex
	TotalErrors   int
	ErrorsByCode  map[ErrorCode]int
	ErrorsByPath  map[string]int
	ErrorPatterns map[string]int
	LastErrorTime time.Time
}

// NewErrorAnalytics 创建错误分析器
func NewErrorAnalytics() *ErrorAnalytics {
	return &ErrorAnalytics{
		ErrorsByCode:  make(map[ErrorCode]int),
		ErrorsByPath:  make(map[string]int),
		ErrorPatterns: make(map[string]int),
	}
}

// Record 记录错误
func (a *ErrorAnalytics) Record(err *TracedError) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.TotalErrors++
	a.ErrorsByCode[err.Code]++
	a.ErrorsByPath[err.Context.Method+" "+err.Context.Path]++
	a.LastErrorTime = err.Timestamp

	if pattern := identifyPattern(err); pattern != "" {
		a.ErrorPatterns[pattern]++
	}
}

// identifyPattern 按错误类别归类
func identifyPattern(err *TracedError) string {
	switch {
	case IsNotFound(err.AppError):
		return "not_found"
	case IsValidation(err.AppError):
		return "validation"
	case err.Context.Status >= 500:
		return "server"
	case err.Context.Status == 401:
		return "auth"
	}
	return ""
}

// GetStats 获取统计信息
func (a *ErrorAnalytics) GetStats() map[string]interface{} {
	a.mu.RLock()
	defer a.mu.RUnlock()

	byCode := make(map[ErrorCode]int, len(a.ErrorsByCode))
	for k, v := range a.ErrorsByCode {
		byCode[k] = v
	}
	byPath := make(map[string]int, len(a.ErrorsByPath))
	for k, v := range a.ErrorsByPath {
		byPath[k] = v
	}
	patterns := make(map[string]int, len(a.ErrorPatterns))
	for k, v := range a.ErrorPatterns {
		patterns[k] = v
	}

	return map[string]interface{}{
		"total_errors":   a.TotalErrors,
		"errors_by_code": byCode,
		"errors_by_path": byPath,
		"error_patterns": patterns,
		"last_error":     a.LastErrorTime,
	}
}
