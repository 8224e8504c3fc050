package pkg

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// PerformanceMetrics 进程内性能计数，各模块通过单例共享
type PerformanceMetrics struct {
	StartTime  time.Time
	ErrorCount int64

	// 消息处理指标，按消息类型分计数器，避免全局锁
	received  sync.Map // string -> *int64
	processed sync.Map // string -> *int64
	errors    sync.Map // string -> *int64
}

var (
	perfMetrics *PerformanceMetrics
	perfOnce    sync.Once
)

// GetPerformanceMetrics 返回性能指标单例
func GetPerformanceMetrics() *PerformanceMetrics {
	perfOnce.Do(func() {
		perfMetrics = &PerformanceMetrics{StartTime: time.Now()}
	})
	return perfMetrics
}

// 从 sync.Map 中获取计数器，不存在则创建
func getOrCreateCounter(m *sync.Map, key string) *int64 {
	if val, ok := m.Load(key); ok {
		return val.(*int64)
	}
	counter := new(int64)
	if actual, loaded := m.LoadOrStore(key, counter); loaded {
		return actual.(*int64)
	}
	return counter
}

// IncErrorCount 增加全局错误计数
func (pm *PerformanceMetrics) IncErrorCount() int64 {
	return atomic.AddInt64(&pm.ErrorCount, 1)
}

// IncMsgReceived 增加特定类型的接收消息计数
func (pm *PerformanceMetrics) IncMsgReceived(msgType string) int64 {
	return atomic.AddInt64(getOrCreateCounter(&pm.received, msgType), 1)
}

// IncMsgProcessed 增加特定类型的处理消息计数
func (pm *PerformanceMetrics) IncMsgProcessed(msgType string) int64 {
	return atomic.AddInt64(getOrCreateCounter(&pm.processed, msgType), 1)
}

// IncMsgErrors 增加特定类型的错误消息计数
func (pm *PerformanceMetrics) IncMsgErrors(msgType string) int64 {
	return atomic.AddInt64(getOrCreateCounter(&pm.errors, msgType), 1)
}

// GetMsgCount 读取特定类型的消息计数，statsType 为 received|processed|errors
func (pm *PerformanceMetrics) GetMsgCount(msgType string, statsType string) int64 {
	var m *sync.Map
	switch statsType {
	case "received":
		m = &pm.received
	case "processed":
		m = &pm.processed
	case "errors":
		m = &pm.errors
	default:
		return 0
	}
	if val, ok := m.Load(msgType); ok {
		return atomic.LoadInt64(val.(*int64))
	}
	return 0
}

// Timer 简单的计时器
type Timer struct {
	start time.Time
	name  string
}

// NewTimer 创建一个新的计时器
func (pm *PerformanceMetrics) NewTimer(name string) *Timer {
	return &Timer{start: time.Now(), name: name}
}

// Stop 停止计时并返回耗时
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// StopAndLog 停止计时并按 Debug 级别记录耗时
func (t *Timer) StopAndLog(logger *zap.Logger) {
	logger.Debug("计时结束",
		zap.String("timer", t.name),
		zap.Duration("duration", time.Since(t.start)))
}
