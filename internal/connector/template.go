package connector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pptgate/internal/pkg"
)

// Connector 是所有帧来源的通用接口
type Connector interface {
	Start(out pkg.FrameChan) error // 启动连接器，帧写入 out，立即返回
	Stop() error                   // 关闭底层连接/监听
	GetType() string
}

// FactoryFunc 代表一个连接器的工厂函数
type FactoryFunc func(ctx context.Context) (Connector, error)

// Factories 全局工厂映射，用于注册不同连接器类型的构造函数
var Factories = make(map[string]FactoryFunc)

// Register 注册一个连接器类型
func Register(connType string, factory FactoryFunc) {
	Factories[connType] = factory
}

// New 按配置创建启用的连接器
var New = func(ctx context.Context) (Connector, error) {
	config := pkg.ConfigFromContext(ctx)
	factoryTypes := make([]string, 0, len(Factories))
	for key := range Factories {
		factoryTypes = append(factoryTypes, key)
	}
	pkg.LoggerFromContext(ctx).Debug("Connector Factory:", zap.Strings("Factories", factoryTypes))
	factory, ok := Factories[config.Connector.Type]
	if !ok {
		return nil, fmt.Errorf("未找到连接器类型: %s", config.Connector.Type)
	}
	c, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("初始化连接器失败: %w", err)
	}
	return c, nil
}

// normalizeDuration 把配置 map 中字符串形式的时长字段替换为
// time.Duration，便于 mapstructure 解码
func normalizeDuration(para map[string]interface{}, key string) error {
	if str, ok := para[key].(string); ok {
		duration, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("解析 %s 配置失败: %w", key, err)
		}
		para[key] = duration
	}
	return nil
}

// deliver 非阻塞投递一帧，下游堵塞时丢帧并告警
func deliver(ctx context.Context, out pkg.FrameChan, frame pkg.RawFrame, source string) {
	metrics := pkg.GetPerformanceMetrics()
	select {
	case out <- frame:
		metrics.IncMsgReceived(source)
	default:
		metrics.IncMsgErrors(source)
		pkg.LoggerFromContext(ctx).Warn("帧通道堵塞, 丢弃一帧",
			zap.String("source", source), zap.String("device", frame.Device))
	}
}
