package sink

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pptgate/internal/pkg"
)

// Template 是所有 sink 的通用接口
type Template interface {
	GetType() string
	Start(ch chan *pkg.PointPackage) // 消费通道直到 ctx 取消，阻塞调用
	Stop()
}

// FactoryFunc 代表一个 sink 的工厂函数
type FactoryFunc func(ctx context.Context) (Template, error)

// Factories 全局工厂映射，用于注册不同 sink 类型的构造函数
var Factories = make(map[string]FactoryFunc)

// Register 注册一个 sink 类型
func Register(sinkType string, factory FactoryFunc) {
	Factories[sinkType] = factory
}

// New 初始化配置中启用的全部 sink 及其通道。
// 区分注册和启用，方便调试时开关单个输出而不删配置
func New(ctx context.Context) (map[string]Template, pkg.Dispatch2SinkChan, error) {
	log := pkg.LoggerFromContext(ctx)
	config := pkg.ConfigFromContext(ctx)

	sinks := make(map[string]Template)
	sinkMap := make(pkg.Dispatch2SinkChan)
	for _, sinkConfig := range config.Sink {
		if !sinkConfig.Enable {
			continue
		}
		factory, exists := Factories[sinkConfig.Type]
		if !exists {
			return nil, nil, fmt.Errorf("未找到sink类型: %s", sinkConfig.Type)
		}
		s, err := factory(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("初始化sink %s 失败: %w", sinkConfig.Type, err)
		}
		sinks[sinkConfig.Type] = s
		sinkMap[sinkConfig.Type] = make(chan *pkg.PointPackage, 100)
	}
	log.Info("已启用的sink", zap.Int("count", len(sinks)))
	return sinks, sinkMap, nil
}

// StartAll 启动全部 sink 消费循环
func StartAll(sinks map[string]Template, sinkMap pkg.Dispatch2SinkChan) {
	for sinkType, s := range sinks {
		go s.Start(sinkMap[sinkType])
	}
}

// findPara 在配置中查找指定类型 sink 的自定义配置块
func findPara(config *pkg.Config, sinkType string) (map[string]interface{}, bool) {
	for _, sinkConfig := range config.Sink {
		if sinkConfig.Enable && sinkConfig.Type == sinkType {
			return sinkConfig.Para, true
		}
	}
	return nil, false
}
