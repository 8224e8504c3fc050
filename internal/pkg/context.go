package pkg

import (
	"context"

	"go.uber.org/zap"
)

// 不导出的 key 类型，避免 context key 冲突
type (
	configKey struct{}
	loggerKey struct{}
)

// WithConfig 将全局配置挂载到 context 上
func WithConfig(ctx context.Context, config *Config) context.Context {
	return context.WithValue(ctx, configKey{}, config)
}

// ConfigFromContext 从 context 中提取配置指针
func ConfigFromContext(ctx context.Context) *Config {
	if config, ok := ctx.Value(configKey{}).(*Config); ok {
		return config
	}
	return &Config{}
}

// WithLogger 将 zap.Logger 挂载到 context 上
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithLoggerAndModule 将带有模块字段的 zap.Logger 挂载到 context 上
func WithLoggerAndModule(ctx context.Context, logger *zap.Logger, module string) context.Context {
	return WithLogger(ctx, logger.With(zap.String("module", module)))
}

// LoggerFromContext 从 context 中提取 logger，未挂载时返回 Nop
func LoggerFromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}
