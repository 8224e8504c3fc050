package sink

import (
	"context"

	"go.uber.org/zap"

	"pptgate/internal/pkg"
)

func init() {
	Register("console", NewConsoleSink)
}

// ConsoleSink 把数据点按结构化日志输出，联调与测试用
type ConsoleSink struct {
	ctx    context.Context
	logger *zap.Logger
}

func NewConsoleSink(ctx context.Context) (Template, error) {
	return &ConsoleSink{
		ctx:    ctx,
		logger: pkg.LoggerFromContext(ctx).With(zap.String("sink_type", "console")),
	}, nil
}

func (c *ConsoleSink) GetType() string {
	return "console"
}

func (c *ConsoleSink) Start(ch chan *pkg.PointPackage) {
	metrics := pkg.GetPerformanceMetrics()
	c.logger.Info("===ConsoleSink started===")
	for {
		select {
		case <-c.ctx.Done():
			c.Stop()
			return
		case pp, ok := <-ch:
			if !ok {
				return
			}
			metrics.IncMsgReceived("console")
			for _, point := range pp.Points {
				c.logger.Info("遥测数据点",
					zap.String("frameId", pp.FrameId.String()),
					zap.String("device", point.Device),
					zap.String("profile", point.Profile),
					zap.Any("fields", point.Field),
					zap.Time("ts", point.Ts))
			}
			metrics.IncMsgProcessed("console")
		}
	}
}

func (c *ConsoleSink) Stop() {
	c.logger.Info("===ConsoleSink stopped===")
}
