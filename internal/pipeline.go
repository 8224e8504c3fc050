package internal

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pptgate/internal/connector"
	"pptgate/internal/dispatcher"
	"pptgate/internal/parser"
	"pptgate/internal/pkg"
	"pptgate/internal/sink"
)

// Pipeline 把 连接器 -> 解析器 -> 分发器 -> sink 串成完整数据流。
// 各环节之间用带缓冲通道解耦，单个环节堵塞不阻塞上游
type Pipeline struct {
	connector  connector.Connector
	parser     *parser.Parser
	dispatcher *dispatcher.Dispatcher
	sinks      map[string]sink.Template

	frameChan pkg.FrameChan
	pointChan pkg.Parser2DispatcherChan
	sinkMap   pkg.Dispatch2SinkChan
}

// NewPipeline 按配置构建全部环节，任何一个环节配置非法都在此失败
func NewPipeline(ctx context.Context) (*Pipeline, error) {
	log := pkg.LoggerFromContext(ctx)

	sinks, sinkMap, err := sink.New(pkg.WithLoggerAndModule(ctx, log, "Sink"))
	if err != nil {
		return nil, fmt.Errorf("初始化sink失败: %w", err)
	}

	dis, err := dispatcher.New(pkg.WithLoggerAndModule(ctx, log, "Dispatcher"))
	if err != nil {
		return nil, fmt.Errorf("初始化dispatcher失败: %w", err)
	}

	p, err := parser.New(pkg.WithLoggerAndModule(ctx, log, "Parser"))
	if err != nil {
		return nil, fmt.Errorf("初始化parser失败: %w", err)
	}

	c, err := connector.New(pkg.WithLoggerAndModule(ctx, log, "Connector"))
	if err != nil {
		return nil, fmt.Errorf("初始化connector失败: %w", err)
	}

	return &Pipeline{
		connector:  c,
		parser:     p,
		dispatcher: dis,
		sinks:      sinks,
		frameChan:  make(pkg.FrameChan, 100),
		pointChan:  make(pkg.Parser2DispatcherChan, 100),
		sinkMap:    sinkMap,
	}, nil
}

// Start 自下游向上游启动各环节，保证帧进入时下游已就绪
func (pl *Pipeline) Start(ctx context.Context) error {
	log := pkg.LoggerFromContext(ctx)

	sink.StartAll(pl.sinks, pl.sinkMap)
	go pl.dispatcher.Start(pl.pointChan, pl.sinkMap)
	go pl.parser.Start(pl.frameChan, pl.pointChan)

	if err := pl.connector.Start(pl.frameChan); err != nil {
		return fmt.Errorf("启动connector失败: %w", err)
	}

	log.Info("===Pipeline started===",
		zap.String("connector", pl.connector.GetType()),
		zap.Int("sinks", len(pl.sinks)))
	return nil
}

// Stop 只需停连接器，其余环节随 ctx 取消退出
func (pl *Pipeline) Stop() error {
	return pl.connector.Stop()
}
