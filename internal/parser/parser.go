package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pptgate/internal/decode"
	"pptgate/internal/pkg"
)

// Parser 持有启用的 profile 列表和编译好的派生字段表达式。
// 运行期状态只读，可安全地被单协程 Start 循环使用
type Parser struct {
	ctx      context.Context
	profiles []string
	derived  []derivedField
}

// New 根据配置创建 Parser。profile 列表为空或含未注册项都属于
// 配置错误，启动期直接失败
func New(ctx context.Context) (*Parser, error) {
	config := pkg.ConfigFromContext(ctx)

	if len(config.Parser.Profiles) == 0 {
		return nil, fmt.Errorf("parser 配置缺少 profiles")
	}
	for _, id := range config.Parser.Profiles {
		if _, err := decode.Fields(id); err != nil {
			return nil, fmt.Errorf("parser 配置非法: %w", err)
		}
	}

	derived, err := compileDerived(config.Parser.Derived)
	if err != nil {
		return nil, fmt.Errorf("编译派生字段失败: %w", err)
	}
	pkg.LoggerFromContext(ctx).Info("解析器已就绪",
		zap.Strings("profiles", config.Parser.Profiles),
		zap.Int("derivedFields", len(derived)))

	return &Parser{
		ctx:      ctx,
		profiles: config.Parser.Profiles,
		derived:  derived,
	}, nil
}

// Start 消费帧通道直到 ctx 取消或通道关闭
func (p *Parser) Start(in pkg.FrameChan, out pkg.Parser2DispatcherChan) {
	log := pkg.LoggerFromContext(p.ctx)
	metrics := pkg.GetPerformanceMetrics()

	log.Info("===Parser started===")
	for {
		select {
		case <-p.ctx.Done():
			log.Info("===Parser stopped===")
			return
		case frame, ok := <-in:
			if !ok {
				log.Info("帧通道已关闭, Parser 退出")
				return
			}
			metrics.IncMsgReceived("parser")
			parseTimer := metrics.NewTimer("parser_frame")

			pp, err := p.ParseFrame(frame)
			if err != nil {
				metrics.IncErrorCount()
				metrics.IncMsgErrors("parser")
				log.Warn("丢弃无法解码的帧",
					zap.String("device", frame.Device),
					zap.Int("bytes", len(frame.Data)),
					zap.Error(err))
				continue
			}
			metrics.IncMsgProcessed("parser")
			parseTimer.StopAndLog(log)

			select {
			case out <- pp:
			default:
				// 不阻塞解析循环，下游堵塞时丢弃并告警
				log.Warn("分发通道堵塞, 丢弃数据包", zap.String("device", frame.Device))
				metrics.IncMsgErrors("parser_dispatch")
			}
		}
	}
}

// ParseFrame 把一帧解码为 PointPackage。任一 profile 解码失败都
// 使整帧失败，不产出部分结果
func (p *Parser) ParseFrame(frame pkg.RawFrame) (*pkg.PointPackage, error) {
	ts := frame.Ts
	if ts.IsZero() {
		ts = time.Now()
	}

	points := make([]*pkg.Point, 0, len(p.profiles)+1)
	merged := make(map[string]float64)
	for _, id := range p.profiles {
		fields, err := decode.Decode(frame.Data, id)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", id, err)
		}
		points = append(points, &pkg.Point{
			Device:  frame.Device,
			Profile: id,
			Field:   fields,
			Ts:      ts,
		})
		for name, value := range fields {
			merged[name] = value
		}
	}

	if len(p.derived) > 0 {
		fields, err := evalDerived(p.derived, merged)
		if err != nil {
			return nil, fmt.Errorf("派生字段求值失败: %w", err)
		}
		points = append(points, &pkg.Point{
			Device:  frame.Device,
			Profile: "derived",
			Field:   fields,
			Ts:      ts,
		})
	}

	return &pkg.PointPackage{
		FrameId: uuid.New(),
		Points:  points,
		Ts:      ts,
	}, nil
}
