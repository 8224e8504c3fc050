package dispatcher

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"pptgate/internal/pkg"
)

// Dispatcher 把 Parser 产出的 PointPackage 按设备名过滤规则
// 路由到各个启用的 Sink 通道
type Dispatcher struct {
	ctx    context.Context
	routes map[string][]*regexp.Regexp // sink 类型 -> 设备名过滤正则
}

// New 根据配置创建 Dispatcher，启动期编译全部过滤正则。
// 没有配置 filter 的 sink 接收全部设备
func New(ctx context.Context) (*Dispatcher, error) {
	routes := make(map[string][]*regexp.Regexp)
	for _, sinkConfig := range pkg.ConfigFromContext(ctx).Sink {
		if !sinkConfig.Enable {
			continue
		}
		filters := sinkConfig.Filter
		if len(filters) == 0 {
			filters = []string{".*"}
		}
		compiled := make([]*regexp.Regexp, 0, len(filters))
		for _, filter := range filters {
			re, err := regexp.Compile(filter)
			if err != nil {
				return nil, fmt.Errorf("sink %s 过滤规则 %q 非法: %w", sinkConfig.Type, filter, err)
			}
			compiled = append(compiled, re)
		}
		routes[sinkConfig.Type] = compiled
	}
	return &Dispatcher{ctx: ctx, routes: routes}, nil
}

// Start 消费数据包通道直到 ctx 取消或通道关闭
func (dis *Dispatcher) Start(source pkg.Parser2DispatcherChan, sinkMap pkg.Dispatch2SinkChan) {
	log := pkg.LoggerFromContext(dis.ctx)
	metrics := pkg.GetPerformanceMetrics()

	log.Info("===Dispatcher started===", zap.Int("routes", len(dis.routes)))
	for {
		select {
		case <-dis.ctx.Done():
			log.Info("===Dispatcher stopped===")
			return
		case pp, ok := <-source:
			if !ok {
				log.Info("数据包通道已关闭, Dispatcher 退出")
				return
			}
			metrics.IncMsgReceived("dispatcher")
			dis.launch(pp, sinkMap)
			metrics.IncMsgProcessed("dispatcher")
		}
	}
}

// launch 把一个数据包分发到所有匹配的 sink
func (dis *Dispatcher) launch(pp *pkg.PointPackage, sinkMap pkg.Dispatch2SinkChan) {
	log := pkg.LoggerFromContext(dis.ctx)
	metrics := pkg.GetPerformanceMetrics()

	for sinkType, filters := range dis.routes {
		ch, exists := sinkMap[sinkType]
		if !exists {
			continue
		}
		filtered := dis.filter(pp, filters)
		if filtered == nil {
			continue
		}
		select {
		case ch <- filtered:
		default:
			// 单个 sink 堵塞不应拖垮其他 sink
			log.Warn("sink通道堵塞, 丢弃数据包", zap.String("sink", sinkType))
			metrics.IncMsgErrors("dispatcher_" + sinkType)
		}
	}
}

// filter 返回只含匹配设备的数据包，全部不匹配时返回 nil。
// Point 为只读共享，不复制字段表
func (dis *Dispatcher) filter(pp *pkg.PointPackage, filters []*regexp.Regexp) *pkg.PointPackage {
	matched := make([]*pkg.Point, 0, len(pp.Points))
	for _, point := range pp.Points {
		for _, re := range filters {
			if re.MatchString(point.Device) {
				matched = append(matched, point)
				break
			}
		}
	}
	if len(matched) == 0 {
		return nil
	}
	if len(matched) == len(pp.Points) {
		return pp
	}
	return &pkg.PointPackage{FrameId: pp.FrameId, Points: matched, Ts: pp.Ts}
}
