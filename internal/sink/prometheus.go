package sink

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pptgate/internal/pkg"
)

func init() {
	Register("prometheus", NewPrometheusSink)
}

// PrometheusInfo Prometheus 的专属配置
type PrometheusInfo struct {
	Port      int    `mapstructure:"port"`
	Endpoint  string `mapstructure:"endpoint"`
	Namespace string `mapstructure:"namespace"`
}

// PrometheusSink 以 GaugeVec 形式暴露每个 profile 的最近一次测量值，
// 标签为 device 和 field
type PrometheusSink struct {
	info     PrometheusInfo
	ctx      context.Context
	logger   *zap.Logger
	registry *prometheus.Registry
	gauges   map[string]*prometheus.GaugeVec // profile -> GaugeVec
	server   *http.Server
}

func NewPrometheusSink(ctx context.Context) (Template, error) {
	log := pkg.LoggerFromContext(ctx)
	para, found := findPara(pkg.ConfigFromContext(ctx), "prometheus")
	if !found {
		return nil, fmt.Errorf("未找到启用的prometheus sink配置")
	}
	var info PrometheusInfo
	if err := mapstructure.Decode(para, &info); err != nil {
		log.Error("解析prometheus配置失败", zap.Error(err), zap.Any("config", para))
		return nil, fmt.Errorf("解析prometheus配置失败: %w", err)
	}
	if info.Endpoint == "" {
		info.Endpoint = "/metrics"
	}
	if info.Namespace == "" {
		info.Namespace = "pptgate"
	}

	// 独立 registry，避免与进程内其他组件的指标冲突
	registry := prometheus.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle(info.Endpoint, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", info.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("启动Prometheus HTTP服务", zap.Int("port", info.Port), zap.String("endpoint", info.Endpoint))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Prometheus HTTP服务启动失败", zap.Error(err))
		}
	}()

	return &PrometheusSink{
		info:     info,
		ctx:      ctx,
		logger:   log.With(zap.String("sink_type", "prometheus")),
		registry: registry,
		gauges:   make(map[string]*prometheus.GaugeVec),
		server:   server,
	}, nil
}

func (p *PrometheusSink) GetType() string {
	return "prometheus"
}

func (p *PrometheusSink) Start(ch chan *pkg.PointPackage) {
	metrics := pkg.GetPerformanceMetrics()
	p.logger.Info("===PrometheusSink started===")
	for {
		select {
		case <-p.ctx.Done():
			p.Stop()
			return
		case pp, ok := <-ch:
			if !ok {
				return
			}
			metrics.IncMsgReceived("prometheus")
			if err := p.Publish(pp); err != nil {
				metrics.IncErrorCount()
				metrics.IncMsgErrors("prometheus")
				p.logger.Error("更新指标失败", zap.Error(err))
			} else {
				metrics.IncMsgProcessed("prometheus")
			}
		}
	}
}

// Publish 按 profile 创建或更新 GaugeVec
func (p *PrometheusSink) Publish(pp *pkg.PointPackage) error {
	for _, point := range pp.Points {
		gauge, exists := p.gauges[point.Profile]
		if !exists {
			gauge = prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: p.info.Namespace,
					Name:      fmt.Sprintf("%s_value", point.Profile),
					Help:      fmt.Sprintf("Latest decoded values for profile %s", point.Profile),
				},
				[]string{"device", "field"},
			)
			if err := p.registry.Register(gauge); err != nil {
				return fmt.Errorf("注册指标 %s 失败: %w", point.Profile, err)
			}
			p.gauges[point.Profile] = gauge
		}
		for name, value := range point.Field {
			gauge.With(prometheus.Labels{"device": point.Device, "field": name}).Set(value)
		}
	}
	return nil
}

func (p *PrometheusSink) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := p.server.Shutdown(shutdownCtx); err != nil {
		p.logger.Error("关闭Prometheus HTTP服务失败", zap.Error(err))
	}
	p.logger.Info("===PrometheusSink stopped===")
}
