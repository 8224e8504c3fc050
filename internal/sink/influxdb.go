package sink

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"pptgate/internal/pkg"
)

func init() {
	Register("influxdb", NewInfluxDbSink)
}

// InfluxDbInfo InfluxDB 的专属配置
type InfluxDbInfo struct {
	URL       string `mapstructure:"url"`
	Org       string `mapstructure:"org"`
	Token     string `mapstructure:"token"`
	Bucket    string `mapstructure:"bucket"`
	BatchSize uint   `mapstructure:"batch_size"`
}

// InfluxDbSink 把测量值写入 InfluxDB，profile 为 measurement，设备名为 tag
type InfluxDbSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	info     InfluxDbInfo
	ctx      context.Context
	logger   *zap.Logger
}

func NewInfluxDbSink(ctx context.Context) (Template, error) {
	log := pkg.LoggerFromContext(ctx)
	para, found := findPara(pkg.ConfigFromContext(ctx), "influxdb")
	if !found {
		return nil, fmt.Errorf("未找到启用的influxdb sink配置")
	}
	var info InfluxDbInfo
	if err := mapstructure.Decode(para, &info); err != nil {
		log.Error("解析influxdb配置失败", zap.Error(err), zap.Any("config", para))
		return nil, fmt.Errorf("解析influxdb配置失败: %w", err)
	}
	if info.URL == "" {
		return nil, fmt.Errorf("influxdb配置校验失败: url 必填")
	}
	// BatchSize 为零会导致客户端内部除零 panic
	if info.BatchSize == 0 {
		info.BatchSize = 100
	}
	log.Debug("InfluxDB配置", zap.Any("info", info))

	client := influxdb2.NewClientWithOptions(info.URL, info.Token,
		influxdb2.DefaultOptions().SetBatchSize(info.BatchSize))
	writeAPI := client.WriteAPI(info.Org, info.Bucket)

	// 异步写入的错误只能从 Errors 通道拿到
	errorsCh := writeAPI.Errors()
	go func() {
		for err := range errorsCh {
			log.Error("influxdb写入错误", zap.Error(err))
			if ec := pkg.ErrChanFromContext(ctx); ec != nil {
				select {
				case ec <- fmt.Errorf("influxdb写入错误: %w", err):
				default:
				}
			}
		}
	}()

	return &InfluxDbSink{
		client:   client,
		writeAPI: writeAPI,
		info:     info,
		ctx:      ctx,
		logger:   log.With(zap.String("sink_type", "influxdb")),
	}, nil
}

func (b *InfluxDbSink) GetType() string {
	return "influxdb"
}

func (b *InfluxDbSink) Start(ch chan *pkg.PointPackage) {
	metrics := pkg.GetPerformanceMetrics()
	b.logger.Info("===InfluxDbSink started===")
	for {
		select {
		case <-b.ctx.Done():
			b.Stop()
			return
		case pp, ok := <-ch:
			if !ok {
				return
			}
			publishTimer := metrics.NewTimer("influxdb_publish")
			metrics.IncMsgReceived("influxdb")
			if err := b.Publish(pp); err != nil {
				metrics.IncErrorCount()
				metrics.IncMsgErrors("influxdb")
				b.logger.Error("写入失败", zap.Error(err))
			} else {
				metrics.IncMsgProcessed("influxdb")
			}
			publishTimer.StopAndLog(b.logger)
		}
	}
}

// Publish 把数据包逐点写入。measurement 取 profile，
// 同一台设备的多个 profile 落到不同的 measurement
func (b *InfluxDbSink) Publish(pp *pkg.PointPackage) error {
	for _, point := range pp.Points {
		fields := make(map[string]interface{}, len(point.Field))
		for name, value := range point.Field {
			fields[name] = value
		}
		p := influxdb2.NewPoint(
			point.Profile,
			map[string]string{"device": point.Device},
			fields,
			point.Ts,
		)
		b.writeAPI.WritePoint(p)
		b.logger.Debug("InfluxDbSink published",
			zap.String("device", point.Device),
			zap.String("profile", point.Profile),
			zap.String("frameId", pp.FrameId.String()))
	}
	return nil
}

func (b *InfluxDbSink) Stop() {
	b.writeAPI.Flush()
	b.client.Close()
	b.logger.Info("===InfluxDbSink stopped===")
}
