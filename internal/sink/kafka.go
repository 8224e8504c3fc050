package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"pptgate/internal/pkg"
)

func init() {
	Register("kafka", NewKafkaSink)
}

// KafkaSinkConfig 包含 Kafka sink 特定的配置
type KafkaSinkConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	Topic           string   `mapstructure:"topic"`
	Async           bool     `mapstructure:"async"`
	WriteTimeoutSec int      `mapstructure:"writeTimeoutSec"`
	RequiredAcks    int      `mapstructure:"requiredAcks"`
}

// KafkaSink 把数据包写入 Kafka，消息 key 为设备名
type KafkaSink struct {
	writer *kafka.Writer
	config KafkaSinkConfig
	logger *zap.Logger
	ctx    context.Context
}

func NewKafkaSink(ctx context.Context) (Template, error) {
	log := pkg.LoggerFromContext(ctx)
	para, found := findPara(pkg.ConfigFromContext(ctx), "kafka")
	if !found {
		return nil, fmt.Errorf("未找到启用的kafka sink配置")
	}
	var cfg KafkaSinkConfig
	if err := mapstructure.Decode(para, &cfg); err != nil {
		log.Error("解析kafka配置失败", zap.Error(err), zap.Any("config", para))
		return nil, fmt.Errorf("解析kafka配置失败: %w", err)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka配置校验失败: brokers 必填")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka配置校验失败: topic 必填")
	}
	if cfg.WriteTimeoutSec == 0 {
		cfg.WriteTimeoutSec = 10
	}
	// 未指定或值无效时要求 leader 确认
	acks := kafka.RequireOne
	switch cfg.RequiredAcks {
	case -1:
		acks = kafka.RequireAll
	case 0:
		acks = kafka.RequireNone
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // 同设备的数据进同一分区，保持设备内有序
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
		RequiredAcks: acks,
		Async:        cfg.Async,
	}

	return &KafkaSink{
		writer: writer,
		config: cfg,
		logger: log.With(zap.String("sink_type", "kafka"), zap.String("topic", cfg.Topic)),
		ctx:    ctx,
	}, nil
}

func (k *KafkaSink) GetType() string {
	return "kafka"
}

func (k *KafkaSink) Start(ch chan *pkg.PointPackage) {
	metrics := pkg.GetPerformanceMetrics()
	k.logger.Info("===KafkaSink started===")
	for {
		select {
		case <-k.ctx.Done():
			k.Stop()
			return
		case pp, ok := <-ch:
			if !ok {
				return
			}
			metrics.IncMsgReceived("kafka")
			if err := k.Publish(pp); err != nil {
				metrics.IncErrorCount()
				metrics.IncMsgErrors("kafka")
				k.logger.Error("写入失败", zap.Error(err))
			} else {
				metrics.IncMsgProcessed("kafka")
			}
		}
	}
}

// Publish 把数据包按点逐条写入主题
func (k *KafkaSink) Publish(pp *pkg.PointPackage) error {
	messages := make([]kafka.Message, 0, len(pp.Points))
	for _, point := range pp.Points {
		payload, err := json.Marshal(pointPayload{
			FrameId: pp.FrameId.String(),
			Device:  point.Device,
			Profile: point.Profile,
			Fields:  point.Field,
			Ts:      point.Ts,
		})
		if err != nil {
			return fmt.Errorf("序列化数据点失败: %w", err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(point.Device),
			Value: payload,
			Time:  point.Ts,
		})
	}
	writeCtx, cancel := context.WithTimeout(k.ctx, time.Duration(k.config.WriteTimeoutSec)*time.Second)
	defer cancel()
	return k.writer.WriteMessages(writeCtx, messages...)
}

func (k *KafkaSink) Stop() {
	if err := k.writer.Close(); err != nil {
		k.logger.Error("关闭writer失败", zap.Error(err))
	}
	k.logger.Info("===KafkaSink stopped===")
}
