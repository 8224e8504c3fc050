package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"pptgate/internal/pkg"
)

func init() {
	Register("mqtt", NewMqttSink)
}

// MqttInfo MQTT 的专属配置
type MqttInfo struct {
	Broker         string `mapstructure:"broker"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	ClientID       string `mapstructure:"clientID"`
	Topic          string `mapstructure:"topic"` // 主题前缀
	QoS            byte   `mapstructure:"qos"`
	Retained       bool   `mapstructure:"retained"`
	KeepAliveSec   uint   `mapstructure:"keepAliveSec"`
	PingTimeoutSec uint   `mapstructure:"pingTimeoutSec"`
}

// MqttSink 把数据点发布到 MQTT，主题为 前缀/设备名/profile
type MqttSink struct {
	client mqtt.Client
	info   MqttInfo
	ctx    context.Context
	logger *zap.Logger
}

// pointPayload 是发布到 MQTT 的消息体
type pointPayload struct {
	FrameId string             `json:"frame_id"`
	Device  string             `json:"device"`
	Profile string             `json:"profile"`
	Fields  map[string]float64 `json:"fields"`
	Ts      time.Time          `json:"timestamp"`
}

func NewMqttSink(ctx context.Context) (Template, error) {
	log := pkg.LoggerFromContext(ctx)
	para, found := findPara(pkg.ConfigFromContext(ctx), "mqtt")
	if !found {
		return nil, fmt.Errorf("未找到启用的mqtt sink配置")
	}
	var info MqttInfo
	if err := mapstructure.Decode(para, &info); err != nil {
		log.Error("解析mqtt配置失败", zap.Error(err), zap.Any("config", para))
		return nil, fmt.Errorf("解析mqtt配置失败: %w", err)
	}

	if info.Broker == "" {
		return nil, fmt.Errorf("mqtt配置校验失败: broker 必填")
	}
	if info.Topic == "" {
		return nil, fmt.Errorf("mqtt配置校验失败: topic 必填")
	}
	if info.Port == 0 {
		info.Port = 1883
	}
	if info.ClientID == "" {
		info.ClientID = fmt.Sprintf("pptgate-mqtt-%d", time.Now().UnixNano())
		log.Info("未设置mqtt clientID, 使用生成值", zap.String("clientID", info.ClientID))
	}
	if info.KeepAliveSec == 0 {
		info.KeepAliveSec = 60
	}
	if info.PingTimeoutSec == 0 {
		info.PingTimeoutSec = 2
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", info.Broker, info.Port))
	opts.SetClientID(info.ClientID)
	opts.SetUsername(info.Username)
	opts.SetPassword(info.Password)
	opts.SetKeepAlive(time.Duration(info.KeepAliveSec) * time.Second)
	opts.SetPingTimeout(time.Duration(info.PingTimeoutSec) * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)
	opts.OnConnect = func(client mqtt.Client) {
		log.Info("MQTT已连接", zap.String("broker", info.Broker))
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Error("MQTT连接丢失", zap.Error(err), zap.String("broker", info.Broker))
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Error("MQTT连接失败", zap.Error(token.Error()), zap.String("broker", info.Broker))
		return nil, fmt.Errorf("mqtt连接 %s 失败: %w", info.Broker, token.Error())
	}

	return &MqttSink{
		client: client,
		info:   info,
		ctx:    ctx,
		logger: log.With(zap.String("sink_type", "mqtt")),
	}, nil
}

func (m *MqttSink) GetType() string {
	return "mqtt"
}

func (m *MqttSink) Start(ch chan *pkg.PointPackage) {
	metrics := pkg.GetPerformanceMetrics()
	m.logger.Info("===MqttSink started===")
	for {
		select {
		case <-m.ctx.Done():
			m.Stop()
			return
		case pp, ok := <-ch:
			if !ok {
				return
			}
			metrics.IncMsgReceived("mqtt")
			if err := m.Publish(pp); err != nil {
				metrics.IncErrorCount()
				metrics.IncMsgErrors("mqtt")
				m.logger.Error("发布失败", zap.Error(err))
			} else {
				metrics.IncMsgProcessed("mqtt")
			}
		}
	}
}

// Publish 把数据包按点逐条发布，主题为 前缀/设备名/profile
func (m *MqttSink) Publish(pp *pkg.PointPackage) error {
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
		topic := fmt.Sprintf("%s/%s/%s", m.info.Topic, point.Device, point.Profile)
		token := m.client.Publish(topic, m.info.QoS, m.info.Retained, payload)
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("发布到 %s 失败: %w", topic, token.Error())
		}
	}
	return nil
}

func (m *MqttSink) Stop() {
	m.client.Disconnect(250)
	m.logger.Info("===MqttSink stopped===")
}
