package connector

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"pptgate/internal/decode"
	"pptgate/internal/pkg"
)

// TcpClientConnector 主动连到调制器控制器的 TCP 客户端。
// 每个设备一条连接、一个读取协程，断开后按固定间隔重连
type TcpClientConnector struct {
	ctx    context.Context
	config *tcpClientConfig
	done   chan struct{}
	once   sync.Once
}

type tcpClientConfig struct {
	Devices        map[string]string `mapstructure:"devices"`        // 设备名 -> 地址
	Timeout        time.Duration     `mapstructure:"timeout"`        // 拨号与单帧读取超时
	ReconnectDelay time.Duration     `mapstructure:"reconnectDelay"` // 重连间隔
	FrameSize      int               `mapstructure:"frameSize"`      // 单帧字节数
}

func init() {
	Register("tcpclient", NewTcpClient)
}

// NewTcpClient 创建并初始化 TcpClientConnector
func NewTcpClient(ctx context.Context) (Connector, error) {
	config := pkg.ConfigFromContext(ctx)

	for _, key := range []string{"timeout", "reconnectDelay"} {
		if err := normalizeDuration(config.Connector.Para, key); err != nil {
			pkg.LoggerFromContext(ctx).Error("连接器配置非法", zap.Error(err))
			return nil, err
		}
	}

	var clientConfig tcpClientConfig
	if err := mapstructure.Decode(config.Connector.Para, &clientConfig); err != nil {
		pkg.LoggerFromContext(ctx).Error("配置文件解析失败", zap.Error(err))
		return nil, fmt.Errorf("配置文件解析失败: %w", err)
	}
	if len(clientConfig.Devices) == 0 {
		return nil, fmt.Errorf("tcpclient 配置缺少 devices")
	}
	if clientConfig.Timeout == 0 {
		clientConfig.Timeout = 10 * time.Second
	}
	if clientConfig.ReconnectDelay == 0 {
		clientConfig.ReconnectDelay = 5 * time.Second
	}
	if clientConfig.FrameSize == 0 {
		clientConfig.FrameSize = decode.FrameSize
	}

	return &TcpClientConnector{
		ctx:    ctx,
		config: &clientConfig,
		done:   make(chan struct{}),
	}, nil
}

func (t *TcpClientConnector) GetType() string {
	return "tcpclient"
}

// Start 为每个设备启动一个连接维护协程
func (t *TcpClientConnector) Start(out pkg.FrameChan) error {
	log := pkg.LoggerFromContext(t.ctx)
	log.Info("===正在启动Connector: TcpClient===", zap.Int("devices", len(t.config.Devices)))
	for device, addr := range t.config.Devices {
		go t.maintainConnection(device, addr, out)
	}
	return nil
}

// maintainConnection 维持对单个设备的连接，断开后重连
func (t *TcpClientConnector) maintainConnection(device, addr string, out pkg.FrameChan) {
	log := pkg.LoggerFromContext(t.ctx)
	metrics := pkg.GetPerformanceMetrics()

	for {
		select {
		case <-t.done:
			return
		case <-t.ctx.Done():
			return
		default:
		}

		conn, err := net.DialTimeout("tcp", addr, t.config.Timeout)
		if err != nil {
			metrics.IncMsgErrors("tcpclient_connect")
			log.Warn(fmt.Sprintf("无法连接到设备，%s 后重试", t.config.ReconnectDelay),
				zap.String("device", device), zap.String("addr", addr), zap.Error(err))
			select {
			case <-time.After(t.config.ReconnectDelay):
				continue
			case <-t.done:
				return
			}
		}
		log.Info("成功连接到设备", zap.String("device", device), zap.String("addr", addr))

		if err := t.readFrames(conn, device, out); err != nil {
			log.Warn("连接中断", zap.String("device", device), zap.Error(err))
		}
		_ = conn.Close()

		select {
		case <-time.After(t.config.ReconnectDelay):
		case <-t.done:
			return
		}
	}
}

// readFrames 在一条连接上循环读取定长帧
func (t *TcpClientConnector) readFrames(conn net.Conn, device string, out pkg.FrameChan) error {
	reader, err := pkg.NewFrameReader(conn, t.config.FrameSize)
	if err != nil {
		return err
	}
	for {
		select {
		case <-t.done:
			return nil
		case <-t.ctx.Done():
			return nil
		default:
		}
		if err := conn.SetReadDeadline(time.Now().Add(t.config.Timeout)); err != nil {
			return fmt.Errorf("设置读取超时失败: %w", err)
		}
		data, err := reader.Next()
		if err != nil {
			return err
		}
		deliver(t.ctx, out, pkg.RawFrame{Device: device, Data: data, Ts: time.Now()}, "tcpclient")
	}
}

// Stop 停止全部连接维护协程
func (t *TcpClientConnector) Stop() error {
	t.once.Do(func() { close(t.done) })
	return nil
}
