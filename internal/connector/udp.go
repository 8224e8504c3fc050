package connector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"pptgate/internal/decode"
	"pptgate/internal/pkg"
)

// UdpConnector 收取每数据报一帧的 UDP 遥测
type UdpConnector struct {
	ctx       context.Context
	config    *udpConfig
	pktConn   *net.UDPConn
	frameSize int
}

type udpConfig struct {
	Url       string            `mapstructure:"url"` // 监听地址, 如 ":9100"
	IPAlias   map[string]string `mapstructure:"ipAlias"`
	FrameSize int               `mapstructure:"frameSize"`
}

func init() {
	Register("udp", NewUdpConnector)
}

// NewUdpConnector 创建 UdpConnector 并绑定端口
func NewUdpConnector(ctx context.Context) (Connector, error) {
	config := pkg.ConfigFromContext(ctx)

	var udpConf udpConfig
	if err := mapstructure.Decode(config.Connector.Para, &udpConf); err != nil {
		return nil, fmt.Errorf("配置文件解析失败: %w", err)
	}
	if udpConf.FrameSize == 0 {
		udpConf.FrameSize = decode.FrameSize
	}

	udpAddr, err := net.ResolveUDPAddr("udp", udpConf.Url)
	if err != nil {
		return nil, fmt.Errorf("解析监听地址失败: %w", err)
	}
	pktConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("udp 监听启动失败: %w", err)
	}

	return &UdpConnector{
		ctx:       ctx,
		config:    &udpConf,
		pktConn:   pktConn,
		frameSize: udpConf.FrameSize,
	}, nil
}

func (u *UdpConnector) GetType() string {
	return "udp"
}

// Start 启动数据报读取循环
func (u *UdpConnector) Start(out pkg.FrameChan) error {
	log := pkg.LoggerFromContext(u.ctx)
	log.Info("===正在启动Connector: Udp===", zap.String("addr", u.pktConn.LocalAddr().String()))
	go u.readLoop(out)
	return nil
}

func (u *UdpConnector) readLoop(out pkg.FrameChan) {
	log := pkg.LoggerFromContext(u.ctx)
	metrics := pkg.GetPerformanceMetrics()

	// 数据报可能超过一帧，多出的字节由解码端忽略
	buf := make([]byte, u.frameSize*2)
	for {
		n, remote, err := u.pktConn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Info("udp 监听已关闭")
				return
			}
			log.Error("读取数据报失败", zap.Error(err))
			continue
		}
		if n < u.frameSize {
			// 残缺数据报直接丢弃，解码端反正会拒绝
			metrics.IncMsgErrors("udp_short")
			log.Warn("丢弃残缺数据报", zap.Int("bytes", n), zap.String("remote", remote.String()))
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		deliver(u.ctx, out, pkg.RawFrame{
			Device: u.deviceName(remote),
			Data:   data,
			Ts:     time.Now(),
		}, "udp")
	}
}

func (u *UdpConnector) deviceName(remote *net.UDPAddr) string {
	host := remote.IP.String()
	if alias, ok := u.config.IPAlias[host]; ok {
		return alias
	}
	return host
}

// Addr 返回实际监听地址
func (u *UdpConnector) Addr() net.Addr {
	return u.pktConn.LocalAddr()
}

// Stop 关闭监听
func (u *UdpConnector) Stop() error {
	return u.pktConn.Close()
}
