package connector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"pptgate/internal/decode"
	"pptgate/internal/pkg"
)

// TcpServerConnector 被动等待调制器推送遥测的 TCP 服务端。
// 设备名通过 ipAlias 由来源 IP 映射，未配置别名时直接用来源 IP
type TcpServerConnector struct {
	ctx          context.Context
	listener     net.Listener
	serverConfig *tcpServerConfig
	activeConns  sync.Map // connID -> net.Conn
}

type tcpServerConfig struct {
	Port      string            `mapstructure:"port"`
	IPAlias   map[string]string `mapstructure:"ipAlias"`
	Timeout   time.Duration     `mapstructure:"timeout"`
	FrameSize int               `mapstructure:"frameSize"`
}

func init() {
	Register("tcpserver", NewTcpServer)
}

// NewTcpServer 创建 TcpServerConnector 并立即监听端口，
// 监听失败属于启动错误
func NewTcpServer(ctx context.Context) (Connector, error) {
	config := pkg.ConfigFromContext(ctx)

	if err := normalizeDuration(config.Connector.Para, "timeout"); err != nil {
		return nil, err
	}
	var serverConfig tcpServerConfig
	if err := mapstructure.Decode(config.Connector.Para, &serverConfig); err != nil {
		return nil, fmt.Errorf("配置文件解析失败: %w", err)
	}
	if serverConfig.Timeout == 0 {
		serverConfig.Timeout = 30 * time.Second
	}
	if serverConfig.FrameSize == 0 {
		serverConfig.FrameSize = decode.FrameSize
	}

	listener, err := net.Listen("tcp", ":"+serverConfig.Port)
	if err != nil {
		return nil, fmt.Errorf("tcpserver 监听启动失败: %w", err)
	}

	return &TcpServerConnector{
		ctx:          ctx,
		listener:     listener,
		serverConfig: &serverConfig,
	}, nil
}

func (t *TcpServerConnector) GetType() string {
	return "tcpserver"
}

// Start 启动 accept 循环
func (t *TcpServerConnector) Start(out pkg.FrameChan) error {
	log := pkg.LoggerFromContext(t.ctx)
	log.Info("===正在启动Connector: TcpServer===", zap.String("port", t.serverConfig.Port))
	go t.acceptLoop(out)
	return nil
}

func (t *TcpServerConnector) acceptLoop(out pkg.FrameChan) {
	log := pkg.LoggerFromContext(t.ctx)
	for {
		// 只有监听器关闭才能结束该循环
		conn, err := t.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Info("监听器已关闭，停止接受连接")
				return
			}
			log.Error("接受连接失败", zap.Error(err))
			continue
		}
		connID := conn.RemoteAddr().String()
		t.activeConns.Store(connID, conn)
		log.Info("建立连接", zap.String("remote", connID))
		go t.handleConn(conn, out)
	}
}

// handleConn 在一条连接上循环读取定长帧，出错即关闭连接
func (t *TcpServerConnector) handleConn(conn net.Conn, out pkg.FrameChan) {
	log := pkg.LoggerFromContext(t.ctx)
	connID := conn.RemoteAddr().String()
	device := t.deviceName(conn.RemoteAddr())
	defer func() {
		t.activeConns.Delete(connID)
		_ = conn.Close()
		log.Info("连接关闭", zap.String("remote", connID))
	}()

	reader, err := pkg.NewFrameReader(conn, t.serverConfig.FrameSize)
	if err != nil {
		log.Error("创建帧读取器失败", zap.Error(err))
		return
	}
	for {
		select {
		case <-t.ctx.Done():
			return
		default:
		}
		if err := conn.SetReadDeadline(time.Now().Add(t.serverConfig.Timeout)); err != nil {
			log.Error("设置读取超时失败", zap.String("remote", connID), zap.Error(err))
			return
		}
		data, err := reader.Next()
		if err != nil {
			log.Warn("读取帧失败", zap.String("remote", connID), zap.Error(err))
			return
		}
		deliver(t.ctx, out, pkg.RawFrame{Device: device, Data: data, Ts: time.Now()}, "tcpserver")
	}
}

// deviceName 按来源 IP 查找设备别名
func (t *TcpServerConnector) deviceName(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	if alias, ok := t.serverConfig.IPAlias[host]; ok {
		return alias
	}
	return host
}

// Addr 返回实际监听地址，端口配置为 0 时供测试使用
func (t *TcpServerConnector) Addr() net.Addr {
	return t.listener.Addr()
}

// Stop 关闭监听器和全部活跃连接
func (t *TcpServerConnector) Stop() error {
	err := t.listener.Close()
	t.activeConns.Range(func(_, value any) bool {
		if conn, ok := value.(net.Conn); ok {
			_ = conn.Close()
		}
		return true
	})
	return err
}
