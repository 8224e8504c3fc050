package connector

import (
	"context"
	"net"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"

	"pptgate/internal/decode"
	"pptgate/internal/pkg"
)

func connectorCtx(connType string, para map[string]interface{}) context.Context {
	config := &pkg.Config{Connector: pkg.ConnectorConfig{Type: connType, Para: para}}
	ctx := pkg.WithConfig(context.Background(), config)
	return pkg.WithLogger(ctx, zap.NewNop())
}

func makeFrame(first byte) []byte {
	frame := make([]byte, decode.FrameSize)
	frame[0] = first
	return frame
}

func TestTcpServerConnector(t *testing.T) {
	Convey("TcpServer连接器", t, func() {
		ctx := connectorCtx("tcpserver", map[string]interface{}{
			"port":    "0", // 测试用随机端口
			"timeout": "2s",
		})

		c, err := New(ctx)
		So(err, ShouldBeNil)
		server := c.(*TcpServerConnector)
		defer func() { _ = server.Stop() }()

		out := make(pkg.FrameChan, 8)
		So(server.Start(out), ShouldBeNil)

		Convey("设备推送两帧", func() {
			conn, err := net.Dial("tcp", server.Addr().String())
			So(err, ShouldBeNil)
			defer conn.Close()

			_, err = conn.Write(makeFrame(0x64))
			So(err, ShouldBeNil)
			_, err = conn.Write(makeFrame(0x11))
			So(err, ShouldBeNil)

			for _, want := range []byte{0x64, 0x11} {
				select {
				case frame := <-out:
					So(len(frame.Data), ShouldEqual, decode.FrameSize)
					So(frame.Data[0], ShouldEqual, want)
					So(frame.Device, ShouldNotBeEmpty)
				case <-time.After(2 * time.Second):
					t.Fatal("等待帧超时")
				}
			}
		})

		Convey("跨写入边界的帧会被完整拼出", func() {
			conn, err := net.Dial("tcp", server.Addr().String())
			So(err, ShouldBeNil)
			defer conn.Close()

			frame := makeFrame(0x22)
			_, err = conn.Write(frame[:40])
			So(err, ShouldBeNil)
			time.Sleep(50 * time.Millisecond)
			_, err = conn.Write(frame[40:])
			So(err, ShouldBeNil)

			select {
			case got := <-out:
				So(got.Data, ShouldResemble, frame)
			case <-time.After(2 * time.Second):
				t.Fatal("等待帧超时")
			}
		})
	})
}

func TestTcpServerIPAlias(t *testing.T) {
	Convey("来源IP映射设备名", t, func() {
		ctx := connectorCtx("tcpserver", map[string]interface{}{
			"port":    "0",
			"timeout": "2s",
			"ipAlias": map[string]string{"127.0.0.1": "ppt01"},
		})
		c, err := New(ctx)
		So(err, ShouldBeNil)
		server := c.(*TcpServerConnector)
		defer func() { _ = server.Stop() }()

		out := make(pkg.FrameChan, 1)
		So(server.Start(out), ShouldBeNil)

		// 固定走 IPv4 回环，双栈主机上 Addr() 可能解析到 ::1
		_, port, err := net.SplitHostPort(server.Addr().String())
		So(err, ShouldBeNil)
		conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", port))
		So(err, ShouldBeNil)
		defer conn.Close()
		_, err = conn.Write(makeFrame(0))
		So(err, ShouldBeNil)

		select {
		case frame := <-out:
			So(frame.Device, ShouldEqual, "ppt01")
		case <-time.After(2 * time.Second):
			t.Fatal("等待帧超时")
		}
	})
}

func TestConnectorFactory(t *testing.T) {
	Convey("连接器工厂", t, func() {
		Convey("未注册的类型", func() {
			_, err := New(connectorCtx("rs485", nil))
			So(err, ShouldNotBeNil)
		})

		Convey("tcpclient缺少devices配置", func() {
			_, err := New(connectorCtx("tcpclient", map[string]interface{}{}))
			So(err, ShouldNotBeNil)
		})
	})
}
