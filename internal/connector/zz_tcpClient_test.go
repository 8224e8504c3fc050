package connector

import (
	"net"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"pptgate/internal/decode"
	"pptgate/internal/pkg"
)

func TestTcpClientConnector(t *testing.T) {
	Convey("TcpClient连接器", t, func() {
		// 模拟设备端: 接受连接后推送两帧
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)
		defer listener.Close()
		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			_, _ = conn.Write(makeFrame(0x64))
			_, _ = conn.Write(makeFrame(0x65))
			time.Sleep(time.Second)
		}()

		ctx := connectorCtx("tcpclient", map[string]interface{}{
			"devices":        map[string]string{"ppt01": listener.Addr().String()},
			"timeout":        "2s",
			"reconnectDelay": "200ms",
		})
		c, err := New(ctx)
		So(err, ShouldBeNil)
		client := c.(*TcpClientConnector)
		defer func() { _ = client.Stop() }()

		out := make(pkg.FrameChan, 8)
		So(client.Start(out), ShouldBeNil)

		for _, want := range []byte{0x64, 0x65} {
			select {
			case frame := <-out:
				So(frame.Device, ShouldEqual, "ppt01")
				So(len(frame.Data), ShouldEqual, decode.FrameSize)
				So(frame.Data[0], ShouldEqual, want)
			case <-time.After(3 * time.Second):
				t.Fatal("等待帧超时")
			}
		}
	})
}

func TestUdpConnector(t *testing.T) {
	Convey("Udp连接器", t, func() {
		ctx := connectorCtx("udp", map[string]interface{}{
			"url":     "127.0.0.1:0",
			"ipAlias": map[string]string{"127.0.0.1": "ppt02"},
		})
		c, err := New(ctx)
		So(err, ShouldBeNil)
		udp := c.(*UdpConnector)
		defer func() { _ = udp.Stop() }()

		out := make(pkg.FrameChan, 8)
		So(udp.Start(out), ShouldBeNil)

		conn, err := net.Dial("udp", udp.Addr().String())
		So(err, ShouldBeNil)
		defer conn.Close()

		Convey("整帧数据报被接收", func() {
			_, err = conn.Write(makeFrame(0x33))
			So(err, ShouldBeNil)
			select {
			case frame := <-out:
				So(frame.Device, ShouldEqual, "ppt02")
				So(frame.Data[0], ShouldEqual, 0x33)
			case <-time.After(2 * time.Second):
				t.Fatal("等待帧超时")
			}
		})

		Convey("残缺数据报被丢弃", func() {
			_, err = conn.Write(make([]byte, 10))
			So(err, ShouldBeNil)
			select {
			case frame := <-out:
				t.Fatalf("残缺数据报不应产出帧: %+v", frame)
			case <-time.After(300 * time.Millisecond):
			}
		})
	})
}
