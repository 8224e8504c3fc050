package parser

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"

	"pptgate/internal/decode"
	"pptgate/internal/pkg"
)

func testCtx(parserConfig pkg.ParserConfig) context.Context {
	config := &pkg.Config{Parser: parserConfig}
	ctx := pkg.WithConfig(context.Background(), config)
	return pkg.WithLogger(ctx, zap.NewNop())
}

// putWord 在帧中写入一个小端字
func putWord(frame []byte, off int, word uint16) {
	frame[off] = byte(word)
	frame[off+1] = byte(word >> 8)
}

func TestNewParser(t *testing.T) {
	Convey("Parser构造", t, func() {
		Convey("profiles为空", func() {
			_, err := New(testCtx(pkg.ParserConfig{}))
			So(err, ShouldNotBeNil)
		})

		Convey("profiles含未注册项", func() {
			_, err := New(testCtx(pkg.ParserConfig{Profiles: []string{"modulator99"}}))
			So(err, ShouldWrap, decode.ErrUnknownProfile)
		})

		Convey("派生字段表达式非法", func() {
			_, err := New(testCtx(pkg.ParserConfig{
				Profiles: []string{decode.ProfileModulator22},
				Derived:  map[string]string{"Broken": "Fields.["},
			}))
			So(err, ShouldNotBeNil)
		})

		Convey("正常配置", func() {
			p, err := New(testCtx(pkg.ParserConfig{Profiles: []string{decode.ProfileModulator22}}))
			So(err, ShouldBeNil)
			So(p, ShouldNotBeNil)
		})
	})
}

func TestParseFrame(t *testing.T) {
	Convey("帧转数据点", t, func() {
		frame := make([]byte, decode.FrameSize)
		putWord(frame, 28, 63)   // HeaterVoltage2 = 6.3 V
		putWord(frame, 32, 1250) // HeaterCurrent = 12.5 A
		raw := pkg.RawFrame{Device: "ppt01", Data: frame, Ts: time.Now()}

		Convey("单profile", func() {
			p, err := New(testCtx(pkg.ParserConfig{Profiles: []string{decode.ProfileModulator22}}))
			So(err, ShouldBeNil)
			pp, err := p.ParseFrame(raw)
			So(err, ShouldBeNil)
			So(len(pp.Points), ShouldEqual, 1)
			So(pp.Points[0].Device, ShouldEqual, "ppt01")
			So(pp.Points[0].Profile, ShouldEqual, decode.ProfileModulator22)
			So(pp.Points[0].Field["HeaterVoltage2"], ShouldEqual, 6.3)
			So(len(pp.Points[0].Field), ShouldEqual, 22)
		})

		Convey("多profile各产出一个点", func() {
			p, err := New(testCtx(pkg.ParserConfig{
				Profiles: []string{decode.ProfileHeater11, decode.ProfileHV11},
			}))
			So(err, ShouldBeNil)
			pp, err := p.ParseFrame(raw)
			So(err, ShouldBeNil)
			So(len(pp.Points), ShouldEqual, 2)
			So(pp.Points[0].Profile, ShouldEqual, decode.ProfileHeater11)
			So(pp.Points[1].Profile, ShouldEqual, decode.ProfileHV11)
			// 两个点共用同一时间戳
			So(pp.Points[1].Ts, ShouldEqual, pp.Points[0].Ts)
		})

		Convey("派生字段", func() {
			p, err := New(testCtx(pkg.ParserConfig{
				Profiles: []string{decode.ProfileModulator22},
				Derived: map[string]string{
					"HeaterPower": "Fields.HeaterVoltage2 * Fields.HeaterCurrent",
				},
			}))
			So(err, ShouldBeNil)
			pp, err := p.ParseFrame(raw)
			So(err, ShouldBeNil)
			So(len(pp.Points), ShouldEqual, 2)
			last := pp.Points[len(pp.Points)-1]
			So(last.Profile, ShouldEqual, "derived")
			So(last.Field["HeaterPower"], ShouldEqual, 6.3*12.5)
		})

		Convey("短帧整帧丢弃", func() {
			p, err := New(testCtx(pkg.ParserConfig{Profiles: []string{decode.ProfileModulator22}}))
			So(err, ShouldBeNil)
			pp, err := p.ParseFrame(pkg.RawFrame{Device: "ppt01", Data: frame[:40]})
			So(err, ShouldWrap, decode.ErrBufferTooSmall)
			So(pp, ShouldBeNil)
		})
	})
}

func TestParserStart(t *testing.T) {
	Convey("Parser循环", t, func() {
		ctx, cancel := context.WithCancel(testCtx(pkg.ParserConfig{
			Profiles: []string{decode.ProfileModulator22},
		}))
		defer cancel()
		p, err := New(ctx)
		So(err, ShouldBeNil)

		in := make(pkg.FrameChan, 4)
		out := make(pkg.Parser2DispatcherChan, 4)
		go p.Start(in, out)

		frame := make([]byte, decode.FrameSize)
		frame[0] = 0x64
		in <- pkg.RawFrame{Device: "ppt01", Data: frame, Ts: time.Now()}
		in <- pkg.RawFrame{Device: "ppt01", Data: frame[:10]} // 短帧应被丢弃
		close(in)

		select {
		case pp := <-out:
			So(len(pp.Points), ShouldEqual, 1)
			So(pp.Points[0].Field["HeaterVoltage1"], ShouldEqual, 10.0)
		case <-time.After(2 * time.Second):
			t.Fatal("等待解析结果超时")
		}
		// 短帧不产出数据包
		select {
		case pp := <-out:
			t.Fatalf("短帧不应产出数据包: %+v", pp)
		case <-time.After(100 * time.Millisecond):
		}
	})
}
