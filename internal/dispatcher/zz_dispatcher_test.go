package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"

	"pptgate/internal/pkg"
)

func testCtx(sinks []pkg.SinkConfig) context.Context {
	ctx := pkg.WithConfig(context.Background(), &pkg.Config{Sink: sinks})
	return pkg.WithLogger(ctx, zap.NewNop())
}

func testPackage(devices ...string) *pkg.PointPackage {
	points := make([]*pkg.Point, 0, len(devices))
	for _, device := range devices {
		points = append(points, &pkg.Point{
			Device: device,
			Field:  map[string]float64{"HeaterVoltage1": 6.3},
			Ts:     time.Now(),
		})
	}
	return &pkg.PointPackage{FrameId: uuid.New(), Points: points, Ts: time.Now()}
}

func TestDispatcher(t *testing.T) {
	Convey("Dispatcher测试套件", t, func() {
		Convey("过滤正则非法", func() {
			_, err := New(testCtx([]pkg.SinkConfig{
				{Type: "console", Enable: true, Filter: []string{"["}},
			}))
			So(err, ShouldNotBeNil)
		})

		Convey("未启用的sink不参与路由", func() {
			dis, err := New(testCtx([]pkg.SinkConfig{
				{Type: "console", Enable: false},
			}))
			So(err, ShouldBeNil)
			So(len(dis.routes), ShouldEqual, 0)
		})

		Convey("按设备名过滤", func() {
			dis, err := New(testCtx([]pkg.SinkConfig{
				{Type: "console", Enable: true, Filter: []string{"^ppt0[12]$"}},
			}))
			So(err, ShouldBeNil)

			Convey("部分匹配只转发匹配的点", func() {
				filtered := dis.filter(testPackage("ppt01", "ppt09"), dis.routes["console"])
				So(filtered, ShouldNotBeNil)
				So(len(filtered.Points), ShouldEqual, 1)
				So(filtered.Points[0].Device, ShouldEqual, "ppt01")
			})

			Convey("全部匹配时复用原数据包", func() {
				pp := testPackage("ppt01", "ppt02")
				So(dis.filter(pp, dis.routes["console"]), ShouldEqual, pp)
			})

			Convey("全部不匹配时丢弃", func() {
				So(dis.filter(testPackage("ppt09"), dis.routes["console"]), ShouldBeNil)
			})
		})

		Convey("端到端路由", func() {
			ctx, cancel := context.WithCancel(testCtx([]pkg.SinkConfig{
				{Type: "console", Enable: true},
				{Type: "mqtt", Enable: true, Filter: []string{"^ppt01$"}},
			}))
			defer cancel()
			dis, err := New(ctx)
			So(err, ShouldBeNil)

			source := make(pkg.Parser2DispatcherChan, 1)
			sinkMap := pkg.Dispatch2SinkChan{
				"console": make(chan *pkg.PointPackage, 1),
				"mqtt":    make(chan *pkg.PointPackage, 1),
			}
			go dis.Start(source, sinkMap)

			source <- testPackage("ppt02")

			select {
			case pp := <-sinkMap["console"]:
				So(len(pp.Points), ShouldEqual, 1)
			case <-time.After(2 * time.Second):
				t.Fatal("console sink 未收到数据包")
			}
			// mqtt 的过滤规则不匹配 ppt02
			select {
			case pp := <-sinkMap["mqtt"]:
				t.Fatalf("mqtt sink 不应收到数据包: %+v", pp)
			case <-time.After(100 * time.Millisecond):
			}
		})
	})
}
