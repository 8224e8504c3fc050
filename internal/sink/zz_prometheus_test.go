package sink

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"pptgate/internal/pkg"
)

func TestPrometheusSink(t *testing.T) {
	Convey("PrometheusSink更新指标", t, func() {
		ctx := testCtx([]pkg.SinkConfig{
			{Type: "prometheus", Enable: true, Para: map[string]interface{}{
				"port": 0, // 随机端口，避免测试间冲突
			}},
		})
		s, err := NewPrometheusSink(ctx)
		So(err, ShouldBeNil)
		p := s.(*PrometheusSink)
		defer p.Stop()

		Convey("首次发布创建GaugeVec并写入值", func() {
			err := p.Publish(testPackage("mod-a", "heater11", map[string]float64{
				"HeaterVoltage1": 10.0,
				"HeaterCurrent":  12.5,
			}))
			So(err, ShouldBeNil)

			gauge := p.gauges["heater11"]
			So(gauge, ShouldNotBeNil)
			value := testutil.ToFloat64(gauge.With(prometheus.Labels{
				"device": "mod-a", "field": "HeaterVoltage1",
			}))
			So(value, ShouldEqual, 10.0)
		})

		Convey("后续发布覆盖旧值", func() {
			So(p.Publish(testPackage("mod-a", "heater11", map[string]float64{
				"HeaterCurrent": 12.5,
			})), ShouldBeNil)
			So(p.Publish(testPackage("mod-a", "heater11", map[string]float64{
				"HeaterCurrent": 13.0,
			})), ShouldBeNil)

			value := testutil.ToFloat64(p.gauges["heater11"].With(prometheus.Labels{
				"device": "mod-a", "field": "HeaterCurrent",
			}))
			So(value, ShouldEqual, 13.0)
		})

		Convey("不同profile用不同的GaugeVec", func() {
			So(p.Publish(testPackage("mod-a", "heater11", map[string]float64{
				"HeaterCurrent": 12.5,
			})), ShouldBeNil)
			So(p.Publish(testPackage("mod-a", "hv11", map[string]float64{
				"ChargingVoltage": 23.11,
			})), ShouldBeNil)

			So(p.gauges, ShouldContainKey, "heater11")
			So(p.gauges, ShouldContainKey, "hv11")
		})

		Convey("不同设备共享同一GaugeVec的不同标签", func() {
			So(p.Publish(testPackage("mod-a", "modulator22", map[string]float64{
				"PFNVoltage": 35.6,
			})), ShouldBeNil)
			So(p.Publish(testPackage("mod-b", "modulator22", map[string]float64{
				"PFNVoltage": 36.1,
			})), ShouldBeNil)

			gauge := p.gauges["modulator22"]
			a := testutil.ToFloat64(gauge.With(prometheus.Labels{"device": "mod-a", "field": "PFNVoltage"}))
			b := testutil.ToFloat64(gauge.With(prometheus.Labels{"device": "mod-b", "field": "PFNVoltage"}))
			So(a, ShouldEqual, 35.6)
			So(b, ShouldEqual, 36.1)
		})
	})
}
