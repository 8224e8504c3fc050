package api_test

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	"pptgate/internal/admin/api"
	"pptgate/internal/admin/router"
	"pptgate/internal/decode"
)

// performRequest 执行测试请求
func performRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// frameHex 构造一帧全零数据并按字节偏移写入小端字，返回十六进制串
func frameHex(words map[int]uint16) string {
	frame := make([]byte, decode.FrameSize)
	for off, word := range words {
		frame[off] = byte(word)
		frame[off+1] = byte(word >> 8)
	}
	return hex.EncodeToString(frame)
}

func TestProfileEndpoints(t *testing.T) {
	Convey("profile查询接口", t, func() {
		gin.SetMode(gin.TestMode)
		r := router.SetupRouter()

		Convey("列表包含全部已注册profile", func() {
			w := performRequest(r, http.MethodGet, "/api/v1/profiles", nil)
			So(w.Code, ShouldEqual, http.StatusOK)

			var summaries []map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &summaries), ShouldBeNil)
			So(len(summaries), ShouldEqual, len(decode.Profiles()))

			counts := make(map[string]float64)
			for _, s := range summaries {
				counts[s["id"].(string)] = s["fieldCount"].(float64)
			}
			So(counts["modulator22"], ShouldEqual, 22)
			So(counts["heater11"], ShouldEqual, 11)
		})

		Convey("详情返回完整字段表", func() {
			w := performRequest(r, http.MethodGet, "/api/v1/profiles/modulator22", nil)
			So(w.Code, ShouldEqual, http.StatusOK)

			var detail struct {
				ID        string `json:"id"`
				FrameSize int    `json:"frameSize"`
				Fields    []struct {
					Name   string `json:"name"`
					Offset int    `json:"offset"`
					Scale  string `json:"scale"`
				} `json:"fields"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &detail), ShouldBeNil)
			So(detail.FrameSize, ShouldEqual, 86)
			So(len(detail.Fields), ShouldEqual, 22)
			So(detail.Fields[0].Name, ShouldEqual, "HeaterVoltage1")
			So(detail.Fields[0].Offset, ShouldEqual, 0)
			So(detail.Fields[0].Scale, ShouldEqual, "div10")
		})

		Convey("未注册的profile返回404", func() {
			w := performRequest(r, http.MethodGet, "/api/v1/profiles/nonexistent", nil)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("导出字段表为YAML", func() {
			w := performRequest(r, http.MethodGet, "/api/v1/profiles/heater11/export", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/x-yaml")
			So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "heater11-fields.yaml")
			So(w.Body.String(), ShouldContainSubstring, "HeaterVoltage1")
			So(w.Body.String(), ShouldContainSubstring, "frameSize: 86")
		})
	})
}

func TestTestDecodeHandler(t *testing.T) {
	Convey("解码调试接口", t, func() {
		gin.SetMode(gin.TestMode)
		r := router.SetupRouter()

		Convey("单个profile解码成功", func() {
			reqBody := api.TestDecodeRequest{
				HexPayload: frameHex(map[int]uint16{0: 100, 32: 1250}),
				Profile:    "modulator22",
			}
			w := performRequest(r, http.MethodPost, "/api/v1/test/decode", reqBody)
			So(w.Code, ShouldEqual, http.StatusOK)

			var respBody api.TestDecodeResponse
			So(json.Unmarshal(w.Body.Bytes(), &respBody), ShouldBeNil)
			So(respBody.FrameBytes, ShouldEqual, 86)
			So(len(respBody.Results), ShouldEqual, 1)
			So(respBody.Results[0].Profile, ShouldEqual, "modulator22")
			So(len(respBody.Results[0].Fields), ShouldEqual, 22)

			values := make(map[string]float64)
			raws := make(map[string]uint16)
			for _, f := range respBody.Results[0].Fields {
				values[f.Name] = f.Value
				raws[f.Name] = f.Raw
			}
			So(values["HeaterVoltage1"], ShouldEqual, 10.0)
			So(raws["HeaterVoltage1"], ShouldEqual, 100)
			// HeaterCurrent 位于偏移 32，div100: 1250 -> 12.5
			So(values["HeaterCurrent"], ShouldEqual, 12.5)
			So(raws["HeaterCurrent"], ShouldEqual, 1250)
		})

		Convey("多个profile一次解码", func() {
			reqBody := api.TestDecodeRequest{
				HexPayload: frameHex(nil),
				Profiles:   []string{"heater11", "hv11"},
			}
			w := performRequest(r, http.MethodPost, "/api/v1/test/decode", reqBody)
			So(w.Code, ShouldEqual, http.StatusOK)

			var respBody api.TestDecodeResponse
			So(json.Unmarshal(w.Body.Bytes(), &respBody), ShouldBeNil)
			So(len(respBody.Results), ShouldEqual, 2)
			So(len(respBody.Results[0].Fields), ShouldEqual, 11)
			So(len(respBody.Results[1].Fields), ShouldEqual, 11)
		})

		Convey("奇数长度的十六进制串返回400", func() {
			reqBody := api.TestDecodeRequest{HexPayload: "123", Profile: "modulator22"}
			w := performRequest(r, http.MethodPost, "/api/v1/test/decode", reqBody)
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			var errResp map[string]string
			So(json.Unmarshal(w.Body.Bytes(), &errResp), ShouldBeNil)
			So(errResp["error"], ShouldContainSubstring, "偶数")
		})

		Convey("不足一帧返回400", func() {
			reqBody := api.TestDecodeRequest{HexPayload: "0102", Profile: "modulator22"}
			w := performRequest(r, http.MethodPost, "/api/v1/test/decode", reqBody)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("未注册的profile返回404", func() {
			reqBody := api.TestDecodeRequest{
				HexPayload: frameHex(nil),
				Profile:    "nonexistent",
			}
			w := performRequest(r, http.MethodPost, "/api/v1/test/decode", reqBody)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("未指定profile返回400", func() {
			reqBody := api.TestDecodeRequest{HexPayload: frameHex(nil)}
			w := performRequest(r, http.MethodPost, "/api/v1/test/decode", reqBody)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestDeviceValidation(t *testing.T) {
	Convey("设备写入前的profile校验", t, func() {
		gin.SetMode(gin.TestMode)
		r := router.SetupRouter()

		// 引用未注册profile的请求在进入存储层之前就被拒绝
		Convey("引用未注册profile返回400", func() {
			reqBody := map[string]interface{}{
				"name":     "mod-a",
				"address":  "10.0.0.5:4001",
				"profiles": []string{"nonexistent"},
			}
			w := performRequest(r, http.MethodPost, "/api/v1/devices", reqBody)
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			var errResp map[string]string
			So(json.Unmarshal(w.Body.Bytes(), &errResp), ShouldBeNil)
			So(errResp["error"], ShouldContainSubstring, "nonexistent")
		})

		Convey("缺少必填字段返回400", func() {
			reqBody := map[string]interface{}{"name": "mod-a"}
			w := performRequest(r, http.MethodPost, "/api/v1/devices", reqBody)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}
