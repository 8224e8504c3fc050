package api

import (
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pptgate/internal/admin/model"
	"pptgate/internal/decode"
	"pptgate/internal/pkg"
)

// TestDecodeRequest 解码调试请求体。
// 支持单个 profile 和 profile 列表两种写法
type TestDecodeRequest struct {
	HexPayload string   `json:"hexPayload" binding:"required"`
	Profile    string   `json:"profile"`
	Profiles   []string `json:"profiles"`
}

// FieldResult 单个字段的解码明细
type FieldResult struct {
	model.ProfileFieldInfo
	Raw   uint16  `json:"raw"`
	Value float64 `json:"value"`
}

// ProfileResult 单个 profile 的解码结果
type ProfileResult struct {
	Profile string        `json:"profile"`
	Fields  []FieldResult `json:"fields"`
}

// TestDecodeResponse 解码调试响应体
type TestDecodeResponse struct {
	FrameBytes     int             `json:"frameBytes"`
	Results        []ProfileResult `json:"results"`
	ProcessingTime int64           `json:"processingTime"` // 纳秒
}

// TestDecodeHandler 把十六进制帧按指定 profile 解码，返回逐字段明细。
// 用于前端联调和现场排障，不经过完整流水线
func TestDecodeHandler(c *gin.Context) {
	log := pkg.LoggerFromContext(c.Request.Context())
	var request TestDecodeRequest

	if err := c.ShouldBindJSON(&request); err != nil {
		log.Warn("解析请求体失败", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	if len(request.Profiles) == 0 && request.Profile != "" {
		request.Profiles = []string{request.Profile}
	}
	if len(request.Profiles) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未指定profile"})
		return
	}

	if len(request.HexPayload)%2 != 0 {
		log.Warn("十六进制帧长度为奇数", zap.String("payload", request.HexPayload))
		c.JSON(http.StatusBadRequest, gin.H{"error": "十六进制帧长度必须为偶数"})
		return
	}
	frame, err := hex.DecodeString(request.HexPayload)
	if err != nil {
		log.Warn("解析十六进制帧失败", zap.String("payload", request.HexPayload), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "十六进制帧格式错误: " + err.Error()})
		return
	}

	startTime := time.Now()
	results := make([]ProfileResult, 0, len(request.Profiles))
	for _, profileID := range request.Profiles {
		values, err := decode.DecodeDetail(frame, profileID)
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, decode.ErrUnknownProfile):
				status = http.StatusNotFound
			case errors.Is(err, decode.ErrBufferTooSmall):
				status = http.StatusBadRequest
			}
			log.Warn("解码失败", zap.String("profile", profileID), zap.Error(err))
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		result := ProfileResult{
			Profile: profileID,
			Fields:  make([]FieldResult, 0, len(values)),
		}
		for _, fv := range values {
			result.Fields = append(result.Fields, FieldResult{
				ProfileFieldInfo: model.ProfileFieldInfo{
					Name:   fv.Spec.Name,
					Offset: fv.Spec.Offset,
					Scale:  fv.Spec.Scale.String(),
					Unit:   fv.Spec.Unit,
				},
				Raw:   fv.Raw,
				Value: fv.Value,
			})
		}
		results = append(results, result)
	}

	processingTime := time.Since(startTime).Nanoseconds()
	if processingTime == 0 {
		processingTime = 1
	}

	log.Info("解码调试完成",
		zap.Int("frameBytes", len(frame)),
		zap.Strings("profiles", request.Profiles),
		zap.Int64("processingTimeNs", processingTime))

	c.JSON(http.StatusOK, TestDecodeResponse{
		FrameBytes:     len(frame),
		Results:        results,
		ProcessingTime: processingTime,
	})
}
