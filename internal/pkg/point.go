package pkg

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RawFrame 是 Connector 和 Parser 之间传递的数据结构，
// Data 为一帧完整的设备遥测字节
type RawFrame struct {
	Device string    // 设备名称
	Data   []byte    // 帧内容
	Ts     time.Time // 接收时间戳
}

// Point 是 Parser 产出的一组命名测量值
type Point struct {
	Device  string             // 设备名称
	Profile string             // 产出该点的解码 profile
	Field   map[string]float64 // 字段名称 -> 物理量，point 一旦放入 chan 后状态就会失控，不共享内部 map
	Ts      time.Time          // 时间戳
}

// PointPackage 是同一帧解码出的所有 Point 的集合，
// FrameId 用于跨 Sink 关联同一帧的数据
type PointPackage struct {
	FrameId uuid.UUID
	Points  []*Point
	Ts      time.Time
}

// String 按字段名排序格式化 Point，便于日志与测试断言
func (p *Point) String() string {
	names := make([]string, 0, len(p.Field))
	for key := range p.Field {
		names = append(names, key)
	}
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteString("{")
	for i, key := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %v", key, p.Field[key])
	}
	sb.WriteString("}")
	return fmt.Sprintf("Point(Device=%s, Profile=%s, Field=%s, Ts=%s)",
		p.Device, p.Profile, sb.String(), p.Ts.Format(time.RFC3339))
}

// FrameChan 是 Connector 和 Parser 之间传递的通道类型
type FrameChan chan RawFrame

// Parser2DispatcherChan 是 Parser 和 Dispatcher 之间传递的通道类型
type Parser2DispatcherChan chan *PointPackage

// Dispatch2SinkChan 是 Dispatcher 和 Sink 之间传递的通道类型
type Dispatch2SinkChan map[string]chan *PointPackage
