package decode

import (
	"errors"
	"fmt"
)

// FrameSize 是一帧遥测数据的字节数，所有 profile 的偏移都以此为前提
const FrameSize = 86

var (
	// ErrBufferTooSmall 输入长度不足一帧，本次解码失败，不产出任何值
	ErrBufferTooSmall = errors.New("输入缓冲区不足一帧")
	// ErrUnknownProfile 未注册的 profile，属于配置错误，启动期即应失败
	ErrUnknownProfile = errors.New("未知的解码profile")
)

// Scale 是 16 位原始字到物理量的换算规则
type Scale int

const (
	ScaleRaw    Scale = iota // 原始值，定时器计数与互锁/状态位域
	ScaleDiv10               // 除以 10，一位小数
	ScaleDiv100              // 除以 100，两位小数
)

// Apply 把原始字换算为物理量。换算只做浮点除法，不做取整
func (s Scale) Apply(word uint16) float64 {
	switch s {
	case ScaleDiv10:
		return float64(word) / 10.0
	case ScaleDiv100:
		return float64(word) / 100.0
	default:
		return float64(word)
	}
}

func (s Scale) String() string {
	switch s {
	case ScaleDiv10:
		return "div10"
	case ScaleDiv100:
		return "div100"
	default:
		return "raw"
	}
}

// FieldSpec 描述一个测量值在帧内的位置与换算规则
type FieldSpec struct {
	Name   string // 字段名，对外稳定
	Offset int    // 字节偏移，字段占 Offset 和 Offset+1 两个字节
	Scale  Scale  // 换算规则
	Unit   string // 物理单位，仅用于展示，不参与计算
}

// Word 从 buf 的 off 处取一个 16 位小端无符号字，
// off 处为低字节，off+1 处为高字节。调用方保证边界
func Word(buf []byte, off int) uint16 {
	return uint16(buf[off]) | uint16(buf[off+1])<<8
}

// Decode 按指定 profile 把一帧字节解码为 字段名 -> 物理量。
// 长度不足 FrameSize 时返回 ErrBufferTooSmall 且不产出任何值；
// 长度足够时每个字段必有一个值，全零帧是合法输入。
// 输入切片不会被保留或修改
func Decode(frame []byte, profileID string) (map[string]float64, error) {
	fields, err := Fields(profileID)
	if err != nil {
		return nil, err
	}
	if len(frame) < FrameSize {
		return nil, fmt.Errorf("%w: 收到 %d 字节, 需要 %d 字节", ErrBufferTooSmall, len(frame), FrameSize)
	}
	out := make(map[string]float64, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Scale.Apply(Word(frame, f.Offset))
	}
	return out, nil
}

// FieldValue 是单个字段的解码明细，供 CLI 与管理面展示
type FieldValue struct {
	Spec  FieldSpec
	Raw   uint16
	Value float64
}

// DecodeDetail 与 Decode 语义一致，但按表序返回原始字与换算值的明细
func DecodeDetail(frame []byte, profileID string) ([]FieldValue, error) {
	fields, err := Fields(profileID)
	if err != nil {
		return nil, err
	}
	if len(frame) < FrameSize {
		return nil, fmt.Errorf("%w: 收到 %d 字节, 需要 %d 字节", ErrBufferTooSmall, len(frame), FrameSize)
	}
	out := make([]FieldValue, 0, len(fields))
	for _, f := range fields {
		raw := Word(frame, f.Offset)
		out = append(out, FieldValue{Spec: f, Raw: raw, Value: f.Scale.Apply(raw)})
	}
	return out, nil
}
