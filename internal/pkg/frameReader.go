package pkg

import (
	"errors"
	"io"
)

var ErrFrameSizeNotPositive = errors.New("帧长度必须大于0")

// FrameReader 从 io.Reader 中按固定长度切出完整遥测帧。
// 设备每个遥测周期推送定长一帧，因此不需要分隔符或长度前缀，
// 只需阻塞读满一帧的字节数。单协程使用。
type FrameReader struct {
	src       io.Reader
	frameSize int
}

// NewFrameReader 创建 FrameReader，frameSize 为单帧字节数
func NewFrameReader(src io.Reader, frameSize int) (*FrameReader, error) {
	if frameSize <= 0 {
		return nil, ErrFrameSizeNotPositive
	}
	return &FrameReader{src: src, frameSize: frameSize}, nil
}

// Next 阻塞读取下一帧，每次返回新分配的切片，
// 调用方可以安全持有返回值不受后续读取影响
func (f *FrameReader) Next() ([]byte, error) {
	buf := make([]byte, f.frameSize)
	if _, err := io.ReadFull(f.src, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
