package pkg

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameReaderNext(t *testing.T) {
	src := bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7})
	r, err := NewFrameReader(src, 3)
	require.NoError(t, err)

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, first)

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5, 6}, second)

	// 每帧是独立分配的切片
	second[0] = 0xFF
	assert.Equal(t, []byte{1, 2, 3}, first)

	// 剩余 1 字节不足一帧
	_, err = r.Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFrameReaderSplitAcrossReads(t *testing.T) {
	// iotest 风格的逐字节 reader，模拟 TCP 粘包/拆包
	src := iotestOneByteReader{bytes.NewReader([]byte{9, 8, 7, 6})}
	r, err := NewFrameReader(src, 4)
	require.NoError(t, err)

	frame, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7, 6}, frame)
}

func TestFrameReaderInvalidSize(t *testing.T) {
	_, err := NewFrameReader(bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, ErrFrameSizeNotPositive)

	_, err = NewFrameReader(bytes.NewReader(nil), -1)
	assert.ErrorIs(t, err, ErrFrameSizeNotPositive)
}

func TestFrameReaderEOF(t *testing.T) {
	r, err := NewFrameReader(bytes.NewReader(nil), 4)
	require.NoError(t, err)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

type iotestOneByteReader struct {
	r io.Reader
}

func (o iotestOneByteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return o.r.Read(p)
}
