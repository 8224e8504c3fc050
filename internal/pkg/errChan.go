package pkg

import (
	"context"
)

type errChanKey struct{}

// WithErrChan 将全局错误通道挂载到 context 上
func WithErrChan(ctx context.Context, errChan chan error) context.Context {
	return context.WithValue(ctx, errChanKey{}, errChan)
}

// ErrChanFromContext 从 context 中提取错误通道，未挂载时返回 nil
func ErrChanFromContext(ctx context.Context) chan<- error {
	if errChan, ok := ctx.Value(errChanKey{}).(chan error); ok {
		return errChan
	}
	return nil
}
