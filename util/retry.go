package util

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Retry 执行 cb 直到成功, 最多 number 次, 每次失败后等待 sleep.
// ctx 结束时不再重试, 返回的错误包含最后一次失败的原因.
func Retry(ctx context.Context, cb func() error, number int, sleep time.Duration) error {
	var err error
	for i := 0; i < number; i++ {
		if err = cb(); err == nil {
			return nil
		}
		if i == number-1 {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrapf(err, "retry interrupted after %d attempts", i+1)
		case <-time.After(sleep):
		}
	}
	return err
}
