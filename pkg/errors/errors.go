// Package errors 提供统一错误辅助，不依赖 internal
package errors

import (
	"errors"
	"fmt"
)

// 错误分级哨兵。provider 侧只有三种终态会以 error 形式上浮：
// 无凭证、链耗尽、某家 Fatal（ErrProviderBroken，终止回退）；
// 可重试失败在链内消化，不产生 error。
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArg        = errors.New("invalid argument")
	ErrNoCredentials     = errors.New("no credentials configured")
	ErrProviderBroken    = errors.New("provider broken")
	ErrProviderExhausted = errors.New("all providers exhausted")
)

// Wrap 包装错误并附加消息
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 带格式的 Wrap
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is 透传 errors.Is，调用方无需同时 import 标准库 errors
func Is(err, target error) bool {
	return errors.Is(err, target)
}
