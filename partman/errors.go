package partman

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind 失败发生的阶段.
type ErrorKind string

const (
	ScriptNotFound        ErrorKind = "script_not_found"
	ScriptFailure         ErrorKind = "script_failure"
	UnsupportedTable      ErrorKind = "unsupported_table"
	ApplyFailure          ErrorKind = "apply_failure"
	BootPartitionNotFound ErrorKind = "boot_partition_not_found"
	BootFlagFailure       ErrorKind = "boot_flag_failure"
)

var ErrManagerStopped = errors.New("partition manager stopped")

// Error 携带失败阶段的错误. Index 为失败操作的序号, 与操作无关时为-1.
type Error struct {
	Kind  ErrorKind
	Index int
	Err   error
}

func newError(kind ErrorKind, index int, err error) *Error {
	return &Error{Kind: kind, Index: index, Err: err}
}

func (e *Error) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s at operation %d: %v", e.Kind, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Cause 供 errors.Cause 取得底层错误.
func (e *Error) Cause() error {
	return e.Err
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf 返回 err 中携带的失败阶段, 非 *Error 时返回空串.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
