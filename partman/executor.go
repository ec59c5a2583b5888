package partman

import (
	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/disk/parted"
	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// Executor 按顺序执行分区操作并设置启动标志.
type Executor struct {
	lib       parted.Library
	formatter Formatter
}

func NewExecutor(lib parted.Library, formatter Formatter) *Executor {
	return &Executor{lib: lib, formatter: formatter}
}

// Apply 先校验全部操作, 再逐个执行, 遇到第一个失败立即停止, 已执行的操作不回滚.
// 全部成功后在启动分区上设置 boot 标志. 失败时返回 *Error.
func (e *Executor) Apply(operations []Operation) error {
	logger.Infof("Apply %d operations", len(operations))
	for i := range operations {
		if err := operations[i].Validate(); err != nil {
			logger.Errorf("Apply rejected operation %d: %v", i, err)
			return newError(ApplyFailure, i, err)
		}
	}
	for i := range operations {
		op := &operations[i]
		logger.Debugf("Apply operation %d: %s", i, op)
		if err := op.ApplyToDisk(e.lib, e.formatter); err != nil {
			logger.Errorf("Apply operation %d failed: %v", i, err)
			return newError(ApplyFailure, i, err)
		}
	}

	boot := GetBootPartition(operations)
	if boot.Path == "" {
		logger.Errorf("Apply failed to find boot partition")
		return newError(BootPartitionNotFound, -1, errors.New("no efi, /boot or / partition in operations"))
	}
	logger.Infof("Apply set boot flag on %s", boot.Path)
	if err := e.lib.SetFlag(boot.DevicePath, boot.PartitionNumber, table.FlagBoot, true); err != nil {
		logger.Errorf("Apply failed to set boot flag on %s: %v", boot.Path, err)
		return newError(BootFlagFailure, -1, err)
	}
	return nil
}
