package parted

import (
	"time"

	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
)

// Library 底层分区库.
// 读取类调用不修改磁盘; 修改类调用立即提交到设备并通知内核重新读取分区表.
type Library interface {
	// ProbeAll 重新探测所有可分区设备.
	ProbeAll() ([]*Device, error)
	// ProbeDiskType 探测设备上的分区表类型, 无分区表时返回 table.DTypeRAW.
	ProbeDiskType(dev *Device) (table.DiskType, error)
	// OpenDisk 打开设备上已有的分区表.
	OpenDisk(dev *Device) (*Disk, error)
	// NewFreshDisk 在内存中为设备创建一个空分区表, 不写入设备.
	NewFreshDisk(dev *Device, dt table.DiskType) (*Disk, error)

	NewTable(device string, dt table.DiskType) error
	CreatePartition(device string, pt PartitionType, fs string, start, end int64) error
	DeletePartition(device string, num int) error
	// ResizePartition 调整分区结束扇区, 不支持移动起始扇区.
	ResizePartition(device string, num int, start, end int64) error
	SetFlag(device string, num int, flag table.Flag, state bool) error
}

// Config 原生实现所用的外部命令.
type Config struct {
	Parted    string
	Partprobe string
	// ProbeRetries 与 ProbeInterval 控制 partprobe 失败(通常为设备忙)时的重试.
	ProbeRetries  int
	ProbeInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Parted == "" {
		c.Parted = "parted"
	}
	if c.Partprobe == "" {
		c.Partprobe = "partprobe"
	}
	if c.ProbeRetries <= 0 {
		c.ProbeRetries = 3
	}
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = 500 * time.Millisecond
	}
	return c
}
