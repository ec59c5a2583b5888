package partman

import (
	"context"

	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/disk/parted"
	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
	"github.com/thomasphansen/deepin-installer-reborn/sys/info/storage"
	"github.com/thomasphansen/deepin-installer-reborn/util/basic"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// IndexBuilder 构建一次扫描所需的元数据索引.
type IndexBuilder interface {
	Build(ctx context.Context) *storage.Index
}

// Scanner 设备扫描器.
type Scanner struct {
	lib     parted.Library
	indexer IndexBuilder
	usage   UsageInspector
	// efi 返回当前是否以UEFI方式启动, 决定空白磁盘在内存中使用的分区表类型.
	efi           func() bool
	skipRemovable bool
}

func NewScanner(lib parted.Library, indexer IndexBuilder, usage UsageInspector, efi func() bool, skipRemovable bool) *Scanner {
	return &Scanner{lib: lib, indexer: indexer, usage: usage, efi: efi, skipRemovable: skipRemovable}
}

// ScanDevices 枚举所有设备并读取其分区. 单个设备失败或被跳过不影响其它设备.
func (s *Scanner) ScanDevices(ctx context.Context) ([]*Device, error) {
	devs, err := s.lib.ProbeAll()
	if err != nil {
		return nil, err
	}
	idx := storage.NewIndex()
	if s.indexer != nil {
		idx = s.indexer.Build(ctx)
	}

	devices := make([]*Device, 0, len(devs))
	for _, dev := range devs {
		if basic.Cancelled(ctx) {
			return devices, ctx.Err()
		}
		if s.skipRemovable && dev.Removable {
			logger.Infof("ScanDevices skip removable device %s", dev.Path)
			continue
		}
		device, err := s.scanDevice(dev, idx)
		if err != nil {
			if KindOf(err) == UnsupportedTable {
				logger.Warnf("ScanDevices ignores device %s: %v", dev.Path, err)
			} else {
				logger.Errorf("ScanDevices failed to read device %s: %v", dev.Path, err)
			}
			continue
		}
		devices = append(devices, device)
	}
	return devices, nil
}

func (s *Scanner) scanDevice(dev *parted.Device, idx *storage.Index) (*Device, error) {
	dt, err := s.lib.ProbeDiskType(dev)
	if err != nil {
		return nil, err
	}
	var disk *parted.Disk
	switch dt {
	case table.DTypeRAW:
		// 空白磁盘: 在内存中创建分区表以便展示, 不写入设备.
		fresh := table.DTypeMBR
		if s.efi != nil && s.efi() {
			fresh = table.DTypeGPT
		}
		disk, err = s.lib.NewFreshDisk(dev, fresh)
	case table.DTypeGPT, table.DTypeMBR:
		disk, err = s.lib.OpenDisk(dev)
	default:
		return nil, newError(UnsupportedTable, -1, errors.Errorf("disk label %q", dt))
	}
	if err != nil {
		return nil, err
	}
	defer disk.Destroy()

	device := &Device{
		Path:                 dev.Path,
		Model:                dev.Model,
		Length:               dev.Length,
		SectorSize:           dev.SectorSize,
		Heads:                dev.Heads,
		Sectors:              dev.Sectors,
		Cylinders:            dev.Cylinders,
		Table:                TableMsDos,
		MaxPrimaryPartitions: disk.MaxPrimaryPartitionCount(),
	}
	if disk.Type == table.DTypeGPT {
		device.Table = TableGPT
	}

	device.Partitions = ReadPartitions(disk, s.usage)
	for _, p := range device.Partitions {
		p.DevicePath = device.Path
		p.SectorSize = device.SectorSize
		if p.Path == "" || p.Type == PartitionUnallocated || p.Type == PartitionExtended {
			continue
		}
		p.Label = idx.Label(p.Path)
		p.PartLabel = idx.PartLabel(p.Path)
		p.Os = idx.OsType(p.Path)
		p.Busy = idx.Busy(p.Path)
	}
	return device, nil
}
