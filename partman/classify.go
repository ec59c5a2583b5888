package partman

import (
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick"
	"github.com/thomasphansen/deepin-installer-reborn/disk/parted"
	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
	"github.com/thomasphansen/deepin-installer-reborn/sys/ioctl"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// UsageInspector 查询分区上文件系统的 (空闲字节, 总字节).
type UsageInspector interface {
	Usage(path string, fs fossick.Filesystem) (freespace, length int64, err error)
}

// nativeTypes 底层分区类型位掩码到模型类型的映射, 表中没有的组合不输出.
var nativeTypes = map[parted.PartitionType]PartitionType{
	parted.PartitionNormal:                              PartitionNormal,
	parted.PartitionExtended:                            PartitionExtended,
	parted.PartitionFreespace | parted.PartitionLogical: PartitionUnallocated,
	parted.PartitionLogical:                             PartitionLogical,
	parted.PartitionFreespace:                           PartitionUnallocated,
}

// ClassifyType 映射底层分区类型, 第二个返回值为false时该项应被忽略.
func ClassifyType(t parted.PartitionType) (PartitionType, bool) {
	pt, ok := nativeTypes[t]
	return pt, ok
}

// ReadPartitions 按分区表遍历顺序生成分区模型.
func ReadPartitions(disk *parted.Disk, usage UsageInspector) []*Partition {
	partitions := make([]*Partition, 0)
	for _, np := range disk.Partitions() {
		pt, ok := ClassifyType(np.Type)
		if !ok {
			continue
		}
		p := &Partition{
			Type:            pt,
			Fs:              FsUnknown,
			StartSector:     np.Start,
			EndSector:       np.End,
			PartitionNumber: np.Num,
			Path:            ioctl.GeneratePartDeviceName(disk.Device.Path, np.Num),
			DevicePath:      disk.Device.Path,
			SectorSize:      disk.Device.SectorSize,
			Flags:           np.Flags,
			TypeID:          np.TypeID,
		}
		if np.FsType != "" {
			p.Fs = GetFsTypeByName(np.FsType)
		}
		if (p.Fs == FsFat16 || p.Fs == FsFat32) && p.HasFlag(table.FlagESP) {
			p.Fs = FsEFI
		}
		if p.Path == "" || p.Type == PartitionUnallocated || p.Type == PartitionExtended {
			partitions = append(partitions, p)
			continue
		}

		if usage != nil {
			freespace, length, err := usage.Usage(p.Path, p.Fs.Filesystem())
			if err != nil {
				logger.Debugf("ReadPartitions can not read usage of %s: %v", p.Path, err)
			} else {
				p.Freespace, p.Length = freespace, length
			}
		}
		// 未激活的交换分区视为全部空闲.
		if p.Fs == FsLinuxSwap && p.Length <= 0 {
			p.Length = p.ByteLength()
			p.Freespace = p.Length
		}
		partitions = append(partitions, p)
	}
	return partitions
}
