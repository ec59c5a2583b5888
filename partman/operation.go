package partman

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick"
	"github.com/thomasphansen/deepin-installer-reborn/disk/parted"
	"github.com/thomasphansen/deepin-installer-reborn/sys/ioctl"
)

// Formatter 在分区上创建文件系统.
type Formatter interface {
	Format(device string, fs fossick.Filesystem, label string) error
}

var nativePartitionTypes = map[PartitionType]parted.PartitionType{
	PartitionNormal:   parted.PartitionNormal,
	PartitionLogical:  parted.PartitionLogical,
	PartitionExtended: parted.PartitionExtended,
}

func (op *Operation) String() string {
	p := op.NewPartition
	return fmt.Sprintf("%s{device: %s, num: %d, path: %s, fs: %s, sectors: %d-%d, mount: %q}",
		op.Type, p.DevicePath, p.PartitionNumber, p.Path, p.Fs, p.StartSector, p.EndSector, p.MountPoint)
}

// ApplyToDisk 将操作立即写入设备.
func (op *Operation) ApplyToDisk(lib parted.Library, formatter Formatter) error {
	if err := op.Validate(); err != nil {
		return err
	}
	np := &op.NewPartition
	switch op.Type {
	case OperationCreate:
		pt, ok := nativePartitionTypes[np.Type]
		if !ok {
			return errors.Errorf("can not create partition of type %q", np.Type)
		}
		if err := lib.CreatePartition(np.DevicePath, pt, np.Fs.Filesystem().String(), np.StartSector, np.EndSector); err != nil {
			return err
		}
		if np.Type == PartitionExtended || np.Fs == FsUnknown || np.Fs == FsEmpty {
			return nil
		}
		return format(formatter, np)
	case OperationDelete:
		orig := op.PartitionOrig
		return lib.DeletePartition(orig.DevicePath, orig.PartitionNumber)
	case OperationResize:
		orig := op.PartitionOrig
		return lib.ResizePartition(orig.DevicePath, orig.PartitionNumber, np.StartSector, np.EndSector)
	case OperationFormat:
		return format(formatter, np)
	case OperationMountPoint:
		// 挂载点只在安装后续步骤中使用.
		return nil
	case OperationNewTable:
		return lib.NewTable(np.DevicePath, op.Table.DiskType())
	case OperationSetFlag:
		return lib.SetFlag(np.DevicePath, np.PartitionNumber, op.Flag, op.FlagState)
	}
	return errors.Errorf("unknown operation type %q", op.Type)
}

func format(formatter Formatter, p *Partition) error {
	path := p.Path
	if path == "" {
		path = ioctl.GeneratePartDeviceName(p.DevicePath, p.PartitionNumber)
	}
	if path == "" {
		return errors.Errorf("partition %s#%d has no path to format", p.DevicePath, p.PartitionNumber)
	}
	if formatter == nil {
		return errors.New("no formatter")
	}
	return formatter.Format(path, p.Fs.Filesystem(), p.Label)
}
