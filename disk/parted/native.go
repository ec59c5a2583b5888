package parted

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick"
	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
	"github.com/thomasphansen/deepin-installer-reborn/sys/ioctl"
	"github.com/thomasphansen/deepin-installer-reborn/util/command"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// Native 基于 disk/table 读取分区表、基于 parted 命令修改分区表的实现.
type Native struct {
	runner  command.Runner
	cfg     Config
	devices func() ([]ioctl.BlockDevice, error)
	// labels 本进程通过 NewTable 写入的分区表类型.
	labels map[string]table.DiskType
}

func NewNative(runner command.Runner, cfg Config) *Native {
	return &Native{runner: runner, cfg: cfg.withDefaults(), devices: ioctl.BlockDevices, labels: map[string]table.DiskType{}}
}

func (n *Native) ProbeAll() ([]*Device, error) {
	bds, err := n.devices()
	if err != nil {
		return nil, errors.Wrap(err, "probe block devices")
	}
	devs := make([]*Device, 0, len(bds))
	for _, bd := range bds {
		geo := ioctl.QueryGeometry(bd.Path, bd.Size)
		devs = append(devs, &Device{
			Path:               bd.Path,
			Model:              bd.Model,
			Length:             int64(bd.Size / bd.LogicalSectorSize),
			SectorSize:         int64(bd.LogicalSectorSize),
			PhysicalSectorSize: int64(bd.PhysicalSectorSize),
			Heads:              geo.Heads,
			Sectors:            geo.Sectors,
			Cylinders:          geo.Cylinders,
			ReadOnly:           bd.ReadOnly,
			Removable:          bd.Removable,
		})
	}
	logger.Debugf("ProbeAll found %d devices", len(devs))
	return devs, nil
}

func (n *Native) ProbeDiskType(dev *Device) (table.DiskType, error) {
	f, err := os.Open(dev.Path)
	if err != nil {
		return table.DTypeRAW, errors.Wrapf(err, "open %s", dev.Path)
	}
	defer f.Close()
	return probeDiskType(f, dev.SectorSize)
}

func probeDiskType(r io.ReaderAt, sectorSize int64) (table.DiskType, error) {
	dt, err := table.ProbeDiskType(r, sectorSize)
	if err != nil || dt != table.DTypeRAW {
		return dt, err
	}
	// 整盘直接格式化的设备, parted 将其视为 loop 标签.
	if fs, _ := fossick.GetFilesystemTypeByStream(r); fs != fossick.Unknown {
		return table.DTypeLoop, nil
	}
	return table.DTypeRAW, nil
}

func (n *Native) OpenDisk(dev *Device) (*Disk, error) {
	f, err := os.Open(dev.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dev.Path)
	}
	d, err := openDisk(f, dev)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	d.file = f
	return d, nil
}

func openDisk(r io.ReaderAt, dev *Device) (*Disk, error) {
	dt, err := probeDiskType(r, dev.SectorSize)
	if err != nil {
		return nil, err
	}
	d := &Disk{Device: dev, Type: dt}
	d.setDefaultGeometry()

	var entries []table.Entry
	switch dt {
	case table.DTypeGPT:
		gpt, err := table.ReadGPT(r, dev.SectorSize)
		if err != nil {
			return nil, err
		}
		d.maxPrimary = gpt.Header.NumberOfPartEntriesArray
		d.firstUsable = gpt.Header.FirstUsableLBA
		d.lastUsable = gpt.Header.LastUsableLBA
		entries = gpt.Entries()
	case table.DTypeMBR:
		mbr, err := table.ReadMBR(r, 0)
		if err != nil {
			return nil, err
		}
		entries, err = mbr.Entries(r, dev.SectorSize)
		if err != nil {
			// EBR链损坏时保留已解析的分区.
			logger.Warnf("OpenDisk %s: %v", dev.Path, err)
		}
	default:
		return nil, errors.Errorf("unsupported disk label %q on %s", dt, dev.Path)
	}

	for _, e := range entries {
		p := Partition{
			Num:    e.Index,
			Start:  e.Start,
			End:    e.End,
			Name:   e.Name,
			TypeID: e.TypeID,
			Flags:  e.Flags,
			desc:   e.TypeDesc,
		}
		switch {
		case e.Extended:
			p.Type = PartitionExtended
		case e.Logical:
			p.Type = PartitionLogical
			p.ebr = e.EBRSector
		}
		if !e.Extended {
			sr := io.NewSectionReader(r, e.Start*dev.SectorSize, e.Sectors()*dev.SectorSize)
			fs, err := fossick.GetFilesystemTypeByStream(sr)
			if err != nil {
				logger.Debugf("OpenDisk failed to probe filesystem of %s#%d: %v", dev.Path, e.Index, err)
			}
			p.FsType = fs.String()
		}
		d.parts = append(d.parts, p)
	}
	return d, nil
}

func (n *Native) NewFreshDisk(dev *Device, dt table.DiskType) (*Disk, error) {
	if dt != table.DTypeGPT && dt != table.DTypeMBR {
		return nil, errors.Errorf("can not create %q label in memory", dt)
	}
	d := NewDiskWithPartitions(dev, dt, nil)
	d.fresh = true
	return d, nil
}
