package parted

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick"
	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
	"github.com/thomasphansen/deepin-installer-reborn/util"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// parted mkpart 所接受的文件系统名称与探测名称不一致的部分.
var partedFsNames = map[string]string{
	fossick.Swap.String():   "linux-swap",
	fossick.LVM2PV.String(): "",
	fossick.APFS.String():   "",
}

// run 以脚本模式、扇区单位执行 parted, 成功后通知内核重新读取分区表.
func (n *Native) run(device string, args ...string) error {
	args = append([]string{"-s", device, "unit", "s"}, args...)
	if err := n.runner.Run(n.cfg.Parted, args...).AsError(); err != nil {
		return err
	}
	err := util.Retry(context.Background(), func() error {
		return n.runner.Run(n.cfg.Partprobe, device).AsError()
	}, n.cfg.ProbeRetries, n.cfg.ProbeInterval)
	if err != nil {
		// 设备上有分区被占用时 partprobe 会失败, 分区表本身已写入.
		logger.Warnf("partprobe %s failed: %v", device, err)
	}
	return nil
}

func (n *Native) NewTable(device string, dt table.DiskType) error {
	if dt != table.DTypeGPT && dt != table.DTypeMBR {
		return errors.Errorf("unsupported disk label %q", dt)
	}
	logger.Infof("NewTable %s: %s", device, dt)
	if err := n.run(device, "mklabel", string(dt)); err != nil {
		return errors.Wrapf(err, "create %s label on %s", dt, device)
	}
	n.labels[device] = dt
	return nil
}

func (n *Native) labelOf(device string) (table.DiskType, error) {
	if dt, ok := n.labels[device]; ok {
		return dt, nil
	}
	dt, err := n.ProbeDiskType(&Device{Path: device, SectorSize: n.sectorSize(device)})
	if err != nil {
		return dt, err
	}
	if dt != table.DTypeGPT && dt != table.DTypeMBR {
		return dt, errors.Errorf("%s has no msdos or gpt label", device)
	}
	return dt, nil
}

// sectorSize 查询设备逻辑扇区大小, 未知时按512处理.
func (n *Native) sectorSize(device string) int64 {
	bds, err := n.devices()
	if err == nil {
		for _, bd := range bds {
			if bd.Path == device && bd.LogicalSectorSize != 0 {
				return int64(bd.LogicalSectorSize)
			}
		}
	}
	return 512
}

func (n *Native) CreatePartition(device string, pt PartitionType, fs string, start, end int64) error {
	if start < 0 || end < start {
		return errors.Errorf("invalid sector range %d-%d", start, end)
	}
	dt, err := n.labelOf(device)
	if err != nil {
		return err
	}
	args := []string{"mkpart"}
	if dt == table.DTypeMBR {
		switch {
		case pt&PartitionExtended != 0:
			args = append(args, "extended")
		case pt&PartitionLogical != 0:
			args = append(args, "logical")
		default:
			args = append(args, "primary")
		}
	} else {
		// GPT 必须给出分区名.
		args = append(args, "")
	}
	if pt&PartitionExtended == 0 {
		if name, ok := partedFsNames[fs]; ok {
			fs = name
		}
		if fs != "" {
			args = append(args, fs)
		}
	}
	args = append(args, sector(start), sector(end))
	logger.Infof("CreatePartition %s: type %#x, fs %q, sectors %d-%d", device, int(pt), fs, start, end)
	return errors.Wrapf(n.run(device, args...), "create partition on %s", device)
}

func (n *Native) DeletePartition(device string, num int) error {
	if num <= 0 {
		return errors.Errorf("invalid partition number %d", num)
	}
	logger.Infof("DeletePartition %s#%d", device, num)
	return errors.Wrapf(n.run(device, "rm", strconv.Itoa(num)), "delete partition %d on %s", num, device)
}

func (n *Native) ResizePartition(device string, num int, start, end int64) error {
	d, err := n.OpenDisk(&Device{Path: device, SectorSize: n.sectorSize(device)})
	if err != nil {
		return err
	}
	defer d.Destroy()

	var orig *Partition
	for i := range d.parts {
		if d.parts[i].Num == num {
			orig = &d.parts[i]
			break
		}
	}
	if orig == nil {
		return errors.Errorf("partition %d not found on %s", num, device)
	}
	if orig.Start != start {
		return errors.Errorf("moving start sector of %s#%d from %d to %d is not supported",
			device, num, orig.Start, start)
	}
	if end < start {
		return errors.Errorf("invalid sector range %d-%d", start, end)
	}
	logger.Infof("ResizePartition %s#%d: end %d -> %d", device, num, orig.End, end)
	return errors.Wrapf(n.run(device, "resizepart", strconv.Itoa(num), sector(end)),
		"resize partition %d on %s", num, device)
}

// SetFlag 设置分区标志. GPT 上 parted 的 boot 标志等同于 esp, 会将分区类型改为 EFI 系统分区.
func (n *Native) SetFlag(device string, num int, flag table.Flag, state bool) error {
	if num <= 0 {
		return errors.Errorf("invalid partition number %d", num)
	}
	onOff := "off"
	if state {
		onOff = "on"
	}
	logger.Infof("SetFlag %s#%d: %s %s", device, num, flag, onOff)
	return errors.Wrapf(n.run(device, "set", strconv.Itoa(num), flag, onOff),
		"set flag %s on partition %d of %s", flag, num, device)
}

func sector(s int64) string {
	return fmt.Sprintf("%ds", s)
}
