package usage

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick/fs/btrfs"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick/fs/ext"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick/fs/fat"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick/fs/ntfs"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick/fs/xfs"
	"github.com/thomasphansen/deepin-installer-reborn/disk/lvm"
	"github.com/thomasphansen/deepin-installer-reborn/sys/info/storage"
	"github.com/thomasphansen/deepin-installer-reborn/sys/ioctl"
	"github.com/thomasphansen/deepin-installer-reborn/util/command"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// ErrUnsupported 无法统计该文件系统的使用量.
var ErrUnsupported = errors.New("unsupported filesystem for usage inspection")

// Inspector 文件系统使用量查询.
type Inspector struct {
	runner command.Runner
	// Swaps 返回活动交换设备, 默认读取 /proc/swaps.
	Swaps func() ([]storage.Swap, error)
	// MountPoint 返回设备的挂载点, 未挂载时返回false.
	MountPoint func(path string) (string, bool)
}

func NewInspector(runner command.Runner) *Inspector {
	return &Inspector{
		runner:     runner,
		Swaps:      storage.SwapInfo,
		MountPoint: mountPoint,
	}
}

// Usage 返回 path 上文件系统的 (空闲字节, 总字节).
// 未激活的交换分区返回 (0, 0).
func (i *Inspector) Usage(path string, fs fossick.Filesystem) (freespace, length int64, err error) {
	defer func() {
		if err == nil {
			logger.Debugf("Usage %s(%s): free %s, total %s", path, fs,
				humanize.IBytes(uint64(freespace)), humanize.IBytes(uint64(length)))
		}
	}()

	if fs == fossick.Swap {
		return i.swapUsage(path)
	}
	if i.MountPoint != nil {
		if mp, ok := i.MountPoint(path); ok {
			st, err := disk.Usage(mp)
			if err == nil {
				return int64(st.Free), int64(st.Total), nil
			}
			logger.Warnf("Usage failed to stat mount point %s: %v", mp, err)
		}
	}
	return i.offlineUsage(path, fs)
}

func (i *Inspector) swapUsage(path string) (freespace, length int64, err error) {
	if i.Swaps == nil {
		return 0, 0, nil
	}
	swaps, err := i.Swaps()
	if err != nil {
		logger.Warnf("Usage failed to read swaps: %v", err)
		return 0, 0, nil
	}
	if s, ok := storage.ActiveSwap(swaps, path); ok {
		return s.Size - s.Used, s.Size, nil
	}
	return 0, 0, nil
}

func (i *Inspector) offlineUsage(path string, fs fossick.Filesystem) (freespace, length int64, err error) {
	if fs == fossick.LVM2PV {
		if i.runner == nil {
			return 0, 0, errors.Wrapf(ErrUnsupported, "%s on %s", fs, path)
		}
		pv, err := lvm.FindPv(i.runner, path)
		if err != nil {
			return 0, 0, err
		}
		return pv.Free, pv.Size, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	switch fs {
	case fossick.EXT2, fossick.EXT3, fossick.EXT4:
		return ext.Stat(f)
	case fossick.FAT16, fossick.FAT32:
		return fat.Stat(f)
	case fossick.BTRFS:
		return btrfs.Stat(f)
	case fossick.XFS:
		size, err := ioctl.QueryFileSize(path)
		if err != nil {
			return 0, 0, err
		}
		return xfs.Stat(f, int64(size))
	case fossick.NTFS:
		bh, err := ntfs.ParseBootHeader(f)
		if err != nil {
			return 0, 0, err
		}
		length = bh.Size()
		if i.runner == nil {
			return 0, length, nil
		}
		freespace, err = ntfs.FreeBytes(i.runner, path, bh.ClusterSize())
		if err != nil {
			logger.Warnf("Usage failed to query ntfs free space of %s: %v", path, err)
			return 0, length, nil
		}
		return freespace, length, nil
	}
	return 0, 0, errors.Wrapf(ErrUnsupported, "%s on %s", fs, path)
}

func mountPoint(path string) (string, bool) {
	parts, err := disk.Partitions(false)
	if err != nil {
		return "", false
	}
	for _, p := range parts {
		if ioctl.ResolveDevicePath(p.Device) == path {
			return p.Mountpoint, true
		}
	}
	return "", false
}
