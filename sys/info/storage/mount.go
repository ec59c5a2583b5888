package storage

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/thomasphansen/deepin-installer-reborn/sys/ioctl"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// ParseMountItems 读取当前挂载表与活动交换设备.
func ParseMountItems() ([]MountItem, error) {
	parts, err := disk.Partitions(true)
	if err != nil {
		return nil, errors.Wrap(err, "read mount table")
	}
	swaps, err := SwapInfo()
	if err != nil {
		logger.Warnf("ParseMountItems failed to read swaps: %v", err)
	}
	return mountItems(parts, swaps), nil
}

func mountItems(parts []disk.PartitionStat, swaps []Swap) []MountItem {
	items := make([]MountItem, 0, len(parts)+len(swaps))
	for _, p := range parts {
		if !strings.HasPrefix(p.Device, "/dev/") {
			continue
		}
		items = append(items, MountItem{Path: ioctl.ResolveDevicePath(p.Device), MountPoint: p.Mountpoint})
	}
	for _, s := range swaps {
		if s.Type != "partition" {
			continue
		}
		items = append(items, MountItem{Path: s.Filename, MountPoint: "swap"})
	}
	return items
}
