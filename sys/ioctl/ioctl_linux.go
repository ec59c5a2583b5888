package ioctl

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/thoas/go-funk"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
	"golang.org/x/sys/unix"
)

// QueryFileSize 查询文件或块设备的字节大小.
func QueryFileSize(fileName string) (size uint64, err error) {
	var errno syscall.Errno
	info, err := os.Stat(fileName)
	if err != nil {
		return 0, err
	}
	if info.Mode()&os.ModeDevice == 0 {
		return uint64(info.Size()), nil
	}
	f, err := os.Open(fileName)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if runtime.GOARCH == "386" {
		_, _, errno = unix.Syscall(unix.SYS_IOCTL, f.Fd(), LinuxIOCTLGetBlockSize, uintptr(unsafe.Pointer(&size)))
		size <<= 9
	} else {
		_, _, errno = unix.Syscall(unix.SYS_IOCTL, f.Fd(), LinuxIOCTLGetBlockSize64, uintptr(unsafe.Pointer(&size)))
	}
	if errno != 0 {
		return 0, errno
	}
	return size, nil
}

// QueryGeometry 通过 HDIO_GETGEO 查询设备的 CHS 几何信息,
// 设备不支持(例如 nvme、virtio 或普通文件)时按 BIOS 兼容方式计算.
func QueryGeometry(devicePath string, size uint64) Geometry {
	f, err := os.Open(devicePath)
	if err != nil {
		return FallbackGeometry(size)
	}
	defer f.Close()

	var geo hdGeometry
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), LinuxIOCTLGetGeometry, uintptr(unsafe.Pointer(&geo)))
	if errno != 0 || geo.Heads == 0 || geo.Sectors == 0 {
		return FallbackGeometry(size)
	}
	g := Geometry{Heads: int(geo.Heads), Sectors: int(geo.Sectors)}
	// hd_geometry.cylinders 只有16位, 大盘会被截断, 因此按容量重新计算.
	g.Cylinders = int64(size / 512 / uint64(g.Heads*g.Sectors))
	return g
}

// BlockDevices 枚举 /sys/class/block 下所有可分区的整盘设备.
// 分区、无 device 节点的虚拟设备(loop/ram/dm)以及 rbd、光驱会被忽略.
func BlockDevices() ([]BlockDevice, error) {
	return blockDevices(SysClassBlock, "/dev")
}

func blockDevices(sysRoot, devRoot string) ([]BlockDevice, error) {
	entries, err := os.ReadDir(sysRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %q", sysRoot)
	}
	disks := make([]BlockDevice, 0)
	for _, entry := range entries {
		entryName := entry.Name()
		entryPath := filepath.Join(sysRoot, entryName)
		devicePath := filepath.Join(entryPath, "device")

		if !sysfsExists(devicePath) || sysfsExists(filepath.Join(entryPath, "partition")) {
			continue
		}

		disk := BlockDevice{Name: entryName, Path: filepath.Join(devRoot, entryName)}
		disk.DeviceNumber = readString(filepath.Join(entryPath, "dev"))
		if disk.DeviceNumber == "" {
			// 多路径设备的从属路径没有设备节点, 仅关心主节点.
			continue
		}

		if sysfsExists(filepath.Join(devicePath, "subsystem")) {
			subsystem, err := filepath.EvalSymlinks(filepath.Join(devicePath, "subsystem"))
			if err == nil {
				// 例如: "../../../../../../../bus/scsi"中取"scsi"
				disk.Type = filepath.Base(subsystem)
			}
		}

		disk.Model = strings.TrimSpace(strings.Join([]string{
			readString(filepath.Join(devicePath, "vendor")),
			readString(filepath.Join(devicePath, "model")),
		}, " "))

		diskRo, _ := readUint(filepath.Join(entryPath, "ro"))
		disk.ReadOnly = diskRo == 1

		diskSize, err := readUint(filepath.Join(entryPath, "size"))
		if err != nil {
			logger.Warnf("blockDevices skip %s: %v", entryName, errors.Wrapf(err, "failed to read %q", filepath.Join(entryPath, "size")))
			continue
		}
		// sysfs 中的 size 总以 512 字节为单位.
		disk.Size = diskSize * 512

		diskRemovable, _ := readUint(filepath.Join(entryPath, "removable"))
		disk.Removable = diskRemovable == 1

		disk.LogicalSectorSize, err = readUint(filepath.Join(entryPath, "queue", "logical_block_size"))
		if err != nil || disk.LogicalSectorSize == 0 {
			disk.LogicalSectorSize = 512
		}
		disk.PhysicalSectorSize, err = readUint(filepath.Join(entryPath, "queue", "physical_block_size"))
		if err != nil || disk.PhysicalSectorSize == 0 {
			disk.PhysicalSectorSize = disk.LogicalSectorSize
		}

		if strings.HasPrefix(disk.Name, "sr") && disk.Removable {
			disk.Type = "cdrom"
		}
		if udevType := udevDiskType(disk.DeviceNumber); udevType != "" {
			disk.Type = udevType
		}
		if funk.ContainsString(IgnoredDeviceTypes, disk.Type) {
			continue
		}
		disks = append(disks, disk)
	}
	return disks, nil
}

// udevDiskType 从 udev 数据库获取更细粒度的磁盘类型.
func udevDiskType(deviceNumber string) string {
	f, err := os.Open(filepath.Join(RunUdevData, fmt.Sprintf("b%s", deviceNumber)))
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	props := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "E:") {
			continue
		}
		fields := strings.SplitN(line, "=", 2)
		if len(fields) != 2 {
			continue
		}
		props[strings.TrimSpace(fields[0])] = strings.TrimSpace(fields[1])
	}
	switch {
	case props["E:ID_CDROM"] == "1":
		return "cdrom"
	case props["E:ID_USB_DRIVER"] == "usb-storage":
		return "usb"
	case props["E:ID_ATA_SATA"] == "1":
		return "sata"
	}
	return ""
}
