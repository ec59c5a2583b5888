package ioctl

const (
	DevDiskByLabel     = "/dev/disk/by-label"
	DevDiskByPartLabel = "/dev/disk/by-partlabel"
	DevDiskByUUID      = "/dev/disk/by-uuid"
	DevMapper          = "/dev/mapper"
	RunUdevData        = "/run/udev/data"
	SysClassBlock      = "/sys/class/block"
	SysFirmwareEFI     = "/sys/firmware/efi"
	ProcSwaps          = "/proc/swaps"
)

const (
	LinuxIOCTLGetBlockSize   = 0x00001260
	LinuxIOCTLGetBlockSize64 = 0x80081272 // 获取设备大小.
	LinuxIOCTLGetGeometry    = 0x00000301 // HDIO_GETGEO.
)

// 无法通过 HDIO_GETGEO 获取几何信息时采用的 BIOS 兼容几何参数.
const (
	DefaultHeads           = 255
	DefaultSectorsPerTrack = 63
)

// IgnoredDeviceTypes 不参与分区的块设备子系统类型.
var IgnoredDeviceTypes = []string{"rbd", "cdrom"}
