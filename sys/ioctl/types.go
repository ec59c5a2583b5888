package ioctl

// BlockDevice 可分区的整盘块设备.
type BlockDevice struct {
	// Name 内核设备名.
	// 示例: nvme0n1
	Name string `json:"name"`

	// Path 设备节点路径.
	// 示例: /dev/nvme0n1
	Path string `json:"path"`

	// DeviceNumber 主次设备号.
	// 示例: 259:0
	DeviceNumber string `json:"device"`

	// Model 厂商与型号.
	// 示例: ATA INTEL SSDPEKKW256G7
	Model string `json:"model,omitempty"`

	// Type 存储子系统类型.
	// 示例: nvme, scsi, usb
	Type string `json:"type,omitempty"`

	ReadOnly  bool `json:"read_only"`
	Removable bool `json:"removable"`

	// Size 设备字节大小.
	Size uint64 `json:"size"`

	// LogicalSectorSize 逻辑扇区大小, 分区表以此为单位寻址.
	LogicalSectorSize uint64 `json:"logical_sector_size"`

	// PhysicalSectorSize 物理扇区大小.
	PhysicalSectorSize uint64 `json:"physical_sector_size"`
}

// Geometry BIOS CHS 几何信息.
type Geometry struct {
	Heads     int
	Sectors   int
	Cylinders int64
}

// hdGeometry 对应内核 struct hd_geometry.
type hdGeometry struct {
	Heads     uint8
	Sectors   uint8
	Cylinders uint16
	Start     uint64
}
