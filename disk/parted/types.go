package parted

import (
	"io"

	"github.com/thomasphansen/deepin-installer-reborn/disk/table"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// PartitionType 分区类型位掩码, 取值与 libparted 的 PedPartitionType 一致.
type PartitionType int

const (
	PartitionNormal    PartitionType = 0x00
	PartitionLogical   PartitionType = 0x01
	PartitionExtended  PartitionType = 0x02
	PartitionFreespace PartitionType = 0x04
	PartitionMetadata  PartitionType = 0x08
	PartitionProtected PartitionType = 0x10
)

// Device 可分区的块设备.
type Device struct {
	Path               string
	Model              string
	Length             int64 // 扇区数.
	SectorSize         int64
	PhysicalSectorSize int64
	Heads              int
	Sectors            int
	Cylinders          int64
	ReadOnly           bool
	Removable          bool
}

// Bytes 设备字节大小.
func (d *Device) Bytes() int64 {
	return d.Length * d.SectorSize
}

// Partition 分区表遍历得到的一项, 可以是真实分区、空闲区域或元数据区域.
type Partition struct {
	// Num 分区号, 空闲与元数据区域为-1.
	Num   int
	Type  PartitionType
	Start int64 // 起始扇区(包含).
	End   int64 // 结束扇区(包含).
	// FsType 探测到的文件系统名称(与 parted 一致), 未探测到时为空.
	FsType string
	Name   string
	TypeID string
	Flags  []table.Flag

	desc string
	ebr  int64 // 逻辑分区所属EBR的扇区, 0表示紧邻分区之前.
}

func (p Partition) Sectors() int64 {
	return p.End - p.Start + 1
}

// IsActive 是否为真实分区(非空闲、非元数据).
func (p Partition) IsActive() bool {
	return p.Type&(PartitionFreespace|PartitionMetadata) == 0
}

// Disk 打开的分区表句柄. 使用完毕后必须调用 Destroy.
type Disk struct {
	Device *Device
	Type   table.DiskType

	parts       []Partition
	maxPrimary  int
	firstUsable int64
	lastUsable  int64
	fresh       bool
	file        io.Closer
}

// NewDiskWithPartitions 由给定分区构造一个内存中的分区表句柄, 不关联任何设备文件.
// parts 为真实分区, 逻辑分区需要在 Flags 之外通过 Type 标记.
func NewDiskWithPartitions(dev *Device, dt table.DiskType, parts []Partition) *Disk {
	d := &Disk{Device: dev, Type: dt, parts: append([]Partition{}, parts...)}
	d.setDefaultGeometry()
	return d
}

func (d *Disk) setDefaultGeometry() {
	switch d.Type {
	case table.DTypeGPT:
		d.maxPrimary = table.GPTDefaultPartEntryCount
		d.firstUsable = gptReservedSectors(d.Device.SectorSize, table.GPTDefaultPartEntryCount)
		d.lastUsable = d.Device.Length - d.firstUsable
	default:
		d.maxPrimary = table.MBRPartitionEntryCount
		d.firstUsable = 1
		d.lastUsable = d.Device.Length - 1
	}
}

// gptReservedSectors 主GPT(保护性MBR + 表头 + 表项数组)占用的扇区数.
func gptReservedSectors(sectorSize int64, entries int) int64 {
	arrayBytes := int64(entries) * table.GPTMinEntrySize
	return 2 + (arrayBytes+sectorSize-1)/sectorSize
}

// AttachCloser 关联需要在 Destroy 时释放的资源.
func (d *Disk) AttachCloser(c io.Closer) {
	d.file = c
}

// Fresh 是否为尚未写入设备的内存分区表.
func (d *Disk) Fresh() bool {
	return d.fresh
}

// MaxPrimaryPartitionCount 分区表支持的最大主分区数.
func (d *Disk) MaxPrimaryPartitionCount() int {
	return d.maxPrimary
}

// Entries 返回真实分区对应的分区表项.
func (d *Disk) Entries() []table.Entry {
	entries := make([]table.Entry, 0, len(d.parts))
	for _, p := range d.parts {
		entries = append(entries, table.Entry{
			Index:     p.Num,
			Start:     p.Start,
			End:       p.End,
			TypeID:    p.TypeID,
			TypeDesc:  p.desc,
			Name:      p.Name,
			Extended:  p.Type&PartitionExtended != 0,
			Logical:   p.Type&PartitionLogical != 0,
			Flags:     p.Flags,
			EBRSector: -1,
		})
	}
	return entries
}

// Destroy 释放句柄, 可重复调用.
func (d *Disk) Destroy() {
	if d.file == nil {
		return
	}
	if err := d.file.Close(); err != nil {
		logger.Warnf("Destroy failed to close %s: %v", d.Device.Path, err)
	}
	d.file = nil
}
