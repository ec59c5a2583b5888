package table

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// MBR MBR磁盘信息结构.
// 具体见 https://en.wikipedia.org/wiki/Master_boot_record.
// 参考现代MBR结构节(`Structure of a modern standard MBR`)的描述
type MBR struct {
	Offset                   int64                                `struc:"skip"`      // MBR数据绝对起始偏移.
	BootLoader               []byte                               `struc:"[446]byte"` // 0x0000, 446.
	FullMainPartitionEntries [MBRPartitionEntryCount]MBRPartition // 0x01BE, 64, 所有多字节字段均为小端序.
	BootSignature            [2]byte                              `struc:"[2]byte"` // 0x01FE, 2.
}

// EBR MBR磁盘扩展BootRecorder信息结构.
// 具体见 https://en.wikipedia.org/wiki/Extended_boot_record.
// 值得说明的是, 有以下几点:
//  1. 每一个逻辑分区，均持有一个EBR, 且EBR都位于它所描述的逻辑分区之前.
//  2. EBR 的 第1个表项表示逻辑分区, StartingLBA 相对于该EBR所在扇区.
//  3. EBR 的 第2个表项指向下一个EBR, StartingLBA 相对于扩展分区的起始扇区.
type EBR = MBR

// ReadMBR 从 offset 处读取并解析一个MBR(或EBR)结构.
func ReadMBR(r io.ReaderAt, offset int64) (*MBR, error) {
	bin := make([]byte, MBRSize)
	if _, err := r.ReadAt(bin, offset); err != nil {
		return nil, errors.Wrapf(err, "read boot record at %d", offset)
	}
	mbr := &MBR{Offset: offset}
	if err := struc.Unpack(bytes.NewReader(bin), mbr); err != nil {
		return nil, errors.Wrap(err, "decode boot record")
	}
	if !mbr.isValid() {
		return nil, errors.New("invalid boot signature for mbr")
	}
	for i := range mbr.FullMainPartitionEntries {
		mbr.FullMainPartitionEntries[i].Index = i + 1
	}
	return mbr, nil
}

// isValid 若为有效BR,则返回true.
func (mbr *MBR) isValid() bool {
	return mbr.BootSignature[0] == MBRSignature510 && mbr.BootSignature[1] == MBRSignature511
}

// DiskSignature 返回位于0x1B8处的32位磁盘标识.
func (mbr *MBR) DiskSignature() uint32 {
	return binary.LittleEndian.Uint32(mbr.BootLoader[440:444])
}

// HasProtectiveEntry 存在GPT保护性分区表项时返回true.
func (mbr *MBR) HasProtectiveEntry() bool {
	for _, p := range mbr.FullMainPartitionEntries {
		if p.IsProtectiveMBR() {
			return true
		}
	}
	return false
}

// PlausibleEntries 所有表项的引导标志均合法时返回true.
// FAT/NTFS 的引导扇区同样带有 55AA 签名, 借此与真正的分区表区分.
func (mbr *MBR) PlausibleEntries() bool {
	for _, p := range mbr.FullMainPartitionEntries {
		if p.BootIndicator != 0 && p.BootIndicator != MBRPartitionBootable {
			return false
		}
		if !p.IsEmpty() && p.TotalSectors == 0 {
			return false
		}
	}
	return true
}

// Entries 返回所有非空主分区(含扩展分区)及逻辑分区, 逻辑分区按EBR链顺序编号为5,6,7...
func (mbr *MBR) Entries(r io.ReaderAt, sectorSize int64) ([]Entry, error) {
	entries := make([]Entry, 0)
	for _, p := range mbr.FullMainPartitionEntries {
		if p.IsEmpty() {
			continue
		}
		entries = append(entries, p.entry())
	}
	logicals, err := mbr.LogicalPartitionEntries(r, sectorSize)
	if err != nil {
		return entries, err
	}
	for _, p := range logicals {
		entries = append(entries, p.entry())
	}
	return entries, nil
}

// LogicalPartitionEntries 沿EBR链获取所有逻辑分区表项, 起始扇区已修正为绝对LBA.
func (mbr *MBR) LogicalPartitionEntries(r io.ReaderAt, sectorSize int64) ([]MBRPartition, error) {
	var ext *MBRPartition
	for i := range mbr.FullMainPartitionEntries {
		if mbr.FullMainPartitionEntries[i].IsExtend() {
			ext = &mbr.FullMainPartitionEntries[i]
			break
		}
	}
	if ext == nil {
		return nil, nil
	}
	lps := make([]MBRPartition, 0)
	visited := map[int64]bool{}
	ebrLBA := ext.StartingLBA
	for index := 5; len(visited) < MBRMaxLogicalPartitions; {
		if visited[ebrLBA] || ebrLBA < ext.StartingLBA || ebrLBA > ext.EndSector() {
			return lps, errors.Errorf("broken EBR chain at sector %d", ebrLBA)
		}
		visited[ebrLBA] = true
		ebr, err := ReadMBR(r, ebrLBA*sectorSize)
		if err != nil {
			logger.Warnf("EBR can not be parsed at sector(%v): %v", ebrLBA, err)
			break
		}
		data := ebr.FullMainPartitionEntries[MBRLogicalPartitionEntryIndex]
		if !data.IsEmpty() {
			data.StartingLBA += ebrLBA
			data.IsLogical = true
			data.EBRLBA = ebrLBA
			data.Index = index
			index++
			lps = append(lps, data)
		}
		next := ebr.FullMainPartitionEntries[MBREBRPartitionEntryIndex]
		if !next.IsExtend() || next.TotalSectors == 0 {
			break
		}
		ebrLBA = ext.StartingLBA + next.StartingLBA
	}
	return lps, nil
}

// MBRPartition MBR磁盘的主分区表项结构.
type MBRPartition struct {
	// Index 分区号, 主分区为表项序号1-4, 逻辑分区从5开始.
	Index            int              `struc:"skip"`
	IsLogical        bool             `struc:"skip"` // 若为逻辑分区, 此字段为true.
	EBRLBA           int64            `struc:"skip"` // 逻辑分区所属EBR的绝对扇区.
	BootIndicator    byte             // 0x00, 1.
	StartingHead     byte             // 0x01, 1.
	StartingSector   byte             // 0x02, 1, bit0-5表示起始扇区, bit6-7位表示起始柱面的高位.
	StartingCylinder byte             // 0x03, 1.
	PartitionType    MBRPartitionType `struc:"byte"` // 0x04, 1. 见 https://en.wikipedia.org/wiki/Partition_type.
	EndingHead       byte             // 0x05, 1.
	EndingSector     byte             // 0x06, 1.
	EndingCylinder   byte             // 0x07, 1.
	StartingLBA      int64            `struc:"uint32,little"` // 0x08, 4, 起始LBA(包含).
	TotalSectors     int64            `struc:"uint32,little"` // 0x0c, 4, 总扇区数.
}

// HumanReadablePartitionType 返回该分区用户可读的分区类型.
func (partition MBRPartition) HumanReadablePartitionType() string {
	v, ok := MBRPartitionTypeDesc[partition.PartitionType]
	if !ok {
		return "unknown"
	}
	return v
}

// IsEmpty 若为空分区, 则返回true.
func (partition MBRPartition) IsEmpty() bool {
	return partition.PartitionType == Empty
}

// IsBootable 若设置了活动分区标志，则返回true.
func (partition MBRPartition) IsBootable() bool {
	return partition.BootIndicator == MBRPartitionBootable
}

// EndSector 分区的结束扇区(包含)
func (partition MBRPartition) EndSector() int64 {
	return partition.StartingLBA + partition.TotalSectors - 1
}

// IsExtend 若为扩展分区, 则返回true.
func (partition MBRPartition) IsExtend() bool {
	return bytes.IndexByte(MBRExtendPartTypes, partition.PartitionType) >= 0
}

// IsProtectiveMBR 若为GPT磁盘的保护性MBR分区, 则返回true.
func (partition MBRPartition) IsProtectiveMBR() bool {
	return partition.PartitionType == EFIGPTProtectiveMBR
}

// Flags 由引导标志与分区类型推导出 parted 风格的分区标志.
func (partition MBRPartition) Flags() []Flag {
	flags := make([]Flag, 0)
	if partition.IsBootable() {
		flags = append(flags, FlagBoot)
	}
	switch partition.PartitionType {
	case EFISystemPartition:
		flags = append(flags, FlagESP)
	case LinuxLVM:
		flags = append(flags, FlagLVM)
	case LinuxRAID:
		flags = append(flags, FlagRAID)
	case LinuxSwap:
		flags = append(flags, FlagSwap)
	case HiddenNTFS, HiddenFAT32:
		flags = append(flags, FlagHidden)
	}
	return flags
}

func (partition MBRPartition) entry() Entry {
	e := Entry{
		Index:     partition.Index,
		Start:     partition.StartingLBA,
		End:       partition.EndSector(),
		TypeID:    fmt.Sprintf("%02x", partition.PartitionType),
		TypeDesc:  partition.HumanReadablePartitionType(),
		Extended:  partition.IsExtend(),
		Logical:   partition.IsLogical,
		Flags:     partition.Flags(),
		EBRSector: -1,
	}
	if partition.IsLogical {
		e.EBRSector = partition.EBRLBA
	}
	return e
}
