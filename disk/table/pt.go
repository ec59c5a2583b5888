package table

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// DiskType 分区表类型, 取值与 parted 的标签名一致.
type DiskType string

const (
	DTypeGPT  DiskType = "gpt"
	DTypeMBR  DiskType = "msdos"
	DTypeBSD  DiskType = "bsd"
	DTypeSun  DiskType = "sun"
	DTypeMac  DiskType = "mac"
	DTypeLoop DiskType = "loop" // 整盘文件系统, 无分区表.
	DTypeRAW  DiskType = ""
)

const (
	bsdLabelMagic = 0x82564557
	sunLabelMagic = 0xDABE
	macDriverSig  = "ER"
)

// Flag 分区标志, 取值与 parted 的标志名一致.
type Flag = string

const (
	FlagBoot       Flag = "boot"
	FlagESP        Flag = "esp"
	FlagBIOSGrub   Flag = "bios_grub"
	FlagLVM        Flag = "lvm"
	FlagRAID       Flag = "raid"
	FlagSwap       Flag = "swap"
	FlagMSFTRes    Flag = "msftres"
	FlagHidden     Flag = "hidden"
	FlagLegacyBoot Flag = "legacy_boot"
)

// Entry 与分区表格式无关的分区表项.
type Entry struct {
	Index    int    // 分区号, 与 Linux 内核的分区设备编号一致.
	Start    int64  // 起始扇区(包含).
	End      int64  // 结束扇区(包含).
	TypeID   string // MBR 为两位十六进制类型, GPT 为类型GUID.
	TypeDesc string
	Name     string // GPT 分区名(partlabel).
	Extended bool
	Logical  bool
	Flags    []Flag
	// EBRSector 逻辑分区所属EBR的绝对扇区, 其余分区为-1.
	EBRSector int64
}

// Sectors 分区扇区数.
func (e Entry) Sectors() int64 {
	return e.End - e.Start + 1
}

// GUIDToString 将原始GUID转换为字符串.
// 注意: byteGuid 的长度只能等于16, 否则将返回空串.
func GUIDToString(b []byte) string {
	if len(b) != 16 {
		return ""
	}
	return fmt.Sprintf("%08X-%04X-%04X-%X-%X",
		binary.LittleEndian.Uint32(b[0:4]),
		binary.LittleEndian.Uint16(b[4:6]),
		binary.LittleEndian.Uint16(b[6:8]),
		b[8:10],
		b[10:16])
}

// ProbeDiskType 探测设备上的分区表类型, 未识别任何分区表时返回 DTypeRAW.
// 整盘文件系统(loop)的识别依赖文件系统探测, 不在此处处理.
func ProbeDiskType(r io.ReaderAt, sectorSize int64) (DiskType, error) {
	head := make([]byte, 2*MBRSize)
	if _, err := r.ReadAt(head, 0); err != nil {
		return DTypeRAW, errors.Wrap(err, "read disk head")
	}
	mbr, err := ReadMBR(r, 0)
	if err == nil {
		if mbr.HasProtectiveEntry() {
			if _, err := ReadGPT(r, sectorSize); err != nil {
				return DTypeRAW, errors.Wrap(err, "protective MBR found but GPT is unreadable")
			}
			return DTypeGPT, nil
		}
		if mbr.PlausibleEntries() {
			return DTypeMBR, nil
		}
	}
	if binary.LittleEndian.Uint32(head[MBRSize:MBRSize+4]) == bsdLabelMagic {
		return DTypeBSD, nil
	}
	if binary.BigEndian.Uint16(head[508:510]) == sunLabelMagic {
		return DTypeSun, nil
	}
	if string(head[:2]) == macDriverSig {
		return DTypeMac, nil
	}
	return DTypeRAW, nil
}

// DebugFormat 以类似 fdisk 的文本格式输出分区表项.
//
// 示例:
// ```
// Disk label type: gpt
// Disk: 20 GiB, 21474836480 bytes, 41943040 sectors
// Sector size is 512 bytes
//
// Number      Start        End        Size    Flags          Type
//
//	1       2048    1050623     512 MiB    boot,esp       EFI System Partition
//
// ```
func DebugFormat(dt DiskType, sectorSize, sectors int64, entries []Entry) string {
	size := uint64(sectors * sectorSize)
	lines := []string{
		fmt.Sprintf("Disk label type: %s", dt),
		fmt.Sprintf("Disk: %s, %d bytes, %d sectors", humanize.IBytes(size), size, sectors),
		fmt.Sprintf("Sector size is %d bytes", sectorSize),
		"",
		fmt.Sprintf("%6s %10s %10s %11s    %-14s %s", "Number", "Start", "End", "Size", "Flags", "Type"),
	}
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%6d %10d %10d %11s    %-14s %s",
			e.Index, e.Start, e.End, humanize.IBytes(uint64(e.Sectors()*sectorSize)),
			strings.Join(e.Flags, ","), e.TypeDesc))
	}
	return strings.Join(lines, "\n") + "\n"
}
