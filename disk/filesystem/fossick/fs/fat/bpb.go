package fat

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

const (
	fsInfoLeadSig   = 0x41615252
	fsInfoStructSig = 0x61417272
	fsInfoUnknown   = 0xFFFFFFFF
	dirEntrySize    = 32
	// FAT12/16 的簇数分界, 见 Microsoft FAT 规范 "FAT Type Determination".
	fat12MaxClusters = 4085
	fat16MaxClusters = 65525
)

// BPB FAT 引导扇区的 BIOS Parameter Block.
type BPB struct {
	JMP               []byte `struc:"[3]byte"`       // 0x00
	OEM               []byte `struc:"[8]byte"`       // 0x03
	BytesPerSector    uint16 `struc:"uint16,little"` // 0x0B
	SectorsPerCluster uint8  `struc:"uint8"`         // 0x0D
	ReservedSectors   uint16 `struc:"uint16,little"` // 0x0E
	NumFATs           uint8  `struc:"uint8"`         // 0x10
	RootEntries       uint16 `struc:"uint16,little"` // 0x11
	TotalSectors16    uint16 `struc:"uint16,little"` // 0x13
	Media             uint8  `struc:"uint8"`         // 0x15
	FATSize16         uint16 `struc:"uint16,little"` // 0x16
	SectorsPerTrack   uint16 `struc:"uint16,little"` // 0x18
	Heads             uint16 `struc:"uint16,little"` // 0x1A
	HiddenSectors     uint32 `struc:"uint32,little"` // 0x1C
	TotalSectors32    uint32 `struc:"uint32,little"` // 0x20
	FATSize32         uint32 `struc:"uint32,little"` // 0x24
	ExtFlags          uint16 `struc:"uint16,little"` // 0x28
	FSVersion         uint16 `struc:"uint16,little"` // 0x2A
	RootCluster       uint32 `struc:"uint32,little"` // 0x2C
	FSInfoSector      uint16 `struc:"uint16,little"` // 0x30
}

// ReadBPB 读取并校验引导扇区.
func ReadBPB(r io.ReaderAt) (*BPB, error) {
	buf := make([]byte, 512)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, errors.Wrap(err, "read fat boot sector")
	}
	if buf[510] != 0x55 || buf[511] != 0xAA {
		return nil, errors.New("invalid fat boot signature")
	}
	bpb := new(BPB)
	if err := struc.Unpack(bytes.NewReader(buf), bpb); err != nil {
		return nil, errors.Wrap(err, "decode fat bpb")
	}
	if bpb.BytesPerSector == 0 || bpb.SectorsPerCluster == 0 || bpb.NumFATs == 0 {
		return nil, errors.New("invalid fat geometry")
	}
	return bpb, nil
}

func (b *BPB) TotalSectors() int64 {
	if b.TotalSectors16 != 0 {
		return int64(b.TotalSectors16)
	}
	return int64(b.TotalSectors32)
}

func (b *BPB) FATSectors() int64 {
	if b.FATSize16 != 0 {
		return int64(b.FATSize16)
	}
	return int64(b.FATSize32)
}

func (b *BPB) ClusterSize() int64 {
	return int64(b.BytesPerSector) * int64(b.SectorsPerCluster)
}

// ClusterCount 数据区的簇数.
func (b *BPB) ClusterCount() int64 {
	bps := int64(b.BytesPerSector)
	rootDirSectors := (int64(b.RootEntries)*dirEntrySize + bps - 1) / bps
	meta := int64(b.ReservedSectors) + int64(b.NumFATs)*b.FATSectors() + rootDirSectors
	data := b.TotalSectors() - meta
	if data <= 0 {
		return 0
	}
	return data / int64(b.SectorsPerCluster)
}

// IsFAT32 依据簇数判断FAT位宽.
func (b *BPB) IsFAT32() bool {
	return b.ClusterCount() >= fat16MaxClusters
}

func (b *BPB) isFAT12() bool {
	return b.ClusterCount() < fat12MaxClusters
}

// freeFromFSInfo 读取 FAT32 FSInfo 扇区中记录的空闲簇数, 记录不可信时返回false.
func (b *BPB) freeFromFSInfo(r io.ReaderAt) (int64, bool) {
	if b.FSInfoSector == 0 || b.FSInfoSector == 0xFFFF {
		return 0, false
	}
	buf := make([]byte, 512)
	if _, err := r.ReadAt(buf, int64(b.FSInfoSector)*int64(b.BytesPerSector)); err != nil {
		return 0, false
	}
	if binary.LittleEndian.Uint32(buf[0:]) != fsInfoLeadSig ||
		binary.LittleEndian.Uint32(buf[484:]) != fsInfoStructSig {
		return 0, false
	}
	free := binary.LittleEndian.Uint32(buf[488:])
	if free == fsInfoUnknown || int64(free) > b.ClusterCount() {
		return 0, false
	}
	return int64(free), true
}

// scanFreeClusters 扫描第一个FAT表统计空闲簇.
func (b *BPB) scanFreeClusters(r io.ReaderAt) (int64, error) {
	fat := make([]byte, b.FATSectors()*int64(b.BytesPerSector))
	if _, err := r.ReadAt(fat, int64(b.ReservedSectors)*int64(b.BytesPerSector)); err != nil {
		return 0, errors.Wrap(err, "read fat")
	}
	var free int64
	last := b.ClusterCount() + 2
	for c := int64(2); c < last; c++ {
		var v uint32
		switch {
		case b.IsFAT32():
			if (c+1)*4 > int64(len(fat)) {
				return free, nil
			}
			v = binary.LittleEndian.Uint32(fat[c*4:]) & 0x0FFFFFFF
		case b.isFAT12():
			off := c + c/2
			if off+2 > int64(len(fat)) {
				return free, nil
			}
			w := binary.LittleEndian.Uint16(fat[off:])
			if c&1 == 1 {
				w >>= 4
			}
			v = uint32(w & 0x0FFF)
		default:
			if (c+1)*2 > int64(len(fat)) {
				return free, nil
			}
			v = uint32(binary.LittleEndian.Uint16(fat[c*2:]))
		}
		if v == 0 {
			free++
		}
	}
	return free, nil
}

// Stat 返回文件系统的 (空闲字节, 总字节).
func Stat(r io.ReaderAt) (freespace, length int64, err error) {
	bpb, err := ReadBPB(r)
	if err != nil {
		return 0, 0, err
	}
	length = bpb.TotalSectors() * int64(bpb.BytesPerSector)
	if bpb.IsFAT32() {
		if n, ok := bpb.freeFromFSInfo(r); ok {
			return n * bpb.ClusterSize(), length, nil
		}
	}
	n, err := bpb.scanFreeClusters(r)
	if err != nil {
		return 0, length, err
	}
	return n * bpb.ClusterSize(), length, nil
}
