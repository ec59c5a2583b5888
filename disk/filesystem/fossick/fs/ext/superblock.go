package ext

import (
	"bytes"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

const (
	SuperBlockStartOff = 1024
	SuperBlockSize     = 1024
	Magic              = 0xEF53
	incompat64Bit      = 0x80
)

// SuperBlock EXT2/3/4 超级块中用于计算容量的字段.
// 布局参考 https://www.kernel.org/doc/html/latest/filesystems/ext4/super.html.
type SuperBlock struct {
	InodesCount       uint32 `struc:"uint32,little"` // 0x00
	BlocksCountLo     uint32 `struc:"uint32,little"` // 0x04
	RBlocksCountLo    uint32 `struc:"uint32,little"` // 0x08
	FreeBlocksCountLo uint32 `struc:"uint32,little"` // 0x0C
	FreeInodesCount   uint32 `struc:"uint32,little"` // 0x10
	FirstDataBlock    uint32 `struc:"uint32,little"` // 0x14
	LogBlockSize      uint32 `struc:"uint32,little"` // 0x18
	Unused0x1C        []byte `struc:"[28]byte"`      // 0x1C
	Magic             uint16 `struc:"uint16,little"` // 0x38
	Unused0x3A        []byte `struc:"[34]byte"`      // 0x3A
	FeatureCompat     uint32 `struc:"uint32,little"` // 0x5C
	FeatureIncompat   uint32 `struc:"uint32,little"` // 0x60
	FeatureRoCompat   uint32 `struc:"uint32,little"` // 0x64
	UUID              []byte `struc:"[16]byte"`      // 0x68
	VolumeName        []byte `struc:"[16]byte"`      // 0x78
	Unused0x88        []byte `struc:"[200]byte"`     // 0x88
	BlocksCountHi     uint32 `struc:"uint32,little"` // 0x150
	RBlocksCountHi    uint32 `struc:"uint32,little"` // 0x154
	FreeBlocksCountHi uint32 `struc:"uint32,little"` // 0x158
}

// ReadSuperBlock 读取并校验超级块.
func ReadSuperBlock(r io.ReaderAt) (*SuperBlock, error) {
	buf := make([]byte, SuperBlockSize)
	if _, err := r.ReadAt(buf, SuperBlockStartOff); err != nil {
		return nil, errors.Errorf("failed to read super block of ext2/3/4, %v", err)
	}
	sb := new(SuperBlock)
	if err := struc.Unpack(bytes.NewReader(buf), sb); err != nil {
		return nil, errors.Wrap(err, "decode ext super block")
	}
	if sb.Magic != Magic {
		return nil, errors.Errorf("invalid ext magic %#x", sb.Magic)
	}
	return sb, nil
}

func (sb *SuperBlock) BlockSize() int64 {
	return int64(1024) << sb.LogBlockSize
}

func (sb *SuperBlock) is64Bit() bool {
	return sb.FeatureIncompat&incompat64Bit != 0
}

func (sb *SuperBlock) BlocksCount() int64 {
	n := int64(sb.BlocksCountLo)
	if sb.is64Bit() {
		n |= int64(sb.BlocksCountHi) << 32
	}
	return n
}

func (sb *SuperBlock) FreeBlocksCount() int64 {
	n := int64(sb.FreeBlocksCountLo)
	if sb.is64Bit() {
		n |= int64(sb.FreeBlocksCountHi) << 32
	}
	return n
}

// Stat 返回文件系统的 (空闲字节, 总字节).
func Stat(r io.ReaderAt) (freespace, length int64, err error) {
	sb, err := ReadSuperBlock(r)
	if err != nil {
		return 0, 0, err
	}
	return sb.FreeBlocksCount() * sb.BlockSize(), sb.BlocksCount() * sb.BlockSize(), nil
}
