package btrfs

import (
	"bytes"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

const (
	SuperBlockStartOff = 0x10000
	Magic              = "_BHRfS_M"
)

// SuperBlock btrfs 主超级块的头部字段.
type SuperBlock struct {
	Csum       []byte `struc:"[32]byte"`      // 0x00
	FSID       []byte `struc:"[16]byte"`      // 0x20
	Bytenr     uint64 `struc:"uint64,little"` // 0x30
	Flags      uint64 `struc:"uint64,little"` // 0x38
	Magic      []byte `struc:"[8]byte"`       // 0x40
	Generation uint64 `struc:"uint64,little"` // 0x48
	Root       uint64 `struc:"uint64,little"` // 0x50
	ChunkRoot  uint64 `struc:"uint64,little"` // 0x58
	LogRoot    uint64 `struc:"uint64,little"` // 0x60
	LogTransID uint64 `struc:"uint64,little"` // 0x68
	TotalBytes uint64 `struc:"uint64,little"` // 0x70
	BytesUsed  uint64 `struc:"uint64,little"` // 0x78
}

func ReadSuperBlock(r io.ReaderAt) (*SuperBlock, error) {
	buf := make([]byte, 0x80)
	if _, err := r.ReadAt(buf, SuperBlockStartOff); err != nil {
		return nil, errors.Wrap(err, "read btrfs super block")
	}
	sb := new(SuperBlock)
	if err := struc.Unpack(bytes.NewReader(buf), sb); err != nil {
		return nil, errors.Wrap(err, "decode btrfs super block")
	}
	if string(sb.Magic) != Magic {
		return nil, errors.New("invalid btrfs magic")
	}
	return sb, nil
}

// Stat 返回文件系统的 (空闲字节, 总字节).
// 多设备卷的 total_bytes 为全部成员之和.
func Stat(r io.ReaderAt) (freespace, length int64, err error) {
	sb, err := ReadSuperBlock(r)
	if err != nil {
		return 0, 0, err
	}
	if sb.BytesUsed > sb.TotalBytes {
		return 0, int64(sb.TotalBytes), nil
	}
	return int64(sb.TotalBytes - sb.BytesUsed), int64(sb.TotalBytes), nil
}
