package xfs

import (
	"bytes"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/masahiro331/go-xfs-filesystem/xfs"
	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

const Magic = "XFSB"

// SuperBlock XFS 主超级块(大端序)中用于计算容量的字段.
// 布局参考 https://github.com/torvalds/linux/blob/master/fs/xfs/libxfs/xfs_format.h (xfs_dsb).
type SuperBlock struct {
	Magic      []byte `struc:"[4]byte"`    // 0x00
	BlockSize  uint32 `struc:"uint32,big"` // 0x04
	Dblocks    uint64 `struc:"uint64,big"` // 0x08
	Unused0x10 []byte `struc:"[128]byte"`  // 0x10
	Fdblocks   uint64 `struc:"uint64,big"` // 0x90
}

// ReadSuperBlock 读取主超级块.
func ReadSuperBlock(r io.ReaderAt) (*SuperBlock, error) {
	buf := make([]byte, 512)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, errors.Wrap(err, "read xfs super block")
	}
	sb := new(SuperBlock)
	if err := struc.Unpack(bytes.NewReader(buf), sb); err != nil {
		return nil, errors.Wrap(err, "decode xfs super block")
	}
	if string(sb.Magic) != Magic {
		return nil, errors.New("invalid xfs magic")
	}
	return sb, nil
}

// Stat 返回文件系统的 (空闲字节, 总字节).
// 几何信息以 go-xfs-filesystem 解析的结果为准, 空闲块数取自超级块的 sb_fdblocks.
func Stat(r io.ReaderAt, size int64) (freespace, length int64, err error) {
	sb, err := ReadSuperBlock(r)
	if err != nil {
		return 0, 0, err
	}
	blockSize, dblocks := int64(sb.BlockSize), int64(sb.Dblocks)

	sr := *io.NewSectionReader(r, 0, size)
	xfsHandle, err := xfs.NewFS(sr, nil)
	if err != nil {
		logger.Warnf("XFS Stat. go-xfs-filesystem can not open volume, use raw super block: %v", err)
	} else {
		defer xfsHandle.Close()
		blockSize = int64(xfsHandle.PrimaryAG.SuperBlock.BlockSize)
		dblocks = int64(xfsHandle.PrimaryAG.SuperBlock.Dblocks)
	}
	logger.Debugf("XFS Stat. block size %v, data blocks %v, free blocks %v", blockSize, dblocks, sb.Fdblocks)
	return int64(sb.Fdblocks) * blockSize, dblocks * blockSize, nil
}
