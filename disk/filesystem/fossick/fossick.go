package fossick

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// GetFilesystemType 获取指定设备或镜像文件上的文件系统类型.
func GetFilesystemType(filesystemPath string) (fsType Filesystem, err error) {
	fp, err := os.Open(filesystemPath)
	if err != nil {
		return Unknown, err
	}
	defer func() {
		_ = fp.Close()
	}()
	return GetFilesystemTypeByStream(fp)
}

// GetFilesystemTypeByStream 通过各文件系统超级块中的魔数探测文件系统类型,
// 无法识别时返回 Unknown 且不返回错误.
func GetFilesystemTypeByStream(stream io.ReaderAt) (Filesystem, error) {
	header := make([]byte, superBlockProbeSize)
	n, err := stream.ReadAt(header, 0)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Unknown, errors.Wrap(err, "read filesystem header")
	}
	if n < 1024 {
		return Unknown, nil
	}
	return probe(header[:n]), nil
}

func at(b []byte, off int, magic string) bool {
	return off >= 0 && off+len(magic) <= len(b) && string(b[off:off+len(magic)]) == magic
}

func probe(h []byte) Filesystem {
	switch {
	case at(h, 1024+0x38, EXTMagic):
		return extVariant(h[1024:])
	case at(h, 0, XFSMagic):
		return XFS
	case at(h, 3, NTFSMagic):
		return NTFS
	case at(h, 0x52, FAT32TypeName) && at(h, 510, "\x55\xAA"):
		return FAT32
	case at(h, 0x36, FAT16TypeName) && at(h, 510, "\x55\xAA"):
		return FAT16
	case at(h, swapMagicOffsetPageSize-len(SwapMagic), SwapMagic),
		at(h, swapMagicOffsetPageSize-len(SwapMagicV0), SwapMagicV0):
		return Swap
	case at(h, 512, LVM2Label) && at(h, 512+24, LVM2Type):
		return LVM2PV
	case at(h, btrfsSuperBlockMagicOffs, BTRFSMagic):
		return BTRFS
	case at(h, jfsSuperBlockOffset, JFSMagic):
		return JFS
	case at(h, reiserSuperBlockOffset, ReiserMagic):
		return ReiserFS
	case at(h, 1024, HFSPlusMagic), at(h, 1024, HFSXMagic):
		return HFSPlus
	case at(h, 1024+6, Nilfs2Magic):
		return Nilfs2
	case at(h, 32, APFSMagic):
		return APFS
	}
	return Unknown
}

// extVariant 依据特性标志区分 ext2/3/4.
func extVariant(sb []byte) Filesystem {
	compat := binary.LittleEndian.Uint32(sb[0x5C:0x60])
	incompat := binary.LittleEndian.Uint32(sb[0x60:0x64])
	roCompat := binary.LittleEndian.Uint32(sb[0x64:0x68])
	switch {
	case incompat&extIncompatExt4Mask != 0 || roCompat&extRoCompatExt4Mask != 0:
		return EXT4
	case compat&extCompatHasJournal != 0:
		return EXT3
	}
	return EXT2
}
