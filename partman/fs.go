package partman

import (
	"encoding/json"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick"
)

// FsType 分区上的文件系统类型.
type FsType int

const (
	FsUnknown FsType = iota
	FsBtrfs
	FsEFI
	FsExt2
	FsExt3
	FsExt4
	FsFat16
	FsFat32
	FsHfs
	FsHfsPlus
	FsJfs
	FsLinuxSwap
	FsLVM2PV
	FsNilfs2
	FsNTFS
	FsReiserfs
	FsXfs
	FsEmpty
)

// fsNames 名称与类型的对照表, 名称与 parted 报告的文件系统名称一致.
var fsNames = func() *orderedmap.OrderedMap[string, FsType] {
	m := orderedmap.NewOrderedMap[string, FsType]()
	m.Set("unknown", FsUnknown)
	m.Set("btrfs", FsBtrfs)
	m.Set("efi", FsEFI)
	m.Set("ext2", FsExt2)
	m.Set("ext3", FsExt3)
	m.Set("ext4", FsExt4)
	m.Set("fat16", FsFat16)
	m.Set("fat32", FsFat32)
	m.Set("hfs", FsHfs)
	m.Set("hfs+", FsHfsPlus)
	m.Set("jfs", FsJfs)
	m.Set("linux-swap", FsLinuxSwap)
	m.Set("lvm2 pv", FsLVM2PV)
	m.Set("nilfs2", FsNilfs2)
	m.Set("ntfs", FsNTFS)
	m.Set("reiserfs", FsReiserfs)
	m.Set("xfs", FsXfs)
	m.Set("empty", FsEmpty)
	return m
}()

// GetFsTypeByName 按名称查找文件系统类型, 忽略大小写与 "(v1)" 之类的版本后缀.
// 未知名称返回 FsUnknown.
func GetFsTypeByName(name string) FsType {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '('); i > 0 {
		name = name[:i]
	}
	if name == "vfat" || name == "fat" {
		name = "fat32"
	}
	if fs, ok := fsNames.Get(name); ok {
		return fs
	}
	return FsUnknown
}

// FsTypeNames 按固定顺序返回全部文件系统名称.
func FsTypeNames() []string {
	return fsNames.Keys()
}

func (fs FsType) String() string {
	for el := fsNames.Front(); el != nil; el = el.Next() {
		if el.Value == fs {
			return el.Key
		}
	}
	return "unknown"
}

// Filesystem 转换为探测层的文件系统名称, EFI 分区按 fat32 处理.
func (fs FsType) Filesystem() fossick.Filesystem {
	switch fs {
	case FsUnknown, FsEmpty:
		return fossick.Unknown
	case FsEFI:
		return fossick.FAT32
	case FsLinuxSwap:
		return fossick.Swap
	case FsLVM2PV:
		return fossick.LVM2PV
	}
	return fossick.Filesystem(fs.String())
}

func (fs FsType) MarshalJSON() ([]byte, error) {
	return json.Marshal(fs.String())
}

func (fs *FsType) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return errors.Wrap(err, "decode filesystem type")
	}
	*fs = GetFsTypeByName(name)
	return nil
}
