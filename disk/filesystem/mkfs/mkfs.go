package mkfs

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/thoas/go-funk"
	"github.com/thomasphansen/deepin-installer-reborn/disk/filesystem/fossick"
	"github.com/thomasphansen/deepin-installer-reborn/util/command"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// mkfsCommands 各文件系统的格式化命令, 设备路径追加在参数末尾.
var mkfsCommands = map[fossick.Filesystem][]string{
	fossick.EXT2:     {"mkfs.ext2", "-F"},
	fossick.EXT3:     {"mkfs.ext3", "-F"},
	fossick.EXT4:     {"mkfs.ext4", "-F"},
	fossick.FAT16:    {"mkfs.vfat", "-F16"},
	fossick.FAT32:    {"mkfs.vfat", "-F32"},
	fossick.NTFS:     {"mkfs.ntfs", "-Q", "-F"},
	fossick.XFS:      {"mkfs.xfs", "-f"},
	fossick.BTRFS:    {"mkfs.btrfs", "-f"},
	fossick.JFS:      {"mkfs.jfs", "-q"},
	fossick.Swap:     {"mkswap", "-f"},
	fossick.HFSPlus:  {"mkfs.hfsplus"},
	fossick.ReiserFS: {"mkfs.reiserfs", "-f", "-f"},
	fossick.Nilfs2:   {"mkfs.nilfs2", "-f"},
}

// Formatter 调用系统 mkfs 工具格式化分区.
type Formatter struct {
	runner command.Runner
}

func NewFormatter(runner command.Runner) *Formatter {
	return &Formatter{runner: runner}
}

// Supported 返回可格式化的文件系统.
func Supported() []fossick.Filesystem {
	fss := funk.Keys(mkfsCommands).([]fossick.Filesystem)
	sort.Slice(fss, func(i, j int) bool { return fss[i] < fss[j] })
	return fss
}

// Format 在 device 上创建 fs 文件系统, label 非空时同时设置卷标.
func (f *Formatter) Format(device string, fs fossick.Filesystem, label string) error {
	args, ok := mkfsCommands[fs]
	if !ok {
		return errors.Errorf("can not format %s as %q", device, fs)
	}
	args = append(append([]string{}, args[1:]...), labelArgs(fs, label)...)
	args = append(args, device)
	logger.Infof("Format %s as %s", device, fs)
	return f.runner.Run(mkfsCommands[fs][0], args...).AsError()
}

func labelArgs(fs fossick.Filesystem, label string) []string {
	if label == "" {
		return nil
	}
	switch fs {
	case fossick.FAT16, fossick.FAT32:
		return []string{"-n", label}
	case fossick.NTFS, fossick.Swap, fossick.XFS, fossick.BTRFS, fossick.Nilfs2, fossick.EXT2, fossick.EXT3, fossick.EXT4:
		return []string{"-L", label}
	case fossick.JFS, fossick.ReiserFS:
		return []string{"-l", label}
	case fossick.HFSPlus:
		return []string{"-v", label}
	}
	return nil
}
