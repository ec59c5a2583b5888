package storage

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/sys/ioctl"
	"github.com/thomasphansen/deepin-installer-reborn/util/command"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
	"github.com/tidwall/gjson"
)

// ParseLabelDir 解析 /dev/disk/by-label, 返回 设备路径->卷标.
func ParseLabelDir() (map[string]string, error) {
	return parseLinkDir(ioctl.DevDiskByLabel)
}

// ParsePartLabelDir 解析 /dev/disk/by-partlabel, 返回 设备路径->GPT分区名.
func ParsePartLabelDir() (map[string]string, error) {
	return parseLinkDir(ioctl.DevDiskByPartLabel)
}

// parseLinkDir 读取 udev 维护的链接目录, 链接名经 \xNN 解码后作为值.
func parseLinkDir(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %q", dir)
	}
	items := make(map[string]string, len(entries))
	for _, entry := range entries {
		target, err := os.Readlink(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Debugf("parseLinkDir skip %s: %v", entry.Name(), err)
			continue
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		name, err := ioctl.UdevDecode(entry.Name())
		if err != nil {
			logger.Warnf("parseLinkDir failed to decode %q: %v", entry.Name(), err)
			name = entry.Name()
		}
		items[filepath.Clean(target)] = name
	}
	return items, nil
}

// LsblkLabels 通过 lsblk 获取卷标与分区名, 用于 udev 链接目录不存在的环境(如容器).
func LsblkLabels(runner command.Runner) (labels, partLabels map[string]string, err error) {
	res := runner.Run("lsblk", "--json", "--paths", "-o", "NAME,LABEL,PARTLABEL")
	if err = res.AsError(); err != nil {
		return nil, nil, err
	}
	return parseLsblk(res.Stdout)
}

func parseLsblk(out string) (labels, partLabels map[string]string, err error) {
	if !gjson.Valid(out) {
		return nil, nil, errors.New("lsblk returned invalid json")
	}
	labels, partLabels = map[string]string{}, map[string]string{}
	var walk func(devs gjson.Result)
	walk = func(devs gjson.Result) {
		devs.ForEach(func(_, dev gjson.Result) bool {
			name := dev.Get("name").String()
			if l := dev.Get("label").String(); l != "" {
				labels[name] = l
			}
			if l := dev.Get("partlabel").String(); l != "" {
				partLabels[name] = l
			}
			walk(dev.Get("children"))
			return true
		})
	}
	walk(gjson.Get(out, "blockdevices"))
	return labels, partLabels, nil
}
